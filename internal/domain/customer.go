package domain

import (
	"time"
)

// MinimumCustomerAge is the youngest age, in whole years, a customer may be
// registered at.
const MinimumCustomerAge = 18

// DOBLayout is the only accepted date-of-birth format.
const DOBLayout = "2006-01-02"

// Validation messages returned to clients verbatim.
const (
	MsgInvalidDOBFormat = "Invalid DOB format. Use YYYY-MM-DD"
	MsgDOBInFuture      = "DOB cannot be in the future"
	MsgUnderage         = "Customer must be at least 18 years old"
	MsgMissingFields    = "Missing required customer fields"
	MsgFieldRequired    = "field required"
)

// Customer is a registered individual's identity and address record.
type Customer struct {
	ID           int64   `json:"id" db:"id"`
	FirstName    string  `json:"first_name" db:"first_name"`
	MiddleName   *string `json:"middle_name" db:"middle_name"`
	LastName     string  `json:"last_name" db:"last_name"`
	DOB          string  `json:"dob" db:"dob"`
	AddressLine1 string  `json:"address_line_1" db:"address_line_1"`
	ZipCode      string  `json:"zip_code" db:"zip_code"`
	City         string  `json:"city" db:"city"`
	State        string  `json:"state" db:"state"`
	Country      string  `json:"country" db:"country"`
}

// CustomerInput is a candidate customer record as submitted by a client.
// Required fields are pointers so an absent or null key can be told apart
// from an empty string; empty strings are accepted and stored as given.
type CustomerInput struct {
	FirstName    *string `json:"first_name"`
	MiddleName   *string `json:"middle_name"`
	LastName     *string `json:"last_name"`
	DOB          *string `json:"dob"`
	AddressLine1 *string `json:"address_line_1"`
	ZipCode      *string `json:"zip_code"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Country      *string `json:"country"`
}

// ValidationError reports client-correctable input. Fields is set only for
// missing required fields.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// MissingFields reports whether the error came from the required-field check.
func (e *ValidationError) MissingFields() bool { return len(e.Fields) > 0 }

// Validate checks that every required field is present. Values are not
// inspected; DOB content is validated separately by ValidateDOB.
func (in CustomerInput) Validate() *ValidationError {
	required := []struct {
		name  string
		value *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"dob", in.DOB},
		{"address_line_1", in.AddressLine1},
		{"zip_code", in.ZipCode},
		{"city", in.City},
		{"state", in.State},
		{"country", in.Country},
	}

	fields := make(map[string]string)
	for _, f := range required {
		if f.value == nil {
			fields[f.name] = MsgFieldRequired
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Message: MsgMissingFields, Fields: fields}
	}
	return nil
}

// ToCustomer converts an input into an unsaved Customer. Absent required
// fields become empty strings; call Validate first.
func (in CustomerInput) ToCustomer() Customer {
	return Customer{
		FirstName:    deref(in.FirstName),
		MiddleName:   in.MiddleName,
		LastName:     deref(in.LastName),
		DOB:          deref(in.DOB),
		AddressLine1: deref(in.AddressLine1),
		ZipCode:      deref(in.ZipCode),
		City:         deref(in.City),
		State:        deref(in.State),
		Country:      deref(in.Country),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ParseDOB parses a YYYY-MM-DD calendar date. Out-of-range days such as
// 2023-02-30 are rejected.
func ParseDOB(s string) (time.Time, error) {
	return time.Parse(DOBLayout, s)
}

// AgeOn returns the age in whole years on the calendar day today: the year
// difference, less one if today's month/day precedes the birth month/day.
func AgeOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// ValidateDOB applies the DOB rules in order, stopping at the first failure:
// format, not in the future, at least MinimumCustomerAge years old.
// Only the calendar date of today is considered.
func ValidateDOB(s string, today time.Time) (time.Time, *ValidationError) {
	dob, err := ParseDOB(s)
	if err != nil {
		return time.Time{}, &ValidationError{Message: MsgInvalidDOBFormat}
	}

	day := civilDate(today)
	if dob.After(day) {
		return time.Time{}, &ValidationError{Message: MsgDOBInFuture}
	}
	if AgeOn(dob, day) < MinimumCustomerAge {
		return time.Time{}, &ValidationError{Message: MsgUnderage}
	}
	return dob, nil
}

// civilDate drops the clock and zone from t, keeping t's calendar day in UTC
// so it compares cleanly against dates from ParseDOB.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
