package activity

import "errors"

// Sentinel errors for the activity service layer.
var (
	ErrNotFound = errors.New("activity not found")
)
