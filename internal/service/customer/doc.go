// Package customer implements the customer registry: validating candidate
// records, age-gating them at creation and listing what has been stored.
//
// Validation runs in a fixed order and stops at the first failure:
// required fields, DOB format, DOB not in the future, age of at least 18.
// Nothing is persisted unless every check passes.
package customer
