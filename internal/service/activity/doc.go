// Package activity implements the activity directory: listing the
// extracurricular offerings and signing students up for them.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or a storage driver directly.
//
// Capacity (max_participants) is recorded but deliberately not enforced,
// and participant emails are accepted as free text.
package activity
