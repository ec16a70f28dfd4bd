package activity

import (
	"context"

	"github.com/mergington/activities-portal/internal/domain"
)

// Repository defines the data access contract for activities.
type Repository interface {
	// List returns every activity keyed by name. The returned values must
	// not alias the store's internal state.
	List(ctx context.Context) (map[string]domain.Activity, error)

	// AddParticipant appends email to the named activity's roster.
	// Returns ErrNotFound if no activity has that name. Implementations
	// must serialise appends so no update is lost.
	AddParticipant(ctx context.Context, name, email string) error

	// Get returns a single activity. Returns ErrNotFound if absent.
	Get(ctx context.Context, name string) (domain.Activity, error)
}

// Notifier is told about every successful signup.
type Notifier interface {
	SignupConfirmed(ctx context.Context, a domain.Activity, email string) error
}
