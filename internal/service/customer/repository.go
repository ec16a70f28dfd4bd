package customer

import (
	"context"

	"github.com/mergington/activities-portal/internal/domain"
)

// Repository defines the data access contract for customers.
type Repository interface {
	// List returns every stored customer in insertion order.
	List(ctx context.Context) ([]domain.Customer, error)

	// Create inserts c and sets c.ID to the assigned identifier. The insert
	// and id assignment are committed together before Create returns.
	Create(ctx context.Context, c *domain.Customer) error
}
