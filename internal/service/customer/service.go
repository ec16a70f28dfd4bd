package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/pkg/logger"
)

// MsgCreated is the confirmation message returned on creation.
const MsgCreated = "New Customer created"

// Service implements customer business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the source of "today" used for DOB checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a customer service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateResult is the confirmation payload returned by CreateCustomer.
type CreateResult struct {
	Message  string          `json:"message"`
	Customer domain.Customer `json:"customer"`
}

// ListCustomers returns every stored customer.
func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	return customers, nil
}

// CreateCustomer validates in and persists it. Validation failures are
// returned as *domain.ValidationError.
func (s *Service) CreateCustomer(ctx context.Context, in domain.CustomerInput) (*CreateResult, error) {
	if verr := in.Validate(); verr != nil {
		return nil, verr
	}
	if _, verr := domain.ValidateDOB(*in.DOB, s.now()); verr != nil {
		return nil, verr
	}

	c := in.ToCustomer()
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	logger.Info("customer created", "customer_id", c.ID)
	return &CreateResult{Message: MsgCreated, Customer: c}, nil
}
