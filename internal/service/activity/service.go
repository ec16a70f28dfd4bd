package activity

import (
	"context"
	"fmt"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/pkg/logger"
)

// Service implements activity business logic. It is safe for concurrent use
// as long as the Repository is.
type Service struct {
	repo     Repository
	notifier Notifier
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sends signup confirmations through n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService creates an activity service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignupResult is the confirmation returned by Signup.
type SignupResult struct {
	Message string `json:"message"`
}

// ListActivities returns the full activity mapping, unfiltered.
func (s *Service) ListActivities(ctx context.Context) (map[string]domain.Activity, error) {
	return s.repo.List(ctx)
}

// Signup appends email to the named activity's participants. Duplicates,
// capacity and the e-mail's format are not checked.
func (s *Service) Signup(ctx context.Context, name, email string) (*SignupResult, error) {
	if err := s.repo.AddParticipant(ctx, name, email); err != nil {
		return nil, err
	}

	logger.Info("activity signup", "activity", name, "email", email)
	s.notify(ctx, name, email)

	return &SignupResult{Message: fmt.Sprintf("Signed up %s for %s", email, name)}, nil
}

// notify is best effort: the signup has already been recorded.
func (s *Service) notify(ctx context.Context, name, email string) {
	if s.notifier == nil {
		return
	}
	a, err := s.repo.Get(ctx, name)
	if err != nil {
		logger.Warn("signup notification skipped", "activity", name, "error", err)
		return
	}
	if err := s.notifier.SignupConfirmed(ctx, a, email); err != nil {
		logger.Warn("signup notification failed", "activity", name, "email", email, "error", err)
	}
}
