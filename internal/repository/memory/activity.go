// Package memory holds process-lifetime stores. Their contents are lost on
// restart.
package memory

import (
	"context"
	"sync"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/service/activity"
)

// ActivityStore implements activity.Repository over a map guarded by a
// RWMutex. Signups hold the write lock for the whole append, so concurrent
// signups to one activity are serialised and never lose an update.
type ActivityStore struct {
	mu         sync.RWMutex
	activities map[string]*domain.Activity
}

// NewActivityStore returns a store holding copies of seed.
func NewActivityStore(seed []domain.Activity) *ActivityStore {
	s := &ActivityStore{activities: make(map[string]*domain.Activity, len(seed))}
	for _, a := range seed {
		c := a.Clone()
		s.activities[c.Name] = &c
	}
	return s
}

func (s *ActivityStore) List(_ context.Context) (map[string]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Activity, len(s.activities))
	for name, a := range s.activities {
		out[name] = a.Clone()
	}
	return out, nil
}

func (s *ActivityStore) Get(_ context.Context, name string) (domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[name]
	if !ok {
		return domain.Activity{}, activity.ErrNotFound
	}
	return a.Clone(), nil
}

func (s *ActivityStore) AddParticipant(_ context.Context, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[name]
	if !ok {
		return activity.ErrNotFound
	}
	a.Participants = append(a.Participants, email)
	return nil
}
