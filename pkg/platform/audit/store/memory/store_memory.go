// Package memory keeps audit events in process. It backs tests and
// deployments that run without Kafka.
package memory

import (
	"context"
	"slices"
	"sync"

	audit "registrar/pkg/platform/audit"
)

// InMemoryStore indexes events by attempt id in arrival order.
type InMemoryStore struct {
	mu        sync.RWMutex
	byAttempt map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byAttempt: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byAttempt[event.AttemptID] = append(s.byAttempt[event.AttemptID], event)
	return nil
}

// ListByAttempt returns a copy of the attempt's events, oldest first.
func (s *InMemoryStore) ListByAttempt(_ context.Context, attemptID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byAttempt[attemptID]), nil
}
