package memory

import (
	"context"
	"sync"

	"registrar/internal/registration/journal"
	"registrar/pkg/domain"
	"registrar/pkg/platform/sentinel"
)

// InMemoryStore keeps attempts for the lifetime of the process.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.AttemptID]journal.Entry
}

func New() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.AttemptID]journal.Entry)}
}

func (s *InMemoryStore) Save(_ context.Context, entry journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.AttemptID] = entry
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.AttemptID) (journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return journal.Entry{}, sentinel.ErrNotFound
	}
	return entry, nil
}
