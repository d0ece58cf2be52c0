package memory

import (
	"context"
	"sync"

	"awakening-quiz-engine/internal/domain"
)

// ProgressStore is an in-memory implementation of engine.ProgressStore,
// suitable for tests and single-process hosts without durable storage.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		records: make(map[string]domain.Progress),
	}
}

func (s *ProgressStore) Get(_ context.Context, bookID string) (*domain.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[bookID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *ProgressStore) Put(_ context.Context, bookID string, progress domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[bookID] = progress
	return nil
}
