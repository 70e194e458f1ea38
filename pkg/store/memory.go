package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store for tests and single-node runs
// without redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]TaskRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]TaskRecord)}
}

// Get returns the record for a task ID, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, taskID string) (*TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[taskID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Set writes the terminal record for a task ID.
func (s *MemoryStore) Set(_ context.Context, taskID string, rec *TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[taskID] = *rec
	return nil
}
