package store

import (
	"context"
	"slices"
	"sync"

	"collegeportal/pkg/platform/sentinel"
)

// InMemory keeps slots in process memory. Slots do not survive a restart.
type InMemory struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{slots: make(map[string][]byte)}
}

func (s *InMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *InMemory) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = slices.Clone(value)
	return nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
