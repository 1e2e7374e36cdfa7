package audit

import (
	"context"
	"sync"
)

// DefaultMaxEvents caps an InMemoryStore built without WithMaxEvents.
const DefaultMaxEvents = 10000

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// InMemoryStore keeps the most recent events for inspection in tests and
// single-process deployments. Once full, the oldest event is dropped.
type InMemoryStore struct {
	mu     sync.RWMutex
	max    int
	events []Event
}

type StoreOption func(*InMemoryStore)

// WithMaxEvents bounds the number of retained events.
func WithMaxEvents(n int) StoreOption {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.max = n
		}
	}
}

func NewInMemoryStore(opts ...StoreOption) *InMemoryStore {
	s := &InMemoryStore{max: DefaultMaxEvents}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.max {
		// shift in place so the backing array never grows past max
		copy(s.events, s.events[1:])
		s.events = s.events[:len(s.events)-1]
	}
	s.events = append(s.events, event)
	return nil
}

// ListByClient returns the retained events of clientID, oldest first.
func (s *InMemoryStore) ListByClient(_ context.Context, clientID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for _, e := range s.events {
		if e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports how many events are retained.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
