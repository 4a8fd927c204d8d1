package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit trails in memory for tests and the demo
// environment. Events are stored in append order per request.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

// Append records the event under its request id.
func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RequestID] = append(s.events[event.RequestID], event)
	return nil
}

// ListByRequest returns a copy of the trail in append order.
func (s *InMemoryStore) ListByRequest(_ context.Context, requestID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[requestID]...), nil
}

// Clear drops all events. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]Event)
}
