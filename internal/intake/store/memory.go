package store

import (
	"context"
	"sync"

	"priorauth/internal/intake/models"
)

// InMemory stores requests in memory for tests and the demo environment.
type InMemory struct {
	mu       sync.RWMutex
	requests map[string]*models.Request
	order    []string // insertion order, oldest first
}

// NewInMemory creates an empty in-memory request store.
func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[string]*models.Request)}
}

// Create persists the request, failing on an identifier collision.
func (s *InMemory) Create(_ context.Context, request *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[request.ID]; exists {
		return ErrDuplicateID
	}
	copied := *request
	s.requests[request.ID] = &copied
	s.order = append(s.order, request.ID)
	return nil
}

// Get returns a copy of the stored request so callers cannot mutate the record.
func (s *InMemory) Get(_ context.Context, requestID string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

// List returns up to limit requests, newest first.
func (s *InMemory) List(_ context.Context, limit int) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Request, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *s.requests[s.order[i]]
		result = append(result, &copied)
	}
	return result, nil
}

// UpdateStatus mutates the status of an existing request.
func (s *InMemory) UpdateStatus(_ context.Context, requestID string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = status
	return nil
}

// Count returns the number of stored requests.
func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}
