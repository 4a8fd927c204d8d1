// Package store persists canonical prior authorization requests.
package store

import (
	"context"

	"priorauth/internal/intake/models"
	dErrors "priorauth/pkg/domain-errors"
)

var (
	// ErrNotFound is returned when no request exists for an identifier.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "request not found")

	// ErrDuplicateID is returned when a create collides on request_id.
	// The write fails; the existing record is never overwritten.
	ErrDuplicateID = dErrors.New(dErrors.CodeDuplicateIdentifier, "request_id already exists")
)

// Store is the request persistence boundary.
type Store interface {
	// Create persists the request atomically. Fails with ErrDuplicateID on
	// an identifier collision and a store_unavailable domain error on
	// transport failure.
	Create(ctx context.Context, request *models.Request) error

	// Get returns the request or ErrNotFound.
	Get(ctx context.Context, requestID string) (*models.Request, error)

	// List returns up to limit requests, newest first.
	List(ctx context.Context, limit int) ([]*models.Request, error)

	// UpdateStatus mutates the status field, the only mutable part of a
	// persisted request. Reserved for the approval workflow.
	UpdateStatus(ctx context.Context, requestID string, status models.Status) error

	// Count returns the number of persisted requests.
	Count(ctx context.Context) (int, error)
}
