// Package audit records the append-only trail of request processing events.
package audit

import "context"

// Store persists audit events. Implementations must keep per-request
// emission order: ListByRequest returns events ascending by timestamp.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListByRequest returns the ordered trail for a request id. An unknown
	// id yields an empty slice, not an error.
	ListByRequest(ctx context.Context, requestID string) ([]Event, error)
}
