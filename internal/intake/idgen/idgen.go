// Package idgen allocates request identifiers of the form PA-NNNNN.
//
// Allocation must stay unique under concurrent submissions, so both
// sequence implementations use atomic primitives rather than a
// read-then-increment pattern. The store's uniqueness constraint on
// request_id remains the ultimate backstop.
package idgen

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	dErrors "priorauth/pkg/domain-errors"
)

// Prefix is the identifier namespace for real submissions. Test-error
// correlation ids use a different prefix and never collide with it.
const Prefix = "PA"

// Sequence yields strictly increasing allocation numbers.
// Implementations must be safe for concurrent use.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// Generator formats sequence numbers into request identifiers.
type Generator struct {
	seq Sequence
}

// New creates a Generator over the given sequence.
func New(seq Sequence) *Generator {
	return &Generator{seq: seq}
}

// Next allocates the next request identifier.
func (g *Generator) Next(ctx context.Context) (string, error) {
	n, err := g.seq.Next(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeIDGeneration, "allocate request id")
	}
	return Format(n), nil
}

// Format renders a sequence number as a zero-padded request identifier.
func Format(n int64) string {
	return fmt.Sprintf("%s-%05d", Prefix, n)
}

// MemorySequence is an in-process atomic counter.
type MemorySequence struct {
	counter atomic.Int64
}

// NewMemorySequence creates a sequence whose first allocation is start+1.
func NewMemorySequence(start int64) *MemorySequence {
	s := &MemorySequence{}
	s.counter.Store(start)
	return s
}

// Next returns the next counter value.
func (s *MemorySequence) Next(_ context.Context) (int64, error) {
	return s.counter.Add(1), nil
}

// PostgresSequence allocates from a database sequence, making identifiers
// unique across processes.
type PostgresSequence struct {
	db *sql.DB
}

// NewPostgresSequence creates a database-backed sequence.
func NewPostgresSequence(db *sql.DB) *PostgresSequence {
	return &PostgresSequence{db: db}
}

// Next pulls the next value from the prior_auth_request_seq sequence.
func (s *PostgresSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('prior_auth_request_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("nextval prior_auth_request_seq: %w", err)
	}
	return n, nil
}
