package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in the request_logs table.
// The table has no foreign key to prior_auth_requests: events may reference
// identifiers that never completed persistence.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts one audit event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO request_logs (request_id, event_type, message, timestamp)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.RequestID,
		string(event.Type),
		event.Message,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByRequest returns the trail ascending by timestamp. The id tiebreak
// keeps events appended within the same microsecond in insertion order.
func (s *PostgresStore) ListByRequest(ctx context.Context, requestID string) ([]Event, error) {
	query := `
		SELECT request_id, event_type, message, timestamp
		FROM request_logs
		WHERE request_id = $1
		ORDER BY timestamp, id
	`
	rows, err := s.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var eventType string
		if err := rows.Scan(&e.RequestID, &eventType, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = EventType(eventType)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
