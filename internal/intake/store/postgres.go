package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"priorauth/internal/intake/models"
	dErrors "priorauth/pkg/domain-errors"
)

// Postgres persists requests in the prior_auth_requests table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed request store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Create persists the request. The unique constraint on request_id is the
// ultimate backstop against duplicate identifier allocation.
func (s *Postgres) Create(ctx context.Context, request *models.Request) error {
	if request == nil {
		return fmt.Errorf("request is required")
	}
	query := `
		INSERT INTO prior_auth_requests
			(request_id, member_id, provider_npi, diagnosis_code, requested_service, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		request.ID,
		request.MemberID,
		request.ProviderNPI,
		request.DiagnosisCode,
		request.RequestedService,
		string(request.Status),
		request.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "create request")
	}
	return nil
}

// Get retrieves a request by identifier.
func (s *Postgres) Get(ctx context.Context, requestID string) (*models.Request, error) {
	query := `
		SELECT request_id, member_id, provider_npi, diagnosis_code, requested_service, status, created_at
		FROM prior_auth_requests
		WHERE request_id = $1
	`
	request, err := scanRequest(s.db.QueryRowContext(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "get request")
	}
	return request, nil
}

// List returns up to limit requests, newest first.
func (s *Postgres) List(ctx context.Context, limit int) ([]*models.Request, error) {
	query := `
		SELECT request_id, member_id, provider_npi, diagnosis_code, requested_service, status, created_at
		FROM prior_auth_requests
		ORDER BY created_at DESC, request_id DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "list requests")
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus mutates the status field of an existing request.
func (s *Postgres) UpdateStatus(ctx context.Context, requestID string, status models.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prior_auth_requests SET status = $2 WHERE request_id = $1`,
		requestID, string(status),
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "update status")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of persisted requests.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prior_auth_requests`).Scan(&count); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "count requests")
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (*models.Request, error) {
	var r models.Request
	var status string
	if err := row.Scan(
		&r.ID,
		&r.MemberID,
		&r.ProviderNPI,
		&r.DiagnosisCode,
		&r.RequestedService,
		&status,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = models.Status(status)
	return &r, nil
}

// isUniqueViolation checks for PostgreSQL unique constraint violations (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
