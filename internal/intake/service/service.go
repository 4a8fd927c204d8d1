// Package service orchestrates the prior authorization intake pipeline:
// validation, identifier assignment, persistence, and status transition,
// with a span per stage and an audit event per transition.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"priorauth/internal/intake/audit"
	"priorauth/internal/intake/idgen"
	"priorauth/internal/intake/metrics"
	"priorauth/internal/intake/models"
	"priorauth/internal/intake/store"
	"priorauth/internal/intake/tracer"
	"priorauth/internal/intake/validate"
	dErrors "priorauth/pkg/domain-errors"
)

// Endpoint labels used on the request counter.
const (
	EndpointSubmit     = "/prior-auth/submit"
	EndpointRequests   = "/prior-auth/requests"
	EndpointTestErrors = "/prior-auth/test/errors"
)

// Stage labels used on the stage duration histogram.
const (
	StageGenerateID         = "generate_request_id"
	StageSchemaValidation   = "schema_validation"
	StageBusinessValidation = "business_validation"
	StageVIPDelay           = "vip_delay"
	StageDatabaseInsert     = "database_insert"
)

// Named test error conditions accepted by TriggerError.
const (
	ErrorTypeDatabaseTimeout = "database_timeout"
	ErrorTypeValidation      = "validation_error"
)

const listLimit = 100

// Service is the intake pipeline. Each submission runs independently;
// the identifier generator and the store are the only shared resources.
type Service struct {
	store   store.Store
	audit   *audit.Recorder
	idgen   *idgen.Generator
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	logger  *slog.Logger

	vipMemberID      string
	vipDelay         time.Duration
	simulatedTimeout time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches pipeline metrics. Without it, metric recording is a no-op.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithVIPPath enables the deliberate fixed-latency stage for submissions
// from the given member id. This is a demo fixture for showing that trace
// spans carry duration while aggregate counters do not; it must not be
// optimized away.
func WithVIPPath(memberID string, delay time.Duration) Option {
	return func(s *Service) {
		s.vipMemberID = memberID
		s.vipDelay = delay
	}
}

// WithSimulatedTimeout sets the delay used by the database_timeout test error.
func WithSimulatedTimeout(d time.Duration) Option {
	return func(s *Service) { s.simulatedTimeout = d }
}

// New creates the intake service.
func New(st store.Store, rec *audit.Recorder, gen *idgen.Generator, opts ...Option) *Service {
	s := &Service{
		store:            st,
		audit:            rec,
		idgen:            gen,
		tracer:           tracer.NewNoop(),
		logger:           slog.Default(),
		simulatedTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs the full intake pipeline for one submission. On success the
// returned request is persisted with status pending and its audit trail
// contains exactly REQUEST_RECEIVED, VALIDATION_PASSED, SAVED_TO_DATABASE,
// STATUS_PENDING in that order.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (*models.Request, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanSubmit,
		tracer.String(tracer.AttrMemberID, sub.MemberID),
		tracer.String(tracer.AttrProviderNPI, sub.ProviderNPI),
	)

	request, err := s.submit(ctx, span, sub)

	span.End(err)
	s.metrics.ObserveRequestDuration(EndpointSubmit, time.Since(start).Seconds())
	return request, err
}

func (s *Service) submit(ctx context.Context, span tracer.Span, sub models.Submission) (*models.Request, error) {
	// The identifier doubles as the audit correlation id, so it is
	// allocated before validation. Rejected submissions burn a sequence
	// number; the trail may reference ids that never reached the store.
	requestID, err := s.generateID(ctx)
	if err != nil {
		s.audit.Record(ctx, errorCorrelationID(), audit.EventIDGenerationFailed, err.Error())
		s.metrics.RecordRequest("error", EndpointSubmit)
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrRequestID, requestID))

	s.logger.InfoContext(ctx, "received prior auth request",
		"request_id", requestID,
		"provider_npi", sub.ProviderNPI,
	)
	s.audit.Record(ctx, requestID, audit.EventRequestReceived,
		"submitted by provider NPI "+sub.ProviderNPI)

	if err := s.checkSchema(ctx, requestID, sub); err != nil {
		return nil, err
	}
	if err := s.checkBusiness(ctx, requestID, sub); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, requestID, audit.EventValidationPassed, "all required fields validated")

	if s.vipDelay > 0 && sub.MemberID == s.vipMemberID {
		s.runVIPDelay(ctx, requestID)
	}

	request := &models.Request{
		ID:               requestID,
		MemberID:         sub.MemberID,
		ProviderNPI:      sub.ProviderNPI,
		DiagnosisCode:    sub.DiagnosisCode,
		RequestedService: sub.RequestedService,
		Status:           models.StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.persist(ctx, request); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, request.ID, audit.EventSavedToDatabase,
		"request saved for member "+sub.MemberID)
	s.audit.Record(ctx, request.ID, audit.EventStatusPending, "awaiting review")

	s.logger.InfoContext(ctx, "created prior auth request", "request_id", request.ID)
	s.metrics.RecordRequest("success", EndpointSubmit)
	return request, nil
}

// generateID allocates the next request identifier inside its own span.
func (s *Service) generateID(ctx context.Context) (string, error) {
	_, span := s.tracer.Start(ctx, tracer.SpanGenerateID)
	start := time.Now()

	requestID, err := s.idgen.Next(ctx)

	s.metrics.ObserveStageDuration(StageGenerateID, time.Since(start).Seconds())
	span.End(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "request id generation failed", "error", err)
		return "", err
	}
	return requestID, nil
}

// checkSchema runs the structural validation stage.
func (s *Service) checkSchema(ctx context.Context, requestID string, sub models.Submission) error {
	_, span := s.tracer.Start(ctx, tracer.SpanSchemaCheck)
	start := time.Now()

	schemaErr := validate.Schema(sub)

	s.metrics.ObserveStageDuration(StageSchemaValidation, time.Since(start).Seconds())
	if schemaErr == nil {
		span.End(nil)
		return nil
	}
	span.SetAttributes(tracer.String(tracer.AttrFailureRule, schemaErr.Rule))
	span.End(schemaErr)

	s.logger.WarnContext(ctx, "schema validation failed",
		"request_id", requestID,
		"rule", schemaErr.Rule,
		"fields", schemaErr.Fields,
	)
	s.audit.Record(ctx, requestID, audit.EventValidationFailed, schemaErr.Error())
	s.metrics.RecordValidationFailure(schemaErr.Rule)
	s.metrics.RecordRequest("validation_error", EndpointSubmit)
	return dErrors.Wrap(schemaErr, dErrors.CodeSchemaValidation, schemaErr.Error())
}

// checkBusiness runs the semantic validation stage. It only executes after
// the schema stage has passed.
func (s *Service) checkBusiness(ctx context.Context, requestID string, sub models.Submission) error {
	_, span := s.tracer.Start(ctx, tracer.SpanBusinessCheck)
	start := time.Now()

	bizErr := validate.Business(sub)

	s.metrics.ObserveStageDuration(StageBusinessValidation, time.Since(start).Seconds())
	if bizErr == nil {
		span.End(nil)
		return nil
	}
	span.SetAttributes(tracer.String(tracer.AttrFailureRule, bizErr.Rule))
	span.End(bizErr)

	s.logger.WarnContext(ctx, "business validation failed",
		"request_id", requestID,
		"rule", bizErr.Rule,
		"provider_npi", sub.ProviderNPI,
	)
	s.audit.Record(ctx, requestID, audit.EventValidationFailed, bizErr.Error())
	s.metrics.RecordValidationFailure(bizErr.Rule)
	s.metrics.RecordRequest("validation_error", EndpointSubmit)
	return dErrors.Wrap(bizErr, dErrors.CodeBusinessRule, bizErr.Message)
}

// runVIPDelay holds the submission for the configured duration inside its
// own span. The delay shows up in the trace but the request still counts
// once on the request counter.
func (s *Service) runVIPDelay(ctx context.Context, requestID string) {
	_, span := s.tracer.Start(ctx, tracer.SpanVIPDelay,
		tracer.Duration(tracer.AttrDelayMs, s.vipDelay),
		tracer.String(tracer.AttrReason, "simulating database contention"),
	)
	start := time.Now()

	s.logger.WarnContext(ctx, "vip member submission, simulating slow query",
		"request_id", requestID,
		"delay_ms", s.vipDelay.Milliseconds(),
	)
	select {
	case <-time.After(s.vipDelay):
	case <-ctx.Done():
	}

	s.metrics.ObserveStageDuration(StageVIPDelay, time.Since(start).Seconds())
	span.End(ctx.Err())
}

// persist writes the request, retrying exactly once with a fresh identifier
// if the store reports a collision.
func (s *Service) persist(ctx context.Context, request *models.Request) error {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDatabaseInsert,
		tracer.String(tracer.AttrRequestID, request.ID),
	)
	start := time.Now()

	err := s.store.Create(ctx, request)
	if errors.Is(err, store.ErrDuplicateID) {
		retryID, genErr := s.idgen.Next(ctx)
		if genErr != nil {
			err = genErr
		} else {
			s.logger.WarnContext(ctx, "request id collision, retrying once",
				"request_id", request.ID,
				"retry_id", retryID,
			)
			request.ID = retryID
			span.SetAttributes(tracer.String(tracer.AttrRequestID, retryID))
			err = s.store.Create(ctx, request)
		}
	}

	s.metrics.ObserveStageDuration(StageDatabaseInsert, time.Since(start).Seconds())
	span.End(err)

	if err != nil {
		s.logger.ErrorContext(ctx, "persist failed", "request_id", request.ID, "error", err)
		// Best-effort negative audit; the trail keeps the failure even
		// though the request row does not exist.
		s.audit.Record(ctx, request.ID, audit.EventPersistFailed, err.Error())
		s.metrics.RecordRequest("error", EndpointSubmit)
		return err
	}

	s.metrics.RecordDatabaseOperation("insert_request")
	return nil
}

// Get retrieves a persisted request by identifier.
func (s *Service) Get(ctx context.Context, requestID string) (*models.Request, error) {
	request, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDatabaseOperation("select_request")
	return request, nil
}

// List returns recent requests, newest first.
func (s *Service) List(ctx context.Context) ([]*models.Request, error) {
	start := time.Now()
	requests, err := s.store.List(ctx, listLimit)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDatabaseOperation("select_requests")
	s.metrics.RecordRequest("success", EndpointRequests)
	s.metrics.ObserveRequestDuration(EndpointRequests, time.Since(start).Seconds())
	return requests, nil
}

// Events returns the ordered audit trail for a request id. An unknown id
// yields an empty trail, not an error.
func (s *Service) Events(ctx context.Context, requestID string) ([]audit.Event, error) {
	events, err := s.audit.List(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDatabaseOperation("select_logs")
	return events, nil
}

// TriggerError exercises a named failure path for observability demos. It
// is segregated from real submissions: its audit trail lives under an
// ERROR- correlation id that can never collide with assigned PA- ids.
// It returns the correlation id along with the triggered error.
func (s *Service) TriggerError(ctx context.Context, errorType string) (string, error) {
	errorID := errorCorrelationID()
	ctx, span := s.tracer.Start(ctx, tracer.SpanTestError,
		tracer.String(tracer.AttrErrorType, errorType),
	)

	s.logger.WarnContext(ctx, "triggering test error", "error_type", errorType, "error_id", errorID)
	s.audit.Record(ctx, errorID, audit.EventErrorTestStarted, "testing "+errorType)

	var err error
	switch errorType {
	case ErrorTypeDatabaseTimeout:
		s.audit.Record(ctx, errorID, audit.EventDatabaseSlow,
			fmt.Sprintf("simulating %s timeout", s.simulatedTimeout))
		select {
		case <-time.After(s.simulatedTimeout):
		case <-ctx.Done():
		}
		s.audit.Record(ctx, errorID, audit.EventDatabaseTimeout, "query exceeded timeout threshold")
		s.metrics.RecordRequest("timeout_error", EndpointTestErrors)
		err = dErrors.New(dErrors.CodeStoreUnavailable, "database timeout")

	case ErrorTypeValidation:
		s.audit.Record(ctx, errorID, audit.EventTestErrorTriggered, "missing required field")
		s.metrics.RecordRequest("validation_error", EndpointTestErrors)
		err = dErrors.New(dErrors.CodeBadRequest, "validation failed")

	default:
		err = dErrors.New(dErrors.CodeBadRequest, "unknown error type: "+errorType)
	}

	span.End(err)
	return errorID, err
}

// errorCorrelationID issues an identifier for audit events that have no
// request identifier to attach to.
func errorCorrelationID() string {
	return fmt.Sprintf("ERROR-%d", time.Now().UnixNano())
}
