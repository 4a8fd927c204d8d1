// Package tracer provides a lightweight tracing abstraction for the intake
// pipeline.
//
// The pipeline emits a span per stage without depending directly on
// OpenTelemetry APIs. Instrumentation is fire-and-forget relative to
// business logic: span recording never alters control flow or outcomes.
//
// Implementations:
//   - NoopTracer: for tests (zero overhead)
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording any error that occurred.
	// If err is non-nil, the span is marked as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans for distributed tracing.
// Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	// The returned context contains the new span and should be passed to
	// child operations. The span must be ended by calling Span.End().
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names used by the intake pipeline. One span wraps the whole
// submission; the rest wrap individual stages.
const (
	SpanSubmit         = "intake.submit"
	SpanSchemaCheck    = "intake.validate_schema"
	SpanBusinessCheck  = "intake.validate_business"
	SpanGenerateID     = "intake.generate_request_id"
	SpanDatabaseInsert = "intake.database_insert"
	SpanVIPDelay       = "intake.vip_member_slow_query"
	SpanTestError      = "intake.test_error"
)

// Attribute keys used by the intake pipeline.
const (
	AttrRequestID   = "request.id"
	AttrMemberID    = "request.member_id"
	AttrProviderNPI = "request.provider_npi"
	AttrDelayMs     = "delay_ms"
	AttrReason      = "reason"
	AttrFailureRule = "failure_rule"
	AttrErrorType   = "error_type"
)
