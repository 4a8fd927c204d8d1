// Package metrics holds the Prometheus metrics of the intake pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates all intake counters and histograms. A nil *Metrics is
// valid and turns every recording method into a no-op, so services under
// test do not need a registry.
type Metrics struct {
	// RequestsTotal counts requests by outcome and endpoint. It counts
	// submissions, never their duration: the VIP delay path increments it
	// by exactly one regardless of how long the request took.
	RequestsTotal *prometheus.CounterVec

	// ValidationFailures counts validation rejections by violated rule.
	ValidationFailures *prometheus.CounterVec

	// DatabaseOperations counts store and audit writes by operation kind.
	DatabaseOperations *prometheus.CounterVec

	// StageDuration observes per-stage pipeline latency.
	StageDuration *prometheus.HistogramVec

	// RequestDuration observes endpoint-level latency.
	RequestDuration *prometheus.HistogramVec
}

// New creates the intake metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the intake metrics on a caller-provided registry.
// Tests use this to avoid duplicate registration across cases.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prior_auth_requests_total",
			Help: "Total number of prior auth requests by outcome and endpoint",
		}, []string{"status", "endpoint"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prior_auth_validation_failures_total",
			Help: "Total validation failures by violated rule",
		}, []string{"failure_type"}),
		DatabaseOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prior_auth_database_operations_total",
			Help: "Total database operations by operation kind",
		}, []string{"operation_type"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prior_auth_stage_duration_seconds",
			Help:    "Duration of individual intake pipeline stages",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"stage"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "prior_auth_request_duration_seconds",
			Help:    "Request duration in seconds by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// RecordRequest increments the request counter for an outcome and endpoint.
func (m *Metrics) RecordRequest(status, endpoint string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(status, endpoint).Inc()
}

// RecordValidationFailure increments the validation failure counter for a rule.
func (m *Metrics) RecordValidationFailure(failureType string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(failureType).Inc()
}

// RecordDatabaseOperation increments the database operation counter.
func (m *Metrics) RecordDatabaseOperation(operationType string) {
	if m == nil {
		return
	}
	m.DatabaseOperations.WithLabelValues(operationType).Inc()
}

// ObserveStageDuration records how long a pipeline stage took.
func (m *Metrics) ObserveStageDuration(stage string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// ObserveRequestDuration records endpoint-level latency.
func (m *Metrics) ObserveRequestDuration(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}
