package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"priorauth/internal/intake/metrics"
)

// Recorder appends audit events on behalf of the pipeline. Appends are
// best-effort durability: a failed write is reported to the operator log
// and never aborts the enclosing pipeline, because losing an audit row is
// less harmful than failing a medically relevant submission.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	lastTS time.Time

	events chan Event
	wg     sync.WaitGroup
	async  bool
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithAsyncBuffer enables async persistence with the given buffer size.
// Events are queued and written by a background goroutine; a full buffer
// drops the event rather than blocking the pipeline.
func WithAsyncBuffer(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.events = make(chan Event, size)
			r.async = true
		}
	}
}

// WithMetrics attaches pipeline metrics so audit writes count as database operations.
func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store Store, logger *slog.Logger, opts ...RecorderOption) *Recorder {
	r := &Recorder{store: store, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	if r.async {
		r.wg.Add(1)
		go r.processEvents()
	}
	return r
}

// Record appends an event with a fresh timestamp. It never returns an
// error; failures are logged so the caller-visible outcome is unaffected.
func (r *Recorder) Record(ctx context.Context, requestID string, eventType EventType, message string) {
	event := Event{
		RequestID: requestID,
		Type:      eventType,
		Message:   message,
		Timestamp: r.stamp(),
	}

	if r.async {
		select {
		case r.events <- event:
		default:
			r.logger.Warn("audit buffer full, event dropped",
				"request_id", event.RequestID,
				"event_type", string(event.Type),
			)
		}
		return
	}

	r.persist(ctx, event)
}

// List returns the ordered trail for a request id.
func (r *Recorder) List(ctx context.Context, requestID string) ([]Event, error) {
	return r.store.ListByRequest(ctx, requestID)
}

// Close shuts down the async worker and waits for pending events to drain.
func (r *Recorder) Close() {
	if r.async && r.events != nil {
		close(r.events)
		r.wg.Wait()
	}
}

// stamp issues timestamps that never decrease, so the trail stays totally
// ordered even if the wall clock steps backwards.
func (r *Recorder) stamp() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Before(r.lastTS) {
		now = r.lastTS
	}
	r.lastTS = now
	return now
}

func (r *Recorder) persist(ctx context.Context, event Event) {
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.Error("failed to persist audit event",
			"error", err,
			"request_id", event.RequestID,
			"event_type", string(event.Type),
		)
		return
	}
	r.metrics.RecordDatabaseOperation("insert_log")
}

// processEvents runs in a goroutine and persists events from the channel.
func (r *Recorder) processEvents() {
	defer r.wg.Done()
	for event := range r.events {
		r.persist(context.Background(), event)
	}
}
