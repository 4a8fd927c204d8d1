package audit

import "time"

// EventType classifies one processing fact about a request. The set is
// extensible; stores persist the raw string.
type EventType string

const (
	EventRequestReceived    EventType = "REQUEST_RECEIVED"
	EventValidationPassed   EventType = "VALIDATION_PASSED"
	EventValidationFailed   EventType = "VALIDATION_FAILED"
	EventSavedToDatabase    EventType = "SAVED_TO_DATABASE"
	EventStatusPending      EventType = "STATUS_PENDING"
	EventPersistFailed      EventType = "PERSIST_FAILED"
	EventIDGenerationFailed EventType = "ID_GENERATION_FAILED"

	// Test-error entry point events.
	EventErrorTestStarted   EventType = "ERROR_TEST_STARTED"
	EventDatabaseSlow       EventType = "DATABASE_SLOW"
	EventDatabaseTimeout    EventType = "DATABASE_TIMEOUT"
	EventTestErrorTriggered EventType = "TEST_ERROR_TRIGGERED"
)

// Event is one immutable fact about a request's processing. Events are
// appended throughout the pipeline, including for requests that never reach
// persistence, and are never mutated or deleted.
type Event struct {
	// RequestID is a weak reference: the referenced request may not exist
	// if its write failed after validation.
	RequestID string    `json:"request_id"`
	Type      EventType `json:"event_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
