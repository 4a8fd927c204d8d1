package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (s *failingStore) Append(context.Context, Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("disk full")
}

func (s *failingStore) ListByRequest(context.Context, string) ([]Event, error) {
	return nil, nil
}

func TestRecordAppendsInOrder(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, testLogger())
	ctx := context.Background()

	rec.Record(ctx, "PA-00001", EventRequestReceived, "submitted by provider NPI 1234567890")
	rec.Record(ctx, "PA-00001", EventValidationPassed, "all required fields validated")
	rec.Record(ctx, "PA-00001", EventSavedToDatabase, "request saved")
	rec.Record(ctx, "PA-00001", EventStatusPending, "awaiting review")

	events, err := rec.List(ctx, "PA-00001")
	require.NoError(t, err)
	require.Len(t, events, 4)

	want := []EventType{EventRequestReceived, EventValidationPassed, EventSavedToDatabase, EventStatusPending}
	for i, e := range events {
		assert.Equal(t, want[i], e.Type)
		if i > 0 {
			assert.False(t, e.Timestamp.Before(events[i-1].Timestamp),
				"timestamps must be non-decreasing in emission order")
		}
	}
}

func TestRecordSwallowsStoreFailures(t *testing.T) {
	store := &failingStore{}
	rec := NewRecorder(store, testLogger())

	// Must not panic or surface the error.
	rec.Record(context.Background(), "PA-00001", EventRequestReceived, "")
	assert.Equal(t, 1, store.calls)
}

func TestListUnknownRequestIsEmptyNotError(t *testing.T) {
	rec := NewRecorder(NewInMemoryStore(), testLogger())

	events, err := rec.List(context.Background(), "PA-99999")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAsyncRecorderDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, testLogger(), WithAsyncBuffer(16))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		rec.Record(ctx, "PA-00002", EventRequestReceived, "")
	}
	rec.Close()

	events, err := store.ListByRequest(ctx, "PA-00002")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestStampNeverDecreases(t *testing.T) {
	rec := NewRecorder(NewInMemoryStore(), testLogger())
	rec.lastTS = time.Now().Add(time.Hour) // simulate wall clock stepping back

	first := rec.stamp()
	second := rec.stamp()
	assert.False(t, second.Before(first))
	assert.False(t, first.Before(rec.lastTS.Add(-time.Minute)))
}
