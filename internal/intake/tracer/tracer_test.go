package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopTracerPreservesContext(t *testing.T) {
	tr := NewNoop()
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	got, span := tr.Start(ctx, SpanSubmit)
	assert.Equal(t, "value", got.Value(key{}))

	// All span operations are safe no-ops.
	span.SetAttributes(String(AttrRequestID, "PA-00001"))
	span.AddEvent("noop")
	span.End(nil)
	span.End(assert.AnError) // double End is harmless on the noop span
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, Attribute{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Attribute{Key: "k", Value: true}, Bool("k", true))
	assert.Equal(t, Attribute{Key: "k", Value: int64(7)}, Int64("k", 7))
	assert.Equal(t, Attribute{Key: "k", Value: int64(1500)}, Duration("k", 1500*time.Millisecond))
}

func TestToOTelAttributesSkipsUnsupported(t *testing.T) {
	attrs := toOTelAttributes([]Attribute{
		{Key: "s", Value: "str"},
		{Key: "odd", Value: struct{}{}},
		{Key: "i", Value: 3},
	})
	assert.Len(t, attrs, 2)
}
