package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestNewEvent_NoSpan(t *testing.T) {
	actor := int64(7)
	ev := NewEvent(context.Background(), ActionCreated, &actor)

	assert.Equal(t, ActionCreated, ev.Action)
	assert.Equal(t, int64(7), *ev.ActorID)
	assert.Empty(t, ev.TraceID)
	assert.Empty(t, ev.SpanID)
	assert.False(t, ev.CreatedAt.IsZero())
}

func TestNewEvent_WithSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	ev := NewEvent(ctx, ActionDeleted, nil)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ev.TraceID)
	assert.Equal(t, "00f067aa0ba902b7", ev.SpanID)
	assert.Nil(t, ev.ActorID)
}
