// Package audit defines the order event trail.
//
// Every order write appends one immutable event recording what happened,
// who did it and which trace it belongs to, so an order's history can be
// correlated with the distributed trace of the request that changed it.
package audit

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

// Action is the kind of write an event records.
type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionItemsReplaced Action = "ITEMS_REPLACED"
	ActionDeleted       Action = "DELETED"
)

// Event is a single row in the order_events table.
type Event struct {
	ID int64

	// OrderID is not a foreign key: events outlive deleted orders.
	OrderID     int64
	OrderNumber string

	Action Action

	// Status is the order status after the write.
	Status domain.OrderStatus

	// ActorID is the user that issued the write, nil for system writes.
	ActorID *int64

	// TraceID and SpanID are empty when no span is active.
	TraceID string
	SpanID  string

	CreatedAt time.Time
}

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty
// if the context carries no valid span.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEvent builds an event with trace info taken from ctx. The store fills
// OrderID, OrderNumber and Status when it writes the event.
//
//	ev := audit.NewEvent(ctx, audit.ActionUpdated, &actor.ID)
//	err := store.UpdateOrder(ctx, order, false, ev)
func NewEvent(ctx context.Context, action Action, actorID *int64) *Event {
	ti := ExtractTraceInfo(ctx)
	return &Event{
		Action:    action,
		ActorID:   actorID,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		CreatedAt: time.Now().UTC(),
	}
}
