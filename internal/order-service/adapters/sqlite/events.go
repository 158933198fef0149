package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

// appendEvent fills the order fields of ev and inserts it.
func appendEvent(ctx context.Context, q querier, ev *audit.Event, orderID int64, number string, status domain.OrderStatus) error {
	ev.OrderID = orderID
	ev.OrderNumber = number
	ev.Status = status

	const query = `
		INSERT INTO order_events
			(order_id, order_number, action, status, actor_id, trace_id, span_id, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := q.ExecContext(ctx, query,
		ev.OrderID,
		ev.OrderNumber,
		string(ev.Action),
		string(ev.Status),
		nullableID(ev.ActorID),
		ev.TraceID,
		ev.SpanID,
		formatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append %s event for order %d: %w", ev.Action, orderID, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		ev.ID = id
	}
	return nil
}

// ListOrderEvents returns the events of an order, oldest first. Events of
// deleted orders are still returned.
func (r *Repository) ListOrderEvents(ctx context.Context, orderID int64) ([]*audit.Event, error) {
	const q = `
		SELECT id, order_id, order_number, action, status, actor_id, trace_id, span_id, created_at
		FROM   order_events
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list events for order %d: %w", orderID, err)
	}
	defer rows.Close()

	var out []*audit.Event
	for rows.Next() {
		var (
			ev        audit.Event
			actor     sql.NullInt64
			createdAt string
		)
		err := rows.Scan(&ev.ID, &ev.OrderID, &ev.OrderNumber, &ev.Action, &ev.Status,
			&actor, &ev.TraceID, &ev.SpanID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list events for order %d: %w", orderID, err)
		}
		ev.ActorID = idPtr(actor)
		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list events for order %d: %w", orderID, err)
	}
	return out, nil
}
