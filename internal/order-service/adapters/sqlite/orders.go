package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/ports"
)

const orderSelect = `
	SELECT o.id, o.order_number, o.customer_id, c.name, c.region,
	       o.status, o.payment_method, o.shipping_address, o.notes,
	       o.created_by, COALESCE(u.username, ''), o.created_at, o.updated_at
	FROM   orders o
	JOIN   customers c ON c.id = o.customer_id
	LEFT   JOIN users u ON u.id = o.created_by`

const itemSelect = `
	SELECT i.id, i.order_id, i.product_id, p.name, p.origin, p.category,
	       i.quantity, i.unit_price
	FROM   order_items i
	JOIN   products p ON p.id = i.product_id`

// CreateOrder persists the header, then each item in list order, all in one
// transaction together with number allocation and the optional stock update.
func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order, opts ports.CreateOrderOptions) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if o.Number == "" {
			if opts.NumberPrefix == "" {
				return errors.New("sqlite: create order: no order number and no prefix")
			}
			seq, err := allocateSequence(ctx, tx, opts.NumberPrefix)
			if err != nil {
				return err
			}
			number, err := domain.FormatOrderNumber(opts.NumberPrefix, seq)
			if err != nil {
				return err
			}
			o.Number = number
		}

		const q = `
			INSERT INTO orders
				(order_number, customer_id, status, payment_method, shipping_address, notes,
				 created_by, created_at, updated_at)
			VALUES
				(?, ?, ?, ?, ?, ?, ?, ?, ?)`

		now := opts.Now.UTC()
		if opts.Now.IsZero() {
			now = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx, q,
			o.Number, o.CustomerID, string(o.Status), string(o.PaymentMethod),
			o.ShippingAddress, o.Notes, nullableID(o.CreatedBy),
			formatTime(now), formatTime(now))
		if err != nil {
			return classify(err, "create order")
		}
		if o.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: create order: %w", err)
		}
		o.CreatedAt = now
		o.UpdatedAt = now

		if err := insertItems(ctx, tx, o); err != nil {
			return err
		}
		if opts.DecrementStock {
			if err := decrementStock(ctx, tx, o.Items, now); err != nil {
				return err
			}
		}
		if opts.Event != nil {
			return appendEvent(ctx, tx, opts.Event, o.ID, o.Number, o.Status)
		}
		return nil
	})
}

func insertItems(ctx context.Context, tx *sql.Tx, o *domain.Order) error {
	const q = `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES (?, ?, ?, ?)`

	for i := range o.Items {
		item := &o.Items[i]
		res, err := tx.ExecContext(ctx, q, o.ID, item.ProductID, item.Quantity, formatMoney(item.UnitPrice))
		if err != nil {
			return classify(err, fmt.Sprintf("insert item %d of order %d", i, o.ID))
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: insert item %d of order %d: %w", i, o.ID, err)
		}
		item.OrderID = o.ID
	}
	return nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, items []domain.OrderItem, at time.Time) error {
	const q = `
		UPDATE products
		SET    stock = stock - ?, updated_at = ?
		WHERE  id = ? AND stock >= ?`

	verr := domain.NewValidationError()
	now := formatTime(at)
	for i, item := range items {
		res, err := tx.ExecContext(ctx, q, item.Quantity, now, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("sqlite: decrement stock of product %d: %w", item.ProductID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: decrement stock of product %d: %w", item.ProductID, err)
		}
		if n == 0 {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), "Insufficient stock.")
		}
	}
	return verr.OrNil()
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: order %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %d: %w", id, err)
	}

	items, err := r.listItems(ctx, itemSelect+` WHERE i.order_id = ? ORDER BY i.id`, id)
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return o, nil
}

// ListOrders returns every order with its items, newest first.
func (r *Repository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, orderSelect+` ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: list orders: %w", err)
		}
		out = append(out, o)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}

	// Rows must be closed before the next query: the pool has one connection.
	items, err := r.listItems(ctx, itemSelect+` ORDER BY i.order_id, i.id`)
	if err != nil {
		return nil, err
	}
	for _, o := range out {
		o.Items = items[o.ID]
	}
	return out, nil
}

func (r *Repository) listItems(ctx context.Context, q string, args ...any) (map[int64][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list order items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.OrderItem)
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.ProductOrigin, &item.ProductCategory, &item.Quantity, &price)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list order items: %w", err)
		}
		if item.UnitPrice, err = parseMoney(price); err != nil {
			return nil, err
		}
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list order items: %w", err)
	}
	return out, nil
}

// UpdateOrder writes every header field. With replaceItems the existing
// items are deleted and o.Items inserted; otherwise items are left alone.
func (r *Repository) UpdateOrder(ctx context.Context, o *domain.Order, replaceItems bool, ev *audit.Event) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
			UPDATE orders
			SET    customer_id = ?, status = ?, payment_method = ?, shipping_address = ?,
			       notes = ?, updated_at = ?
			WHERE  id = ?`

		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx, q,
			o.CustomerID, string(o.Status), string(o.PaymentMethod), o.ShippingAddress,
			o.Notes, formatTime(now), o.ID)
		if err != nil {
			return classify(err, "update order")
		}
		if err := expectOne(res, "update order"); err != nil {
			return err
		}
		o.UpdatedAt = now

		if replaceItems {
			if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, o.ID); err != nil {
				return fmt.Errorf("sqlite: clear items of order %d: %w", o.ID, err)
			}
			if err := insertItems(ctx, tx, o); err != nil {
				return err
			}
		}

		if ev != nil {
			return appendEvent(ctx, tx, ev, o.ID, o.Number, o.Status)
		}
		return nil
	})
}

// DeleteOrder removes the items and then the header.
func (r *Repository) DeleteOrder(ctx context.Context, id int64, ev *audit.Event) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var ref orderRef
		err := tx.QueryRowContext(ctx,
			`SELECT id, order_number, status FROM orders WHERE id = ?`, id).
			Scan(&ref.id, &ref.number, &ref.status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlite: order %d: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("sqlite: delete order %d: %w", id, err)
		}

		if err := deleteOrderRows(ctx, tx, id); err != nil {
			return err
		}
		if ev != nil {
			return appendEvent(ctx, tx, ev, ref.id, ref.number, ref.status)
		}
		return nil
	})
}

func deleteOrderRows(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete items of order %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return classify(err, fmt.Sprintf("delete order %d", id))
	}
	return expectOne(res, fmt.Sprintf("delete order %d", id))
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o                    domain.Order
		createdBy            sql.NullInt64
		createdAt, updatedAt string
	)
	err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.CustomerRegion,
		&o.Status, &o.PaymentMethod, &o.ShippingAddress, &o.Notes,
		&createdBy, &o.CreatedByUsername, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	o.CreatedBy = idPtr(createdBy)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
