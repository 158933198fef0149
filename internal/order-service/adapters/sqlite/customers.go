package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/audit"
	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

const customerColumns = `id, name, email, region, address, created_at`

func (r *Repository) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	const q = `
		INSERT INTO customers (name, email, region, address, created_at)
		VALUES (?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q, c.Name, c.Email, c.Region, c.Address, formatTime(now))
	if err != nil {
		return classify(err, "create customer")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: create customer: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (r *Repository) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	c, err := scanCustomer(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: customer %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get customer %d: %w", id, err)
	}
	return c, nil
}

func (r *Repository) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list customers: %w", err)
	}
	defer rows.Close()

	var out []*domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list customers: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list customers: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, c *domain.Customer) error {
	const q = `
		UPDATE customers
		SET name = ?, email = ?, region = ?, address = ?
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, q, c.Name, c.Email, c.Region, c.Address, c.ID)
	if err != nil {
		return classify(err, "update customer")
	}
	return expectOne(res, "update customer")
}

// DeleteCustomer removes the customer's orders first, items before headers,
// and records a DELETED event for each removed order.
func (r *Repository) DeleteCustomer(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		orders, err := orderRefsByCustomer(ctx, tx, id)
		if err != nil {
			return err
		}

		for _, ref := range orders {
			if err := deleteOrderRows(ctx, tx, ref.id); err != nil {
				return err
			}
			ev := audit.NewEvent(ctx, audit.ActionDeleted, nil)
			if err := appendEvent(ctx, tx, ev, ref.id, ref.number, ref.status); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
		if err != nil {
			return classify(err, "delete customer")
		}
		return expectOne(res, "delete customer")
	})
}

type orderRef struct {
	id     int64
	number string
	status domain.OrderStatus
}

func orderRefsByCustomer(ctx context.Context, q querier, customerID int64) ([]orderRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_number, status FROM orders WHERE customer_id = ? ORDER BY id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: orders of customer %d: %w", customerID, err)
	}
	defer rows.Close()

	var refs []orderRef
	for rows.Next() {
		var ref orderRef
		if err := rows.Scan(&ref.id, &ref.number, &ref.status); err != nil {
			return nil, fmt.Errorf("sqlite: orders of customer %d: %w", customerID, err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Region, &c.Address, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}
