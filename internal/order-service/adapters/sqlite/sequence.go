package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

// LastOrderNumber returns the greatest order number in the namespace.
func (r *Repository) LastOrderNumber(ctx context.Context, prefix string) (string, error) {
	return lastOrderNumber(ctx, r.db, prefix)
}

func lastOrderNumber(ctx context.Context, q querier, prefix string) (string, error) {
	// substr instead of LIKE: LIKE is case-insensitive in SQLite.
	const query = `
		SELECT order_number
		FROM   orders
		WHERE  substr(order_number, 1, length(?)) = ?
		ORDER  BY order_number DESC
		LIMIT  1`

	var number string
	err := q.QueryRowContext(ctx, query, prefix, prefix).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: last order number for %s: %w", prefix, err)
	}
	return number, nil
}

// allocateSequence bumps the month counter and returns the new value. It must
// run in the transaction that inserts the order so a rollback releases the
// number. The counter never falls behind the numbers already stored, which
// covers orders inserted with an explicit number.
func allocateSequence(ctx context.Context, tx *sql.Tx, prefix string) (int, error) {
	last, err := lastOrderNumber(ctx, tx, prefix)
	if err != nil {
		return 0, err
	}
	floor, err := domain.NextSequence(prefix, last)
	if err != nil {
		return 0, err
	}

	const q = `
		INSERT INTO order_sequences (prefix, last_seq)
		VALUES (?, ?)
		ON CONFLICT(prefix) DO UPDATE
		SET last_seq = MAX(order_sequences.last_seq + 1, excluded.last_seq)
		RETURNING last_seq`

	var seq int
	if err := tx.QueryRowContext(ctx, q, prefix, floor).Scan(&seq); err != nil {
		return 0, fmt.Errorf("sqlite: allocate sequence for %s: %w", prefix, err)
	}
	return seq, nil
}
