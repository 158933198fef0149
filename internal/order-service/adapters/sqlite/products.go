package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

const productColumns = `id, name, description, price, stock, origin, category, created_at, updated_at`

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	const q = `
		INSERT INTO products
			(name, description, price, stock, origin, category, created_at, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, formatMoney(p.Price), p.Stock, p.Origin, string(p.Category),
		formatTime(now), formatTime(now))
	if err != nil {
		return classify(err, "create product")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: create product: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, q querier, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: product %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get product %d: %w", id, err)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return r.listProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
}

// ListLowStockProducts returns products whose stock is below threshold.
func (r *Repository) ListLowStockProducts(ctx context.Context, threshold int) ([]*domain.Product, error) {
	return r.listProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE stock < ? ORDER BY name, id`, threshold)
}

func (r *Repository) listProducts(ctx context.Context, q string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list products: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	return out, nil
}

// UpdateProduct never touches order_items: their unit_price is a snapshot.
func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	const q = `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, origin = ?, category = ?, updated_at = ?
		WHERE id = ?`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, formatMoney(p.Price), p.Stock, p.Origin, string(p.Category),
		formatTime(now), p.ID)
	if err != nil {
		return classify(err, "update product")
	}
	if err := expectOne(res, "update product"); err != nil {
		return err
	}
	p.UpdatedAt = now
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var refs int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM order_items WHERE product_id = ?`, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("sqlite: count items of product %d: %w", id, err)
		}
		if refs > 0 {
			return fmt.Errorf("sqlite: product %d referenced by %d order items: %w", id, refs, domain.ErrProtected)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return classify(err, "delete product")
		}
		return expectOne(res, "delete product")
	})
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p                    domain.Product
		price                string
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Origin, &p.Category,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.Price, err = parseMoney(price); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
