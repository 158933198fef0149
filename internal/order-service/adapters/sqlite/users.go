package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/silkroad-orders/internal/order-service/domain"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, date_joined`

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	const q = `
		INSERT INTO users (username, email, first_name, last_name, password_hash, date_joined)
		VALUES (?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, q,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, formatTime(now))
	if err != nil {
		return classify(err, "create user")
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sqlite: create user: %w", err)
	}
	u.DateJoined = now
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *Repository) getUser(ctx context.Context, q string, key any) (*domain.User, error) {
	var (
		u          domain.User
		dateJoined string
	)
	err := r.db.QueryRowContext(ctx, q, key).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &dateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: user %v: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get user %v: %w", key, err)
	}
	if u.DateJoined, err = parseTime(dateJoined); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

// EmailExists compares case-insensitively.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower(?))`, email)
}

func (r *Repository) exists(ctx context.Context, q string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, q, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("sqlite: exists %v: %w", arg, err)
	}
	return found, nil
}

// DeleteUser clears created_by on the user's orders before removing the row.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE orders SET created_by = NULL WHERE created_by = ?`, id); err != nil {
			return fmt.Errorf("sqlite: detach orders of user %d: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return classify(err, "delete user")
		}
		return expectOne(res, "delete user")
	})
}
