package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"devspaces/internal/user/domain"
)

const userColumns = `id, username, email, role, subscription, notify_announcements, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanOptional(row)
}

// GetByEmail returns the user for email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanOptional(row)
}

// List returns every user, oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	return r.exec(ctx, `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`, id, string(role), time.Now().UTC())
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id, username string) error {
	return r.exec(ctx, `UPDATE users SET username = $2, updated_at = $3 WHERE id = $1`, id, username, time.Now().UTC())
}

func (r *PostgresRepository) SetSubscription(ctx context.Context, id string, sub domain.Subscription) error {
	return r.exec(ctx, `UPDATE users SET subscription = $2, updated_at = $3 WHERE id = $1`, id, string(sub), time.Now().UTC())
}

func (r *PostgresRepository) SetNotifyAnnouncements(ctx context.Context, id string, notify bool) error {
	return r.exec(ctx, `UPDATE users SET notify_announcements = $2, updated_at = $3 WHERE id = $1`, id, notify, time.Now().UTC())
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var role, sub string
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &role, &sub, &u.NotifyAnnouncements, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Subscription = domain.Subscription(sub)
	return &u, nil
}

func scanOptional(row *sql.Row) (*domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}
