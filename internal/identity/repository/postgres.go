package repository

import (
	"context"
	"database/sql"
	"errors"

	"devspaces/internal/db"
	"devspaces/internal/identity/domain"
	userdomain "devspaces/internal/user/domain"
)

// signupLockKey serializes signups so the first-account check and the insert are atomic.
const signupLockKey int64 = 0x64657673 // "devs"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the identity for the given user and provider, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	var i domain.Identity
	var providerName string
	var ph sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_id, password_hash, created_at
		   FROM identities WHERE user_id = $1 AND provider = $2`,
		userID, string(provider),
	).Scan(&i.ID, &i.UserID, &providerName, &i.ProviderID, &ph, &i.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Provider = domain.IdentityProvider(providerName)
	i.PasswordHash = ph.String
	return &i, nil
}

// UpdatePasswordHash updates the password hash for the identity with the given id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error {
	ph := sql.NullString{String: passwordHash, Valid: passwordHash != ""}
	_, err := r.db.ExecContext(ctx, `UPDATE identities SET password_hash = $2 WHERE id = $1`, id, ph)
	return err
}

// Register inserts u and i in one transaction holding a transaction-scoped advisory lock.
func (r *PostgresRepository) Register(ctx context.Context, u *userdomain.User, i *domain.Identity, roleFor RoleFor) error {
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, signupLockKey); err != nil {
			return err
		}
		var existing int64
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&existing); err != nil {
			return err
		}
		u.Role = roleFor(existing)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, role, subscription, notify_announcements, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			u.ID, u.Username, u.Email, string(u.Role), string(u.Subscription), u.NotifyAnnouncements, u.CreatedAt, u.UpdatedAt,
		); err != nil {
			return err
		}
		ph := sql.NullString{String: i.PasswordHash, Valid: i.PasswordHash != ""}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			i.ID, i.UserID, string(i.Provider), i.ProviderID, ph, i.CreatedAt,
		)
		return err
	})
	if db.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}
