package repository

import (
	"context"
	"database/sql"
	"errors"

	"devspaces/internal/db"
	"devspaces/internal/membership/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the membership for the given workspace and user, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, workspaceID, userID string) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT workspace_id, user_id, role, created_at FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	).Scan(&m.WorkspaceID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}

// ListByWorkspace returns the members of a workspace with their account details, oldest membership first.
func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, m.role
		   FROM workspace_members m JOIN users u ON u.id = m.user_id
		  WHERE m.workspace_id = $1
		  ORDER BY m.created_at, u.username`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		var mem domain.Member
		var role string
		if err := rows.Scan(&mem.UserID, &mem.Username, &mem.Email, &role); err != nil {
			return nil, err
		}
		mem.Role = domain.Role(role)
		out = append(out, &mem)
	}
	return out, rows.Err()
}

// Insert adds a membership. Returns ErrAlreadyMember if the pair exists.
func (r *PostgresRepository) Insert(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES ($1, $2, $3, $4)`,
		m.WorkspaceID, m.UserID, string(m.Role), m.CreatedAt,
	)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyMember
	}
	return err
}

func (r *PostgresRepository) UpsertIgnoreConflict(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (workspace_id, user_id) DO NOTHING`,
		m.WorkspaceID, m.UserID, string(m.Role), m.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) DeleteForWorkspace(ctx context.Context, workspaceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workspace_members WHERE workspace_id = $1`, workspaceID)
	return err
}
