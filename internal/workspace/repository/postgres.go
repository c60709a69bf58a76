package repository

import (
	"context"
	"database/sql"
	"errors"

	"devspaces/internal/db"
	"devspaces/internal/workspace/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a workspace repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_by, created_at FROM workspaces WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Workspace, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_by, created_at FROM workspaces WHERE lower(name) = lower($1)`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Workspace, error) {
	w, err := scanWorkspace(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

// Create inserts the workspace and the creator's admin membership in one transaction.
// Returns ErrNameTaken on a case-insensitive name collision.
func (r *PostgresRepository) Create(ctx context.Context, w *domain.Workspace) error {
	err := db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workspaces (id, name, description, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
			w.ID, w.Name, w.Description, nullable(w.CreatedBy), w.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workspace_members (workspace_id, user_id, role, created_at) VALUES ($1, $2, 'admin', $3)`,
			w.ID, w.CreatedBy, w.CreatedAt,
		)
		return err
	})
	if db.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

// Update persists name and description. Returns ErrNameTaken on a name collision.
func (r *PostgresRepository) Update(ctx context.Context, w *domain.Workspace) error {
	_, err := r.db.ExecContext(ctx, `UPDATE workspaces SET name = $2, description = $3 WHERE id = $1`, w.ID, w.Name, w.Description)
	if db.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.name, w.description, w.created_by, w.created_at
		   FROM workspaces w JOIN workspace_members m ON m.workspace_id = w.id
		  WHERE m.user_id = $1
		  ORDER BY w.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// ListAll returns every workspace with its creator's details, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT w.id, w.name, w.description, w.created_by, w.created_at,
		        COALESCE(u.username, ''), COALESCE(u.email, '')
		   FROM workspaces w LEFT JOIN users u ON u.id = w.created_by
		  ORDER BY w.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Summary
	for rows.Next() {
		var s domain.Summary
		var createdBy sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &createdBy, &s.CreatedAt, &s.CreatorUsername, &s.CreatorEmail); err != nil {
			return nil, err
		}
		s.CreatedBy = createdBy.String
		out = append(out, &s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(s scanner) (*domain.Workspace, error) {
	var w domain.Workspace
	var createdBy sql.NullString
	if err := s.Scan(&w.ID, &w.Name, &w.Description, &createdBy, &w.CreatedAt); err != nil {
		return nil, err
	}
	w.CreatedBy = createdBy.String
	return &w, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
