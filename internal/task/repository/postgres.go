package repository

import (
	"context"
	"database/sql"
	"errors"

	"devspaces/internal/db"
	"devspaces/internal/task/domain"
)

const taskSelect = `SELECT t.id, t.workspace_id, t.title, t.description, t.created_by, t.created_at,
       (SELECT a.user_id FROM task_assignments a WHERE a.task_id = t.id ORDER BY a.assigned_at DESC LIMIT 1)
  FROM tasks t`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, workspace_id, title, description, created_by, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.WorkspaceID, t.Title, t.Description, sql.NullString{String: t.CreatedBy, Valid: t.CreatedBy != ""}, t.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, taskSelect+` WHERE t.workspace_id = $1 ORDER BY t.created_at DESC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Assign deletes every existing assignment row of the task and inserts a, in one transaction.
// The task row is locked first so concurrent assignments serialize and leave exactly one row.
func (r *PostgresRepository) Assign(ctx context.Context, a *domain.Assignment) error {
	return db.InTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT id FROM tasks WHERE id = $1 FOR UPDATE`, a.TaskID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignments WHERE task_id = $1`, a.TaskID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignments (task_id, user_id, assigned_by, assigned_at) VALUES ($1, $2, $3, $4)`,
			a.TaskID, a.UserID, sql.NullString{String: a.AssignedBy, Valid: a.AssignedBy != ""}, a.AssignedAt,
		)
		return err
	})
}

func (r *PostgresRepository) ListAssignments(ctx context.Context, taskID string) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT task_id, user_id, assigned_by, assigned_at FROM task_assignments WHERE task_id = $1 ORDER BY assigned_at`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var by sql.NullString
		if err := rows.Scan(&a.TaskID, &a.UserID, &by, &a.AssignedAt); err != nil {
			return nil, err
		}
		a.AssignedBy = by.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*domain.Task, error) {
	var t domain.Task
	var createdBy, assignee sql.NullString
	if err := s.Scan(&t.ID, &t.WorkspaceID, &t.Title, &t.Description, &createdBy, &t.CreatedAt, &assignee); err != nil {
		return nil, err
	}
	t.CreatedBy = createdBy.String
	t.AssigneeID = assignee.String
	return &t, nil
}
