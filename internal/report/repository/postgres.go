package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"devspaces/internal/report/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a report repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var rep domain.Report
	var reporter sql.NullString
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, reporter_id, reason, description, status, created_at, updated_at FROM reports WHERE id = $1`, id,
	).Scan(&rep.ID, &rep.WorkspaceID, &reporter, &rep.Reason, &rep.Description, &status, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rep.ReporterID = reporter.String
	rep.Status = domain.Status(status)
	return &rep, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rep *domain.Report) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (id, workspace_id, reporter_id, reason, description, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rep.ID, rep.WorkspaceID, sql.NullString{String: rep.ReporterID, Valid: rep.ReporterID != ""},
		rep.Reason, rep.Description, string(rep.Status), rep.CreatedAt, rep.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.workspace_id, r.reporter_id, r.reason, r.description, r.status, r.created_at, r.updated_at,
		        w.name, COALESCE(u.username, ''), COALESCE(u.email, '')
		   FROM reports r
		   JOIN workspaces w ON w.id = r.workspace_id
		   LEFT JOIN users u ON u.id = r.reporter_id
		  ORDER BY r.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Summary
	for rows.Next() {
		var s domain.Summary
		var reporter sql.NullString
		var status string
		if err := rows.Scan(&s.ID, &s.WorkspaceID, &reporter, &s.Reason, &s.Description, &status, &s.CreatedAt, &s.UpdatedAt,
			&s.WorkspaceName, &s.ReporterUsername, &s.ReporterEmail); err != nil {
			return nil, err
		}
		s.ReporterID = reporter.String
		s.Status = domain.Status(status)
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status domain.Status, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE reports SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	return err
}
