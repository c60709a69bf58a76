package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"devspaces/internal/announcement/domain"
)

const siteSelect = `SELECT a.id, a.author_id, COALESCE(u.username, ''), a.title, a.message, a.level, a.created_at
  FROM site_announcements a LEFT JOIN users u ON u.id = a.author_id`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an announcement repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateWorkspaceAnnouncement(ctx context.Context, a *domain.WorkspaceAnnouncement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_announcements (id, workspace_id, author_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.WorkspaceID, nullable(a.AuthorID), a.Message, a.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) ListWorkspaceAnnouncements(ctx context.Context, workspaceID string) ([]*domain.WorkspaceAnnouncement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.workspace_id, a.author_id, COALESCE(u.username, ''), a.message, a.created_at
		   FROM workspace_announcements a LEFT JOIN users u ON u.id = a.author_id
		  WHERE a.workspace_id = $1
		  ORDER BY a.created_at DESC`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.WorkspaceAnnouncement
	for rows.Next() {
		var a domain.WorkspaceAnnouncement
		var author sql.NullString
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &author, &a.AuthorName, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.AuthorID = author.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) CreateSiteAnnouncement(ctx context.Context, a *domain.SiteAnnouncement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO site_announcements (id, author_id, title, message, level, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, nullable(a.AuthorID), a.Title, a.Message, string(a.Level), a.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) ListSiteAnnouncements(ctx context.Context) ([]*domain.SiteAnnouncement, error) {
	rows, err := r.db.QueryContext(ctx, siteSelect+` ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.SiteAnnouncement
	for rows.Next() {
		a, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) LatestSiteAnnouncement(ctx context.Context) (*domain.SiteAnnouncement, error) {
	a, err := scanSite(r.db.QueryRowContext(ctx, siteSelect+` ORDER BY a.created_at DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) GetSiteAnnouncement(ctx context.Context, id string) (*domain.SiteAnnouncement, error) {
	a, err := scanSite(r.db.QueryRowContext(ctx, siteSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *PostgresRepository) HasSeen(ctx context.Context, announcementID, userID string) (bool, error) {
	var seen bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM site_announcement_views WHERE announcement_id = $1 AND user_id = $2)`,
		announcementID, userID,
	).Scan(&seen)
	return seen, err
}

func (r *PostgresRepository) MarkSeen(ctx context.Context, announcementID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO site_announcement_views (announcement_id, user_id, seen_at) VALUES ($1, $2, $3)
		 ON CONFLICT (announcement_id, user_id) DO NOTHING`,
		announcementID, userID, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSite(s scanner) (*domain.SiteAnnouncement, error) {
	var a domain.SiteAnnouncement
	var author sql.NullString
	var level string
	if err := s.Scan(&a.ID, &author, &a.AuthorName, &a.Title, &a.Message, &level, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.AuthorID = author.String
	a.Level = domain.Level(level)
	return &a, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
