package repository

import (
	"context"

	"devspaces/internal/announcement/domain"
)

// Repository defines persistence for workspace and site announcements.
type Repository interface {
	CreateWorkspaceAnnouncement(ctx context.Context, a *domain.WorkspaceAnnouncement) error
	// ListWorkspaceAnnouncements returns newest first, with author names resolved.
	ListWorkspaceAnnouncements(ctx context.Context, workspaceID string) ([]*domain.WorkspaceAnnouncement, error)
	CreateSiteAnnouncement(ctx context.Context, a *domain.SiteAnnouncement) error
	ListSiteAnnouncements(ctx context.Context) ([]*domain.SiteAnnouncement, error)
	// LatestSiteAnnouncement returns the newest site announcement, or nil if there is none.
	LatestSiteAnnouncement(ctx context.Context) (*domain.SiteAnnouncement, error)
	// GetSiteAnnouncement returns the site announcement with id, or nil if there is none.
	GetSiteAnnouncement(ctx context.Context, id string) (*domain.SiteAnnouncement, error)
	HasSeen(ctx context.Context, announcementID, userID string) (bool, error)
	// MarkSeen records that userID saw the announcement and reports whether it had been seen before.
	MarkSeen(ctx context.Context, announcementID, userID string) (alreadySeen bool, err error)
}
