package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"devspaces/internal/announcement/domain"
	"devspaces/internal/announcement/repository"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	userdomain "devspaces/internal/user/domain"
	workspaceservice "devspaces/internal/workspace/service"
)

// Service implements workspace and site announcements.
type Service struct {
	authz      workspaceservice.Authorizer
	workspaces workspaceservice.Finder
	repo       repository.Repository
	log        *slog.Logger
}

// NewService returns an announcement Service. logger may be nil.
func NewService(authz workspaceservice.Authorizer, workspaces workspaceservice.Finder, repo repository.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{authz: authz, workspaces: workspaces, repo: repo, log: logger}
}

// PostWorkspace posts message to every member of the workspace. Only the global owner may post.
func (s *Service) PostWorkspace(ctx context.Context, workspaceName, message string) (*domain.WorkspaceAnnouncement, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	message, err = validateMessage(message)
	if err != nil {
		return nil, err
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionPostAnnouncement); err != nil {
		return nil, err
	}
	a := &domain.WorkspaceAnnouncement{
		ID:          uuid.New().String(),
		WorkspaceID: w.ID,
		AuthorID:    requester.ID,
		AuthorName:  requester.Username,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateWorkspaceAnnouncement(ctx, a); err != nil {
		return nil, apperr.Storage("create announcement", err)
	}
	return a, nil
}

// ListWorkspace returns the workspace's announcements, newest first. Any member may read them.
func (s *Service) ListWorkspace(ctx context.Context, workspaceName string) ([]*domain.WorkspaceAnnouncement, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionViewAnnouncements); err != nil {
		return nil, err
	}
	list, err := s.repo.ListWorkspaceAnnouncements(ctx, w.ID)
	if err != nil {
		return nil, apperr.Storage("list announcements", err)
	}
	return list, nil
}

// PostSite publishes a site-wide announcement by author. Callers gate who may do this.
func (s *Service) PostSite(ctx context.Context, author *userdomain.User, title, message, level string) (*domain.SiteAnnouncement, error) {
	a := &domain.SiteAnnouncement{
		ID:         uuid.New().String(),
		AuthorID:   author.ID,
		AuthorName: author.Username,
		Title:      title,
		Message:    message,
		Level:      domain.Level(level),
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := s.repo.CreateSiteAnnouncement(ctx, a); err != nil {
		return nil, apperr.Storage("create site announcement", err)
	}
	s.log.InfoContext(ctx, "site announcement posted", "announcement_id", a.ID, "level", string(a.Level), "by", author.ID)
	return a, nil
}

// ListSite returns every site announcement, newest first.
func (s *Service) ListSite(ctx context.Context) ([]*domain.SiteAnnouncement, error) {
	list, err := s.repo.ListSiteAnnouncements(ctx)
	if err != nil {
		return nil, apperr.Storage("list site announcements", err)
	}
	return list, nil
}

// Latest returns the newest site announcement and whether the caller has marked it seen.
// It never records a view. It returns nil when nothing was ever posted.
func (s *Service) Latest(ctx context.Context) (*domain.SiteAnnouncement, bool, error) {
	a, err := s.repo.LatestSiteAnnouncement(ctx)
	if err != nil {
		return nil, false, apperr.Storage("load latest announcement", err)
	}
	if a == nil {
		return nil, false, nil
	}
	requester, err := s.authz.Requester(ctx)
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return a, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	seen, err := s.repo.HasSeen(ctx, a.ID, requester.ID)
	if err != nil {
		return nil, false, apperr.Storage("load announcement view", err)
	}
	return a, seen, nil
}

// MarkSeen records that the requester dismissed the site announcement. Repeat calls are no-ops.
func (s *Service) MarkSeen(ctx context.Context, announcementID string) error {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return err
	}
	a, err := s.repo.GetSiteAnnouncement(ctx, announcementID)
	if err != nil {
		return apperr.Storage("load site announcement", err)
	}
	if a == nil {
		return apperr.NotFound("announcement not found")
	}
	if _, err := s.repo.MarkSeen(ctx, a.ID, requester.ID); err != nil {
		return apperr.Storage("mark announcement seen", err)
	}
	return nil
}

func validateMessage(message string) (string, error) {
	message, err := domain.ValidateMessage(message)
	if err != nil {
		return "", apperr.InvalidInput(err.Error())
	}
	return message, nil
}
