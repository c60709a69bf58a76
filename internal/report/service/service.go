package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	"devspaces/internal/report/domain"
	"devspaces/internal/report/repository"
	workspaceservice "devspaces/internal/workspace/service"
)

const (
	maxReasonLength      = 200
	maxDescriptionLength = 2000
)

// Service files workspace reports for staff review.
type Service struct {
	authz      workspaceservice.Authorizer
	workspaces workspaceservice.Finder
	reports    repository.Repository
}

func NewService(authz workspaceservice.Authorizer, workspaces workspaceservice.Finder, reports repository.Repository) *Service {
	return &Service{authz: authz, workspaces: workspaces, reports: reports}
}

// Create files a pending report against the named workspace. Membership is not required.
func (s *Service) Create(ctx context.Context, workspaceName, reason, description string) (*domain.Report, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	description = strings.TrimSpace(description)
	if reason == "" {
		return nil, apperr.InvalidInput("a reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, apperr.InvalidInput("reason must be at most 200 characters")
	}
	if len(description) > maxDescriptionLength {
		return nil, apperr.InvalidInput("description must be at most 2000 characters")
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionCreateReport); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r := &domain.Report{
		ID:          uuid.New().String(),
		WorkspaceID: w.ID,
		ReporterID:  requester.ID,
		Reason:      reason,
		Description: description,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, apperr.Storage("create report", err)
	}
	return r, nil
}
