package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	membershipdomain "devspaces/internal/membership/domain"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	"devspaces/internal/task/domain"
	"devspaces/internal/task/repository"
	workspaceservice "devspaces/internal/workspace/service"
)

// MembershipGetter checks that an assignee belongs to the workspace.
type MembershipGetter interface {
	Get(ctx context.Context, workspaceID, userID string) (*membershipdomain.Membership, error)
}

// Service implements task creation, listing and assignment.
type Service struct {
	authz      workspaceservice.Authorizer
	workspaces workspaceservice.Finder
	tasks      repository.Repository
	members    MembershipGetter
	log        *slog.Logger
}

// NewService returns a task Service. logger may be nil.
func NewService(authz workspaceservice.Authorizer, workspaces workspaceservice.Finder, tasks repository.Repository, members MembershipGetter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{authz: authz, workspaces: workspaces, tasks: tasks, members: members, log: logger}
}

// Create adds a task to the workspace. Any member may create tasks.
func (s *Service) Create(ctx context.Context, workspaceName, title, description string) (*domain.Task, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	t := &domain.Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		CreatedBy:   requester.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionCreateTask); err != nil {
		return nil, err
	}
	t.WorkspaceID = w.ID
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, apperr.Storage("create task", err)
	}
	return t, nil
}

// List returns the workspace's tasks, newest first, with their current assignee.
func (s *Service) List(ctx context.Context, workspaceName string) ([]*domain.Task, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionViewTasks); err != nil {
		return nil, err
	}
	list, err := s.tasks.ListByWorkspace(ctx, w.ID)
	if err != nil {
		return nil, apperr.Storage("list tasks", err)
	}
	return list, nil
}

// Assign makes assigneeID the task's only assignee, replacing any previous one.
// The assignee must be a member of the task's workspace.
func (s *Service) Assign(ctx context.Context, workspaceName, taskID, assigneeID string) (*domain.Task, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	assigneeID = strings.TrimSpace(assigneeID)
	if assigneeID == "" {
		return nil, apperr.InvalidInput("an assignee is required")
	}
	w, err := workspaceservice.Find(ctx, s.workspaces, workspaceName)
	if err != nil {
		return nil, err
	}
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperr.Storage("load task", err)
	}
	if t == nil || t.WorkspaceID != w.ID {
		return nil, apperr.NotFound("task not found")
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionAssignTask); err != nil {
		return nil, err
	}
	m, err := s.members.Get(ctx, w.ID, assigneeID)
	if err != nil {
		return nil, apperr.Storage("load membership", err)
	}
	if m == nil {
		return nil, apperr.InvalidInput("assignee is not a member of this workspace")
	}
	a := &domain.Assignment{TaskID: t.ID, UserID: assigneeID, AssignedBy: requester.ID, AssignedAt: time.Now().UTC()}
	if err := s.tasks.Assign(ctx, a); err != nil {
		return nil, apperr.Storage("assign task", err)
	}
	s.log.DebugContext(ctx, "task assigned", "task_id", t.ID, "assignee", assigneeID, "previous", t.AssigneeID)
	t.AssigneeID = assigneeID
	return t, nil
}
