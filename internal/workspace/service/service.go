// Package service implements workspace lifecycle and membership operations on top of the
// authorization engine.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	membershipdomain "devspaces/internal/membership/domain"
	membershiprepo "devspaces/internal/membership/repository"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
	"devspaces/internal/workspace/domain"
	"devspaces/internal/workspace/repository"
)

// Authorizer is the part of the rbac engine the workspace services use.
type Authorizer interface {
	Requester(ctx context.Context) (*userdomain.User, error)
	AuthorizeWorkspace(ctx context.Context, requester *userdomain.User, workspaceID string, action rbac.Action) (membershipdomain.Role, error)
}

// Finder looks workspaces up by name.
type Finder interface {
	GetByName(ctx context.Context, name string) (*domain.Workspace, error)
}

// Find returns the workspace named name, or NotFound.
func Find(ctx context.Context, f Finder, name string) (*domain.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NotFound("workspace not found")
	}
	w, err := f.GetByName(ctx, name)
	if err != nil {
		return nil, apperr.Storage("load workspace", err)
	}
	if w == nil {
		return nil, apperr.NotFound("workspace not found")
	}
	return w, nil
}

// UserFinder resolves the account behind an email address.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// MembershipRepo is the membership persistence the service needs.
type MembershipRepo interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*membershipdomain.Member, error)
	Insert(ctx context.Context, m *membershipdomain.Membership) error
	DeleteForWorkspace(ctx context.Context, workspaceID string) error
}

// UpdateRequest carries a rename and/or description change. Nil fields are left as they are.
type UpdateRequest struct {
	Name        *string
	Description *string
}

// validate checks the supplied fields on their own, before the workspace is looked up.
func (req UpdateRequest) validate() error {
	candidate := domain.Workspace{Name: "-"}
	if req.Name != nil {
		candidate.Name = *req.Name
	}
	if req.Description != nil {
		candidate.Description = *req.Description
	}
	return candidate.Validate()
}

// MembersView is the members listing together with the requester's own standing.
type MembersView struct {
	Workspace           *domain.Workspace
	Members             []*membershipdomain.Member
	RequesterRole       membershipdomain.Role
	RequesterGlobalRole userdomain.Role
}

// Service implements workspace operations.
type Service struct {
	authz      Authorizer
	workspaces repository.Repository
	members    MembershipRepo
	users      UserFinder
	log        *slog.Logger
}

// NewService returns a workspace Service. logger may be nil.
func NewService(authz Authorizer, workspaces repository.Repository, members MembershipRepo, users UserFinder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{authz: authz, workspaces: workspaces, members: members, users: users, log: logger}
}

// Create makes a new workspace with the requester as its sole admin member.
func (s *Service) Create(ctx context.Context, name, description string) (*domain.Workspace, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if err := rbac.AuthorizeWorkspaceAction(requester.Role, "", rbac.ActionCreateWorkspace); err != nil {
		return nil, err
	}
	w := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedBy:   requester.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := w.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	existing, err := s.workspaces.GetByName(ctx, w.Name)
	if err != nil {
		return nil, apperr.Storage("load workspace", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(repository.ErrNameTaken.Error())
	}
	if err := s.workspaces.Create(ctx, w); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, apperr.Conflict(err.Error())
		}
		return nil, apperr.Storage("create workspace", err)
	}
	middleware.SetWorkspaceID(ctx, w.ID)
	return w, nil
}

// ListMine returns the workspaces the requester is a member of.
func (s *Service) ListMine(ctx context.Context) ([]*domain.Workspace, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.workspaces.ListForUser(ctx, requester.ID)
	if err != nil {
		return nil, apperr.Storage("list workspaces", err)
	}
	return list, nil
}

// Update renames and/or re-describes a workspace. Only a membership admin may do so.
func (s *Service) Update(ctx context.Context, name string, req UpdateRequest) (*domain.Workspace, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	w, err := Find(ctx, s.workspaces, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionUpdateWorkspace); err != nil {
		return nil, err
	}
	updated := *w
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if err := updated.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if !strings.EqualFold(updated.Name, w.Name) {
		other, err := s.workspaces.GetByName(ctx, updated.Name)
		if err != nil {
			return nil, apperr.Storage("load workspace", err)
		}
		if other != nil && other.ID != w.ID {
			return nil, apperr.Conflict(repository.ErrNameTaken.Error())
		}
	}
	if err := s.workspaces.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			return nil, apperr.Conflict(err.Error())
		}
		return nil, apperr.Storage("update workspace", err)
	}
	return &updated, nil
}

// Delete removes a workspace with its memberships, tasks, announcements and reports.
func (s *Service) Delete(ctx context.Context, name string) error {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return err
	}
	w, err := Find(ctx, s.workspaces, name)
	if err != nil {
		return err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionDeleteWorkspace); err != nil {
		return err
	}
	if err := Purge(ctx, s.members, s.workspaces, w.ID); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "workspace deleted", "workspace_id", w.ID, "name", w.Name, "by", requester.ID)
	return nil
}

// Purge deletes a workspace's memberships and then the workspace itself; the remaining
// dependents cascade in storage.
func Purge(ctx context.Context, members MembershipRepo, workspaces repository.Repository, workspaceID string) error {
	if err := members.DeleteForWorkspace(ctx, workspaceID); err != nil {
		return apperr.Storage("delete memberships", err)
	}
	if err := workspaces.Delete(ctx, workspaceID); err != nil {
		return apperr.Storage("delete workspace", err)
	}
	return nil
}

// Members lists a workspace's members. The global owner gains an admin membership on first view.
func (s *Service) Members(ctx context.Context, name string) (*MembersView, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	w, err := Find(ctx, s.workspaces, name)
	if err != nil {
		return nil, err
	}
	role, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionViewMembers)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListByWorkspace(ctx, w.ID)
	if err != nil {
		return nil, apperr.Storage("list members", err)
	}
	return &MembersView{Workspace: w, Members: members, RequesterRole: role, RequesterGlobalRole: requester.Role}, nil
}

// AddMember adds the account registered under email to the workspace with roleName
// (developer when empty). The role is validated before any privilege check.
func (s *Service) AddMember(ctx context.Context, name, email, roleName string) (*membershipdomain.Member, error) {
	requester, err := s.authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	role, err := membershipdomain.ParseRole(roleName)
	if err != nil {
		return nil, apperr.InvalidInput("invalid role")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.InvalidInput("an email is required")
	}
	w, err := Find(ctx, s.workspaces, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.AuthorizeWorkspace(ctx, requester, w.ID, rbac.ActionAddMember); err != nil {
		return nil, err
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Storage("look up email", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	m := &membershipdomain.Membership{WorkspaceID: w.ID, UserID: u.ID, Role: role, CreatedAt: time.Now().UTC()}
	if err := s.members.Insert(ctx, m); err != nil {
		if errors.Is(err, membershiprepo.ErrAlreadyMember) {
			return nil, apperr.Conflict(err.Error())
		}
		return nil, apperr.Storage("add member", err)
	}
	return &membershipdomain.Member{UserID: u.ID, Username: u.Username, Email: u.Email, Role: role}, nil
}
