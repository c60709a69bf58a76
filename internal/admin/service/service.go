// Package service implements the site administration surface. Every operation passes the
// admin policy first; role changes and deletions then pass the rbac level rules.
package service

import (
	"context"
	"log/slog"
	"time"

	announcementdomain "devspaces/internal/announcement/domain"
	auditdomain "devspaces/internal/audit/domain"
	auditrepo "devspaces/internal/audit/repository"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/platform/rbac"
	policyengine "devspaces/internal/policy/engine"
	reportdomain "devspaces/internal/report/domain"
	reportrepo "devspaces/internal/report/repository"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
	userrepo "devspaces/internal/user/repository"
	workspacedomain "devspaces/internal/workspace/domain"
	workspacerepo "devspaces/internal/workspace/repository"
	workspaceservice "devspaces/internal/workspace/service"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// RequesterResolver resolves the signed-in account.
type RequesterResolver interface {
	Requester(ctx context.Context) (*userdomain.User, error)
}

// SitePoster publishes site announcements.
type SitePoster interface {
	PostSite(ctx context.Context, author *userdomain.User, title, message, level string) (*announcementdomain.SiteAnnouncement, error)
}

// Deps holds the collaborators of the admin Service.
type Deps struct {
	Authz         RequesterResolver
	Policy        policyengine.Evaluator
	Users         userrepo.Repository
	Workspaces    workspacerepo.Repository
	Members       workspaceservice.MembershipRepo
	Reports       reportrepo.Repository
	Announcements SitePoster
	Audit         auditrepo.Repository
	Logger        *slog.Logger
}

// Service implements admin operations.
type Service struct {
	Deps
	now func() time.Time
}

// NewService returns an admin Service. Deps.Logger may be nil.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

// allow evaluates the admin policy for requester. An evaluation failure is a denial.
func (s *Service) allow(ctx context.Context, requester *userdomain.User, op policyengine.Operation) error {
	ok, err := s.Policy.Allow(ctx, requester.Role, op)
	if err != nil {
		s.Logger.ErrorContext(ctx, "admin: policy evaluation failed", "operation", string(op), "error", err)
		return apperr.Forbidden("admin policy unavailable")
	}
	if !ok {
		s.Logger.DebugContext(ctx, "admin: operation denied by policy",
			"operation", string(op), "user_id", requester.ID, "global_role", string(requester.Role))
		return apperr.Forbidden(rbac.ReasonInsufficientGlobal)
	}
	return nil
}

func (s *Service) gate(ctx context.Context, op policyengine.Operation) (*userdomain.User, error) {
	requester, err := s.Authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, requester, op); err != nil {
		return nil, err
	}
	return requester, nil
}

func (s *Service) loadUser(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// ListUsers returns every account, oldest first.
func (s *Service) ListUsers(ctx context.Context) ([]*userdomain.User, error) {
	if _, err := s.gate(ctx, policyengine.OpViewUsers); err != nil {
		return nil, err
	}
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, apperr.Storage("list users", err)
	}
	return users, nil
}

// SetRole changes targetID's global role to roleName.
func (s *Service) SetRole(ctx context.Context, targetID, roleName string) (*userdomain.User, error) {
	requester, err := s.Authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	newRole, err := userdomain.ParseRole(roleName)
	if err != nil {
		return nil, apperr.InvalidInput("invalid role")
	}
	if err := s.allow(ctx, requester, policyengine.OpSetRole); err != nil {
		return nil, err
	}
	return s.setRole(ctx, requester, targetID, newRole)
}

// ToggleAdmin is the legacy admin flag switch. It goes through the same rules as SetRole:
// true sets moderator, false sets user.
func (s *Service) ToggleAdmin(ctx context.Context, targetID string, admin bool) (*userdomain.User, error) {
	requester, err := s.gate(ctx, policyengine.OpToggleAdmin)
	if err != nil {
		return nil, err
	}
	newRole := userdomain.RoleUser
	if admin {
		newRole = userdomain.RoleModerator
	}
	return s.setRole(ctx, requester, targetID, newRole)
}

func (s *Service) setRole(ctx context.Context, requester *userdomain.User, targetID string, newRole userdomain.Role) (*userdomain.User, error) {
	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := rbac.AuthorizeGlobalRoleChange(requester, target, newRole); err != nil {
		s.Logger.DebugContext(ctx, "admin: role change denied", "by", requester.ID, "target", target.ID,
			"from", string(target.Role), "to", string(newRole))
		return nil, err
	}
	if err := s.Users.UpdateRole(ctx, target.ID, newRole); err != nil {
		return nil, apperr.Storage("update role", err)
	}
	s.Logger.InfoContext(ctx, "admin: role changed", "by", requester.ID, "target", target.ID,
		"from", string(target.Role), "to", string(newRole))
	target.Role = newRole
	return target, nil
}

// DeleteUser removes targetID's account with its memberships and identities.
func (s *Service) DeleteUser(ctx context.Context, targetID string) error {
	requester, err := s.gate(ctx, policyengine.OpDeleteUser)
	if err != nil {
		return err
	}
	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return err
	}
	if err := rbac.AuthorizeDeleteUser(requester, target); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, target.ID); err != nil {
		return apperr.Storage("delete user", err)
	}
	s.Logger.InfoContext(ctx, "admin: user deleted", "by", requester.ID, "target", target.ID, "role", string(target.Role))
	return nil
}

// SetSubscription changes targetID's subscription tier.
func (s *Service) SetSubscription(ctx context.Context, targetID, tier string) (*userdomain.User, error) {
	requester, err := s.Authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	sub, err := userdomain.ParseSubscription(tier)
	if err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := s.allow(ctx, requester, policyengine.OpSetSubscription); err != nil {
		return nil, err
	}
	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.Users.SetSubscription(ctx, target.ID, sub); err != nil {
		return nil, apperr.Storage("update subscription", err)
	}
	target.Subscription = sub
	return target, nil
}

// ListWorkspaces returns every workspace with its creator, newest first.
func (s *Service) ListWorkspaces(ctx context.Context) ([]*workspacedomain.Summary, error) {
	if _, err := s.gate(ctx, policyengine.OpViewWorkspaces); err != nil {
		return nil, err
	}
	list, err := s.Workspaces.ListAll(ctx)
	if err != nil {
		return nil, apperr.Storage("list workspaces", err)
	}
	return list, nil
}

// DeleteWorkspace removes a workspace by id regardless of the requester's membership.
func (s *Service) DeleteWorkspace(ctx context.Context, id string) error {
	requester, err := s.gate(ctx, policyengine.OpDeleteWorkspace)
	if err != nil {
		return err
	}
	w, err := s.Workspaces.GetByID(ctx, id)
	if err != nil {
		return apperr.Storage("load workspace", err)
	}
	if w == nil {
		return apperr.NotFound("workspace not found")
	}
	middleware.SetWorkspaceID(ctx, w.ID)
	if err := workspaceservice.Purge(ctx, s.Members, s.Workspaces, w.ID); err != nil {
		return err
	}
	s.Logger.InfoContext(ctx, "admin: workspace deleted", "by", requester.ID, "workspace_id", w.ID, "name", w.Name)
	return nil
}

// ListReports returns every report with workspace and reporter details, newest first.
func (s *Service) ListReports(ctx context.Context) ([]*reportdomain.Summary, error) {
	if _, err := s.gate(ctx, policyengine.OpViewReports); err != nil {
		return nil, err
	}
	list, err := s.Reports.ListAll(ctx)
	if err != nil {
		return nil, apperr.Storage("list reports", err)
	}
	return list, nil
}

// UpdateReportStatus sets a report's status. Any status may be set again.
func (s *Service) UpdateReportStatus(ctx context.Context, id, status string) (*reportdomain.Report, error) {
	requester, err := s.Authz.Requester(ctx)
	if err != nil {
		return nil, err
	}
	st, err := reportdomain.ParseStatus(status)
	if err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := s.allow(ctx, requester, policyengine.OpUpdateReport); err != nil {
		return nil, err
	}
	r, err := s.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Storage("load report", err)
	}
	if r == nil {
		return nil, apperr.NotFound("report not found")
	}
	at := s.now()
	if err := s.Reports.UpdateStatus(ctx, r.ID, st, at); err != nil {
		return nil, apperr.Storage("update report", err)
	}
	middleware.SetWorkspaceID(ctx, r.WorkspaceID)
	r.Status, r.UpdatedAt = st, at
	return r, nil
}

// PostSiteAnnouncement publishes a site-wide announcement as the requester.
func (s *Service) PostSiteAnnouncement(ctx context.Context, title, message, level string) (*announcementdomain.SiteAnnouncement, error) {
	draft := &announcementdomain.SiteAnnouncement{Title: title, Message: message, Level: announcementdomain.Level(level)}
	if err := draft.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	requester, err := s.gate(ctx, policyengine.OpPostSiteAnnouncement)
	if err != nil {
		return nil, err
	}
	return s.Announcements.PostSite(ctx, requester, draft.Title, draft.Message, string(draft.Level))
}

// AuditLogs pages through a workspace's audit trail, newest first. An empty workspaceID
// selects site-wide events.
func (s *Service) AuditLogs(ctx context.Context, workspaceID string, limit, offset int32) ([]*auditdomain.AuditLog, error) {
	if _, err := s.gate(ctx, policyengine.OpViewAuditLogs); err != nil {
		return nil, err
	}
	if workspaceID == "" {
		workspaceID = auditdomain.SystemScope
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.Audit.ListByWorkspace(ctx, workspaceID, limit, offset)
	if err != nil {
		return nil, apperr.Storage("list audit logs", err)
	}
	return logs, nil
}
