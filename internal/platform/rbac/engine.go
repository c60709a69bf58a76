package rbac

import (
	"context"
	"log/slog"
	"time"

	membershipdomain "devspaces/internal/membership/domain"
	"devspaces/internal/platform/apperr"
	"devspaces/internal/server/middleware"
	userdomain "devspaces/internal/user/domain"
)

// UserGetter loads the requester's account.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// MembershipStore reads memberships and idempotently creates the owner's.
type MembershipStore interface {
	Get(ctx context.Context, workspaceID, userID string) (*membershipdomain.Membership, error)
	UpsertIgnoreConflict(ctx context.Context, m *membershipdomain.Membership) error
}

// Engine evaluates authorization decisions against a fresh snapshot of the requester's
// global role and membership. It holds no locks between check and act.
type Engine struct {
	users   UserGetter
	members MembershipStore
	log     *slog.Logger
	now     func() time.Time
}

// NewEngine returns an Engine. logger may be nil.
func NewEngine(users UserGetter, members MembershipStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{users: users, members: members, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Requester resolves the authenticated user from ctx. Missing identity, or an identity
// whose account no longer exists, is Unauthenticated.
func (e *Engine) Requester(ctx context.Context) (*userdomain.User, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, apperr.Unauthenticated("login required")
	}
	u, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("load requester", err)
	}
	if u == nil {
		return nil, apperr.Unauthenticated("login required")
	}
	return u, nil
}

// MaterializeOwnerMembership ensures ownerID has a membership in workspaceID, inserting an
// admin row if none exists. An existing row is left as is. Concurrent calls yield one row.
func (e *Engine) MaterializeOwnerMembership(ctx context.Context, workspaceID, ownerID string) error {
	err := e.members.UpsertIgnoreConflict(ctx, &membershipdomain.Membership{
		WorkspaceID: workspaceID,
		UserID:      ownerID,
		Role:        membershipdomain.RoleAdmin,
		CreatedAt:   e.now(),
	})
	if err != nil {
		return apperr.Storage("materialize owner membership", err)
	}
	return nil
}

// ResolveMembership returns the requester's membership role in the workspace, or "" if none.
// For the global owner a missing membership is materialized first when the action calls for it.
func (e *Engine) ResolveMembership(ctx context.Context, requester *userdomain.User, workspaceID string, action Action) (membershipdomain.Role, error) {
	if requester.Role == userdomain.RoleOwner && action.materializes() {
		if err := e.MaterializeOwnerMembership(ctx, workspaceID, requester.ID); err != nil {
			return "", err
		}
	}
	m, err := e.members.Get(ctx, workspaceID, requester.ID)
	if err != nil {
		return "", apperr.Storage("load membership", err)
	}
	if m == nil {
		return "", nil
	}
	return m.Role, nil
}

// AuthorizeWorkspace resolves the requester's membership in workspaceID and evaluates action.
// The caller must already have established that the workspace exists. On success it returns
// the membership role the decision was made with.
func (e *Engine) AuthorizeWorkspace(ctx context.Context, requester *userdomain.User, workspaceID string, action Action) (membershipdomain.Role, error) {
	middleware.SetWorkspaceID(ctx, workspaceID)
	role, err := e.ResolveMembership(ctx, requester, workspaceID, action)
	if err != nil {
		return "", err
	}
	if err := AuthorizeWorkspaceAction(requester.Role, role, action); err != nil {
		e.log.DebugContext(ctx, "rbac: workspace action denied",
			"action", string(action), "user_id", requester.ID, "workspace_id", workspaceID,
			"global_role", string(requester.Role), "membership_role", string(role))
		return "", err
	}
	return role, nil
}
