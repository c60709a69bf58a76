package rbac

import (
	"fmt"

	membershipdomain "devspaces/internal/membership/domain"
	"devspaces/internal/platform/apperr"
	userdomain "devspaces/internal/user/domain"
)

// Action is a workspace-scoped operation.
type Action string

const (
	ActionCreateWorkspace   Action = "create_workspace"
	ActionViewOwnWorkspaces Action = "view_own_workspaces"
	ActionAddMember         Action = "add_member"
	ActionViewMembers       Action = "view_members"
	ActionUpdateWorkspace   Action = "update_workspace"
	ActionDeleteWorkspace   Action = "delete_workspace"
	ActionCreateTask        Action = "create_task"
	ActionViewTasks         Action = "view_tasks"
	ActionAssignTask        Action = "assign_task"
	ActionPostAnnouncement  Action = "post_announcement"
	ActionViewAnnouncements Action = "view_announcements"
	ActionCreateReport      Action = "create_report"
)

// materializes reports whether an owner's visit for this action creates their admin membership.
// Creating a workspace and reporting one do not touch membership.
func (a Action) materializes() bool {
	return a != ActionCreateWorkspace && a != ActionCreateReport && a != ActionViewOwnWorkspaces
}

// IsWorkspaceAdmin is true for admin and head-developer members, and for the global owner
// in every workspace regardless of membership.
func IsWorkspaceAdmin(m membershipdomain.Role, global userdomain.Role) bool {
	if global == userdomain.RoleOwner {
		return true
	}
	return m == membershipdomain.RoleAdmin || m == membershipdomain.RoleHeadDeveloper
}

func CanManageMembers(m membershipdomain.Role, global userdomain.Role) bool {
	return IsWorkspaceAdmin(m, global)
}

func CanAssignTasks(m membershipdomain.Role, global userdomain.Role) bool {
	return IsWorkspaceAdmin(m, global)
}

func CanCustomizeWorkspace(m membershipdomain.Role, global userdomain.Role) bool {
	return IsWorkspaceAdmin(m, global)
}

// CanDeleteWorkspace excludes head-developers: only admin members and the global owner qualify.
func CanDeleteWorkspace(m membershipdomain.Role, global userdomain.Role) bool {
	return m == membershipdomain.RoleAdmin || global == userdomain.RoleOwner
}

// CanPostWorkspaceAnnouncement requires the global owner; workspace admins do not qualify.
func CanPostWorkspaceAnnouncement(global userdomain.Role) bool {
	return global == userdomain.RoleOwner
}

// AuthorizeWorkspaceAction decides action for a requester with the given global role and
// membership role (empty when not a member). Denials are Forbidden with a specific reason.
func AuthorizeWorkspaceAction(global userdomain.Role, m membershipdomain.Role, action Action) error {
	member := m != ""
	var allowed bool
	var reason string
	switch action {
	case ActionCreateWorkspace, ActionViewOwnWorkspaces, ActionCreateReport:
		allowed = true
	case ActionAddMember:
		allowed, reason = CanManageMembers(m, global), "only workspace admins can add members"
	case ActionViewMembers:
		allowed, reason = member || global == userdomain.RoleOwner, "you are not a member of this workspace"
	case ActionUpdateWorkspace:
		allowed, reason = m == membershipdomain.RoleAdmin, "only workspace admins can rename or describe the workspace"
	case ActionDeleteWorkspace:
		allowed, reason = CanDeleteWorkspace(m, global), "only workspace admins can delete the workspace"
	case ActionCreateTask, ActionViewTasks, ActionViewAnnouncements:
		allowed, reason = member, "you are not a member of this workspace"
	case ActionAssignTask:
		allowed, reason = CanAssignTasks(m, global), "only workspace admins can assign tasks"
	case ActionPostAnnouncement:
		allowed, reason = CanPostWorkspaceAnnouncement(global), "only the site owner can post workspace announcements"
	default:
		return apperr.InvalidInput(fmt.Sprintf("unknown workspace action %q", action))
	}
	if !allowed {
		return apperr.Forbidden(reason)
	}
	return nil
}
