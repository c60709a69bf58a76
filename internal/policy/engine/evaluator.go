package engine

import (
	"context"

	userdomain "devspaces/internal/user/domain"
)

// Operation names one entry point of the site administration surface.
type Operation string

const (
	OpViewUsers            Operation = "view_users"
	OpSetRole              Operation = "set_role"
	OpToggleAdmin          Operation = "toggle_admin"
	OpDeleteUser           Operation = "delete_user"
	OpSetSubscription      Operation = "set_subscription"
	OpViewWorkspaces       Operation = "view_workspaces"
	OpDeleteWorkspace      Operation = "delete_workspace"
	OpViewReports          Operation = "view_reports"
	OpUpdateReport         Operation = "update_report"
	OpPostSiteAnnouncement Operation = "post_site_announcement"
	OpViewAuditLogs        Operation = "view_audit_logs"
)

// Operations returns every admin operation.
func Operations() []Operation {
	return []Operation{
		OpViewUsers, OpSetRole, OpToggleAdmin, OpDeleteUser, OpSetSubscription,
		OpViewWorkspaces, OpDeleteWorkspace, OpViewReports, OpUpdateReport,
		OpPostSiteAnnouncement, OpViewAuditLogs,
	}
}

// Evaluator decides which global roles reach which admin operation.
type Evaluator interface {
	// Allow reports whether a requester holding role may invoke op. An error means the
	// policy could not be evaluated; callers must treat it as a denial.
	Allow(ctx context.Context, role userdomain.Role, op Operation) (bool, error)
}
