package domain

import "time"

// AuditLog is one recorded mutation. WorkspaceID is SystemScope for site-wide events.
type AuditLog struct {
	ID          string
	WorkspaceID string
	UserID      string
	Action      string
	Resource    string
	IP          string
	Metadata    string
	CreatedAt   time.Time
}

// SystemScope is the workspace_id recorded for events not tied to a workspace (signup, admin actions).
const SystemScope = "_system"
