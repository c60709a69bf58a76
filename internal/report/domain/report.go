package domain

import (
	"fmt"
	"strings"
	"time"
)

// Report flags a workspace for review by site staff.
type Report struct {
	ID          string
	WorkspaceID string
	ReporterID  string
	Reason      string
	Description string
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is a report joined with workspace and reporter details, for the admin surface.
type Summary struct {
	Report
	WorkspaceName    string
	ReporterUsername string
	ReporterEmail    string
}

// Status is advisory: any status may be set again by staff.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewed  Status = "reviewed"
	StatusDismissed Status = "dismissed"
	StatusResolved  Status = "resolved"
)

// ParseStatus validates s as a report status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusReviewed, StatusDismissed, StatusResolved:
		return st, nil
	default:
		return "", fmt.Errorf("invalid report status %q", s)
	}
}
