package domain

import (
	"fmt"
	"strings"
	"time"
)

// Membership links a user to a workspace with a per-workspace role.
// (WorkspaceID, UserID) is unique.
type Membership struct {
	WorkspaceID string
	UserID      string
	Role        Role
	CreatedAt   time.Time
}

// Member is a membership joined with the member's account details, for listings.
type Member struct {
	UserID   string
	Username string
	Email    string
	Role     Role
}

// Role is a per-workspace role. The zero value means "no membership".
type Role string

const (
	RoleDeveloper     Role = "developer"
	RoleHeadDeveloper Role = "head-developer"
	RoleAdmin         Role = "admin"
)

// Valid reports whether r is one of the assignable membership roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDeveloper, RoleHeadDeveloper, RoleAdmin:
		return true
	}
	return false
}

// ParseRole validates s as a membership role. An empty string defaults to developer.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RoleDeveloper, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid workspace role %q; must be developer, head-developer or admin", s)
	}
	return r, nil
}
