package domain

import (
	"fmt"
	"strings"
)

// Role is a global, account-wide privilege level.
type Role string

const (
	RoleUser          Role = "user"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
	RoleCoOwner       Role = "co-owner"
	RoleOwner         Role = "owner"
)

var roleLevels = map[Role]int{
	RoleUser:          1,
	RoleModerator:     2,
	RoleAdministrator: 3,
	RoleCoOwner:       4,
	RoleOwner:         5,
}

// Roles returns every global role, lowest privilege first.
func Roles() []Role {
	return []Role{RoleUser, RoleModerator, RoleAdministrator, RoleCoOwner, RoleOwner}
}

// Level returns the privilege level of r. Unknown or empty roles rank as RoleUser.
func (r Role) Level() int {
	if l, ok := roleLevels[r]; ok {
		return l
	}
	return roleLevels[RoleUser]
}

// IsAtLeast reports whether r ranks at or above min.
func (r Role) IsAtLeast(min Role) bool {
	return r.Level() >= min.Level()
}

// IsAdmin is the derived admin flag: moderator and above.
func (r Role) IsAdmin() bool {
	return r.IsAtLeast(RoleModerator)
}

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// ParseRole validates s (case-insensitive, surrounding space ignored) as a global role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", s)
	}
	return r, nil
}
