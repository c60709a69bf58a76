// Package rbac is the authorization engine. It combines a user's global role with their
// per-workspace membership role to allow or deny each operation.
package rbac

import (
	"devspaces/internal/platform/apperr"
	userdomain "devspaces/internal/user/domain"
)

// Reasons returned with Forbidden outcomes of global operations.
const (
	ReasonOwnerOnly          = "only the site owner can manage user roles"
	ReasonRoleChangeDenied   = "insufficient permissions to change this role"
	ReasonDeleteSelf         = "you cannot delete your own account"
	ReasonDeleteUserDenied   = "insufficient permissions to delete this user"
	ReasonInsufficientGlobal = "insufficient permissions"
)

// AuthorizeGlobalRoleChange decides whether requester may set target's global role to newRole.
// An unknown newRole is InvalidInput before any privilege check. The operation is gated at owner,
// then requires the requester to strictly outrank both the target's current role and newRole.
func AuthorizeGlobalRoleChange(requester, target *userdomain.User, newRole userdomain.Role) error {
	if !newRole.Valid() {
		return apperr.InvalidInput("invalid role")
	}
	if requester.Role != userdomain.RoleOwner {
		return apperr.Forbidden(ReasonOwnerOnly)
	}
	level := requester.Role.Level()
	if level <= target.Role.Level() || level <= newRole.Level() {
		return apperr.Forbidden(ReasonRoleChangeDenied)
	}
	return nil
}

// AuthorizeDeleteUser decides whether requester may delete target. Deleting oneself is always
// denied, independently of the level comparison.
func AuthorizeDeleteUser(requester, target *userdomain.User) error {
	if requester.ID == target.ID {
		return apperr.Forbidden(ReasonDeleteSelf)
	}
	if requester.Role != userdomain.RoleOwner {
		return apperr.Forbidden(ReasonOwnerOnly)
	}
	if requester.Role.Level() <= target.Role.Level() {
		return apperr.Forbidden(ReasonDeleteUserDenied)
	}
	return nil
}

// RequireGlobalRole returns Forbidden unless role ranks at or above min.
func RequireGlobalRole(role, min userdomain.Role) error {
	if !role.IsAtLeast(min) {
		return apperr.Forbidden(ReasonInsufficientGlobal)
	}
	return nil
}
