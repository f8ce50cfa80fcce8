package core

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

// Role sets of the circulation operations.
var (
	ReaderRoles = []circulation.Role{circulation.RoleReader}
	StaffRoles  = []circulation.Role{circulation.RoleLibrarian, circulation.RoleAdmin}
)

// RequireRole returns ErrRoleNotAllowed unless the actor holds one of the roles.
func RequireRole(actor circulation.Actor, roles ...circulation.Role) error {
	if !actor.HasAnyRole(roles...) {
		return circulation.ErrRoleNotAllowed
	}

	return nil
}
