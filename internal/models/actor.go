package models

import (
	"slices"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of a domain operation: the user ID from
// the JWT subject plus the platform roles loaded from user_roles.
type Actor struct {
	UserID uuid.UUID
	Roles  []Role
}

// HasRole reports whether the actor holds any of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if slices.Contains(a.Roles, r) {
			return true
		}
	}
	return false
}
