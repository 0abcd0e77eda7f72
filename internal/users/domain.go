package users

import (
	"time"

	"github.com/abdalhababsah/outlier/internal/rbac"
)

// User represents a user account for management.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserWithRoles is a listing row: the account plus every role it holds.
type UserWithRoles struct {
	User
	Roles []rbac.Role
}

// Assignable reports whether the user can take on managed roles. Holding any
// role without a dashboard type disqualifies the user.
func (u UserWithRoles) Assignable() bool {
	for _, role := range u.Roles {
		if !role.Manageable() {
			return false
		}
	}
	return true
}
