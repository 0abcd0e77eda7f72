package rbac

import "time"

// Dashboard type names seeded at bootstrap. The set is closed: new types are
// a schema change, not a runtime operation.
const (
	DashboardAdministration = "administration"
	DashboardStaff          = "staff"
	DashboardProject        = "project"
)

// Distinguished role names.
const (
	RoleSuperAdmin   = "super_admin"
	RoleAdmin        = "admin"
	RoleProjectOwner = "project_owner"
	RoleStaff        = "staff"
)

// Route identifiers returned by PrimaryDashboardRoute.
const (
	RouteAdminDashboard        = "admin.dashboard"
	RouteProjectOwnerDashboard = "project-owner.dashboard"
	RouteStaffDashboard        = "staff.dashboard"
	RouteDefaultDashboard      = "dashboard"
)

// DashboardType is immutable reference data scoping roles and permissions.
type DashboardType struct {
	ID          int64
	Name        string
	DisplayName string
	Description string
}

// Permission is an atomic capability. A nil DashboardTypeID marks a global
// permission assignable to roles of any dashboard type.
type Permission struct {
	ID              int64
	Name            string
	DisplayName     string
	Description     string
	DashboardTypeID *int64
}

// Role groups permissions under at most one dashboard type.
type Role struct {
	ID              int64
	Name            string
	DisplayName     string
	Description     string
	DashboardTypeID *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Manageable reports whether the role is exposed to management operations.
// Roles without a dashboard type are read-only legacy records.
func (r Role) Manageable() bool {
	return r.DashboardTypeID != nil
}

// RoleSummary augments Role with listing metadata.
type RoleSummary struct {
	Role
	DashboardTypeName string
	UserCount         int
	PermissionCount   int
}

// GrantedRole is a role as held by a user, with its dashboard type resolved
// and its permission set loaded.
type GrantedRole struct {
	ID                int64
	Name              string
	DashboardTypeID   *int64
	DashboardTypeName string
	Permissions       []Permission
}

// UserGrants is the identity snapshot the Access Evaluator reads: every role
// a user holds plus directly granted permissions. It is loaded once per check
// and never mutated by the evaluator.
type UserGrants struct {
	UserID int64
	Roles  []GrantedRole
	Direct []Permission
}

// HasRole reports whether the snapshot contains a role with the given name.
func (g UserGrants) HasRole(name string) bool {
	for _, role := range g.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the user holds the super_admin role.
func (g UserGrants) IsSuperAdmin() bool {
	return g.HasRole(RoleSuperAdmin)
}
