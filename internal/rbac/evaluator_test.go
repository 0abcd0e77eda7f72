package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perm(id int64, name string) Permission {
	return Permission{ID: id, Name: name}
}

func grantedRole(name, dashboardType string, perms ...Permission) GrantedRole {
	return GrantedRole{Name: name, DashboardTypeName: dashboardType, Permissions: perms}
}

func TestCanDoSuperAdminBypassesEverything(t *testing.T) {
	grants := UserGrants{
		UserID: 1,
		Roles:  []GrantedRole{grantedRole(RoleSuperAdmin, DashboardAdministration)},
	}

	assert.True(t, CanDo(grants, "roles-create"))
	assert.True(t, CanDo(grants, "permission-that-does-not-exist"))
	assert.True(t, CanDo(grants, ""))
}

func TestCanDoChecksRoleAndDirectPermissions(t *testing.T) {
	grants := UserGrants{
		UserID: 2,
		Roles: []GrantedRole{
			grantedRole(RoleStaff, DashboardStaff, perm(1, "staff-tasks-manage")),
		},
		Direct: []Permission{perm(2, "staff-documents-view")},
	}

	assert.True(t, CanDo(grants, "staff-tasks-manage"))
	assert.True(t, CanDo(grants, "staff-documents-view"))
	assert.False(t, CanDo(grants, "roles-create"))
	assert.False(t, CanDo(UserGrants{}, "staff-tasks-manage"))
}

func TestCanDoIgnoresTeamArgument(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{grantedRole(RoleStaff, DashboardStaff, perm(1, "staff-tasks-manage"))},
	}

	assert.True(t, CanDo(grants, "staff-tasks-manage", "any-team"))
	assert.False(t, CanDo(grants, "roles-create", "any-team"))
}

func TestCanAccessDashboardSuperAdminOnlyAdministration(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{grantedRole(RoleSuperAdmin, DashboardAdministration)},
	}

	assert.True(t, CanAccessDashboard(grants, DashboardAdministration))
	assert.False(t, CanAccessDashboard(grants, DashboardStaff))
	assert.False(t, CanAccessDashboard(grants, DashboardProject))
}

func TestCanAccessDashboardMatchesRoleType(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{
			grantedRole(RoleStaff, DashboardStaff),
			grantedRole(RoleProjectOwner, DashboardProject),
		},
	}

	assert.True(t, CanAccessDashboard(grants, DashboardStaff))
	assert.True(t, CanAccessDashboard(grants, DashboardProject))
	assert.False(t, CanAccessDashboard(grants, DashboardAdministration))
	assert.False(t, CanAccessDashboard(grants, "unknown"))
}

func TestCanAccessDashboardLegacyRoleWithoutType(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{{Name: "legacy_role"}},
	}

	assert.False(t, CanAccessDashboard(grants, DashboardAdministration))
	assert.False(t, CanAccessDashboard(grants, ""))
}

func TestDashboardTypesDeduplicatesInFirstSeenOrder(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{
			grantedRole("staff_lead", DashboardStaff),
			grantedRole(RoleProjectOwner, DashboardProject),
			grantedRole(RoleStaff, DashboardStaff),
			{Name: "legacy_role"},
		},
	}

	assert.Equal(t, []string{DashboardStaff, DashboardProject}, DashboardTypes(grants))
}

func TestDashboardTypesSuperAdmin(t *testing.T) {
	grants := UserGrants{
		Roles: []GrantedRole{
			grantedRole(RoleSuperAdmin, DashboardAdministration),
			grantedRole(RoleStaff, DashboardStaff),
		},
	}

	assert.Equal(t, []string{DashboardAdministration}, DashboardTypes(grants))
}

func TestEffectivePermissionsDeduplicatesUnion(t *testing.T) {
	shared := perm(1, "staff-tasks-manage")
	grants := UserGrants{
		Roles: []GrantedRole{
			grantedRole(RoleStaff, DashboardStaff, shared, perm(2, "staff-profile-manage")),
			grantedRole("staff_lead", DashboardStaff, shared, perm(3, "staff-timesheet-manage")),
		},
		Direct: []Permission{shared, perm(4, "staff-documents-view")},
	}

	effective := EffectivePermissions(grants, nil)
	require.Len(t, effective, 4)

	names := make([]string, 0, len(effective))
	for _, p := range effective {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"staff-tasks-manage", "staff-profile-manage", "staff-timesheet-manage", "staff-documents-view"}, names)
}

func TestEffectivePermissionsSuperAdminGetsCatalog(t *testing.T) {
	catalog := []Permission{perm(1, "roles-create"), perm(2, "staff-tasks-manage")}
	grants := UserGrants{
		Roles: []GrantedRole{grantedRole(RoleSuperAdmin, DashboardAdministration)},
	}

	effective := EffectivePermissions(grants, catalog)
	require.Len(t, effective, 2)
	assert.Equal(t, catalog, effective)

	// The result is a copy; mutating it must not touch the catalog.
	effective[0].Name = "mutated"
	assert.Equal(t, "roles-create", catalog[0].Name)
}

func TestEffectivePermissionsEmptyGrants(t *testing.T) {
	assert.Empty(t, EffectivePermissions(UserGrants{}, nil))
}

func TestPrimaryDashboardRoutePriorityOrder(t *testing.T) {
	tests := []struct {
		name   string
		grants UserGrants
		want   string
	}{
		{
			name:   "super admin lands on admin dashboard",
			grants: UserGrants{Roles: []GrantedRole{grantedRole(RoleSuperAdmin, DashboardAdministration)}},
			want:   RouteAdminDashboard,
		},
		{
			name: "administration beats project and staff",
			grants: UserGrants{Roles: []GrantedRole{
				grantedRole(RoleStaff, DashboardStaff),
				grantedRole(RoleAdmin, DashboardAdministration),
				grantedRole(RoleProjectOwner, DashboardProject),
			}},
			want: RouteAdminDashboard,
		},
		{
			name: "project beats staff",
			grants: UserGrants{Roles: []GrantedRole{
				grantedRole(RoleStaff, DashboardStaff),
				grantedRole(RoleProjectOwner, DashboardProject),
			}},
			want: RouteProjectOwnerDashboard,
		},
		{
			name:   "staff only",
			grants: UserGrants{Roles: []GrantedRole{grantedRole(RoleStaff, DashboardStaff)}},
			want:   RouteStaffDashboard,
		},
		{
			name:   "legacy admin role without dashboard type",
			grants: UserGrants{Roles: []GrantedRole{{Name: RoleAdmin}}},
			want:   RouteAdminDashboard,
		},
		{
			name:   "legacy project owner role without dashboard type",
			grants: UserGrants{Roles: []GrantedRole{{Name: RoleProjectOwner}}},
			want:   RouteProjectOwnerDashboard,
		},
		{
			name:   "legacy staff role without dashboard type",
			grants: UserGrants{Roles: []GrantedRole{{Name: RoleStaff}}},
			want:   RouteStaffDashboard,
		},
		{
			name:   "no recognizable role falls back to the default route",
			grants: UserGrants{Roles: []GrantedRole{{Name: "legacy_role"}}},
			want:   RouteDefaultDashboard,
		},
		{
			name:   "empty grants",
			grants: UserGrants{},
			want:   RouteDefaultDashboard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryDashboardRoute(tt.grants))
		})
	}
}
