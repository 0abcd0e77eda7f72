package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store Store) *Service {
	return NewService(store, nil, nil)
}

func TestServiceGrantsLoadsRolesWithPermissions(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{1: {}}
	store.rolePerms[1] = map[int64]struct{}{10: {}}
	store.userPerms[500] = map[int64]struct{}{13: {}}
	svc := newTestService(store)

	grants, err := svc.Grants(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, grants.Roles, 1)
	assert.Equal(t, RoleAdmin, grants.Roles[0].Name)
	assert.Equal(t, DashboardAdministration, grants.Roles[0].DashboardTypeName)
	require.Len(t, grants.Roles[0].Permissions, 1)
	assert.Equal(t, "roles-create", grants.Roles[0].Permissions[0].Name)
	require.Len(t, grants.Direct, 1)
	assert.Equal(t, "profile-view", grants.Direct[0].Name)
}

func TestServiceCheckPermission(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{1: {}}
	store.rolePerms[1] = map[int64]struct{}{10: {}}
	svc := newTestService(store)

	can, err := svc.CheckPermission(context.Background(), 500, "roles-create")
	require.NoError(t, err)
	assert.True(t, can)

	can, err = svc.CheckPermission(context.Background(), 500, "staff-tasks-manage")
	require.NoError(t, err)
	assert.False(t, can)

	// Unknown user has an empty snapshot, not an error.
	can, err = svc.CheckPermission(context.Background(), 999, "roles-create")
	require.NoError(t, err)
	assert.False(t, can)
}

func TestServiceEffectivePermissionsSuperAdmin(t *testing.T) {
	store := seededStore()
	store.roles[5] = Role{ID: 5, Name: RoleSuperAdmin, DisplayName: "Super Administrator", DashboardTypeID: int64Ptr(typeAdminID)}
	store.userRoles[500] = map[int64]struct{}{5: {}}
	svc := newTestService(store)

	names, err := svc.EffectivePermissions(context.Background(), 500)
	require.NoError(t, err)
	// The whole catalog, with no explicit grants at all.
	assert.Equal(t, []string{"roles-create", "staff-tasks-manage", "project-projects-manage", "profile-view"}, names)
}

func TestServiceGetManageableRoleHidesUnmanageable(t *testing.T) {
	svc := newTestService(seededStore())

	role, err := svc.GetManageableRole(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role.Name)

	_, err = svc.GetManageableRole(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetManageableRole(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListManageableRolesSkipsLegacyRoles(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{1: {}}
	store.rolePerms[1] = map[int64]struct{}{10: {}, 13: {}}
	svc := newTestService(store)

	roles, err := svc.ListManageableRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, RoleAdmin, roles[0].Name)
	assert.Equal(t, DashboardAdministration, roles[0].DashboardTypeName)
	assert.Equal(t, 1, roles[0].UserCount)
	assert.Equal(t, 2, roles[0].PermissionCount)
}

func TestServicePermissionsByDashboard(t *testing.T) {
	svc := newTestService(seededStore())

	perms, err := svc.PermissionsByDashboard(context.Background(), DashboardStaff)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "staff-tasks-manage", perms[0].Name)

	perms, err = svc.PermissionsByDashboard(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestServicePrimaryDashboardRoute(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{1: {}}
	svc := newTestService(store)

	route, err := svc.PrimaryDashboardRoute(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, RouteAdminDashboard, route)

	route, err = svc.PrimaryDashboardRoute(context.Background(), 501)
	require.NoError(t, err)
	assert.Equal(t, RouteDefaultDashboard, route)
}

func TestServiceStats(t *testing.T) {
	svc := newTestService(seededStore())

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Users: 2, Roles: 2, Permissions: 4, DashboardTypes: 3}, stats)
}
