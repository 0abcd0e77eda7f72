package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The fixture is a compatibility contract: deployed role and permission
// assignments reference these rows by name, so the sets below must not
// drift.

func TestSeedFixtureShape(t *testing.T) {
	fixture := SeedFixture()

	assert.Len(t, fixture.DashboardTypes, 3)
	assert.Len(t, fixture.Roles, 4)
	assert.Len(t, fixture.Permissions, 24)

	typeNames := make([]string, 0, len(fixture.DashboardTypes))
	for _, dt := range fixture.DashboardTypes {
		typeNames = append(typeNames, dt.Name)
	}
	assert.Equal(t, []string{DashboardAdministration, DashboardStaff, DashboardProject}, typeNames)
}

func TestSeedFixturePermissionBlocks(t *testing.T) {
	fixture := SeedFixture()

	counts := make(map[string]int)
	for _, perm := range fixture.Permissions {
		counts[perm.DashboardType]++
	}
	assert.Equal(t, 13, counts[DashboardAdministration])
	assert.Equal(t, 5, counts[DashboardStaff])
	assert.Equal(t, 6, counts[DashboardProject])
}

func TestSeedFixtureRoleNamesAreValid(t *testing.T) {
	fixture := SeedFixture()
	for _, role := range fixture.Roles {
		assert.Regexp(t, `^[a-z_]+$`, role.Name)
	}
}

func TestSeedFixtureRolesReferenceKnownTypes(t *testing.T) {
	fixture := SeedFixture()
	known := make(map[string]struct{}, len(fixture.DashboardTypes))
	for _, dt := range fixture.DashboardTypes {
		known[dt.Name] = struct{}{}
	}
	for _, role := range fixture.Roles {
		_, ok := known[role.DashboardType]
		assert.True(t, ok, "role %s references unknown dashboard type %s", role.Name, role.DashboardType)
	}
	for _, perm := range fixture.Permissions {
		_, ok := known[perm.DashboardType]
		assert.True(t, ok, "permission %s references unknown dashboard type %s", perm.Name, perm.DashboardType)
	}
}

func TestSeedFixtureRolePermissionAssignments(t *testing.T) {
	fixture := SeedFixture()

	require.Equal(t, map[string]string{
		RoleAdmin:        DashboardAdministration,
		RoleStaff:        DashboardStaff,
		RoleProjectOwner: DashboardProject,
	}, fixture.RolePermissions)

	// super_admin gets no explicit permissions; its access comes from the
	// evaluator bypass.
	_, ok := fixture.RolePermissions[RoleSuperAdmin]
	assert.False(t, ok)
}

func TestSeedFixtureNamesAreUnique(t *testing.T) {
	fixture := SeedFixture()

	seen := make(map[string]struct{})
	for _, perm := range fixture.Permissions {
		_, dup := seen[perm.Name]
		require.False(t, dup, "duplicate permission name %s", perm.Name)
		seen[perm.Name] = struct{}{}
	}

	seen = make(map[string]struct{})
	for _, role := range fixture.Roles {
		_, dup := seen[role.Name]
		require.False(t, dup, "duplicate role name %s", role.Name)
		seen[role.Name] = struct{}{}
	}
}
