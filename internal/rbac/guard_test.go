package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// MOCK STORE
// ============================================================================

type mockStore struct {
	dashboardTypes map[int64]DashboardType
	roles          map[int64]Role
	permissions    map[int64]Permission
	rolePerms      map[int64]map[int64]struct{}
	userRoles      map[int64]map[int64]struct{}
	userPerms      map[int64]map[int64]struct{}
	users          map[int64]struct{}
	nextRoleID     int64

	// Error injection
	txError         error
	createRoleError error
	updateRoleError error
	attachPermError error
}

func newMockStore() *mockStore {
	return &mockStore{
		dashboardTypes: make(map[int64]DashboardType),
		roles:          make(map[int64]Role),
		permissions:    make(map[int64]Permission),
		rolePerms:      make(map[int64]map[int64]struct{}),
		userRoles:      make(map[int64]map[int64]struct{}),
		userPerms:      make(map[int64]map[int64]struct{}),
		users:          make(map[int64]struct{}),
		nextRoleID:     100,
	}
}

func (m *mockStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockStore) GetDashboardType(ctx context.Context, id int64) (DashboardType, error) {
	dt, ok := m.dashboardTypes[id]
	if !ok {
		return DashboardType{}, ErrNotFound
	}
	return dt, nil
}

func (m *mockStore) GetDashboardTypeByName(ctx context.Context, name string) (DashboardType, error) {
	for _, dt := range m.dashboardTypes {
		if dt.Name == name {
			return dt, nil
		}
	}
	return DashboardType{}, ErrNotFound
}

func (m *mockStore) ListDashboardTypes(ctx context.Context) ([]DashboardType, error) {
	ids := sortedKeys(m.dashboardTypes)
	out := make([]DashboardType, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.dashboardTypes[id])
	}
	return out, nil
}

func (m *mockStore) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return Role{}, ErrNotFound
	}
	return role, nil
}

func (m *mockStore) GetRoleByName(ctx context.Context, name string) (Role, error) {
	for _, role := range m.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrNotFound
}

func (m *mockStore) ListManageableRoles(ctx context.Context) ([]RoleSummary, error) {
	ids := sortedKeys(m.roles)
	var out []RoleSummary
	for _, id := range ids {
		role := m.roles[id]
		if !role.Manageable() {
			continue
		}
		summary := RoleSummary{Role: role, PermissionCount: len(m.rolePerms[role.ID])}
		summary.DashboardTypeName = m.dashboardTypes[*role.DashboardTypeID].Name
		for _, roleIDs := range m.userRoles {
			if _, ok := roleIDs[role.ID]; ok {
				summary.UserCount++
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (m *mockStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	if m.createRoleError != nil {
		return Role{}, m.createRoleError
	}
	role.ID = m.nextRoleID
	m.nextRoleID++
	role.CreatedAt = time.Now()
	role.UpdatedAt = role.CreatedAt
	m.roles[role.ID] = role
	return role, nil
}

func (m *mockStore) UpdateRole(ctx context.Context, role Role) error {
	if m.updateRoleError != nil {
		return m.updateRoleError
	}
	if _, ok := m.roles[role.ID]; !ok {
		return ErrNotFound
	}
	role.UpdatedAt = time.Now()
	m.roles[role.ID] = role
	return nil
}

func (m *mockStore) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	delete(m.roles, id)
	return nil
}

func (m *mockStore) GetPermission(ctx context.Context, id int64) (Permission, error) {
	p, ok := m.permissions[id]
	if !ok {
		return Permission{}, ErrNotFound
	}
	return p, nil
}

func (m *mockStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	ids := sortedKeys(m.permissions)
	out := make([]Permission, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.permissions[id])
	}
	return out, nil
}

func (m *mockStore) ListPermissionsByDashboardType(ctx context.Context, dashboardTypeID int64) ([]Permission, error) {
	ids := sortedKeys(m.permissions)
	var out []Permission
	for _, id := range ids {
		p := m.permissions[id]
		if p.DashboardTypeID != nil && *p.DashboardTypeID == dashboardTypeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) FilterAssignablePermissionIDs(ctx context.Context, ids []int64, dashboardTypeID int64) ([]int64, error) {
	var out []int64
	for _, id := range ids {
		p, ok := m.permissions[id]
		if !ok {
			continue
		}
		if p.DashboardTypeID == nil || *p.DashboardTypeID == dashboardTypeID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockStore) ListRolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	var out []int64
	for id := range m.rolePerms[roleID] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *mockStore) AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	if m.attachPermError != nil {
		return m.attachPermError
	}
	if m.rolePerms[roleID] == nil {
		m.rolePerms[roleID] = make(map[int64]struct{})
	}
	m.rolePerms[roleID][permissionID] = struct{}{}
	return nil
}

func (m *mockStore) DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	delete(m.rolePerms[roleID], permissionID)
	return nil
}

func (m *mockStore) DetachAllRolePermissions(ctx context.Context, roleID int64) error {
	delete(m.rolePerms, roleID)
	return nil
}

func (m *mockStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	_, ok := m.users[userID]
	return ok, nil
}

func (m *mockStore) CountRoleUsers(ctx context.Context, roleID int64) (int, error) {
	count := 0
	for _, roleIDs := range m.userRoles {
		if _, ok := roleIDs[roleID]; ok {
			count++
		}
	}
	return count, nil
}

func (m *mockStore) AttachRoleToUser(ctx context.Context, userID, roleID int64) error {
	if m.userRoles[userID] == nil {
		m.userRoles[userID] = make(map[int64]struct{})
	}
	m.userRoles[userID][roleID] = struct{}{}
	return nil
}

func (m *mockStore) DetachRoleFromUser(ctx context.Context, userID, roleID int64) error {
	delete(m.userRoles[userID], roleID)
	return nil
}

func (m *mockStore) DetachAllRoleUsers(ctx context.Context, roleID int64) error {
	for _, roleIDs := range m.userRoles {
		delete(roleIDs, roleID)
	}
	return nil
}

func (m *mockStore) UserHasUnmanageableRole(ctx context.Context, userID int64) (bool, error) {
	for roleID := range m.userRoles[userID] {
		if role, ok := m.roles[roleID]; ok && !role.Manageable() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) UserGrants(ctx context.Context, userID int64) (UserGrants, error) {
	grants := UserGrants{UserID: userID}
	roleIDs := make([]int64, 0, len(m.userRoles[userID]))
	for id := range m.userRoles[userID] {
		roleIDs = append(roleIDs, id)
	}
	sort.Slice(roleIDs, func(i, j int) bool { return roleIDs[i] < roleIDs[j] })
	for _, roleID := range roleIDs {
		role := m.roles[roleID]
		granted := GrantedRole{ID: role.ID, Name: role.Name, DashboardTypeID: role.DashboardTypeID}
		if role.DashboardTypeID != nil {
			granted.DashboardTypeName = m.dashboardTypes[*role.DashboardTypeID].Name
		}
		permIDs, _ := m.ListRolePermissionIDs(ctx, roleID)
		for _, permID := range permIDs {
			granted.Permissions = append(granted.Permissions, m.permissions[permID])
		}
		grants.Roles = append(grants.Roles, granted)
	}
	directIDs := make([]int64, 0, len(m.userPerms[userID]))
	for id := range m.userPerms[userID] {
		directIDs = append(directIDs, id)
	}
	sort.Slice(directIDs, func(i, j int) bool { return directIDs[i] < directIDs[j] })
	for _, id := range directIDs {
		grants.Direct = append(grants.Direct, m.permissions[id])
	}
	return grants, nil
}

func (m *mockStore) CountUsers(ctx context.Context) (int, error) { return len(m.users), nil }
func (m *mockStore) CountRoles(ctx context.Context) (int, error) { return len(m.roles), nil }
func (m *mockStore) CountPermissions(ctx context.Context) (int, error) {
	return len(m.permissions), nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ============================================================================
// FIXTURES
// ============================================================================

const (
	typeAdminID   int64 = 1
	typeStaffID   int64 = 2
	typeProjectID int64 = 3
)

func int64Ptr(v int64) *int64 { return &v }

// seededStore returns a mock loaded with the three dashboard types, an
// admin role, a legacy role without a dashboard type, and one permission
// per dashboard type plus a global one.
func seededStore() *mockStore {
	m := newMockStore()
	m.dashboardTypes[typeAdminID] = DashboardType{ID: typeAdminID, Name: DashboardAdministration, DisplayName: "Administration"}
	m.dashboardTypes[typeStaffID] = DashboardType{ID: typeStaffID, Name: DashboardStaff, DisplayName: "Staff"}
	m.dashboardTypes[typeProjectID] = DashboardType{ID: typeProjectID, Name: DashboardProject, DisplayName: "Project"}

	m.roles[1] = Role{ID: 1, Name: RoleAdmin, DisplayName: "Administrator", DashboardTypeID: int64Ptr(typeAdminID)}
	m.roles[2] = Role{ID: 2, Name: "legacy_role", DisplayName: "Legacy"}

	m.permissions[10] = Permission{ID: 10, Name: "roles-create", DashboardTypeID: int64Ptr(typeAdminID)}
	m.permissions[11] = Permission{ID: 11, Name: "staff-tasks-manage", DashboardTypeID: int64Ptr(typeStaffID)}
	m.permissions[12] = Permission{ID: 12, Name: "project-projects-manage", DashboardTypeID: int64Ptr(typeProjectID)}
	m.permissions[13] = Permission{ID: 13, Name: "profile-view"}

	m.users[500] = struct{}{}
	m.users[501] = struct{}{}
	return m
}

func newTestGuard(store Store) *Guard {
	return NewGuard(store, nil, nil, nil)
}

// ============================================================================
// CREATE ROLE
// ============================================================================

func TestCreateRoleFiltersCrossTypePermissions(t *testing.T) {
	store := seededStore()
	guard := newTestGuard(store)

	role, err := guard.CreateRole(context.Background(), CreateRoleParams{
		ActorID:       500,
		Name:          "content_editor",
		DisplayName:   "Content Editor",
		DashboardType: TypeRefByID(typeStaffID),
		PermissionIDs: []int64{10, 11, 13},
	})
	require.NoError(t, err)
	require.NotZero(t, role.ID)
	assert.Equal(t, "content_editor", role.Name)

	attached, err := store.ListRolePermissionIDs(context.Background(), role.ID)
	require.NoError(t, err)
	// The administration permission is silently dropped; the staff and
	// global ones survive.
	assert.Equal(t, []int64{11, 13}, attached)
}

func TestCreateRoleResolvesDashboardTypeByName(t *testing.T) {
	store := seededStore()
	guard := newTestGuard(store)

	role, err := guard.CreateRole(context.Background(), CreateRoleParams{
		Name:          "reviewer",
		DisplayName:   "Reviewer",
		DashboardType: TypeRefByName(DashboardProject),
	})
	require.NoError(t, err)
	require.NotNil(t, role.DashboardTypeID)
	assert.Equal(t, typeProjectID, *role.DashboardTypeID)
}

func TestCreateRoleValidation(t *testing.T) {
	tests := []struct {
		name    string
		params  CreateRoleParams
		field   string
		message string
	}{
		{
			name:    "empty name",
			params:  CreateRoleParams{Name: "", DisplayName: "X", DashboardType: TypeRefByID(typeStaffID)},
			field:   "name",
			message: "The role name is required.",
		},
		{
			name:    "uppercase name",
			params:  CreateRoleParams{Name: "Staff", DisplayName: "X", DashboardType: TypeRefByID(typeStaffID)},
			field:   "name",
			message: "The role name may only contain lowercase letters and underscores.",
		},
		{
			name:    "name with digits",
			params:  CreateRoleParams{Name: "role1", DisplayName: "X", DashboardType: TypeRefByID(typeStaffID)},
			field:   "name",
			message: "The role name may only contain lowercase letters and underscores.",
		},
		{
			name:    "missing display name",
			params:  CreateRoleParams{Name: "editor", DisplayName: "", DashboardType: TypeRefByID(typeStaffID)},
			field:   "display_name",
			message: "The display name is required.",
		},
		{
			name:    "unknown dashboard type",
			params:  CreateRoleParams{Name: "editor", DisplayName: "Editor", DashboardType: TypeRefByID(99)},
			field:   "dashboard_type_id",
			message: "The selected dashboard type is invalid.",
		},
		{
			name:    "duplicate name",
			params:  CreateRoleParams{Name: RoleAdmin, DisplayName: "Another Admin", DashboardType: TypeRefByID(typeAdminID)},
			field:   "name",
			message: "The role name has already been taken.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := newTestGuard(seededStore())
			_, err := guard.CreateRole(context.Background(), tt.params)
			verr, ok := AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, verr.Fields[tt.field], tt.message)
		})
	}
}

func TestCreateRoleLongDescriptionRejected(t *testing.T) {
	guard := newTestGuard(seededStore())
	longDescription := make([]byte, 501)
	for i := range longDescription {
		longDescription[i] = 'a'
	}

	_, err := guard.CreateRole(context.Background(), CreateRoleParams{
		Name:          "editor",
		DisplayName:   "Editor",
		Description:   string(longDescription),
		DashboardType: TypeRefByID(typeStaffID),
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields["description"], "The description may not be greater than 500 characters.")
}

func TestCreateRoleStoreFailureSurfaces(t *testing.T) {
	store := seededStore()
	store.createRoleError = fmt.Errorf("connection reset")
	guard := newTestGuard(store)

	_, err := guard.CreateRole(context.Background(), CreateRoleParams{
		Name:          "editor",
		DisplayName:   "Editor",
		DashboardType: TypeRefByID(typeStaffID),
	})
	require.Error(t, err)
	_, ok := AsValidationError(err)
	assert.False(t, ok)
}

// ============================================================================
// UPDATE ROLE
// ============================================================================

func TestUpdateRoleReplacesPermissionSet(t *testing.T) {
	store := seededStore()
	store.rolePerms[1] = map[int64]struct{}{10: {}, 13: {}}
	guard := newTestGuard(store)

	err := guard.UpdateRole(context.Background(), 1, UpdateRoleParams{
		Name:          RoleAdmin,
		DisplayName:   "Administrator",
		DashboardType: TypeRefByID(typeAdminID),
		PermissionIDs: []int64{10, 11},
	})
	require.NoError(t, err)

	attached, err := store.ListRolePermissionIDs(context.Background(), 1)
	require.NoError(t, err)
	// 13 was detached, 11 filtered out as cross-type, 10 kept.
	assert.Equal(t, []int64{10}, attached)
}

func TestUpdateRoleUnmanageable(t *testing.T) {
	guard := newTestGuard(seededStore())

	err := guard.UpdateRole(context.Background(), 2, UpdateRoleParams{
		Name:          "legacy_role",
		DisplayName:   "Legacy",
		DashboardType: TypeRefByID(typeAdminID),
	})
	assert.ErrorIs(t, err, ErrRoleNotManageable)
}

func TestUpdateRoleDuplicateNameRejected(t *testing.T) {
	store := seededStore()
	store.roles[3] = Role{ID: 3, Name: "editor", DisplayName: "Editor", DashboardTypeID: int64Ptr(typeStaffID)}
	guard := newTestGuard(store)

	err := guard.UpdateRole(context.Background(), 3, UpdateRoleParams{
		Name:          RoleAdmin,
		DisplayName:   "Editor",
		DashboardType: TypeRefByID(typeStaffID),
	})
	verr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields["name"], "The role name has already been taken.")
}

func TestUpdateRoleKeepingOwnNameAllowed(t *testing.T) {
	store := seededStore()
	guard := newTestGuard(store)

	err := guard.UpdateRole(context.Background(), 1, UpdateRoleParams{
		Name:          RoleAdmin,
		DisplayName:   "Administrator Prime",
		DashboardType: TypeRefByID(typeAdminID),
	})
	require.NoError(t, err)
	assert.Equal(t, "Administrator Prime", store.roles[1].DisplayName)
}

func TestUpdateRoleNotFound(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.UpdateRole(context.Background(), 999, UpdateRoleParams{
		Name:          "ghost",
		DisplayName:   "Ghost",
		DashboardType: TypeRefByID(typeStaffID),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

// ============================================================================
// DELETE ROLE
// ============================================================================

func TestDeleteRoleProtectsBaseAdmin(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.DeleteRole(context.Background(), 1, 500)
	assert.ErrorIs(t, err, ErrProtectedRole)
}

func TestDeleteRoleWithUsersRejected(t *testing.T) {
	store := seededStore()
	store.roles[3] = Role{ID: 3, Name: "editor", DisplayName: "Editor", DashboardTypeID: int64Ptr(typeStaffID)}
	store.userRoles[500] = map[int64]struct{}{3: {}}
	guard := newTestGuard(store)

	err := guard.DeleteRole(context.Background(), 3, 500)
	assert.ErrorIs(t, err, ErrRoleHasUsers)
	assert.Contains(t, store.roles, int64(3))
}

func TestDeleteRoleUnmanageable(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.DeleteRole(context.Background(), 2, 500)
	assert.ErrorIs(t, err, ErrRoleNotManageable)
}

func TestDeleteRoleSuccessDetachesAssociations(t *testing.T) {
	store := seededStore()
	store.roles[3] = Role{ID: 3, Name: "editor", DisplayName: "Editor", DashboardTypeID: int64Ptr(typeStaffID)}
	store.rolePerms[3] = map[int64]struct{}{11: {}, 13: {}}
	guard := newTestGuard(store)

	err := guard.DeleteRole(context.Background(), 3, 500)
	require.NoError(t, err)
	assert.NotContains(t, store.roles, int64(3))
	assert.Empty(t, store.rolePerms[3])
}

func TestDeletionBlockers(t *testing.T) {
	store := seededStore()
	store.roles[3] = Role{ID: 3, Name: "editor", DisplayName: "Editor", DashboardTypeID: int64Ptr(typeStaffID)}
	store.userRoles[500] = map[int64]struct{}{3: {}}
	guard := newTestGuard(store)

	blockers, err := guard.DeletionBlockers(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cannot delete the base admin role."}, blockers)

	blockers, err = guard.DeletionBlockers(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cannot delete role that has users assigned to it."}, blockers)

	store.roles[4] = Role{ID: 4, Name: "empty_role", DisplayName: "Empty", DashboardTypeID: int64Ptr(typeStaffID)}
	blockers, err = guard.DeletionBlockers(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, blockers)
}

// ============================================================================
// ROLE <-> USER
// ============================================================================

func TestAssignRoleToUser(t *testing.T) {
	store := seededStore()
	guard := newTestGuard(store)

	require.NoError(t, guard.AssignRoleToUser(context.Background(), 1, 500, 501))
	assert.Contains(t, store.userRoles[500], int64(1))

	// Assigning again is a no-op, not an error.
	require.NoError(t, guard.AssignRoleToUser(context.Background(), 1, 500, 501))
}

func TestAssignRoleToUserRejectsUnmanageableRole(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.AssignRoleToUser(context.Background(), 2, 500, 501)
	assert.ErrorIs(t, err, ErrRoleNotManageable)
}

func TestAssignRoleToUserUnknownUser(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.AssignRoleToUser(context.Background(), 1, 999, 501)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignRoleToUserConflictsWithUnmanageableRole(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{2: {}}
	guard := newTestGuard(store)

	err := guard.AssignRoleToUser(context.Background(), 1, 500, 501)
	assert.ErrorIs(t, err, ErrRoleConflict)
}

func TestRemoveRoleFromUser(t *testing.T) {
	store := seededStore()
	store.userRoles[500] = map[int64]struct{}{1: {}}
	guard := newTestGuard(store)

	require.NoError(t, guard.RemoveRoleFromUser(context.Background(), 1, 500, 501))
	assert.NotContains(t, store.userRoles[500], int64(1))

	// Removing an absent association stays a no-op.
	require.NoError(t, guard.RemoveRoleFromUser(context.Background(), 1, 500, 501))
}

// ============================================================================
// PERMISSION <-> ROLE
// ============================================================================

func TestAssignPermissionToRoleSkipsTypeCheck(t *testing.T) {
	store := seededStore()
	guard := newTestGuard(store)

	// Permission 11 belongs to the staff dashboard, role 1 to administration.
	// The single-assignment path attaches it anyway.
	require.NoError(t, guard.AssignPermissionToRole(context.Background(), 11, 1, 500))
	assert.Contains(t, store.rolePerms[1], int64(11))
}

func TestAssignPermissionToRoleUnknownPermission(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.AssignPermissionToRole(context.Background(), 999, 1, 500)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignPermissionToUnmanageableRole(t *testing.T) {
	guard := newTestGuard(seededStore())
	err := guard.AssignPermissionToRole(context.Background(), 10, 2, 500)
	assert.ErrorIs(t, err, ErrRoleNotManageable)
}

func TestRemovePermissionFromRole(t *testing.T) {
	store := seededStore()
	store.rolePerms[1] = map[int64]struct{}{10: {}}
	guard := newTestGuard(store)

	require.NoError(t, guard.RemovePermissionFromRole(context.Background(), 10, 1, 500))
	assert.NotContains(t, store.rolePerms[1], int64(10))

	require.NoError(t, guard.RemovePermissionFromRole(context.Background(), 10, 1, 500))
}

// ============================================================================
// TRANSACTION FAILURES
// ============================================================================

func TestGuardSurfacesTransactionErrors(t *testing.T) {
	store := seededStore()
	store.txError = errors.New("begin tx: connection refused")
	guard := newTestGuard(store)

	_, err := guard.CreateRole(context.Background(), CreateRoleParams{
		Name:          "editor",
		DisplayName:   "Editor",
		DashboardType: TypeRefByID(typeStaffID),
	})
	assert.ErrorContains(t, err, "connection refused")

	assert.ErrorContains(t, guard.DeleteRole(context.Background(), 1, 500), "connection refused")
	assert.ErrorContains(t, guard.AssignRoleToUser(context.Background(), 1, 500, 501), "connection refused")
}
