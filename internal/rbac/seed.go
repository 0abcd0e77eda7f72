package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdalhababsah/outlier/internal/platform/db"
	"github.com/abdalhababsah/outlier/internal/shared"
)

// SeedDashboardType is a dashboard type in the bootstrap fixture.
type SeedDashboardType struct {
	Name        string
	DisplayName string
	Description string
}

// SeedRole is a role in the bootstrap fixture.
type SeedRole struct {
	Name          string
	DisplayName   string
	Description   string
	DashboardType string
}

// SeedPermission is a permission in the bootstrap fixture.
type SeedPermission struct {
	Name          string
	DisplayName   string
	Description   string
	DashboardType string
}

// Fixture is the reference data contract the engine depends on. Tests and
// the seeder both consume it; the sets below must stay stable because
// deployed role assignments reference them by name.
type Fixture struct {
	DashboardTypes []SeedDashboardType
	Roles          []SeedRole
	Permissions    []SeedPermission
	// RolePermissions maps a role name to the dashboard type whose whole
	// permission block it receives. super_admin gets none: it bypasses
	// permission checks entirely.
	RolePermissions map[string]string
}

// SeedFixture returns the bootstrap reference data.
func SeedFixture() Fixture {
	return Fixture{
		DashboardTypes: []SeedDashboardType{
			{Name: DashboardAdministration, DisplayName: "Administration", Description: "System administration and management"},
			{Name: DashboardStaff, DisplayName: "Staff", Description: "Staff operations and task management"},
			{Name: DashboardProject, DisplayName: "Project", Description: "Project management and oversight"},
		},
		Roles: []SeedRole{
			{Name: RoleSuperAdmin, DisplayName: "Super Administrator", Description: "Has unrestricted access to all features - bypasses permission checks", DashboardType: DashboardAdministration},
			{Name: RoleAdmin, DisplayName: "Administrator", Description: "Administrator with permission-based access to admin features", DashboardType: DashboardAdministration},
			{Name: RoleProjectOwner, DisplayName: "Project Owner", Description: "Project owner with access to project management features", DashboardType: DashboardProject},
			{Name: RoleStaff, DisplayName: "Staff Member", Description: "Staff member with access to assigned tasks and basic features", DashboardType: DashboardStaff},
		},
		Permissions: []SeedPermission{
			{Name: shared.PermRolesCreate, DisplayName: "Create Roles", Description: "Create new roles in the system", DashboardType: DashboardAdministration},
			{Name: shared.PermRolesRead, DisplayName: "View Roles", Description: "View roles and their details", DashboardType: DashboardAdministration},
			{Name: shared.PermRolesUpdate, DisplayName: "Update Roles", Description: "Edit existing roles", DashboardType: DashboardAdministration},
			{Name: shared.PermRolesDelete, DisplayName: "Delete Roles", Description: "Delete roles from the system", DashboardType: DashboardAdministration},
			{Name: shared.PermPermissionsRead, DisplayName: "View Permissions", Description: "View permissions and their details", DashboardType: DashboardAdministration},
			{Name: shared.PermRoleAssignmentManage, DisplayName: "Manage Role Assignments", Description: "Assign and remove roles from users", DashboardType: DashboardAdministration},
			{Name: shared.PermPermissionAssignmentManage, DisplayName: "Manage Permission Assignments", Description: "Assign and remove permissions from roles and users", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminDashboardAccess, DisplayName: "Access Administration Dashboard", Description: "Access to administration dashboard", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminUsersManage, DisplayName: "Manage Users (Admin)", Description: "Create, read, update, delete users in administration", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminRolesManage, DisplayName: "Manage Roles (Admin)", Description: "Create, read, update, delete roles in administration", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminPermissionsManage, DisplayName: "Manage Permissions (Admin)", Description: "Create, read, update, delete permissions in administration", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminSettingsManage, DisplayName: "Manage Settings (Admin)", Description: "Manage system settings in administration", DashboardType: DashboardAdministration},
			{Name: shared.PermAdminReportsView, DisplayName: "View Reports (Admin)", Description: "View system reports in administration", DashboardType: DashboardAdministration},

			{Name: shared.PermStaffDashboardAccess, DisplayName: "Access Staff Dashboard", Description: "Access to staff dashboard", DashboardType: DashboardStaff},
			{Name: shared.PermStaffTasksManage, DisplayName: "Manage Tasks (Staff)", Description: "Create, read, update assigned tasks", DashboardType: DashboardStaff},
			{Name: shared.PermStaffProfileManage, DisplayName: "Manage Profile (Staff)", Description: "Manage own profile and settings", DashboardType: DashboardStaff},
			{Name: shared.PermStaffTimesheetManage, DisplayName: "Manage Timesheet (Staff)", Description: "Track time and manage timesheets", DashboardType: DashboardStaff},
			{Name: shared.PermStaffDocumentsView, DisplayName: "View Documents (Staff)", Description: "View assigned documents and resources", DashboardType: DashboardStaff},

			{Name: shared.PermProjectDashboardAccess, DisplayName: "Access Project Dashboard", Description: "Access to project management dashboard", DashboardType: DashboardProject},
			{Name: shared.PermProjectProjectsManage, DisplayName: "Manage Projects", Description: "Create, read, update, delete projects", DashboardType: DashboardProject},
			{Name: shared.PermProjectTeamManage, DisplayName: "Manage Team (Project)", Description: "Assign and manage project team members", DashboardType: DashboardProject},
			{Name: shared.PermProjectBudgetManage, DisplayName: "Manage Budget (Project)", Description: "Manage project budgets and finances", DashboardType: DashboardProject},
			{Name: shared.PermProjectTimelineManage, DisplayName: "Manage Timeline (Project)", Description: "Create and manage project timelines", DashboardType: DashboardProject},
			{Name: shared.PermProjectReportsView, DisplayName: "View Reports (Project)", Description: "View project reports and analytics", DashboardType: DashboardProject},
		},
		RolePermissions: map[string]string{
			RoleAdmin:        DashboardAdministration,
			RoleStaff:        DashboardStaff,
			RoleProjectOwner: DashboardProject,
		},
	}
}

// Seed applies the fixture idempotently: existing rows are left alone, so it
// is safe to run on every deploy.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	fixture := SeedFixture()
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		typeIDs := make(map[string]int64, len(fixture.DashboardTypes))
		for _, dt := range fixture.DashboardTypes {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO dashboard_types (name, display_name, description, created_at, updated_at)
				VALUES ($1, $2, $3, NOW(), NOW())
				ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
				RETURNING id`, dt.Name, dt.DisplayName, dt.Description).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed dashboard type %s: %w", dt.Name, err)
			}
			typeIDs[dt.Name] = id
		}

		roleIDs := make(map[string]int64, len(fixture.Roles))
		for _, role := range fixture.Roles {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO roles (name, display_name, description, dashboard_type_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
				RETURNING id`, role.Name, role.DisplayName, role.Description, typeIDs[role.DashboardType]).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
			roleIDs[role.Name] = id
		}

		permIDsByType := make(map[string][]int64)
		for _, perm := range fixture.Permissions {
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO permissions (name, display_name, description, dashboard_type_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				ON CONFLICT (name) DO UPDATE SET display_name = EXCLUDED.display_name
				RETURNING id`, perm.Name, perm.DisplayName, perm.Description, typeIDs[perm.DashboardType]).Scan(&id)
			if err != nil {
				return fmt.Errorf("seed permission %s: %w", perm.Name, err)
			}
			permIDsByType[perm.DashboardType] = append(permIDsByType[perm.DashboardType], id)
		}

		for roleName, typeName := range fixture.RolePermissions {
			for _, permID := range permIDsByType[typeName] {
				_, err := tx.Exec(ctx, `
					INSERT INTO permission_role (role_id, permission_id, created_at)
					VALUES ($1, $2, NOW())
					ON CONFLICT (role_id, permission_id) DO NOTHING`, roleIDs[roleName], permID)
				if err != nil {
					return fmt.Errorf("seed role permission %s: %w", roleName, err)
				}
			}
		}
		return nil
	})
}
