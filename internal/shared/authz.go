package shared

// Administration dashboard permissions.
const (
	PermRolesCreate = "roles-create"
	PermRolesRead   = "roles-read"
	PermRolesUpdate = "roles-update"
	PermRolesDelete = "roles-delete"

	PermPermissionsRead = "permissions-read"

	PermRoleAssignmentManage       = "role-assignment-manage"
	PermPermissionAssignmentManage = "permission-assignment-manage"

	PermAdminDashboardAccess   = "administration-dashboard-access"
	PermAdminUsersManage       = "administration-users-manage"
	PermAdminRolesManage       = "administration-roles-manage"
	PermAdminPermissionsManage = "administration-permissions-manage"
	PermAdminSettingsManage    = "administration-settings-manage"
	PermAdminReportsView       = "administration-reports-view"
)

// Staff dashboard permissions.
const (
	PermStaffDashboardAccess = "staff-dashboard-access"
	PermStaffTasksManage     = "staff-tasks-manage"
	PermStaffProfileManage   = "staff-profile-manage"
	PermStaffTimesheetManage = "staff-timesheet-manage"
	PermStaffDocumentsView   = "staff-documents-view"
)

// Project dashboard permissions.
const (
	PermProjectDashboardAccess = "project-dashboard-access"
	PermProjectProjectsManage  = "project-projects-manage"
	PermProjectTeamManage      = "project-team-manage"
	PermProjectBudgetManage    = "project-budget-manage"
	PermProjectTimelineManage  = "project-timeline-manage"
	PermProjectReportsView     = "project-reports-view"
)
