package rbac

// Access evaluation is a set of pure functions over a UserGrants snapshot.
// They are total: unknown names and empty snapshots degrade to false or an
// empty set, never an error, so callers can use them on hot paths without
// a failure branch.

// CanDo reports whether the user may perform the named permission. A super
// admin passes every check. The optional team argument is an extension point
// for tenant scoped checks and is not evaluated here.
func CanDo(grants UserGrants, permission string, team ...string) bool {
	_ = team
	if grants.IsSuperAdmin() {
		return true
	}
	for _, role := range grants.Roles {
		for _, p := range role.Permissions {
			if p.Name == permission {
				return true
			}
		}
	}
	for _, p := range grants.Direct {
		if p.Name == permission {
			return true
		}
	}
	return false
}

// CanAccessDashboard reports whether the user may reach the named dashboard.
// A super admin only ever lands on the administration dashboard. Everyone
// else needs a role tagged with the dashboard's type; an unknown name matches
// no role and yields false.
func CanAccessDashboard(grants UserGrants, dashboard string) bool {
	if grants.IsSuperAdmin() {
		return dashboard == DashboardAdministration
	}
	for _, role := range grants.Roles {
		if role.DashboardTypeName != "" && role.DashboardTypeName == dashboard {
			return true
		}
	}
	return false
}

// DashboardTypes returns the distinct dashboard type names the user can
// reach, in first-seen order.
func DashboardTypes(grants UserGrants) []string {
	if grants.IsSuperAdmin() {
		return []string{DashboardAdministration}
	}
	seen := make(map[string]struct{}, len(grants.Roles))
	names := make([]string, 0, len(grants.Roles))
	for _, role := range grants.Roles {
		if role.DashboardTypeName == "" {
			continue
		}
		if _, ok := seen[role.DashboardTypeName]; ok {
			continue
		}
		seen[role.DashboardTypeName] = struct{}{}
		names = append(names, role.DashboardTypeName)
	}
	return names
}

// EffectivePermissions returns the deduplicated union of the user's per-role
// permissions and direct grants. A super admin receives the whole supplied
// catalog, explicit grants or not.
func EffectivePermissions(grants UserGrants, catalog []Permission) []Permission {
	if grants.IsSuperAdmin() {
		all := make([]Permission, len(catalog))
		copy(all, catalog)
		return all
	}
	seen := make(map[int64]struct{})
	effective := make([]Permission, 0)
	appendUnique := func(perms []Permission) {
		for _, p := range perms {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			effective = append(effective, p)
		}
	}
	for _, role := range grants.Roles {
		appendUnique(role.Permissions)
	}
	appendUnique(grants.Direct)
	return effective
}

// PrimaryDashboardRoute resolves the route a user should land on after login.
// Dashboard-type checks run in fixed priority order (administration, then
// project, then staff). Role-name checks are a second pass kept for roles
// predating dashboard types; they only run when every type check failed.
func PrimaryDashboardRoute(grants UserGrants) string {
	if CanAccessDashboard(grants, DashboardAdministration) {
		return RouteAdminDashboard
	}
	if CanAccessDashboard(grants, DashboardProject) {
		return RouteProjectOwnerDashboard
	}
	if CanAccessDashboard(grants, DashboardStaff) {
		return RouteStaffDashboard
	}

	// Legacy fallback by role name.
	if grants.HasRole(RoleAdmin) || grants.HasRole(RoleSuperAdmin) {
		return RouteAdminDashboard
	}
	if grants.HasRole(RoleProjectOwner) {
		return RouteProjectOwnerDashboard
	}
	if grants.HasRole(RoleStaff) {
		return RouteStaffDashboard
	}
	return RouteDefaultDashboard
}
