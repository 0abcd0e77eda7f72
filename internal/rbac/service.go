package rbac

import (
	"context"
	"errors"
	"log/slog"
)

// Stats summarizes catalog sizes for the administration dashboard.
type Stats struct {
	Users          int
	Roles          int
	Permissions    int
	DashboardTypes int
}

// Service is the read side of the RBAC engine: it loads snapshots (through
// the cache when one is configured) and answers access questions with the
// pure evaluator. It never mutates storage.
type Service struct {
	store  Store
	cache  *SnapshotCache
	logger *slog.Logger
}

// NewService constructs a Service. The cache is optional.
func NewService(store Store, cache *SnapshotCache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// Grants loads the identity snapshot for a user.
func (s *Service) Grants(ctx context.Context, userID int64) (UserGrants, error) {
	return s.cache.Fetch(ctx, userID, func(ctx context.Context) (UserGrants, error) {
		return s.store.UserGrants(ctx, userID)
	})
}

// CheckPermission reports whether the user may perform the named permission.
func (s *Service) CheckPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	grants, err := s.Grants(ctx, userID)
	if err != nil {
		return false, err
	}
	return CanDo(grants, permission), nil
}

// CheckDashboardAccess reports whether the user may reach the named dashboard.
func (s *Service) CheckDashboardAccess(ctx context.Context, userID int64, dashboard string) (bool, error) {
	grants, err := s.Grants(ctx, userID)
	if err != nil {
		return false, err
	}
	return CanAccessDashboard(grants, dashboard), nil
}

// EffectivePermissions returns the names of every permission the user holds.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	grants, err := s.Grants(ctx, userID)
	if err != nil {
		return nil, err
	}
	var catalog []Permission
	if grants.IsSuperAdmin() {
		catalog, err = s.store.ListPermissions(ctx)
		if err != nil {
			return nil, err
		}
	}
	perms := EffectivePermissions(grants, catalog)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}
	return names, nil
}

// EffectiveDashboards returns the dashboard type names the user can reach.
func (s *Service) EffectiveDashboards(ctx context.Context, userID int64) ([]string, error) {
	grants, err := s.Grants(ctx, userID)
	if err != nil {
		return nil, err
	}
	return DashboardTypes(grants), nil
}

// PrimaryDashboardRoute resolves the user's landing route.
func (s *Service) PrimaryDashboardRoute(ctx context.Context, userID int64) (string, error) {
	grants, err := s.Grants(ctx, userID)
	if err != nil {
		return "", err
	}
	return PrimaryDashboardRoute(grants), nil
}

// ListManageableRoles lists roles eligible for management operations.
func (s *Service) ListManageableRoles(ctx context.Context) ([]RoleSummary, error) {
	return s.store.ListManageableRoles(ctx)
}

// GetManageableRole fetches a role and hides unmanageable ones behind
// ErrNotFound, the same way the listing does.
func (s *Service) GetManageableRole(ctx context.Context, roleID int64) (Role, error) {
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return Role{}, err
	}
	if !role.Manageable() {
		return Role{}, ErrNotFound
	}
	return role, nil
}

// RolePermissionIDs returns the ids of permissions attached to a role.
func (s *Service) RolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	return s.store.ListRolePermissionIDs(ctx, roleID)
}

// ListPermissions returns the whole permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.ListPermissions(ctx)
}

// PermissionsByDashboard returns the catalog slice for one dashboard type
// name. An unknown name yields an empty list, not an error.
func (s *Service) PermissionsByDashboard(ctx context.Context, dashboard string) ([]Permission, error) {
	dt, err := s.store.GetDashboardTypeByName(ctx, dashboard)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.store.ListPermissionsByDashboardType(ctx, dt.ID)
}

// ListDashboardTypes returns the dashboard type reference data.
func (s *Service) ListDashboardTypes(ctx context.Context) ([]DashboardType, error) {
	return s.store.ListDashboardTypes(ctx)
}

// Stats gathers counts for the administration dashboard.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error
	if stats.Users, err = s.store.CountUsers(ctx); err != nil {
		return Stats{}, err
	}
	if stats.Roles, err = s.store.CountRoles(ctx); err != nil {
		return Stats{}, err
	}
	if stats.Permissions, err = s.store.CountPermissions(ctx); err != nil {
		return Stats{}, err
	}
	types, err := s.store.ListDashboardTypes(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.DashboardTypes = len(types)
	return stats, nil
}
