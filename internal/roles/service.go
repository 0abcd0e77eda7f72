package roles

import (
	"context"

	"github.com/abdalhababsah/outlier/internal/rbac"
)

// FormData is everything the role create/edit forms need besides the role
// itself: the dashboard types to choose from and the permission catalog
// grouped per type.
type FormData struct {
	DashboardTypes []rbac.DashboardType
	Permissions    map[string][]rbac.Permission
}

// RoleDetail is the show-page view model.
type RoleDetail struct {
	Role             rbac.Role
	PermissionIDs    []int64
	Permissions      []rbac.Permission
	UserCount        int
	DeletionBlockers []string
}

// Service prepares view models for the role management pages. Reads go
// through the RBAC read service; mutations stay on the Guard.
type Service struct {
	rbacService *rbac.Service
	guard       *rbac.Guard
}

// NewService builds Service instance.
func NewService(rbacService *rbac.Service, guard *rbac.Guard) *Service {
	return &Service{rbacService: rbacService, guard: guard}
}

// ListRoles returns all manageable roles with counts.
func (s *Service) ListRoles(ctx context.Context) ([]rbac.RoleSummary, error) {
	return s.rbacService.ListManageableRoles(ctx)
}

// FormData loads dashboard types and the grouped permission catalog.
func (s *Service) FormData(ctx context.Context) (FormData, error) {
	types, err := s.rbacService.ListDashboardTypes(ctx)
	if err != nil {
		return FormData{}, err
	}
	grouped := make(map[string][]rbac.Permission, len(types))
	for _, dt := range types {
		perms, err := s.rbacService.PermissionsByDashboard(ctx, dt.Name)
		if err != nil {
			return FormData{}, err
		}
		grouped[dt.Name] = perms
	}
	return FormData{DashboardTypes: types, Permissions: grouped}, nil
}

// GetRoleDetail loads a manageable role with its permissions and deletion
// blockers. Unmanageable roles surface as rbac.ErrNotFound.
func (s *Service) GetRoleDetail(ctx context.Context, roleID int64) (RoleDetail, error) {
	role, err := s.rbacService.GetManageableRole(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	permissionIDs, err := s.rbacService.RolePermissionIDs(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	attached := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		attached[id] = struct{}{}
	}
	catalog, err := s.rbacService.ListPermissions(ctx)
	if err != nil {
		return RoleDetail{}, err
	}
	var permissions []rbac.Permission
	for _, p := range catalog {
		if _, ok := attached[p.ID]; ok {
			permissions = append(permissions, p)
		}
	}
	blockers, err := s.guard.DeletionBlockers(ctx, roleID)
	if err != nil {
		return RoleDetail{}, err
	}
	summaries, err := s.rbacService.ListManageableRoles(ctx)
	if err != nil {
		return RoleDetail{}, err
	}
	detail := RoleDetail{Role: role, PermissionIDs: permissionIDs, Permissions: permissions, DeletionBlockers: blockers}
	for _, summary := range summaries {
		if summary.ID == roleID {
			detail.UserCount = summary.UserCount
			break
		}
	}
	return detail, nil
}
