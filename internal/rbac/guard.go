package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgconn"

	"github.com/abdalhababsah/outlier/internal/shared"
)

var roleNamePattern = regexp.MustCompile(`^[a-z_]+$`)

const pgUniqueViolation = "23505"

// TypeRef identifies a dashboard type by id or by name. A zero ID means the
// name is authoritative.
type TypeRef struct {
	ID   int64
	Name string
}

// TypeRefByID builds a TypeRef from a numeric id.
func TypeRefByID(id int64) TypeRef { return TypeRef{ID: id} }

// TypeRefByName builds a TypeRef from a dashboard type name.
func TypeRefByName(name string) TypeRef { return TypeRef{Name: name} }

// ParseTypeRef accepts either a numeric id or a type name, the way the
// management forms submit it.
func ParseTypeRef(raw string) TypeRef {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return TypeRef{ID: id}
	}
	return TypeRef{Name: raw}
}

// CreateRoleParams carries the input for Guard.CreateRole.
type CreateRoleParams struct {
	ActorID       int64
	Name          string
	DisplayName   string
	Description   string
	DashboardType TypeRef
	PermissionIDs []int64
}

// UpdateRoleParams carries the input for Guard.UpdateRole. The permission
// set is replaced, not merged.
type UpdateRoleParams struct {
	ActorID       int64
	Name          string
	DisplayName   string
	Description   string
	DashboardType TypeRef
	PermissionIDs []int64
}

// Guard validates and applies every RBAC mutation. Each operation runs in a
// single storage transaction; on any rule violation the transaction rolls
// back and a typed error is returned.
type Guard struct {
	store  Store
	audit  *shared.AuditLogger
	cache  *SnapshotCache
	logger *slog.Logger
}

// NewGuard constructs a Guard. Audit logger, snapshot cache and logger are
// optional.
func NewGuard(store Store, audit *shared.AuditLogger, cache *SnapshotCache, logger *slog.Logger) *Guard {
	return &Guard{store: store, audit: audit, cache: cache, logger: logger}
}

// CreateRole creates a manageable role with an initial permission set.
// Permissions whose dashboard type differs from the role's are silently
// dropped; global permissions always pass the filter.
func (g *Guard) CreateRole(ctx context.Context, params CreateRoleParams) (Role, error) {
	var created Role
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		verr := validateRoleFields(params.Name, params.DisplayName, params.Description)

		dashboardType, err := resolveDashboardType(ctx, tx, params.DashboardType)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				verr.Add("dashboard_type_id", "The selected dashboard type is invalid.")
			} else {
				return err
			}
		}

		if _, err := tx.GetRoleByName(ctx, params.Name); err == nil {
			verr.Add("name", "The role name has already been taken.")
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if !verr.Empty() {
			return verr
		}

		created, err = tx.CreateRole(ctx, Role{
			Name:            params.Name,
			DisplayName:     params.DisplayName,
			Description:     params.Description,
			DashboardTypeID: &dashboardType.ID,
		})
		if err != nil {
			if isUniqueViolation(err) {
				verr.Add("name", "The role name has already been taken.")
				return verr
			}
			return err
		}

		assignable, err := tx.FilterAssignablePermissionIDs(ctx, params.PermissionIDs, dashboardType.ID)
		if err != nil {
			return err
		}
		for _, permissionID := range assignable {
			if err := tx.AttachPermissionToRole(ctx, created.ID, permissionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	g.recordAudit(ctx, params.ActorID, "role.create", "role", created.ID, map[string]any{"name": created.Name})
	g.invalidateSnapshots(ctx)
	return created, nil
}

// UpdateRole replaces a manageable role's attributes and its full permission
// set. Permissions absent from the new filtered list are detached.
func (g *Guard) UpdateRole(ctx context.Context, roleID int64, params UpdateRoleParams) error {
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}

		verr := validateRoleFields(params.Name, params.DisplayName, params.Description)

		dashboardType, err := resolveDashboardType(ctx, tx, params.DashboardType)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				verr.Add("dashboard_type_id", "The selected dashboard type is invalid.")
			} else {
				return err
			}
		}

		if existing, err := tx.GetRoleByName(ctx, params.Name); err == nil {
			if existing.ID != role.ID {
				verr.Add("name", "The role name has already been taken.")
			}
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		if !verr.Empty() {
			return verr
		}

		role.Name = params.Name
		role.DisplayName = params.DisplayName
		role.Description = params.Description
		role.DashboardTypeID = &dashboardType.ID
		if err := tx.UpdateRole(ctx, role); err != nil {
			if isUniqueViolation(err) {
				verr.Add("name", "The role name has already been taken.")
				return verr
			}
			return err
		}

		assignable, err := tx.FilterAssignablePermissionIDs(ctx, params.PermissionIDs, dashboardType.ID)
		if err != nil {
			return err
		}
		return syncRolePermissions(ctx, tx, role.ID, assignable)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, params.ActorID, "role.update", "role", roleID, map[string]any{"name": params.Name})
	g.invalidateSnapshots(ctx)
	return nil
}

// DeleteRole removes a manageable role after clearing its permission and
// user associations. The base admin role and roles with assigned users are
// protected.
func (g *Guard) DeleteRole(ctx context.Context, roleID, actorID int64) error {
	var name string
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}
		if role.Name == RoleAdmin {
			return ErrProtectedRole
		}
		userCount, err := tx.CountRoleUsers(ctx, role.ID)
		if err != nil {
			return err
		}
		if userCount > 0 {
			return ErrRoleHasUsers
		}
		name = role.Name
		if err := tx.DetachAllRolePermissions(ctx, role.ID); err != nil {
			return err
		}
		if err := tx.DetachAllRoleUsers(ctx, role.ID); err != nil {
			return err
		}
		return tx.DeleteRole(ctx, role.ID)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, actorID, "role.delete", "role", roleID, map[string]any{"name": name})
	g.invalidateSnapshots(ctx)
	return nil
}

// DeletionBlockers returns user-facing messages explaining why a role cannot
// be deleted. Empty means deletion would pass the guards.
func (g *Guard) DeletionBlockers(ctx context.Context, roleID int64) ([]string, error) {
	role, err := g.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	var blockers []string
	if role.Name == RoleAdmin {
		blockers = append(blockers, "Cannot delete the base admin role.")
	}
	userCount, err := g.store.CountRoleUsers(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	if userCount > 0 {
		blockers = append(blockers, "Cannot delete role that has users assigned to it.")
	}
	return blockers, nil
}

// AssignRoleToUser attaches a manageable role to a user. Users holding a
// role outside the manageable set cannot take on managed roles.
func (g *Guard) AssignRoleToUser(ctx context.Context, roleID, userID, actorID int64) error {
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		conflicted, err := tx.UserHasUnmanageableRole(ctx, userID)
		if err != nil {
			return err
		}
		if conflicted {
			return ErrRoleConflict
		}
		return tx.AttachRoleToUser(ctx, userID, roleID)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, actorID, "role.assign", "user", userID, map[string]any{"role_id": roleID})
	g.invalidateSnapshots(ctx)
	return nil
}

// RemoveRoleFromUser detaches a manageable role from a user. Detaching an
// absent association is a no-op.
func (g *Guard) RemoveRoleFromUser(ctx context.Context, roleID, userID, actorID int64) error {
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return tx.DetachRoleFromUser(ctx, userID, roleID)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, actorID, "role.unassign", "user", userID, map[string]any{"role_id": roleID})
	g.invalidateSnapshots(ctx)
	return nil
}

// AssignPermissionToRole attaches one permission to a manageable role.
// Unlike create/update this does not re-check the dashboard type match;
// the single-permission path inherited that behavior from the start.
func (g *Guard) AssignPermissionToRole(ctx context.Context, permissionID, roleID, actorID int64) error {
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}
		if _, err := tx.GetPermission(ctx, permissionID); err != nil {
			return err
		}
		return tx.AttachPermissionToRole(ctx, roleID, permissionID)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, actorID, "permission.assign", "role", roleID, map[string]any{"permission_id": permissionID})
	g.invalidateSnapshots(ctx)
	return nil
}

// RemovePermissionFromRole detaches one permission from a manageable role.
// Detaching an absent association is a no-op.
func (g *Guard) RemovePermissionFromRole(ctx context.Context, permissionID, roleID, actorID int64) error {
	err := g.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		role, err := tx.GetRole(ctx, roleID)
		if err != nil {
			return err
		}
		if !role.Manageable() {
			return ErrRoleNotManageable
		}
		if _, err := tx.GetPermission(ctx, permissionID); err != nil {
			return err
		}
		return tx.DetachPermissionFromRole(ctx, roleID, permissionID)
	})
	if err != nil {
		return err
	}
	g.recordAudit(ctx, actorID, "permission.unassign", "role", roleID, map[string]any{"permission_id": permissionID})
	g.invalidateSnapshots(ctx)
	return nil
}

func validateRoleFields(name, displayName, description string) *ValidationError {
	verr := NewValidationError()
	switch {
	case strings.TrimSpace(name) == "":
		verr.Add("name", "The role name is required.")
	case len(name) > 255:
		verr.Add("name", "The role name may not be greater than 255 characters.")
	case !roleNamePattern.MatchString(name):
		verr.Add("name", "The role name may only contain lowercase letters and underscores.")
	}
	switch {
	case strings.TrimSpace(displayName) == "":
		verr.Add("display_name", "The display name is required.")
	case len(displayName) > 255:
		verr.Add("display_name", "The display name may not be greater than 255 characters.")
	}
	if len(description) > 500 {
		verr.Add("description", "The description may not be greater than 500 characters.")
	}
	return verr
}

func resolveDashboardType(ctx context.Context, store Store, ref TypeRef) (DashboardType, error) {
	if ref.ID > 0 {
		return store.GetDashboardType(ctx, ref.ID)
	}
	if ref.Name == "" {
		return DashboardType{}, ErrNotFound
	}
	return store.GetDashboardTypeByName(ctx, ref.Name)
}

// syncRolePermissions makes the stored association set equal to want.
func syncRolePermissions(ctx context.Context, tx Store, roleID int64, want []int64) error {
	existing, err := tx.ListRolePermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}
	current := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		current[id] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(want))
	for _, id := range want {
		keep[id] = struct{}{}
		if _, ok := current[id]; !ok {
			if err := tx.AttachPermissionToRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for _, id := range existing {
		if _, ok := keep[id]; !ok {
			if err := tx.DetachPermissionFromRole(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func (g *Guard) recordAudit(ctx context.Context, actorID int64, action, entity string, entityID int64, meta map[string]any) {
	if g.audit == nil {
		return
	}
	err := g.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
	if err != nil && g.logger != nil {
		g.logger.Warn("rbac audit record", slog.Any("error", err))
	}
}

func (g *Guard) invalidateSnapshots(ctx context.Context) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Invalidate(ctx); err != nil && g.logger != nil {
		g.logger.Warn("rbac snapshot invalidate", slog.Any("error", err))
	}
}
