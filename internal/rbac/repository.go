package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdalhababsah/outlier/internal/platform/db"
)

// Store defines the persistence operations the RBAC engine needs. The
// Mutation Guard is the sole writer; everything else reads.
type Store interface {
	// WithTx runs fn against a transaction-bound Store. Guard operations
	// use it so a read-filter-replace sequence commits atomically.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	GetDashboardType(ctx context.Context, id int64) (DashboardType, error)
	GetDashboardTypeByName(ctx context.Context, name string) (DashboardType, error)
	ListDashboardTypes(ctx context.Context) ([]DashboardType, error)

	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListManageableRoles(ctx context.Context) ([]RoleSummary, error)
	CreateRole(ctx context.Context, role Role) (Role, error)
	UpdateRole(ctx context.Context, role Role) error
	DeleteRole(ctx context.Context, id int64) error

	GetPermission(ctx context.Context, id int64) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	ListPermissionsByDashboardType(ctx context.Context, dashboardTypeID int64) ([]Permission, error)
	// FilterAssignablePermissionIDs narrows ids down to permissions whose
	// dashboard type matches the given one or is global.
	FilterAssignablePermissionIDs(ctx context.Context, ids []int64, dashboardTypeID int64) ([]int64, error)

	ListRolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error)
	AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error
	DetachAllRolePermissions(ctx context.Context, roleID int64) error

	UserExists(ctx context.Context, userID int64) (bool, error)
	CountRoleUsers(ctx context.Context, roleID int64) (int, error)
	AttachRoleToUser(ctx context.Context, userID, roleID int64) error
	DetachRoleFromUser(ctx context.Context, userID, roleID int64) error
	DetachAllRoleUsers(ctx context.Context, roleID int64) error
	// UserHasUnmanageableRole reports whether the user holds any role
	// without a dashboard type.
	UserHasUnmanageableRole(ctx context.Context, userID int64) (bool, error)

	UserGrants(ctx context.Context, userID int64) (UserGrants, error)

	CountUsers(ctx context.Context) (int, error)
	CountRoles(ctx context.Context) (int, error)
	CountPermissions(ctx context.Context) (int, error)
}

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
	conn db.Conn
}

// NewStore constructs a PGStore backed by the provided pool.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool, conn: pool}
}

var _ Store = (*PGStore)(nil)

// WithTx executes fn inside a single RepeatableRead transaction. The nested
// Store shares the connection so every statement joins the transaction.
func (s *PGStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.pool == nil {
		// Already transaction-bound; reuse the same connection.
		return fn(ctx, s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGStore{conn: tx})
	})
}

func (s *PGStore) GetDashboardType(ctx context.Context, id int64) (DashboardType, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, name, display_name, COALESCE(description, '') FROM dashboard_types WHERE id = $1`, id)
	return scanDashboardType(row)
}

func (s *PGStore) GetDashboardTypeByName(ctx context.Context, name string) (DashboardType, error) {
	row := s.conn.QueryRow(ctx, `SELECT id, name, display_name, COALESCE(description, '') FROM dashboard_types WHERE name = $1`, name)
	return scanDashboardType(row)
}

func (s *PGStore) ListDashboardTypes(ctx context.Context) ([]DashboardType, error) {
	rows, err := s.conn.Query(ctx, `SELECT id, name, display_name, COALESCE(description, '') FROM dashboard_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var types []DashboardType
	for rows.Next() {
		var dt DashboardType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.DisplayName, &dt.Description); err != nil {
			return nil, err
		}
		types = append(types, dt)
	}
	return types, rows.Err()
}

const roleColumns = `id, name, display_name, COALESCE(description, ''), dashboard_type_id, created_at, updated_at`

func (s *PGStore) GetRole(ctx context.Context, id int64) (Role, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (s *PGStore) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row)
}

// ListManageableRoles returns roles with a dashboard type, with user and
// permission counts for the management listing.
func (s *PGStore) ListManageableRoles(ctx context.Context) ([]RoleSummary, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT r.id, r.name, r.display_name, COALESCE(r.description, ''), r.dashboard_type_id, r.created_at, r.updated_at,
		       dt.name,
		       (SELECT COUNT(*) FROM role_user ru WHERE ru.role_id = r.id),
		       (SELECT COUNT(*) FROM permission_role pr WHERE pr.role_id = r.id)
		FROM roles r
		JOIN dashboard_types dt ON dt.id = r.dashboard_type_id
		WHERE r.dashboard_type_id IS NOT NULL
		ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var summaries []RoleSummary
	for rows.Next() {
		var rs RoleSummary
		if err := rows.Scan(&rs.ID, &rs.Name, &rs.DisplayName, &rs.Description, &rs.DashboardTypeID, &rs.CreatedAt, &rs.UpdatedAt,
			&rs.DashboardTypeName, &rs.UserCount, &rs.PermissionCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, rs)
	}
	return summaries, rows.Err()
}

func (s *PGStore) CreateRole(ctx context.Context, role Role) (Role, error) {
	row := s.conn.QueryRow(ctx, `
		INSERT INTO roles (name, display_name, description, dashboard_type_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+roleColumns,
		role.Name, role.DisplayName, role.Description, role.DashboardTypeID)
	return scanRole(row)
}

func (s *PGStore) UpdateRole(ctx context.Context, role Role) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE roles SET name = $2, display_name = $3, description = $4, dashboard_type_id = $5, updated_at = NOW()
		WHERE id = $1`,
		role.ID, role.Name, role.DisplayName, role.Description, role.DashboardTypeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteRole(ctx context.Context, id int64) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const permissionColumns = `id, name, display_name, COALESCE(description, ''), dashboard_type_id`

func (s *PGStore) GetPermission(ctx context.Context, id int64) (Permission, error) {
	row := s.conn.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	return scanPermission(row)
}

func (s *PGStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (s *PGStore) ListPermissionsByDashboardType(ctx context.Context, dashboardTypeID int64) ([]Permission, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE dashboard_type_id = $1 ORDER BY id`, dashboardTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (s *PGStore) FilterAssignablePermissionIDs(ctx context.Context, ids []int64, dashboardTypeID int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id FROM permissions
		WHERE id = ANY($1) AND (dashboard_type_id = $2 OR dashboard_type_id IS NULL)
		ORDER BY id`, ids, dashboardTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var filtered []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		filtered = append(filtered, id)
	}
	return filtered, rows.Err()
}

func (s *PGStore) ListRolePermissionIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := s.conn.Query(ctx, `SELECT permission_id FROM permission_role WHERE role_id = $1 ORDER BY permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGStore) AttachPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO permission_role (role_id, permission_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (role_id, permission_id) DO NOTHING`, roleID, permissionID)
	return err
}

func (s *PGStore) DetachPermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM permission_role WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

func (s *PGStore) DetachAllRolePermissions(ctx context.Context, roleID int64) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM permission_role WHERE role_id = $1`, roleID)
	return err
}

func (s *PGStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}

func (s *PGStore) CountRoleUsers(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM role_user WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

func (s *PGStore) AttachRoleToUser(ctx context.Context, userID, roleID int64) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO role_user (user_id, role_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	return err
}

func (s *PGStore) DetachRoleFromUser(ctx context.Context, userID, roleID int64) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM role_user WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

func (s *PGStore) DetachAllRoleUsers(ctx context.Context, roleID int64) error {
	_, err := s.conn.Exec(ctx, `DELETE FROM role_user WHERE role_id = $1`, roleID)
	return err
}

func (s *PGStore) UserHasUnmanageableRole(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM role_user ru
			JOIN roles r ON r.id = ru.role_id
			WHERE ru.user_id = $1 AND r.dashboard_type_id IS NULL
		)`, userID).Scan(&exists)
	return exists, err
}

// UserGrants loads the identity snapshot for one user: roles with resolved
// dashboard type names and permission sets, plus direct permission grants.
func (s *PGStore) UserGrants(ctx context.Context, userID int64) (UserGrants, error) {
	grants := UserGrants{UserID: userID}

	const permissionColumnsP = `p.id, p.name, p.display_name, COALESCE(p.description, ''), p.dashboard_type_id`

	rows, err := s.conn.Query(ctx, `
		SELECT r.id, r.name, r.dashboard_type_id, COALESCE(dt.name, '')
		FROM role_user ru
		JOIN roles r ON r.id = ru.role_id
		LEFT JOIN dashboard_types dt ON dt.id = r.dashboard_type_id
		WHERE ru.user_id = $1
		ORDER BY r.id`, userID)
	if err != nil {
		return UserGrants{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role GrantedRole
		if err := rows.Scan(&role.ID, &role.Name, &role.DashboardTypeID, &role.DashboardTypeName); err != nil {
			return UserGrants{}, err
		}
		grants.Roles = append(grants.Roles, role)
	}
	if err := rows.Err(); err != nil {
		return UserGrants{}, err
	}

	for i := range grants.Roles {
		permRows, err := s.conn.Query(ctx, `
			SELECT `+permissionColumnsP+`
			FROM permission_role pr
			JOIN permissions p ON p.id = pr.permission_id
			WHERE pr.role_id = $1
			ORDER BY p.id`, grants.Roles[i].ID)
		if err != nil {
			return UserGrants{}, err
		}
		perms, err := collectPermissions(permRows)
		permRows.Close()
		if err != nil {
			return UserGrants{}, err
		}
		grants.Roles[i].Permissions = perms
	}

	directRows, err := s.conn.Query(ctx, `
		SELECT `+permissionColumnsP+`
		FROM permission_user pu
		JOIN permissions p ON p.id = pu.permission_id
		WHERE pu.user_id = $1
		ORDER BY p.id`, userID)
	if err != nil {
		return UserGrants{}, err
	}
	defer directRows.Close()
	direct, err := collectPermissions(directRows)
	if err != nil {
		return UserGrants{}, err
	}
	grants.Direct = direct
	return grants, nil
}

func (s *PGStore) CountUsers(ctx context.Context) (int, error) {
	return s.countTable(ctx, "users")
}

func (s *PGStore) CountRoles(ctx context.Context) (int, error) {
	return s.countTable(ctx, "roles")
}

func (s *PGStore) CountPermissions(ctx context.Context) (int, error) {
	return s.countTable(ctx, "permissions")
}

func (s *PGStore) countTable(ctx context.Context, table string) (int, error) {
	var count int
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	return count, err
}

func scanDashboardType(row pgx.Row) (DashboardType, error) {
	var dt DashboardType
	if err := row.Scan(&dt.ID, &dt.Name, &dt.DisplayName, &dt.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DashboardType{}, ErrNotFound
		}
		return DashboardType{}, err
	}
	return dt, nil
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.DisplayName, &role.Description, &role.DashboardTypeID, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func scanPermission(row pgx.Row) (Permission, error) {
	var perm Permission
	if err := row.Scan(&perm.ID, &perm.Name, &perm.DisplayName, &perm.Description, &perm.DashboardTypeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.DisplayName, &perm.Description, &perm.DashboardTypeID); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}
