package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abdalhababsah/outlier/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, name, is_active, created_at, updated_at`

// ListUsers returns one page of users with their roles plus the total count.
func (r *Repository) ListUsers(ctx context.Context, page, perPage int) ([]UserWithRoles, int, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var users []UserWithRoles
	for rows.Next() {
		var user UserWithRoles
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUser fetches one user with roles.
func (r *Repository) GetUser(ctx context.Context, id int64) (UserWithRoles, error) {
	var user UserWithRoles
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserWithRoles{}, rbac.ErrNotFound
		}
		return UserWithRoles{}, err
	}
	users := []UserWithRoles{user}
	if err := r.attachRoles(ctx, users); err != nil {
		return UserWithRoles{}, err
	}
	return users[0], nil
}

// ListAssignableUsers returns active users holding no role outside the
// manageable set. Only these can receive managed roles.
func (r *Repository) ListAssignableUsers(ctx context.Context) ([]UserWithRoles, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users u
		WHERE u.is_active
		  AND NOT EXISTS (
			SELECT 1 FROM role_user ru
			JOIN roles r ON r.id = ru.role_id
			WHERE ru.user_id = u.id AND r.dashboard_type_id IS NULL
		  )
		ORDER BY u.name, u.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []UserWithRoles
	for rows.Next() {
		var user UserWithRoles
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachRoles(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *Repository) attachRoles(ctx context.Context, users []UserWithRoles) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]int64, len(users))
	index := make(map[int64]int, len(users))
	for i, user := range users {
		ids[i] = user.ID
		index[user.ID] = i
	}
	rows, err := r.pool.Query(ctx, `
		SELECT ru.user_id, r.id, r.name, r.display_name, COALESCE(r.description, ''), r.dashboard_type_id, r.created_at, r.updated_at
		FROM role_user ru
		JOIN roles r ON r.id = ru.role_id
		WHERE ru.user_id = ANY($1)
		ORDER BY r.id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		var role rbac.Role
		if err := rows.Scan(&userID, &role.ID, &role.Name, &role.DisplayName, &role.Description, &role.DashboardTypeID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return err
		}
		i := index[userID]
		users[i].Roles = append(users[i].Roles, role)
	}
	return rows.Err()
}
