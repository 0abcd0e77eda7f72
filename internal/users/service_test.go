package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	users      []UserWithRoles
	total      int
	gotPage    int
	gotPerPage int
	err        error
}

func (r *stubRepo) ListUsers(ctx context.Context, page, perPage int) ([]UserWithRoles, int, error) {
	r.gotPage = page
	r.gotPerPage = perPage
	return r.users, r.total, r.err
}

func (r *stubRepo) GetUser(ctx context.Context, id int64) (UserWithRoles, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return UserWithRoles{}, errors.New("not found")
}

func (r *stubRepo) ListAssignableUsers(ctx context.Context) ([]UserWithRoles, error) {
	return r.users, r.err
}

func TestListUsersPaginates(t *testing.T) {
	repo := &stubRepo{
		users: []UserWithRoles{{User: User{ID: 1, Email: "a@example.com"}}},
		total: 45,
	}
	svc := NewService(repo)

	users, pagination, err := svc.ListUsers(context.Background(), 2, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 2, repo.gotPage)
	require.Equal(t, 20, repo.gotPerPage)
	require.Equal(t, 2, pagination.Page)
	require.Equal(t, 45, pagination.Total)
	require.Equal(t, 3, pagination.TotalPages)
}

func TestListUsersSurfacesError(t *testing.T) {
	repo := &stubRepo{err: errors.New("boom")}
	svc := NewService(repo)

	_, _, err := svc.ListUsers(context.Background(), 1, 20)
	require.Error(t, err)
}
