package users

import (
	"context"

	"github.com/abdalhababsah/outlier/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, page, perPage int) ([]UserWithRoles, int, error)
	GetUser(ctx context.Context, id int64) (UserWithRoles, error)
	ListAssignableUsers(ctx context.Context) ([]UserWithRoles, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns one page of users with their roles.
func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]UserWithRoles, shared.Pagination, error) {
	users, total, err := s.repo.ListUsers(ctx, page, perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(page, perPage, total), nil
}

// GetUser fetches one user with roles.
func (s *Service) GetUser(ctx context.Context, id int64) (UserWithRoles, error) {
	return s.repo.GetUser(ctx, id)
}

// ListAssignableUsers returns users eligible for managed role assignment.
func (s *Service) ListAssignableUsers(ctx context.Context) ([]UserWithRoles, error) {
	return s.repo.ListAssignableUsers(ctx)
}
