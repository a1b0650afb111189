package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/teacher-contracts/internal"
	userDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	List(ctx context.Context, role string, departmentID string) ([]*userDatamodel.User, error)
	GetDepartment(ctx context.Context, id string) (*userDatamodel.Department, error)
	ListDepartments(ctx context.Context) ([]*userDatamodel.Department, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetByID returns nil when no user has the id.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	return FromDataModel(u), nil
}

func (s *Service) List(ctx context.Context, filter ListUsersFilter) ([]*User, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, internal.NewValidationError("unknown role "+string(filter.Role), internal.ErrCodeInvalidFieldValue)
	}
	rows, err := s.repo.List(ctx, string(filter.Role), filter.DepartmentID)
	if err != nil {
		s.logger.Error("failed to list users", "role", filter.Role, "department_id", filter.DepartmentID, "error", err)
		return nil, err
	}
	return fromDataModels(rows), nil
}

func (s *Service) ListByDepartment(ctx context.Context, departmentID string) ([]*User, error) {
	return s.List(ctx, ListUsersFilter{DepartmentID: departmentID})
}

func (s *Service) UsersByRole(ctx context.Context, role coreUser.Role) ([]*User, error) {
	return s.List(ctx, ListUsersFilter{Role: role})
}

// DepartmentAdmins returns the dept_admin users of a department.
func (s *Service) DepartmentAdmins(ctx context.Context, departmentID string) ([]*User, error) {
	if departmentID == "" {
		return nil, nil
	}
	return s.List(ctx, ListUsersFilter{Role: coreUser.RoleDeptAdmin, DepartmentID: departmentID})
}

func (s *Service) GetDepartment(ctx context.Context, id string) (*Department, error) {
	d, err := s.repo.GetDepartment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	if d == nil {
		return nil, internal.ErrDepartmentNotFound
	}
	return DepartmentFromDataModel(d), nil
}

func (s *Service) GetDepartmentDetail(ctx context.Context, id string) (*DepartmentDetail, error) {
	d, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.ListByDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DepartmentDetail{Department: d, Members: members}, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.ListDepartments(ctx)
	if err != nil {
		s.logger.Error("failed to list departments", "error", err)
		return nil, err
	}
	departments := make([]*Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, DepartmentFromDataModel(row))
	}
	return departments, nil
}

func fromDataModels(rows []*userDatamodel.User) []*User {
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users
}
