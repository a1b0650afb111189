package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/user"
	"github.com/frahmantamala/teacher-contracts/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, role string, departmentID string) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if departmentID != "" {
		query = query.Where("department_id = ?", departmentID)
	}
	err := query.Order("name ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetDepartment(ctx context.Context, id string) (*userDatamodel.Department, error) {
	var d userDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *UserRepository) ListDepartments(ctx context.Context) ([]*userDatamodel.Department, error) {
	var departments []*userDatamodel.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}
