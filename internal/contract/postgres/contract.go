package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/teacher-contracts/internal/contract"
	contractDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/contract"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) contract.RepositoryAPI {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, c *contractDatamodel.Contract) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id string) (*contractDatamodel.Contract, error) {
	var c contractDatamodel.Contract
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ContractRepository) Update(ctx context.Context, c *contractDatamodel.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// List applies the visibility scope, then the filters. Department scope is
// resolved through the teacher's row in users.
func (r *ContractRepository) List(ctx context.Context, q contract.Query) ([]*contractDatamodel.Contract, int64, error) {
	query := r.db.WithContext(ctx).Model(&contractDatamodel.Contract{})

	switch {
	case q.Scope.All:
	case q.Scope.TeacherID != "":
		query = query.Where("contracts.teacher_id = ?", q.Scope.TeacherID)
	case q.Scope.DepartmentID != "":
		query = query.Where("contracts.teacher_id IN (?)",
			r.db.WithContext(ctx).Table("users").Select("id").Where("department_id = ?", q.Scope.DepartmentID))
	default:
		return []*contractDatamodel.Contract{}, 0, nil
	}

	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("contracts.status IN ?", statuses)
	}
	if q.Type != "" {
		query = query.Where("contracts.contract_type = ?", string(q.Type))
	}
	if q.TeacherID != "" {
		query = query.Where("contracts.teacher_id = ?", q.TeacherID)
	}
	if q.Search != "" {
		query = query.Where("LOWER(contracts.title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query
	if q.Limit > 0 {
		page = page.Limit(q.Limit)
	}
	if q.Offset > 0 {
		page = page.Offset(q.Offset)
	}

	var contracts []*contractDatamodel.Contract
	err := page.Order("contracts.created_at DESC").Order("contracts.id ASC").Find(&contracts).Error
	return contracts, total, err
}
