package postgres

import (
	"context"
	"errors"

	templateDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/template"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) template.RepositoryAPI {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*templateDatamodel.ContractTemplate, error) {
	var t templateDatamodel.ContractTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List(ctx context.Context, activeOnly bool) ([]*templateDatamodel.ContractTemplate, error) {
	var templates []*templateDatamodel.ContractTemplate
	query := r.db.WithContext(ctx)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *TemplateRepository) Create(ctx context.Context, t *templateDatamodel.ContractTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) Update(ctx context.Context, t *templateDatamodel.ContractTemplate) error {
	return r.db.WithContext(ctx).Save(t).Error
}
