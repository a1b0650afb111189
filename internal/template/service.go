package template

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/teacher-contracts/internal"
	templateDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/template"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*templateDatamodel.ContractTemplate, error)
	List(ctx context.Context, activeOnly bool) ([]*templateDatamodel.ContractTemplate, error)
	Create(ctx context.Context, t *templateDatamodel.ContractTemplate) error
	Update(ctx context.Context, t *templateDatamodel.ContractTemplate) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*ContractTemplate, error) {
	rows, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("failed to list templates", "error", err)
		return nil, err
	}
	templates := make([]*ContractTemplate, 0, len(rows))
	for _, row := range rows {
		t, err := FromDataModel(row)
		if err != nil {
			return nil, internal.NewInternalError("corrupt template", err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// Get returns ErrTemplateNotFound when id is unknown.
func (s *Service) Get(ctx context.Context, id string) (*ContractTemplate, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if row == nil {
		return nil, internal.ErrTemplateNotFound
	}
	t, err := FromDataModel(row)
	if err != nil {
		return nil, internal.NewInternalError("corrupt template", err)
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, dto CreateTemplateDTO) (*ContractTemplate, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	t := &ContractTemplate{
		ID:                  uuid.NewString(),
		Name:                dto.Name,
		Description:         dto.Description,
		Fields:              dto.Fields,
		ApplicableTypes:     dto.ApplicableTypes,
		ApplicablePositions: dto.ApplicablePositions,
		Version:             1,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.save(ctx, t, true); err != nil {
		return nil, err
	}

	s.logger.Info("template created", "template_id", t.ID, "fields", len(t.Fields))
	return t, nil
}

// Update applies dto and bumps the version.
func (s *Service) Update(ctx context.Context, id string, dto UpdateTemplateDTO) (*ContractTemplate, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		t.Name = *dto.Name
	}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	if dto.Fields != nil {
		t.Fields = dto.Fields
	}
	if dto.ApplicableTypes != nil {
		t.ApplicableTypes = dto.ApplicableTypes
	}
	if dto.ApplicablePositions != nil {
		t.ApplicablePositions = dto.ApplicablePositions
	}
	t.Version++
	t.UpdatedAt = s.now()

	if err := s.save(ctx, t, false); err != nil {
		return nil, err
	}

	s.logger.Info("template updated", "template_id", t.ID, "version", t.Version)
	return t, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (*ContractTemplate, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return t, nil
	}
	t.IsActive = false
	t.UpdatedAt = s.now()

	if err := s.save(ctx, t, false); err != nil {
		return nil, err
	}

	s.logger.Info("template deactivated", "template_id", t.ID)
	return t, nil
}

// ListApplicable returns the active templates usable for a contract type and
// teacher position.
func (s *Service) ListApplicable(ctx context.Context, contractType, position string) ([]*ContractTemplate, error) {
	all, err := s.List(ctx, true)
	if err != nil {
		return nil, err
	}
	applicable := make([]*ContractTemplate, 0, len(all))
	for _, t := range all {
		if t.AppliesTo(contractType, position) {
			applicable = append(applicable, t)
		}
	}
	return applicable, nil
}

// ValidateData checks data against template id and reports every problem
// instead of failing on the first.
func (s *Service) ValidateData(ctx context.Context, id string, data map[string]interface{}) (*ValidationResult, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{Valid: true, Errors: []internal.ValidationError{}}
	if err := t.ValidateData(data); err != nil {
		var appErr *internal.AppError
		if !errors.As(err, &appErr) {
			return nil, err
		}
		result.Valid = false
		if details, ok := appErr.Details.(internal.ValidationErrors); ok {
			result.Errors = details.Errors
		}
	}
	return result, nil
}

func (s *Service) save(ctx context.Context, t *ContractTemplate, create bool) error {
	row, err := ToDataModel(t)
	if err != nil {
		return internal.NewInternalError("failed to encode template", err)
	}
	if create {
		err = s.repo.Create(ctx, row)
	} else {
		err = s.repo.Update(ctx, row)
	}
	if err != nil {
		s.logger.Error("failed to persist template", "template_id", t.ID, "error", err)
		return internal.NewInternalError("failed to save template", err)
	}
	return nil
}
