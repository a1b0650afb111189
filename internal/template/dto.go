package template

import (
	"fmt"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/core/common/validation"
)

type CreateTemplateDTO struct {
	Name                string   `json:"name" validate:"required,max=200"`
	Description         string   `json:"description"`
	Fields              []Field  `json:"fields" validate:"required,min=1,dive"`
	ApplicableTypes     []string `json:"applicable_types" validate:"dive,oneof=full_time part_time temporary visiting"`
	ApplicablePositions []string `json:"applicable_positions"`
}

func (d CreateTemplateDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return uniqueKeys(d.Fields)
}

// UpdateTemplateDTO replaces the editable parts of a template. Nil members
// are left untouched.
type UpdateTemplateDTO struct {
	Name                *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description         *string  `json:"description"`
	Fields              []Field  `json:"fields" validate:"omitempty,min=1,dive"`
	ApplicableTypes     []string `json:"applicable_types" validate:"omitempty,dive,oneof=full_time part_time temporary visiting"`
	ApplicablePositions []string `json:"applicable_positions"`
}

func (d UpdateTemplateDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return uniqueKeys(d.Fields)
}

type ValidateDataDTO struct {
	Data map[string]interface{} `json:"data"`
}

type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []internal.ValidationError `json:"errors"`
}

type TemplatesResponse struct {
	Templates []*ContractTemplate `json:"templates"`
}

func uniqueKeys(fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Key]; dup {
			return internal.NewValidationFieldError("fields", fmt.Sprintf("duplicate field key %q", f.Key), internal.ErrCodeInvalidFieldValue)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}
