package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/teacher-contracts/internal"
	templateDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/template"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

type Field struct {
	Key         string    `json:"key" validate:"required"`
	Label       string    `json:"label" validate:"required"`
	Type        FieldType `json:"type" validate:"required,oneof=text textarea number date select checkbox"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty" validate:"required_if=Type select"`
	Placeholder string    `json:"placeholder,omitempty"`
}

type ContractTemplate struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Fields              []Field   `json:"fields"`
	ApplicableTypes     []string  `json:"applicable_types"`
	ApplicablePositions []string  `json:"applicable_positions"`
	Version             int       `json:"version"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AppliesTo reports whether the template can back a contract of the given
// type for a teacher holding position. Empty lists match everything.
func (t *ContractTemplate) AppliesTo(contractType, position string) bool {
	return matches(t.ApplicableTypes, contractType) && matches(t.ApplicablePositions, position)
}

func matches(allowed []string, v string) bool {
	if len(allowed) == 0 || v == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}

// ValidateData checks contract data against the template fields. Keys the
// template does not declare are ignored.
func (t *ContractTemplate) ValidateData(data map[string]interface{}) error {
	var errs []internal.ValidationError

	for _, f := range t.Fields {
		v, present := data[f.Key]
		if !present || isBlank(v) {
			if f.Required {
				errs = append(errs, internal.ValidationError{
					Field:   f.Key,
					Message: fmt.Sprintf("%s is required", f.Label),
					Code:    string(internal.ErrCodeMissingField),
				})
			}
			continue
		}
		if msg := f.check(v); msg != "" {
			errs = append(errs, internal.ValidationError{
				Field:   f.Key,
				Message: msg,
				Code:    string(internal.ErrCodeInvalidFieldValue),
			})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return internal.NewFieldErrors("Contract data does not match template", errs)
}

func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

func (f Field) check(v interface{}) string {
	switch f.Type {
	case FieldText, FieldTextarea:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("%s must be text", f.Label)
		}
	case FieldNumber:
		switch x := v.(type) {
		case float64, int, int64, json.Number:
		case string:
			if _, err := strconv.ParseFloat(x, 64); err != nil {
				return fmt.Sprintf("%s must be a number", f.Label)
			}
		default:
			return fmt.Sprintf("%s must be a number", f.Label)
		}
	case FieldDate:
		s, ok := v.(string)
		if !ok || !isDate(s) {
			return fmt.Sprintf("%s must be a date", f.Label)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok || !contains(f.Options, s) {
			return fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", "))
		}
	case FieldCheckbox:
		b, ok := v.(bool)
		if !ok {
			return fmt.Sprintf("%s must be true or false", f.Label)
		}
		if f.Required && !b {
			return fmt.Sprintf("%s must be checked", f.Label)
		}
	}
	return ""
}

func isDate(s string) bool {
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func ToDataModel(t *ContractTemplate) (*templateDatamodel.ContractTemplate, error) {
	fields, err := json.Marshal(t.Fields)
	if err != nil {
		return nil, err
	}
	types, err := json.Marshal(nonNil(t.ApplicableTypes))
	if err != nil {
		return nil, err
	}
	positions, err := json.Marshal(nonNil(t.ApplicablePositions))
	if err != nil {
		return nil, err
	}
	return &templateDatamodel.ContractTemplate{
		ID:                  t.ID,
		Name:                t.Name,
		Description:         t.Description,
		Fields:              fields,
		ApplicableTypes:     types,
		ApplicablePositions: positions,
		Version:             t.Version,
		IsActive:            t.IsActive,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}, nil
}

func FromDataModel(t *templateDatamodel.ContractTemplate) (*ContractTemplate, error) {
	tpl := &ContractTemplate{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Version:     t.Version,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if err := unmarshalList(t.Fields, &tpl.Fields); err != nil {
		return nil, fmt.Errorf("template %s fields: %w", t.ID, err)
	}
	if err := unmarshalList(t.ApplicableTypes, &tpl.ApplicableTypes); err != nil {
		return nil, fmt.Errorf("template %s applicable types: %w", t.ID, err)
	}
	if err := unmarshalList(t.ApplicablePositions, &tpl.ApplicablePositions); err != nil {
		return nil, fmt.Errorf("template %s applicable positions: %w", t.ID, err)
	}
	return tpl, nil
}

func unmarshalList(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
