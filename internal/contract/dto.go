package contract

import (
	"strings"
	"time"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

type CreateContractDTO struct {
	TeacherID   string                 `json:"teacher_id" validate:"required"`
	TemplateID  *string                `json:"template_id,omitempty"`
	Title       string                 `json:"title" validate:"max=200"`
	Type        Type                   `json:"type" validate:"required,oneof=full_time part_time temporary visiting"`
	StartDate   string                 `json:"start_date" validate:"required"`
	EndDate     string                 `json:"end_date" validate:"required"`
	FileURL     *string                `json:"file_url,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Attachments []Attachment           `json:"attachments,omitempty" validate:"dive"`
}

// Validate checks presence and the date range and returns the parsed dates.
func (d CreateContractDTO) Validate() (time.Time, time.Time, error) {
	if err := validation.Struct(d); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return parseRange(d.StartDate, d.EndDate)
}

// UpdateDraftDTO edits a draft. Nil members are left untouched.
type UpdateDraftDTO struct {
	Title       *string                `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	TemplateID  *string                `json:"template_id,omitempty"`
	StartDate   *string                `json:"start_date,omitempty"`
	EndDate     *string                `json:"end_date,omitempty"`
	FileURL     *string                `json:"file_url,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Attachments []Attachment           `json:"attachments,omitempty" validate:"omitempty,dive"`
}

func (d UpdateDraftDTO) Validate() error {
	return validation.Struct(d)
}

type TransitionDTO struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type UpdateStatusDTO struct {
	Status Status `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

// ListFilter narrows a visibility-scoped listing.
type ListFilter struct {
	Status    Status
	Type      Type
	TeacherID string
	Search    string
	Limit     int
	Offset    int
}

func (f ListFilter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return internal.NewValidationFieldError("status", "unknown contract status "+string(f.Status), internal.ErrCodeInvalidStatus)
	}
	if f.Type != "" && !f.Type.Valid() {
		return internal.NewValidationFieldError("type", "unknown contract type "+string(f.Type), internal.ErrCodeInvalidType)
	}
	return nil
}

type ContractResponse struct {
	*Contract
	AvailableActions []Action `json:"available_actions"`
}

type ContractsResponse struct {
	Contracts []*Contract `json:"contracts"`
	Total     int64       `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, internal.NewValidationFieldError(field, field+" must be a date (YYYY-MM-DD)", internal.ErrCodeInvalidDate)
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate("start_date", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end_date", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDateRange)
	}
	return start, end, nil
}
