package contract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	contractDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/contract"
)

type Status string

const (
	StatusDraft       Status = "draft"
	StatusPendingDept Status = "pending_dept"
	StatusPendingHR   Status = "pending_hr"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusArchived    Status = "archived"
	StatusTerminated  Status = "terminated"
)

var allStatuses = []Status{
	StatusDraft, StatusPendingDept, StatusPendingHR, StatusApproved,
	StatusRejected, StatusArchived, StatusTerminated,
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsFinal reports whether no further action can be taken.
func (s Status) IsFinal() bool {
	return s == StatusRejected || s == StatusArchived || s == StatusTerminated
}

type Type string

const (
	TypeFullTime  Type = "full_time"
	TypePartTime  Type = "part_time"
	TypeTemporary Type = "temporary"
	TypeVisiting  Type = "visiting"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFullTime, TypePartTime, TypeTemporary, TypeVisiting:
		return true
	}
	return false
}

// Label is the human form used in default titles, e.g. "Full-time".
func (t Type) Label() string {
	switch t {
	case TypeFullTime:
		return "Full-time"
	case TypePartTime:
		return "Part-time"
	case TypeTemporary:
		return "Temporary"
	case TypeVisiting:
		return "Visiting"
	}
	return strings.ReplaceAll(string(t), "_", " ")
}

const DepartmentApproved = "approved"

type Attachment struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Size int64  `json:"size" validate:"gte=0"`
}

type Contract struct {
	ID                       string                 `json:"id"`
	TeacherID                string                 `json:"teacher_id"`
	TemplateID               *string                `json:"template_id,omitempty"`
	Title                    string                 `json:"title"`
	Type                     Type                   `json:"type"`
	Status                   Status                 `json:"status"`
	StartDate                time.Time              `json:"start_date"`
	EndDate                  time.Time              `json:"end_date"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
	ApprovedAt               *time.Time             `json:"approved_at,omitempty"`
	ApprovedBy               *string                `json:"approved_by,omitempty"`
	RejectedAt               *time.Time             `json:"rejected_at,omitempty"`
	RejectedBy               *string                `json:"rejected_by,omitempty"`
	RejectionReason          *string                `json:"rejection_reason,omitempty"`
	DepartmentApprovalStatus *string                `json:"department_approval_status,omitempty"`
	DepartmentApprovedAt     *time.Time             `json:"department_approved_at,omitempty"`
	DepartmentApprovedBy     *string                `json:"department_approved_by,omitempty"`
	FileURL                  *string                `json:"file_url,omitempty"`
	Data                     map[string]interface{} `json:"data,omitempty"`
	Attachments              []Attachment           `json:"attachments,omitempty"`
}

func NewContract(id string, dto CreateContractDTO, start, end, now time.Time) *Contract {
	title := strings.TrimSpace(dto.Title)
	if title == "" {
		title = fmt.Sprintf("%s contract", dto.Type.Label())
	}
	return &Contract{
		ID:          id,
		TeacherID:   dto.TeacherID,
		TemplateID:  dto.TemplateID,
		Title:       title,
		Type:        dto.Type,
		Status:      StatusDraft,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
		FileURL:     dto.FileURL,
		Data:        dto.Data,
		Attachments: dto.Attachments,
	}
}

func (c *Contract) IsDraft() bool {
	return c.Status == StatusDraft
}

// moveTo sets the status and the audit fields that belong to it.
func (c *Contract) moveTo(to Status, actorID, reason string, now time.Time) {
	c.Status = to
	c.UpdatedAt = now

	switch to {
	case StatusPendingHR:
		approved := DepartmentApproved
		c.DepartmentApprovalStatus = &approved
		c.DepartmentApprovedAt = &now
		c.DepartmentApprovedBy = &actorID
	case StatusApproved:
		c.ApprovedAt = &now
		c.ApprovedBy = &actorID
	case StatusRejected:
		c.RejectedAt = &now
		c.RejectedBy = &actorID
		if reason != "" {
			c.RejectionReason = &reason
		}
	}
}

func ToDataModel(c *Contract) (*contractDatamodel.Contract, error) {
	row := &contractDatamodel.Contract{
		ID:                       c.ID,
		TeacherID:                c.TeacherID,
		TemplateID:               c.TemplateID,
		Title:                    c.Title,
		ContractType:             string(c.Type),
		Status:                   string(c.Status),
		StartDate:                c.StartDate,
		EndDate:                  c.EndDate,
		ApprovedAt:               c.ApprovedAt,
		ApprovedBy:               c.ApprovedBy,
		RejectedAt:               c.RejectedAt,
		RejectedBy:               c.RejectedBy,
		RejectionReason:          c.RejectionReason,
		DepartmentApprovalStatus: c.DepartmentApprovalStatus,
		DepartmentApprovedAt:     c.DepartmentApprovedAt,
		DepartmentApprovedBy:     c.DepartmentApprovedBy,
		FileURL:                  c.FileURL,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
	}

	if c.Data != nil {
		data, err := json.Marshal(c.Data)
		if err != nil {
			return nil, fmt.Errorf("encode contract data: %w", err)
		}
		row.Data = data
	}
	if c.Attachments != nil {
		attachments, err := json.Marshal(c.Attachments)
		if err != nil {
			return nil, fmt.Errorf("encode attachments: %w", err)
		}
		row.Attachments = attachments
	}
	return row, nil
}

func FromDataModel(c *contractDatamodel.Contract) (*Contract, error) {
	out := &Contract{
		ID:                       c.ID,
		TeacherID:                c.TeacherID,
		TemplateID:               c.TemplateID,
		Title:                    c.Title,
		Type:                     Type(c.ContractType),
		Status:                   Status(c.Status),
		StartDate:                c.StartDate,
		EndDate:                  c.EndDate,
		CreatedAt:                c.CreatedAt,
		UpdatedAt:                c.UpdatedAt,
		ApprovedAt:               c.ApprovedAt,
		ApprovedBy:               c.ApprovedBy,
		RejectedAt:               c.RejectedAt,
		RejectedBy:               c.RejectedBy,
		RejectionReason:          c.RejectionReason,
		DepartmentApprovalStatus: c.DepartmentApprovalStatus,
		DepartmentApprovedAt:     c.DepartmentApprovedAt,
		DepartmentApprovedBy:     c.DepartmentApprovedBy,
		FileURL:                  c.FileURL,
	}

	if len(c.Data) > 0 && string(c.Data) != "null" {
		if err := json.Unmarshal(c.Data, &out.Data); err != nil {
			return nil, fmt.Errorf("decode contract %s data: %w", c.ID, err)
		}
	}
	if len(c.Attachments) > 0 && string(c.Attachments) != "null" {
		if err := json.Unmarshal(c.Attachments, &out.Attachments); err != nil {
			return nil, fmt.Errorf("decode contract %s attachments: %w", c.ID, err)
		}
	}
	return out, nil
}
