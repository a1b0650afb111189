package contract

import (
	"encoding/json"
	"time"
)

type Contract struct {
	ID                       string          `gorm:"primaryKey;column:id;type:varchar(64)"`
	TeacherID                string          `gorm:"column:teacher_id;not null;index"`
	TemplateID               *string         `gorm:"column:template_id"`
	Title                    string          `gorm:"column:title;not null"`
	ContractType             string          `gorm:"column:contract_type;not null"`
	Status                   string          `gorm:"column:status;not null;index"`
	StartDate                time.Time       `gorm:"column:start_date;not null"`
	EndDate                  time.Time       `gorm:"column:end_date;not null"`
	ApprovedAt               *time.Time      `gorm:"column:approved_at"`
	ApprovedBy               *string         `gorm:"column:approved_by"`
	RejectedAt               *time.Time      `gorm:"column:rejected_at"`
	RejectedBy               *string         `gorm:"column:rejected_by"`
	RejectionReason          *string         `gorm:"column:rejection_reason"`
	DepartmentApprovalStatus *string         `gorm:"column:department_approval_status"`
	DepartmentApprovedAt     *time.Time      `gorm:"column:department_approved_at"`
	DepartmentApprovedBy     *string         `gorm:"column:department_approved_by"`
	FileURL                  *string         `gorm:"column:file_url"`
	Data                     json.RawMessage `gorm:"column:data"`
	Attachments              json.RawMessage `gorm:"column:attachments"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Contract) TableName() string {
	return "contracts"
}
