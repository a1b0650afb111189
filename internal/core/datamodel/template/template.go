package template

import (
	"encoding/json"
	"time"
)

type ContractTemplate struct {
	ID                  string          `gorm:"primaryKey;column:id;type:varchar(64)"`
	Name                string          `gorm:"column:name;not null"`
	Description         string          `gorm:"column:description"`
	Fields              json.RawMessage `gorm:"column:fields"`
	ApplicableTypes     json.RawMessage `gorm:"column:applicable_types"`
	ApplicablePositions json.RawMessage `gorm:"column:applicable_positions"`
	Version             int             `gorm:"column:version;not null"`
	IsActive            bool            `gorm:"column:is_active"`
	CreatedAt           time.Time       `gorm:"column:created_at"`
	UpdatedAt           time.Time       `gorm:"column:updated_at"`
}

func (ContractTemplate) TableName() string {
	return "contract_templates"
}
