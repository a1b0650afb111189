package user

import "time"

type User struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(64)"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null;index"`
	DepartmentID *string   `gorm:"column:department_id;index"`
	Position     string    `gorm:"column:position"`
	Phone        string    `gorm:"column:phone"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

type Department struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(64)"`
	Name      string    `gorm:"column:name;not null"`
	Code      string    `gorm:"column:code;uniqueIndex;not null"`
	AdminID   *string   `gorm:"column:admin_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Department) TableName() string {
	return "departments"
}
