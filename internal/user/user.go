package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/user"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	PasswordHash string        `json:"-"`
	Role         coreUser.Role `json:"role"`
	DepartmentID *string       `json:"department_id,omitempty"`
	Position     string        `json:"position,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	AdminID   *string   `json:"admin_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Department() string {
	if u.DepartmentID == nil {
		return ""
	}
	return *u.DepartmentID
}

func (u *User) BelongsTo(departmentID string) bool {
	return departmentID != "" && u.Department() == departmentID
}

// Actor is the workflow identity of the user.
func (u *User) Actor() coreUser.Actor {
	return coreUser.Actor{ID: u.ID, Role: u.Role, DepartmentID: u.Department()}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		DepartmentID: u.DepartmentID,
		Position:     u.Position,
		Phone:        u.Phone,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         coreUser.Role(u.Role),
		DepartmentID: u.DepartmentID,
		Position:     u.Position,
		Phone:        u.Phone,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func DepartmentToDataModel(d *Department) *userDatamodel.Department {
	return &userDatamodel.Department{
		ID:        d.ID,
		Name:      d.Name,
		Code:      d.Code,
		AdminID:   d.AdminID,
		CreatedAt: d.CreatedAt,
	}
}

func DepartmentFromDataModel(d *userDatamodel.Department) *Department {
	return &Department{
		ID:        d.ID,
		Name:      d.Name,
		Code:      d.Code,
		AdminID:   d.AdminID,
		CreatedAt: d.CreatedAt,
	}
}
