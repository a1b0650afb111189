package user

// Role determines which contracts a user can see and which workflow
// actions are offered to them.
type Role string

const (
	RoleTeacher   Role = "teacher"
	RoleDeptAdmin Role = "dept_admin"
	RoleHRAdmin   Role = "hr_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleDeptAdmin, RoleHRAdmin:
		return true
	}
	return false
}

// Actor is the identity a request acts as.
type Actor struct {
	ID           string
	Role         Role
	DepartmentID string
}

func (a Actor) IsTeacher() bool   { return a.Role == RoleTeacher }
func (a Actor) IsDeptAdmin() bool { return a.Role == RoleDeptAdmin }
func (a Actor) IsHRAdmin() bool   { return a.Role == RoleHRAdmin }
