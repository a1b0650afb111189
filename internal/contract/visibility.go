package contract

import (
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

// Scope restricts a query to what a viewer may see. The zero value with
// All unset and no ids matches nothing.
type Scope struct {
	All          bool
	TeacherID    string
	DepartmentID string
}

func (s Scope) Empty() bool {
	return !s.All && s.TeacherID == "" && s.DepartmentID == ""
}

// ScopeFor maps a viewer to the contracts they can see: teachers their own,
// department admins those of teachers in their department, HR everything.
func ScopeFor(viewer coreUser.Actor) Scope {
	switch viewer.Role {
	case coreUser.RoleHRAdmin:
		return Scope{All: true}
	case coreUser.RoleDeptAdmin:
		return Scope{DepartmentID: viewer.DepartmentID}
	case coreUser.RoleTeacher:
		return Scope{TeacherID: viewer.ID}
	}
	return Scope{}
}

// CanView applies ScopeFor to a single contract whose teacher belongs to
// teacherDepartmentID.
func CanView(c *Contract, viewer coreUser.Actor, teacherDepartmentID string) bool {
	scope := ScopeFor(viewer)
	switch {
	case scope.All:
		return true
	case scope.TeacherID != "":
		return c.TeacherID == scope.TeacherID
	case scope.DepartmentID != "":
		return teacherDepartmentID == scope.DepartmentID
	}
	return false
}
