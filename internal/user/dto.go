package user

import coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"

// ListUsersFilter narrows GET /users.
type ListUsersFilter struct {
	Role         coreUser.Role
	DepartmentID string
}

type UsersResponse struct {
	Users []*User `json:"users"`
	Total int     `json:"total"`
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}

// DepartmentDetail is a department together with its members.
type DepartmentDetail struct {
	*Department
	Members []*User `json:"members"`
}
