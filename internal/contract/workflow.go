package contract

import (
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
)

type Action string

const (
	ActionSubmit    Action = "submit"
	ActionApprove   Action = "approve"
	ActionReject    Action = "reject"
	ActionArchive   Action = "archive"
	ActionTerminate Action = "terminate"
)

func (a Action) Valid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject, ActionArchive, ActionTerminate:
		return true
	}
	return false
}

type transition struct {
	from   Status
	action Action
	to     Status
	roles  []coreUser.Role
}

// transitions is the whole approval workflow. Anything not listed is illegal.
var transitions = []transition{
	{StatusDraft, ActionSubmit, StatusPendingDept, []coreUser.Role{coreUser.RoleTeacher, coreUser.RoleHRAdmin}},
	{StatusPendingDept, ActionApprove, StatusPendingHR, []coreUser.Role{coreUser.RoleDeptAdmin}},
	{StatusPendingDept, ActionReject, StatusRejected, []coreUser.Role{coreUser.RoleDeptAdmin}},
	{StatusPendingHR, ActionApprove, StatusApproved, []coreUser.Role{coreUser.RoleHRAdmin}},
	{StatusPendingHR, ActionReject, StatusRejected, []coreUser.Role{coreUser.RoleHRAdmin}},
	{StatusApproved, ActionArchive, StatusArchived, []coreUser.Role{coreUser.RoleHRAdmin}},
	{StatusApproved, ActionTerminate, StatusTerminated, []coreUser.Role{coreUser.RoleHRAdmin}},
}

func (t transition) allows(role coreUser.Role) bool {
	for _, r := range t.roles {
		if r == role {
			return true
		}
	}
	return false
}

// Next resolves the status reached from `from` when role performs action.
func Next(from Status, action Action, role coreUser.Role) (Status, bool) {
	for _, t := range transitions {
		if t.from == from && t.action == action && t.allows(role) {
			return t.to, true
		}
	}
	return "", false
}

// ActionFor finds the action that moves a contract from one status to another.
func ActionFor(from, to Status) (Action, bool) {
	for _, t := range transitions {
		if t.from == from && t.to == to {
			return t.action, true
		}
	}
	return "", false
}

// ActionsFor lists the actions role may attempt on a contract in status,
// before ownership and department checks.
func ActionsFor(status Status, role coreUser.Role) []Action {
	var actions []Action
	for _, t := range transitions {
		if t.from == status && t.allows(role) {
			actions = append(actions, t.action)
		}
	}
	return actions
}

// PendingStatusFor is the queue an approver works from.
func PendingStatusFor(role coreUser.Role) (Status, bool) {
	switch role {
	case coreUser.RoleDeptAdmin:
		return StatusPendingDept, true
	case coreUser.RoleHRAdmin:
		return StatusPendingHR, true
	}
	return "", false
}
