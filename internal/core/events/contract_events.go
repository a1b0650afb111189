package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeContractCreated       = "contract.created"
	EventTypeContractStatusChanged = "contract.status_changed"
)

type ContractCreatedEvent struct {
	BaseEvent
	ContractID   string `json:"contract_id"`
	TeacherID    string `json:"teacher_id"`
	DepartmentID string `json:"department_id"`
	ContractType string `json:"contract_type"`
	Title        string `json:"title"`
	ActorID      string `json:"actor_id"`
}

func NewContractCreatedEvent(contractID, teacherID, departmentID, contractType, title, actorID string) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeContractCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"contract_id":   contractID,
				"teacher_id":    teacherID,
				"department_id": departmentID,
				"contract_type": contractType,
				"title":         title,
				"actor_id":      actorID,
			},
		},
		ContractID:   contractID,
		TeacherID:    teacherID,
		DepartmentID: departmentID,
		ContractType: contractType,
		Title:        title,
		ActorID:      actorID,
	}
}

type ContractStatusChangedEvent struct {
	BaseEvent
	ContractID   string `json:"contract_id"`
	TeacherID    string `json:"teacher_id"`
	DepartmentID string `json:"department_id"`
	Title        string `json:"title"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
	Action       string `json:"action"`
	ActorID      string `json:"actor_id"`
	Reason       string `json:"reason,omitempty"`
}

type StatusChange struct {
	ContractID   string
	TeacherID    string
	DepartmentID string
	Title        string
	FromStatus   string
	ToStatus     string
	Action       string
	ActorID      string
	Reason       string
}

func NewContractStatusChangedEvent(c StatusChange) *ContractStatusChangedEvent {
	return &ContractStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeContractStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"contract_id":   c.ContractID,
				"teacher_id":    c.TeacherID,
				"department_id": c.DepartmentID,
				"title":         c.Title,
				"from_status":   c.FromStatus,
				"to_status":     c.ToStatus,
				"action":        c.Action,
				"actor_id":      c.ActorID,
				"reason":        c.Reason,
			},
		},
		ContractID:   c.ContractID,
		TeacherID:    c.TeacherID,
		DepartmentID: c.DepartmentID,
		Title:        c.Title,
		FromStatus:   c.FromStatus,
		ToStatus:     c.ToStatus,
		Action:       c.Action,
		ActorID:      c.ActorID,
		Reason:       c.Reason,
	}
}

// StringField reads a string from an event payload map.
func StringField(e Event, key string) string {
	data, ok := e.Payload().(map[string]interface{})
	if !ok {
		return ""
	}
	s, _ := data[key].(string)
	return s
}
