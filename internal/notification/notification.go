package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/notification"
)

type Type string

const (
	TypeApprovalRequest Type = "approval_request"
	TypeApproved        Type = "approved"
	TypeRejected        Type = "rejected"
	TypeInfo            Type = "info"
)

func (t Type) Valid() bool {
	switch t {
	case TypeApprovalRequest, TypeApproved, TypeRejected, TypeInfo:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	Link      string    `json:"link,omitempty"`
	Type      Type      `json:"type"`
}

func ToDataModel(n *Notification) *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		Link:      n.Link,
		Type:      string(n.Type),
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModel(row *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Message:   row.Message,
		IsRead:    row.IsRead,
		Link:      row.Link,
		Type:      Type(row.Type),
		CreatedAt: row.CreatedAt,
	}
}
