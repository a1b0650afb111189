package notification

import (
	"github.com/frahmantamala/teacher-contracts/internal/core/common/validation"
)

type CreateNotificationDTO struct {
	UserID  string `json:"user_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"max=2000"`
	Link    string `json:"link" validate:"max=500"`
	Type    Type   `json:"type" validate:"required,oneof=approval_request approved rejected info"`
}

func (d CreateNotificationDTO) Validate() error {
	return validation.Struct(d)
}

type NotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int64           `json:"unread_count"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllResponse struct {
	Updated int64 `json:"updated"`
}
