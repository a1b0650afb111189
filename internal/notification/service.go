package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/teacher-contracts/internal"
	notificationDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/notification"
)

type RepositoryAPI interface {
	Create(ctx context.Context, n *notificationDatamodel.Notification) error
	GetByID(ctx context.Context, id string) (*notificationDatamodel.Notification, error)
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*notificationDatamodel.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

// Pusher delivers a stored notification to the user's live connections.
type Pusher interface {
	Push(userID string, n *Notification)
}

type Service struct {
	repo   RepositoryAPI
	pusher Pusher
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI, pusher Pusher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		pusher: pusher,
		logger: logger,
		now:    time.Now,
	}
}

// Create stores an unread notification and pushes it to any open sockets of
// the recipient.
func (s *Service) Create(ctx context.Context, dto CreateNotificationDTO) (*Notification, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    dto.UserID,
		Title:     dto.Title,
		Message:   dto.Message,
		Link:      dto.Link,
		Type:      dto.Type,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, ToDataModel(n)); err != nil {
		s.logger.Error("failed to create notification", "user_id", dto.UserID, "error", err)
		return nil, internal.NewInternalError("failed to create notification", err)
	}

	s.logger.Debug("notification created", "notification_id", n.ID, "user_id", n.UserID, "type", n.Type)
	if s.pusher != nil {
		s.pusher.Push(n.UserID, n)
	}
	return n, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	rows, err := s.repo.ListForUser(ctx, userID, unreadOnly)
	if err != nil {
		s.logger.Error("failed to list notifications", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	out := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", "user_id", userID, "error", err)
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return count, nil
}

// MarkAsRead flags one notification of userID. Other users' notifications
// are reported as not found.
func (s *Service) MarkAsRead(ctx context.Context, id, userID string) (*Notification, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load notification", err)
	}
	if row == nil || row.UserID != userID {
		return nil, internal.ErrNotificationNotFound
	}
	if !row.IsRead {
		if err := s.repo.MarkAsRead(ctx, id); err != nil {
			s.logger.Error("failed to mark notification read", "notification_id", id, "error", err)
			return nil, internal.NewInternalError("failed to update notification", err)
		}
		row.IsRead = true
	}
	return FromDataModel(row), nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	updated, err := s.repo.MarkAllAsRead(ctx, userID)
	if err != nil {
		s.logger.Error("failed to mark notifications read", "user_id", userID, "error", err)
		return 0, internal.NewInternalError("failed to update notifications", err)
	}
	s.logger.Info("notifications marked read", "user_id", userID, "count", updated)
	return updated, nil
}
