package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/user"
)

type Recipients interface {
	DepartmentAdmins(ctx context.Context, departmentID string) ([]*user.User, error)
	UsersByRole(ctx context.Context, role coreUser.Role) ([]*user.User, error)
}

type Enqueuer interface {
	Enqueue(job Job) error
}

// EventHandler turns contract events into notifications for the people who
// have to act on them or want to know.
type EventHandler struct {
	recipients Recipients
	queue      Enqueuer
	logger     *slog.Logger
}

func NewEventHandler(recipients Recipients, queue Enqueuer, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		recipients: recipients,
		queue:      queue,
		logger:     logger,
	}
}

func ApprovalLink(contractID string) string   { return "/approvals/" + contractID }
func HRApprovalLink(contractID string) string { return "/hr-approvals/" + contractID }
func ContractLink(contractID string) string   { return "/my-contracts/" + contractID }

func (h *EventHandler) HandleContractCreated(ctx context.Context, event events.Event) error {
	contractID := events.StringField(event, "contract_id")
	teacherID := events.StringField(event, "teacher_id")
	actorID := events.StringField(event, "actor_id")

	// A teacher drafting their own contract needs no notice.
	if teacherID == "" || teacherID == actorID {
		return nil
	}

	h.enqueue(event, CreateNotificationDTO{
		UserID:  teacherID,
		Title:   "New contract drafted",
		Message: fmt.Sprintf("%q was drafted for you", events.StringField(event, "title")),
		Link:    ContractLink(contractID),
		Type:    TypeInfo,
	})
	return nil
}

func (h *EventHandler) HandleContractStatusChanged(ctx context.Context, event events.Event) error {
	contractID := events.StringField(event, "contract_id")
	teacherID := events.StringField(event, "teacher_id")
	title := events.StringField(event, "title")
	reason := events.StringField(event, "reason")
	to := events.StringField(event, "to_status")

	h.logger.Info("handling contract status change",
		"contract_id", contractID,
		"from", events.StringField(event, "from_status"),
		"to", to,
		"event_id", event.EventID())

	switch to {
	case "pending_dept":
		admins, err := h.recipients.DepartmentAdmins(ctx, events.StringField(event, "department_id"))
		if err != nil {
			return fmt.Errorf("resolve department admins for contract %s: %w", contractID, err)
		}
		if len(admins) == 0 {
			h.logger.Warn("no department admin to notify", "contract_id", contractID, "department_id", events.StringField(event, "department_id"))
		}
		for _, admin := range admins {
			h.enqueue(event, CreateNotificationDTO{
				UserID:  admin.ID,
				Title:   "Contract awaiting approval",
				Message: fmt.Sprintf("%q was submitted for department approval", title),
				Link:    ApprovalLink(contractID),
				Type:    TypeApprovalRequest,
			})
		}

	case "pending_hr":
		hrAdmins, err := h.recipients.UsersByRole(ctx, coreUser.RoleHRAdmin)
		if err != nil {
			return fmt.Errorf("resolve hr admins for contract %s: %w", contractID, err)
		}
		for _, admin := range hrAdmins {
			h.enqueue(event, CreateNotificationDTO{
				UserID:  admin.ID,
				Title:   "Contract awaiting HR approval",
				Message: fmt.Sprintf("%q was approved by its department", title),
				Link:    HRApprovalLink(contractID),
				Type:    TypeApprovalRequest,
			})
		}
		h.enqueue(event, CreateNotificationDTO{
			UserID:  teacherID,
			Title:   "Department approved your contract",
			Message: fmt.Sprintf("%q was forwarded to HR", title),
			Link:    ContractLink(contractID),
			Type:    TypeInfo,
		})

	case "approved":
		h.enqueue(event, CreateNotificationDTO{
			UserID:  teacherID,
			Title:   "Contract approved",
			Message: fmt.Sprintf("%q was approved", title),
			Link:    ContractLink(contractID),
			Type:    TypeApproved,
		})

	case "rejected":
		msg := fmt.Sprintf("%q was rejected", title)
		if reason != "" {
			msg += ": " + reason
		}
		h.enqueue(event, CreateNotificationDTO{
			UserID:  teacherID,
			Title:   "Contract rejected",
			Message: msg,
			Link:    ContractLink(contractID),
			Type:    TypeRejected,
		})

	case "archived", "terminated":
		h.enqueue(event, CreateNotificationDTO{
			UserID:  teacherID,
			Title:   "Contract " + to,
			Message: fmt.Sprintf("%q was %s", title, to),
			Link:    ContractLink(contractID),
			Type:    TypeInfo,
		})
	}
	return nil
}

func (h *EventHandler) enqueue(event events.Event, dto CreateNotificationDTO) {
	if dto.UserID == "" {
		return
	}
	if err := h.queue.Enqueue(Job{Notification: dto, Source: event.EventType()}); err != nil {
		h.logger.Error("failed to queue notification",
			"user_id", dto.UserID,
			"event_id", event.EventID(),
			"error", err)
	}
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeContractCreated, h.HandleContractCreated)
	eventBus.Subscribe(events.EventTypeContractStatusChanged, h.HandleContractStatusChanged)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{events.EventTypeContractCreated, events.EventTypeContractStatusChanged})
}
