package notification

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
)

type ServiceAPI interface {
	ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkAsRead(ctx context.Context, id, userID string) (*Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int64, error)
}

// TokenAuthenticator resolves the access token a socket connects with.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Hub     *Hub
	Auth    TokenAuthenticator
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, hub *Hub, authenticator TokenAuthenticator) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Hub:         hub,
		Auth:        authenticator,
	}
}

// ListNotifications handles GET /notifications?unread=true
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.Logger.Error("ListNotifications: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	notifications, err := h.Service.ListForUser(r.Context(), u.ID, r.URL.Query().Get("unread") == "true")
	if err != nil {
		h.Logger.Error("ListNotifications: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}
	unread, err := h.Service.UnreadCount(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("ListNotifications: unread count failed", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, NotificationsResponse{Notifications: notifications, UnreadCount: unread})
}

// UnreadCount handles GET /notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	unread, err := h.Service.UnreadCount(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("UnreadCount: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: unread})
}

// MarkAsRead handles PATCH /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := chi.URLParam(r, "id")

	n, err := h.Service.MarkAsRead(r.Context(), id, u.ID)
	if err != nil {
		h.Logger.Error("MarkAsRead: service error", "error", err, "notification_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, n)
}

// MarkAllAsRead handles POST /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	updated, err := h.Service.MarkAllAsRead(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("MarkAllAsRead: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MarkAllResponse{Updated: updated})
}

// ServeWS handles GET /ws/notifications?token=. The Authorization header is
// accepted as well.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = h.ExtractTokenFromHeader(r)
	}
	if token == "" {
		h.Logger.Warn("ServeWS: connection rejected, missing token")
		h.WriteError(w, http.StatusUnauthorized, "missing token")
		return
	}

	u, err := h.Auth.Authenticate(r.Context(), token)
	if err != nil {
		h.Logger.Warn("ServeWS: connection rejected", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Hub.Attach(w, r, u.ID); err != nil {
		// the upgrader has already written the response
		h.Logger.Error("ServeWS: upgrade failed", "error", err, "user_id", u.ID)
		return
	}
	h.Logger.Info("ServeWS: client connected", "user_id", u.ID)
}
