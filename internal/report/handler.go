package report

import (
	"context"
	"net/http"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context, viewer coreUser.Actor) (*Dashboard, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetDashboard handles GET /reports/dashboard
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.Logger.Error("GetDashboard: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	d, err := h.Service.Dashboard(r.Context(), u.Actor())
	if err != nil {
		h.Logger.Error("GetDashboard: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}
