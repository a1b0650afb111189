package contract

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/auth"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/transport"
)

const defaultPageSize = 20

type ServiceAPI interface {
	CreateContract(ctx context.Context, actor coreUser.Actor, dto CreateContractDTO) (*Contract, error)
	UpdateContractStatus(ctx context.Context, contractID string, newStatus Status, actorID, reason string) (*Contract, error)
	Transition(ctx context.Context, contractID string, action Action, actor coreUser.Actor, reason string) (*Contract, error)
	GetContract(ctx context.Context, id string, viewer coreUser.Actor) (*Contract, error)
	AvailableActions(ctx context.Context, c *Contract, viewer coreUser.Actor) []Action
	GetUserContracts(ctx context.Context, teacherID string) ([]*Contract, error)
	ListContracts(ctx context.Context, viewer coreUser.Actor, filter ListFilter) ([]*Contract, int64, error)
	ListPendingApprovals(ctx context.Context, viewer coreUser.Actor) ([]*Contract, error)
	UpdateDraft(ctx context.Context, id string, actor coreUser.Actor, dto UpdateDraftDTO) (*Contract, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request, name string) (*auth.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.Logger.Error(name + ": user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return u, true
}

func (h *Handler) withActions(ctx context.Context, c *Contract, viewer coreUser.Actor) ContractResponse {
	return ContractResponse{Contract: c, AvailableActions: h.Service.AvailableActions(ctx, c, viewer)}
}

// CreateContract handles POST /contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "CreateContract")
	if !ok {
		return
	}

	var dto CreateContractDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateContract: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Teachers may omit teacher_id; it can only be themselves.
	if dto.TeacherID == "" && u.Role == coreUser.RoleTeacher {
		dto.TeacherID = u.ID
	}

	c, err := h.Service.CreateContract(r.Context(), u.Actor(), dto)
	if err != nil {
		h.Logger.Error("CreateContract: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateContract: contract created", "contract_id", c.ID, "user_id", u.ID)
	h.WriteJSON(w, http.StatusCreated, h.withActions(r.Context(), c, u.Actor()))
}

// ListContracts handles GET /contracts?status=&type=&teacher_id=&search=&limit=&offset=
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "ListContracts")
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, offset := h.Pagination(r, defaultPageSize)
	filter := ListFilter{
		Status:    Status(q.Get("status")),
		Type:      Type(q.Get("type")),
		TeacherID: q.Get("teacher_id"),
		Search:    q.Get("search"),
		Limit:     limit,
		Offset:    offset,
	}

	contracts, total, err := h.Service.ListContracts(r.Context(), u.Actor(), filter)
	if err != nil {
		h.Logger.Error("ListContracts: failed to get contracts", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ContractsResponse{
		Contracts: contracts,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListMine handles GET /contracts/mine
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "ListMine")
	if !ok {
		return
	}

	contracts, err := h.Service.GetUserContracts(r.Context(), u.ID)
	if err != nil {
		h.Logger.Error("ListMine: failed to get contracts", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ContractsResponse{Contracts: contracts, Total: int64(len(contracts))})
}

// ListTeacherContracts handles GET /users/{id}/contracts. Teachers may only
// ask for their own.
func (h *Handler) ListTeacherContracts(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "ListTeacherContracts")
	if !ok {
		return
	}
	teacherID := chi.URLParam(r, "id")

	if u.Role == coreUser.RoleTeacher && teacherID != u.ID {
		h.HandleServiceError(w, internal.ErrUnauthorizedAccess)
		return
	}

	contracts, _, err := h.Service.ListContracts(r.Context(), u.Actor(), ListFilter{TeacherID: teacherID})
	if err != nil {
		h.Logger.Error("ListTeacherContracts: failed to get contracts", "error", err, "teacher_id", teacherID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ContractsResponse{Contracts: contracts, Total: int64(len(contracts))})
}

// ListPending handles GET /contracts/pending
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "ListPending")
	if !ok {
		return
	}

	contracts, err := h.Service.ListPendingApprovals(r.Context(), u.Actor())
	if err != nil {
		h.Logger.Error("ListPending: failed to get pending approvals", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ContractsResponse{Contracts: contracts, Total: int64(len(contracts))})
}

// GetContract handles GET /contracts/{id}
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "GetContract")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	c, err := h.Service.GetContract(r.Context(), id, u.Actor())
	if err != nil {
		h.Logger.Error("GetContract: service error", "error", err, "contract_id", id)
		h.HandleServiceError(w, err)
		return
	}
	if c == nil {
		h.HandleServiceError(w, internal.ErrContractNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.withActions(r.Context(), c, u.Actor()))
}

// UpdateDraft handles PUT /contracts/{id}
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "UpdateDraft")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var dto UpdateDraftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateDraft: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.UpdateDraft(r.Context(), id, u.Actor(), dto)
	if err != nil {
		h.Logger.Error("UpdateDraft: service error", "error", err, "contract_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.withActions(r.Context(), c, u.Actor()))
}

// Transition returns the handler for POST /contracts/{id}/<action>. The body
// is optional and only carries a reason.
func (h *Handler) Transition(action Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.principal(w, r, "Transition")
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")

		var dto TransitionDTO
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
			h.Logger.Error("Transition: invalid request body", "error", err)
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c, err := h.Service.Transition(r.Context(), id, action, u.Actor(), dto.Reason)
		if err != nil {
			h.Logger.Error("Transition: service error", "error", err, "contract_id", id, "action", action)
			h.HandleServiceError(w, err)
			return
		}

		h.Logger.Info("Transition: contract updated", "contract_id", id, "action", action, "status", c.Status)
		h.WriteJSON(w, http.StatusOK, h.withActions(r.Context(), c, u.Actor()))
	}
}

// UpdateStatus handles PATCH /contracts/{id}/status with {"status", "reason"}.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := h.principal(w, r, "UpdateStatus")
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var dto UpdateStatusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStatus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Service.UpdateContractStatus(r.Context(), id, dto.Status, u.ID, dto.Reason)
	if err != nil {
		h.Logger.Error("UpdateStatus: service error", "error", err, "contract_id", id, "status", dto.Status)
		h.HandleServiceError(w, err)
		return
	}
	if c == nil {
		h.HandleServiceError(w, internal.ErrContractNotFound)
		return
	}

	h.WriteJSON(w, http.StatusOK, h.withActions(r.Context(), c, u.Actor()))
}
