package template

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/teacher-contracts/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, activeOnly bool) ([]*ContractTemplate, error)
	Get(ctx context.Context, id string) (*ContractTemplate, error)
	Create(ctx context.Context, dto CreateTemplateDTO) (*ContractTemplate, error)
	Update(ctx context.Context, id string, dto UpdateTemplateDTO) (*ContractTemplate, error)
	Deactivate(ctx context.Context, id string) (*ContractTemplate, error)
	ListApplicable(ctx context.Context, contractType, position string) ([]*ContractTemplate, error)
	ValidateData(ctx context.Context, id string, data map[string]interface{}) (*ValidationResult, error)
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

// ListTemplates handles GET /templates. Inactive templates are included only
// with ?include_inactive=true.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("include_inactive") != "true"

	templates, err := h.Service.List(r.Context(), activeOnly)
	if err != nil {
		h.Logger.Error("ListTemplates: failed to get templates", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TemplatesResponse{Templates: templates})
}

// ListApplicable handles GET /templates/applicable?type=&position=
func (h *Handler) ListApplicable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	templates, err := h.Service.ListApplicable(r.Context(), q.Get("type"), q.Get("position"))
	if err != nil {
		h.Logger.Error("ListApplicable: failed to get templates", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, TemplatesResponse{Templates: templates})
}

func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.Logger.Error("GetTemplate: service error", "error", err, "template_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var dto CreateTemplateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTemplate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateTemplate: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTemplate: template created", "template_id", t.ID)
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateTemplateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateTemplate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateTemplate: service error", "error", err, "template_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeactivateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.Service.Deactivate(r.Context(), id)
	if err != nil {
		h.Logger.Error("DeactivateTemplate: service error", "error", err, "template_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) ValidateData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto ValidateDataDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ValidateData: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.ValidateData(r.Context(), id, dto.Data)
	if err != nil {
		h.Logger.Error("ValidateData: service error", "error", err, "template_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
