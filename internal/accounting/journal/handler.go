package journal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Handler exposes the manual journal API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.list)
	r.Post("/journals", h.create)
	r.Get("/journals/{id}", h.get)
	r.Put("/journals/{id}", h.update)
	r.Delete("/journals/{id}", h.delete)
	r.Post("/journals/{id}/post", h.post)
	r.Post("/journals/{id}/reverse", h.reverse)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	var req createRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusUnprocessableEntity, shared.ErrorBody{Error: err.Error()})
		return
	}
	input, err := req.toInput(tenantID, shared.ActorFromContext(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logError(r, "create journal entry", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	q := r.URL.Query()
	filter := ListFilter{
		Type:        accounting.TransactionType(q.Get("type")),
		Status:      accounting.EntryStatus(q.Get("status")),
		SourceModel: q.Get("source_model"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		filter.To = &to
	}

	entries, total, err := h.service.List(r.Context(), tenantID, filter)
	if err != nil {
		h.logError(r, "list journal entries", err)
		shared.WriteError(w, err)
		return
	}
	resp := listResponse{Total: total, Entries: make([]entryResponse, 0, len(entries))}
	for i := range entries {
		resp.Entries = append(resp.Entries, toEntryResponse(&entries[i]))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID, entryID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), tenantID, entryID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenantID, entryID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusUnprocessableEntity, shared.ErrorBody{Error: err.Error()})
		return
	}
	input, err := req.toInput(tenantID, entryID, shared.ActorFromContext(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	entry, err := h.service.Update(r.Context(), input)
	if err != nil {
		h.logError(r, "update journal entry", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, entryID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), tenantID, entryID); err != nil {
		h.logError(r, "delete journal entry", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	tenantID, entryID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Post(r.Context(), tenantID, entryID, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logError(r, "post journal entry", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	tenantID, entryID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}
	var req reverseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusUnprocessableEntity, shared.ErrorBody{Error: "reversal reason required"})
		return
	}
	reversal, err := h.service.Reverse(r.Context(), tenantID, entryID, shared.ActorFromContext(r.Context()), req.Reason)
	if err != nil {
		h.logError(r, "reverse journal entry", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toEntryResponse(reversal))
}

func (h *Handler) pathIdentity(w http.ResponseWriter, r *http.Request) (uuid.UUID, int64, bool) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return uuid.Nil, 0, false
	}
	entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "invalid entry id"})
		return uuid.Nil, 0, false
	}
	return tenantID, entryID, true
}

func (h *Handler) logError(r *http.Request, action string, err error) {
	if h.logger == nil || shared.IsValidation(err) {
		return
	}
	h.logger.Error(action, slog.Any("error", err), slog.String("path", r.URL.Path))
}
