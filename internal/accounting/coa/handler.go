package coa

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Handler exposes the chart of accounts API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
	r.Post("/accounts", h.create)
	r.Post("/accounts/{parentCode}/children", h.addChild)
}

type accountRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Type string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
}

type childRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
	Kind string `json:"kind" validate:"required,oneof=SUB LIST"`
}

type accountResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Component string `json:"component"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	ChildKind string `json:"child_kind,omitempty"`
	IsActive  bool   `json:"is_active"`
}

func toAccountResponse(a *Account) accountResponse {
	resp := accountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		Type:      string(a.Type),
		Component: a.Component,
		ParentID:  a.ParentID,
		IsActive:  a.IsActive,
	}
	if a.ChildKind != nil {
		resp.ChildKind = string(*a.ChildKind)
	}
	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	accounts, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, toAccountResponse(&accounts[i]))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	var req accountRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusUnprocessableEntity, shared.ErrorBody{Error: err.Error()})
		return
	}
	account, err := h.service.GetOrCreate(r.Context(), tenantID, req.Code, req.Name, accounting.AccountType(req.Type))
	if err != nil {
		h.logger.Error("create account", slog.Any("error", err), slog.String("code", req.Code))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) addChild(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	var req childRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.WriteJSON(w, http.StatusUnprocessableEntity, shared.ErrorBody{Error: err.Error()})
		return
	}
	child, err := h.service.AddChild(r.Context(), tenantID, chi.URLParam(r, "parentCode"), req.Code, req.Name, ChildKind(req.Kind))
	if err != nil {
		h.logger.Error("add child account", slog.Any("error", err), slog.String("code", req.Code))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toAccountResponse(child))
}
