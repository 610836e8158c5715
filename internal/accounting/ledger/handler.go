package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Handler exposes the ledger query surface.
type Handler struct {
	logger  *slog.Logger
	queries *QueryService
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, queries *QueryService) *Handler {
	return &Handler{logger: logger, queries: queries}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger", h.rows)
	r.Get("/ledger/accounts/{code}/balance", h.balance)
	r.Get("/ledger/accounts/{code}/statement", h.statement)
}

func (h *Handler) rows(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	q := r.URL.Query()
	filter := RowFilter{
		AccountCode: q.Get("account_code"),
		Type:        accounting.TransactionType(q.Get("type")),
	}
	if projectID, err := uuid.Parse(q.Get("project_id")); err == nil {
		filter.ProjectID = &projectID
	}
	filter.From = parseDate(q.Get("from"))
	filter.To = parseDate(q.Get("to"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	rows, err := h.queries.Rows(r.Context(), tenantID, filter)
	if err != nil {
		h.logger.Error("query ledger rows", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	code := chi.URLParam(r, "code")
	asOf := parseDate(r.URL.Query().Get("as_of"))

	summary, err := h.queries.AccountBalance(r.Context(), tenantID, code, asOf)
	if err != nil {
		h.logger.Error("account balance", slog.Any("error", err), slog.String("account", code))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	code := chi.URLParam(r, "code")
	q := r.URL.Query()
	from := parseDate(q.Get("from"))
	to := parseDate(q.Get("to"))

	statement, err := h.queries.AccountLedger(r.Context(), tenantID, code, from, to)
	if err != nil {
		h.logger.Error("account statement", slog.Any("error", err), slog.String("account", code))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, statement)
}

func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
