package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/export"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/reports"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Handler serves the financial statement endpoints. CSV exports are rate
// limited separately because statement generation bypasses the row cache.
type Handler struct {
	logger     *slog.Logger
	statements *reports.Service
	queries    *ledger.QueryService
	rateLimit  func(http.Handler) http.Handler
}

// NewHandler constructs the statement handler.
func NewHandler(logger *slog.Logger, statements *reports.Service, queries *ledger.QueryService) *Handler {
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		if tenantID, ok := shared.TenantFromContext(r.Context()); ok {
			return tenantID.String(), nil
		}
		return httprate.KeyByIP(r)
	}))
	return &Handler{logger: logger, statements: statements, queries: queries, rateLimit: limiter}
}

// MountRoutes registers statement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/balance-sheet", h.balanceSheet)
	r.Get("/reports/profit-loss", h.profitLoss)

	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/reports/trial-balance/csv", h.trialBalanceCSV)
		r.Get("/reports/balance-sheet/csv", h.balanceSheetCSV)
		r.Get("/reports/profit-loss/csv", h.profitLossCSV)
		r.Get("/reports/accounts/{code}/statement/csv", h.statementCSV)
	})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	tb, err := h.statements.TrialBalance(r.Context(), tenantID, parseDate(r.URL.Query().Get("as_of")))
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tb)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	bs, err := h.statements.BalanceSheet(r.Context(), tenantID, parseDate(r.URL.Query().Get("as_of")))
	if err != nil {
		h.logger.Error("balance sheet", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, bs)
}

func (h *Handler) profitLoss(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	q := r.URL.Query()
	pl, err := h.statements.ProfitAndLoss(r.Context(), tenantID, parseDate(q.Get("from")), parseDate(q.Get("to")))
	if err != nil {
		h.logger.Error("profit and loss", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, pl)
}

func (h *Handler) trialBalanceCSV(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	asOf := r.URL.Query().Get("as_of")
	tb, err := h.statements.TrialBalance(r.Context(), tenantID, parseDate(asOf))
	if err != nil {
		h.logger.Error("trial balance csv", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	writeAttachment(w, "trial-balance.csv")
	if err := export.WriteTrialBalanceCSV(w, tb, asOf); err != nil {
		h.logger.Error("write trial balance csv", slog.Any("error", err))
	}
}

func (h *Handler) balanceSheetCSV(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	bs, err := h.statements.BalanceSheet(r.Context(), tenantID, parseDate(r.URL.Query().Get("as_of")))
	if err != nil {
		h.logger.Error("balance sheet csv", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	writeAttachment(w, "balance-sheet.csv")
	if err := export.WriteBalanceSheetCSV(w, bs); err != nil {
		h.logger.Error("write balance sheet csv", slog.Any("error", err))
	}
}

func (h *Handler) profitLossCSV(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	q := r.URL.Query()
	pl, err := h.statements.ProfitAndLoss(r.Context(), tenantID, parseDate(q.Get("from")), parseDate(q.Get("to")))
	if err != nil {
		h.logger.Error("profit and loss csv", slog.Any("error", err))
		shared.WriteError(w, err)
		return
	}
	writeAttachment(w, "profit-loss.csv")
	if err := export.WriteProfitAndLossCSV(w, pl); err != nil {
		h.logger.Error("write profit and loss csv", slog.Any("error", err))
	}
}

func (h *Handler) statementCSV(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := shared.TenantFromContext(r.Context())
	if !ok {
		shared.WriteJSON(w, http.StatusBadRequest, shared.ErrorBody{Error: "tenant required"})
		return
	}
	code := chi.URLParam(r, "code")
	q := r.URL.Query()
	statement, err := h.queries.AccountLedger(r.Context(), tenantID, code, parseDate(q.Get("from")), parseDate(q.Get("to")))
	if err != nil {
		h.logger.Error("account statement csv", slog.Any("error", err), slog.String("account", code))
		shared.WriteError(w, err)
		return
	}
	writeAttachment(w, "ledger-"+code+".csv")
	if err := export.WriteAccountLedgerCSV(w, statement); err != nil {
		h.logger.Error("write account statement csv", slog.Any("error", err))
	}
}

func writeAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
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
