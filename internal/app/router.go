package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/coa"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	reportshttp "github.com/groundwork-erp/groundwork-erp/internal/accounting/reports/http"
	"github.com/groundwork-erp/groundwork-erp/internal/observability"
	"github.com/groundwork-erp/groundwork-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AccountsHandler *coa.Handler
	JournalHandler  *journal.Handler
	LedgerHandler   *ledger.Handler
	ReportsHandler  *reportshttp.Handler
	IntakeHandler   *jobs.IntakeHandler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Groundwork defaults. Everything
// under /api requires a tenant identity; health and metrics do not.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireTenant)
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.JournalHandler != nil {
			params.JournalHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.IntakeHandler != nil {
			params.IntakeHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
