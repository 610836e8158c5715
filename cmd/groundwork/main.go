package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/coa"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/reports"
	reportshttp "github.com/groundwork-erp/groundwork-erp/internal/accounting/reports/http"
	"github.com/groundwork-erp/groundwork-erp/internal/app"
	"github.com/groundwork-erp/groundwork-erp/internal/observability"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
	"github.com/groundwork-erp/groundwork-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	statementCache := ledger.NewCache(redisClient, cfg.StatementCacheTTL)

	accountsRepo := coa.NewRepository(dbpool)
	accountsService := coa.NewService(accountsRepo, logger)
	accountsHandler := coa.NewHandler(logger, accountsService)

	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(journalRepo, auditLogger, statementCache, logger)
	journalHandler := journal.NewHandler(logger, journalService)

	ledgerStore := ledger.NewRepository(dbpool)
	ledgerQueries := ledger.NewQueryService(ledgerStore)
	ledgerHandler := ledger.NewHandler(logger, ledgerQueries)

	statements := reports.NewService(ledgerStore, statementCache)
	reportsHandler := reportshttp.NewHandler(logger, statements, ledgerQueries)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	outboxRepo := jobs.NewOutboxRepository(dbpool)
	intakeHandler := jobs.NewIntakeHandler(outboxRepo, jobClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		AccountsHandler: accountsHandler,
		JournalHandler:  journalHandler,
		LedgerHandler:   ledgerHandler,
		ReportsHandler:  reportsHandler,
		IntakeHandler:   intakeHandler,
		JobHandler:      jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
