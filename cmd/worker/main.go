package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/adapters"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/coa"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/journal"
	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
	"github.com/groundwork-erp/groundwork-erp/internal/app"
	jobmetrics "github.com/groundwork-erp/groundwork-erp/internal/jobs"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
	"github.com/groundwork-erp/groundwork-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	auditLogger := shared.NewAuditLogger(pool)
	statementCache := ledger.NewCache(redisClient, cfg.StatementCacheTTL)
	accountsService := coa.NewService(coa.NewRepository(pool), logger)
	journalService := journal.NewService(journal.NewRepository(pool), auditLogger, statementCache, logger)
	poster := adapters.NewService(accountsService, journalService, logger)

	metrics := jobmetrics.NewMetrics(nil)
	outboxRepo := jobs.NewOutboxRepository(pool)
	processor := jobs.NewPostingProcessor(outboxRepo, poster, logger, metrics)
	integrity := jobs.NewIntegrityChecker(pool, logger, metrics)

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	sweep := func(ctx context.Context, _ *asynq.Task) error {
		return jobs.ReEnqueuePending(ctx, outboxRepo, client, logger)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerPost, Handler: processor.HandleLedgerPost},
			{Type: jobs.TaskGLIntegrity, Handler: integrity.HandleGLIntegrity},
			{Type: jobs.TaskOutboxSweep, Handler: sweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewGLIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/10 * * * *", Task: jobs.NewOutboxSweepTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
