package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/mstarsupply/mstarsupply/internal/app"
	jobmetrics "github.com/mstarsupply/mstarsupply/internal/jobs"
	"github.com/mstarsupply/mstarsupply/internal/platform/cache"
	ledgerreport "github.com/mstarsupply/mstarsupply/internal/report"
	"github.com/mstarsupply/mstarsupply/jobs"
	pdfreport "github.com/mstarsupply/mstarsupply/report"
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

	store, err := app.OpenLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := ledgerreport.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := ledgerreport.NewService(store.Store, reportCache, logger,
		ledgerreport.WithConverter(pdfreport.NewClient(cfg.GotenbergURL)),
	)
	metrics := jobmetrics.NewMetrics(nil)

	warmupJob := jobs.NewReportWarmupJob(reportService, logger, metrics)
	archiveJob := jobs.NewReportArchiveJob(jobs.ArchiveConfig{
		Reports:    reportService,
		Locker:     redislock.New(redisClient),
		StorageDir: cfg.ReportStorageDir,
		Logger:     logger,
		Metrics:    metrics,
	})

	warmupTask, err := jobs.NewReportWarmupTask(jobs.PeriodPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	archiveTask, err := jobs.NewReportArchiveTask(jobs.PeriodPayload{})
	if err != nil {
		logger.Error("build archive task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskReportArchive, Handler: archiveJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 1 * *", Task: archiveTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
