package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/abdalhababsah/outlier/internal/app"
	"github.com/abdalhababsah/outlier/internal/auth"
	"github.com/abdalhababsah/outlier/internal/platform/cache"
	"github.com/abdalhababsah/outlier/internal/platform/db"
	"github.com/abdalhababsah/outlier/internal/rbac"
	"github.com/abdalhababsah/outlier/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	rbacStore := rbac.NewStore(pool)
	snapshotCache := rbac.NewSnapshotCache(redisClient, cfg.RBACSnapshotTTL)
	rbacService := rbac.NewService(rbacStore, snapshotCache, logger)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	warmupJob := jobs.NewGrantsWarmupJob(rbacService, pool, logger, nil)
	sweepJob := jobs.NewSessionSweepJob(authService, logger, nil)
	trimJob := jobs.NewAuditTrimJob(pool, logger, nil)

	warmupTask, err := jobs.NewGrantsWarmupTask(jobs.GrantsWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewSessionSweepTask(jobs.SessionSweepPayload{GraceMinutes: 60})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	trimTask, err := jobs.NewAuditTrimTask(jobs.AuditTrimPayload{})
	if err != nil {
		logger.Error("build trim task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGrantsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskSessionSweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskAuditTrim, Handler: trimJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "15 1 * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "45 1 * * 0", Task: trimTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
