package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdalhababsah/outlier/internal/app"
	"github.com/abdalhababsah/outlier/internal/auth"
	"github.com/abdalhababsah/outlier/internal/dashboards"
	"github.com/abdalhababsah/outlier/internal/observability"
	"github.com/abdalhababsah/outlier/internal/platform/cache"
	"github.com/abdalhababsah/outlier/internal/platform/db"
	"github.com/abdalhababsah/outlier/internal/rbac"
	"github.com/abdalhababsah/outlier/internal/roles"
	"github.com/abdalhababsah/outlier/internal/shared"
	"github.com/abdalhababsah/outlier/internal/users"
	"github.com/abdalhababsah/outlier/internal/view"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "outlier_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)

	rbacStore := rbac.NewStore(dbpool)
	snapshotCache := rbac.NewSnapshotCache(redisClient, cfg.RBACSnapshotTTL)
	rbacService := rbac.NewService(rbacStore, snapshotCache, logger)
	guard := rbac.NewGuard(rbacStore, auditLogger, snapshotCache, logger)
	rbacMiddleware := rbac.Middleware{Source: rbacService, Logger: logger}

	registry := dashboards.NewRegistry(rbacService)
	dashboardHandler := dashboards.NewHandler(logger, rbacService, registry, templates, csrfManager, rbacMiddleware)

	rolesService := roles.NewService(rbacService, guard)
	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	rolesHandler := roles.NewHandler(logger, rolesService, usersService, guard, templates, csrfManager, rbacMiddleware)
	usersHandler := users.NewHandler(logger, usersService, guard, templates, csrfManager, rbacMiddleware)
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, guard, templates, csrfManager, rbacMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		Metrics:            metrics,
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
