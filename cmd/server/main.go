// Package main is the entrypoint for the ReelForge API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelforge/reelforge/internal/api"
	"github.com/reelforge/reelforge/internal/api/handler"
	mw "github.com/reelforge/reelforge/internal/api/middleware"
	"github.com/reelforge/reelforge/internal/api/response"
	"github.com/reelforge/reelforge/internal/brief"
	"github.com/reelforge/reelforge/internal/cache"
	"github.com/reelforge/reelforge/internal/config"
	"github.com/reelforge/reelforge/internal/lock"
	"github.com/reelforge/reelforge/internal/production"
	"github.com/reelforge/reelforge/internal/render"
	"github.com/reelforge/reelforge/internal/storage"
	"github.com/reelforge/reelforge/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "brief_provider", cfg.Brief.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache and chat lock service
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	locks, err := lock.NewRedisLock(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create lock service: %w", err)
	}
	defer locks.Close()

	// 5. Create upload storage
	uploader, err := storage.NewMinioUploader(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("create upload storage: %w", err)
	}
	slog.Info("upload storage ready", "bucket", cfg.Storage.Bucket)

	// 6. Create brief provider and service
	briefProvider, err := brief.NewProvider(cfg.Brief)
	if err != nil {
		return fmt.Errorf("create brief provider: %w", err)
	}
	slog.Info("brief provider initialized", "provider", briefProvider.Name())

	pgStore := store.NewPostgresStore(pool)
	briefSvc := brief.NewService(briefProvider, pgStore, cfg.Brief.GenerationTimeout)

	// 7. Create render client and production controller
	renderClient := render.NewHTTPClient(cfg.Render.BaseURL, cfg.Render.Token, cfg.Render.Timeout)
	controller := production.NewController(pgStore, locks, renderClient, production.SlogNotifier{}, cfg.Production)
	defer controller.Close()

	// Re-attach watchers for productions that were in flight when the
	// previous process stopped.
	if err := controller.Resume(ctx); err != nil {
		return fmt.Errorf("resume productions: %w", err)
	}

	// 8. Build router with dependencies
	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache, 60)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler: healthHandler(pgStore, redisCache),

		CreateChat:   handler.NewCreateChatHandler(pgStore),
		ListChats:    handler.NewListChatsHandler(pgStore),
		GetChat:      handler.NewGetChatHandler(pgStore),
		PostMessage:  handler.NewPostMessageHandler(pgStore, briefSvc),
		ListMessages: handler.NewListMessagesHandler(pgStore),

		StartProduction:  handler.NewStartProductionHandler(pgStore, controller, briefSvc),
		RequestRevision:  handler.NewRevisionHandler(pgStore, controller, briefSvc),
		CancelProduction: handler.NewCancelProductionHandler(pgStore, controller),
		GetVideo:         handler.NewGetVideoHandler(pgStore),
		ListVideos:       handler.NewListVideosHandler(pgStore),
		LockStatus:       handler.NewLockStatusHandler(pgStore, locks),

		Upload: handler.NewUploadHandler(uploader),

		ForceUnlock: handler.NewForceUnlockHandler(pgStore, controller),
		CreateKey:   handler.NewCreateKeyHandler(pgStore),
		ListKeys:    handler.NewListKeysHandler(pgStore),
		RevokeKey:   handler.NewRevokeKeyHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
