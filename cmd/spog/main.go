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
	"github.com/redis/go-redis/v9"

	"github.com/keruru-amuri/spog-management/internal/app"
	"github.com/keruru-amuri/spog-management/internal/consumption"
	"github.com/keruru-amuri/spog-management/internal/items"
	"github.com/keruru-amuri/spog-management/internal/locations"
	"github.com/keruru-amuri/spog-management/internal/observability"
	"github.com/keruru-amuri/spog-management/internal/platform/db"
	"github.com/keruru-amuri/spog-management/internal/reporting"
	"github.com/keruru-amuri/spog-management/internal/shared"
	"github.com/keruru-amuri/spog-management/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	activityLogger := shared.NewActivityLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	locationRepo := locations.NewRepository(pool)
	locationService := locations.NewService(locationRepo)
	locationHandler := locations.NewHandler(logger, locationService)

	itemRepo := items.NewRepository(pool)
	itemService := items.NewService(itemRepo, activityLogger)
	itemHandler := items.NewHandler(logger, itemService)

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("report cache subscribe", slog.Any("error", err))
	}
	reportRepo := reporting.NewRepository(pool)
	reportService := reporting.NewService(reportRepo, reportCache)
	reportHandler := reporting.NewHandler(logger, reportService)

	metrics := observability.NewMetrics()

	consumptionRepo := consumption.NewRepository(pool)
	consumptionService := consumption.NewService(consumptionRepo, logger, idempotencyStore, reportCache)
	consumptionHandler := consumption.NewHandler(logger, consumptionService, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		ItemsHandler:        itemHandler,
		LocationsHandler:    locationHandler,
		TransactionsHandler: consumptionHandler,
		ReportsHandler:      reportHandler,
		JobHandler:          jobHandler,
		Metrics:             metrics,
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
