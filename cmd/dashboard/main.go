package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-dashboard/internal/api"
	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/controller"
	"github.com/kjstillabower/weather-dashboard/internal/gateway"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/refresh"
	"github.com/kjstillabower/weather-dashboard/internal/store"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx := context.Background()

	var cityStore store.Store
	var sqliteCloser *store.SQLiteStore
	switch cfg.StoreBackend {
	case "sqlite":
		db, err := store.OpenSQLiteStore(ctx, cfg.StorePath)
		if err != nil {
			logger.Fatal("sqlite store", zap.Error(err))
		}
		sqliteCloser = db
		cityStore = db
		logger.Info("store backend: sqlite", zap.String("path", cfg.StorePath))
	default:
		cityStore = store.NewFileStore(cfg.StorePath)
		logger.Info("store backend: file", zap.String("path", cfg.StorePath))
	}

	cities, err := cityStore.Load(ctx)
	if err != nil {
		logger.Fatal("load tracked cities", zap.Error(err))
	}
	list := store.NewCityList(cities)
	logger.Info("tracked cities loaded", zap.Int("count", list.Len()))

	// One limiter paces every outbound call so a large tracked list cannot
	// hammer the public upstreams.
	limiter := rate.NewLimiter(rate.Limit(cfg.UpstreamRPS), cfg.UpstreamBurst)
	opts := &gateway.Options{
		HTTPClient:     &http.Client{Timeout: cfg.UpstreamTimeout},
		Limiter:        limiter,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
	}
	geocoding := gateway.NewGeocodingClient(cfg.GeocodingURL, opts)
	forecast := gateway.NewForecastClient(cfg.ForecastURL, opts)
	timezone := gateway.NewTimezoneClient(cfg.TimezoneURL, opts)

	var news refresh.HeadlineFetcher
	if cfg.NewsEnabled {
		news = gateway.NewNewsClient(cfg.NewsURL, cfg.NewsAPIKey, opts)
		logger.Info("headlines enabled", zap.Bool("live", cfg.NewsAPIKey != ""))
	}

	orchestrator := refresh.New(refresh.Config{
		List:        list,
		Store:       cityStore,
		Forecast:    forecast,
		Timezone:    timezone,
		News:        news,
		Logger:      logger,
		AddTimeout:  cfg.AddTimeout,
		BulkTimeout: cfg.BulkTimeout,
	})
	ctrl := controller.New(list, geocoding, orchestrator, logger)

	handler := api.NewHandler(ctrl, orchestrator, &api.HealthConfig{
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StartTime:        time.Now(),
	}, logger)
	router := api.NewRouter(handler, logger)

	// Stored cities wake up with a refresh so the dashboard is warm before
	// the first scheduled tick.
	if list.Len() > 0 {
		go orchestrator.RefreshAll(context.Background(), "startup")
	}

	scheduler := refresh.NewScheduler(cfg.RefreshInterval, orchestrator, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-sigCtx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetShuttingDown()
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := orchestrator.InFlight()
	logger.Info("waiting for in-flight refreshes", zap.Int64("count", inFlight))
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
	defer drainCancel()
	if err := orchestrator.Drain(drainCtx, cfg.DrainCheckInterval); err != nil {
		logger.Warn("in-flight refreshes not completed",
			zap.Error(err),
			zap.Int64("remaining", orchestrator.InFlight()))
	}

	// Final write so the stored sequence matches whatever the last refreshes
	// produced, even if a persist raced the shutdown.
	persistCtx, persistCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer persistCancel()
	if err := cityStore.Persist(persistCtx, list.Snapshot()); err != nil {
		logger.Error("final persist", zap.Error(err))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if sqliteCloser != nil {
		if err := sqliteCloser.Close(); err != nil {
			logger.Error("sqlite close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
