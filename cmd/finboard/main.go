package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/analytics"
	"finboard/internal/board"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	applog "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// Log level comes from the environment before the rest of the config is validated
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting finboard")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	reportCache, cacheManager := cli.NewReportCache[analytics.Report](logger, cfg)
	reports := services.NewAnalyticsService(store, reportCache, analytics.DefaultThresholds())

	// AMQP is optional: without it records are still stored, only the
	// export worker is not notified.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export notifications", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - export worker will rely on its periodic re-export")
	}

	records := services.NewRecordService(store, reports, publisher)
	reconciler := board.NewReconciler(store, cli.AppLogger(logger, applog.ComponentBoard))

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Analytics:  reports,
		Records:    records,
		Tasks:      store,
		Reconciler: reconciler,
		Ready:      store,
		Logger:     cli.AppLogger(logger, applog.ComponentHTTP),
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			CleanupInterval:   5 * time.Minute,
			StaleAfter:        10 * time.Minute,
		},
	})
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting HTTP server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
