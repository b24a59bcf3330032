package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/analytics"
	"finboard/internal/cli"
	"finboard/internal/core"
	applog "finboard/internal/log"
	"finboard/internal/ports"
	"finboard/internal/services"
	gsheet "finboard/internal/sheets/google"
	"finboard/internal/sheets/logexport"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting finboard-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStore(context.Background(), logger, cfg)
	defer store.Close()

	reportCache, cacheManager := cli.NewReportCache[analytics.Report](logger, cfg)
	reports := services.NewAnalyticsService(store, reportCache, analytics.DefaultThresholds())

	// Google Sheets is optional; without it reports are only logged
	var exporter ports.ReportExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetPrefix:     cfg.GoogleSheetPrefix,
			CredentialsFile: cfg.GoogleCredentialsFile,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = logexport.New(cli.AppLogger(logger, applog.ComponentSheets))
		logger.Info("Google Sheets disabled - reports will be logged only")
	}

	scopes := make([]core.ProjectFilter, 0, len(cfg.ExportProjects)+1)
	scopes = append(scopes, core.ProjectFilter{Scope: core.ScopeAll})
	for _, p := range cfg.ExportProjects {
		if f := core.ParseProjectFilter(p); f.Scope != core.ScopeAll {
			scopes = append(scopes, f)
		}
	}

	processor := services.NewExportProcessor(reports, exporter, services.ExportProcessorConfig{
		Interval: cfg.ExportInterval,
		Scopes:   scopes,
	})

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled - exporting on the periodic interval only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := processor.Stop(ctx); err != nil {
			logger.Error("Failed to stop export processor", "error", err)
		}
		cacheManager.Stop()
	})

	// Startup export catches up on anything changed while the worker was down
	for _, scope := range scopes {
		if err := processor.Export(ctx, scope); err != nil {
			logger.Error("Startup export failed", "error", err, "project", scope.String())
		}
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start export processor", "error", err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeWithReconnect(ctx, processor.HandleRecordsChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption stopped", "error", err)
			}
		}()
		logger.Info("Consuming record change messages", "queue", cfg.AMQPQueue)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
