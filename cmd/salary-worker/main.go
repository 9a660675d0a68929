package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"salaryreport/internal/amqp"
	"salaryreport/internal/backend"
	"salaryreport/internal/cli"
	"salaryreport/internal/config"
	applog "salaryreport/internal/log"
	gsheet "salaryreport/internal/sheets/google"
	"salaryreport/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(boot, (*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)

	logger.Info("Starting salary-worker")
	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	// The worker only reads; the cache would never be hit twice for one id.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	backendCfg.CacheSize = 0
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	if err := sheets.EnsureHeader(ctx); err != nil {
		// Not fatal: the sheet may be shared read-only for headers.
		logger.Warn("Failed to ensure export sheet header", "sheet", sheets.SheetName(), applog.FieldError, err)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", sheets.SheetName())

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	exporter := worker.NewExportWorker(res.Store, sheets)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.Run(gctx, consumer)
	})
	return g.Wait()
}
