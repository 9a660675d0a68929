package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salaryreport/internal/amqp"
	"salaryreport/internal/backend"
	"salaryreport/internal/cache"
	"salaryreport/internal/chart"
	"salaryreport/internal/cli"
	"salaryreport/internal/config"
	apphttp "salaryreport/internal/http"
	applog "salaryreport/internal/log"
	"salaryreport/internal/services"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(boot, (*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger.With(applog.FieldComponent, applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}

	// Events are optional: without a broker reports are only stored.
	var publisher services.ReportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without report events", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewReportService(res.Store, chart.NewRenderer(), publisher, cfg.StoreTimeout)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close report store", applog.FieldError, err)
		}
	}()

	opts := apphttp.Options{
		Logger:             applog.Wrap(logger.Logger, applog.ComponentHTTP),
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	var caches *cache.Manager
	if res.Cached != nil {
		opts.CacheStats = res.Cached.CacheStats
		caches = cache.NewManager(logger.Logger)
		caches.Register(res.Cached)
		caches.StartCleanup(cfg.ReportCacheTTL)
		defer caches.Stop()
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, opts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting salary report API", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		logger.Info("Shutting down HTTP server", applog.FieldOperation, applog.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
