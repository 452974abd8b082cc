package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/force-layout/internal/config"
	"github.com/onnwee/force-layout/internal/errorreporting"
	"github.com/onnwee/force-layout/internal/logger"
	"github.com/onnwee/force-layout/internal/secrets"
	"github.com/onnwee/force-layout/internal/server"
	"github.com/onnwee/force-layout/internal/tracing"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	if envErr != nil {
		logger.Info("No .env file found, using process environment")
	}

	if err := errorreporting.Init(errorreporting.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Error reporting enabled", "dsn", secrets.MaskURL(cfg.SentryDSN))
	}
	defer errorreporting.Flush(2 * time.Second)

	shutdownTracing, err := tracing.Init(tracing.Options{
		ServiceName: "force-layout",
		Version:     cfg.ServiceVersion,
		Enabled:     cfg.OTELEnabled,
		Endpoint:    cfg.OTELEndpoint,
		SampleRate:  cfg.OTELSampleRate,
	})
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	} else if cfg.OTELEnabled {
		logger.Info("Tracing enabled", "endpoint", secrets.MaskURL(cfg.OTELEndpoint), "sample_rate", cfg.OTELSampleRate)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Failed to flush traces", "error", err)
		}
	}()

	srv, err := server.New(cfg)
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting layout server",
		"addr", cfg.ServerAddr,
		"version", cfg.ServiceVersion,
		"env", cfg.Env,
		"max_nodes", cfg.LayoutMaxNodes,
		"workers", cfg.LayoutWorkers,
	)
	if err := srv.ListenAndRun(ctx); err != nil {
		errorreporting.CaptureError(err)
		logger.Error("Server exited with error", "error", err)
		errorreporting.Flush(2 * time.Second)
		os.Exit(1)
	}
}
