package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/segyhp/league-ledger/internal/app"
	"github.com/segyhp/league-ledger/internal/config"
	"github.com/segyhp/league-ledger/pkg/logger"
	"github.com/segyhp/league-ledger/pkg/telemetry"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("scheduler_starting", "spec", cfg.Scheduler.Cron, "timezone", cfg.Scheduler.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Error("tracing_setup_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app_init_failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	// Blocks until SIGINT or SIGTERM
	if err := application.Scheduler.Run(ctx, cfg.Scheduler.Cron); err != nil {
		log.Error("scheduler_failed", "error", err)
		return
	}
}
