package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/segyhp/league-ledger/internal/app"
	"github.com/segyhp/league-ledger/internal/config"
	"github.com/segyhp/league-ledger/internal/handler"
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

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("app_init_failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	router := handler.NewRouter(
		handler.NewHealthHandler(cfg.GetHealthTimeout(), application.HealthChecks()...),
		handler.NewLedgerHandler(application.Ledger),
		handler.NewNotificationHandler(application.Scheduler),
	)

	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server_starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return application.Audit.Run(gctx)
	})

	if cfg.Scheduler.Embedded {
		g.Go(func() error {
			return application.Scheduler.Run(gctx, cfg.Scheduler.Cron)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("server_shutting_down")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return shutdownTracing(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server_stopped_with_error", "error", err)
		application.Close()
		os.Exit(1)
	}

	log.Info("server_exited")
}
