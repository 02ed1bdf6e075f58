// Package app assembles stores, services and the scheduler from configuration.
// Both binaries build on it so they share one wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/segyhp/league-ledger/internal/audit"
	"github.com/segyhp/league-ledger/internal/config"
	"github.com/segyhp/league-ledger/internal/handler"
	"github.com/segyhp/league-ledger/internal/metrics"
	"github.com/segyhp/league-ledger/internal/notifier"
	"github.com/segyhp/league-ledger/internal/repository"
	"github.com/segyhp/league-ledger/internal/repository/memory"
	"github.com/segyhp/league-ledger/internal/scheduler"
	"github.com/segyhp/league-ledger/internal/service"
)

type stores struct {
	leagues     repository.LeagueRepository
	members     repository.MemberRepository
	memberships repository.MembershipRepository
	attendance  repository.AttendanceRepository
	lockers     repository.LockerRepository
	firings     repository.FiringLedger
}

// App owns every long-lived dependency of a process.
type App struct {
	Config    *config.Config
	DB        *sqlx.DB
	Redis     *redis.Client
	Metrics   *metrics.Metrics
	Audit     *audit.Worker
	Ledger    *service.LedgerService
	Scheduler *scheduler.Service

	closers []func() error
}

type Option func(*options)

type options struct {
	registerer prometheus.Registerer
}

// WithRegisterer registers metrics on reg instead of the default registry.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New connects storage, migrates the schema and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:  cfg,
		Metrics: metrics.NewWithRegisterer(o.registerer),
	}

	st, err := a.initStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	var cache repository.BalanceCache
	if cfg.Redis.Enabled() {
		client, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)

		cache = repository.NewRedisBalanceCache(client, cfg.GetBalanceTTL())
		if cfg.Redis.FiringLedger {
			st.firings = repository.NewRedisFiringLedger(client, cfg.GetFiringRetention())
		}
	}

	publisher, err := newAuditPublisher(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closer, ok := publisher.(*audit.KafkaPublisher); ok {
		a.closers = append(a.closers, func() error { closer.Close(); return nil })
	}
	a.Audit = audit.NewWorker(publisher, cfg.Audit.BufferSize, a.Metrics)

	ledgerOpts := []service.LedgerOption{
		service.WithAuditEmitter(a.Audit),
		service.WithMetrics(a.Metrics),
	}
	if cache != nil {
		ledgerOpts = append(ledgerOpts, service.WithBalanceCache(cache))
	}
	a.Ledger = service.NewLedgerService(st.leagues, st.members, st.memberships, st.attendance, ledgerOpts...)

	sender, err := notifier.NewSender(cfg.Notification, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	renderer, err := notifier.NewRenderer()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Scheduler = scheduler.New(scheduler.Dependencies{
		Leagues:      st.leagues,
		Members:      st.members,
		Memberships:  st.memberships,
		Lockers:      st.lockers,
		Firings:      st.firings,
		Balances:     a.Ledger,
		BalanceCache: cache,
		Sender:       sender,
		Renderer:     renderer,
	}, scheduler.Rules{
		MemberOffsets:       cfg.GetMemberOffsets(),
		StaffOffsets:        cfg.GetStaffOffsets(),
		BalanceWeekday:      cfg.GetBalanceWeekday(),
		RegistrationWeekday: cfg.GetRegistrationWeekday(),
		StaffRecipients:     cfg.GetStaffRecipients(),
	},
		scheduler.WithLocation(cfg.GetLocation()),
		scheduler.WithMetrics(a.Metrics),
	)

	slog.InfoContext(ctx, "app_initialized",
		"env", cfg.Server.Env,
		"database_driver", cfg.Database.Driver,
		"redis", cfg.Redis.Enabled(),
		"redis_firing_ledger", cfg.Redis.Enabled() && cfg.Redis.FiringLedger,
		"notification_provider", cfg.Notification.Provider,
		"audit_sink", cfg.Audit.Sink,
	)

	return a, nil
}

func (a *App) initStores(ctx context.Context) (*stores, error) {
	cfg := a.Config.Database

	if cfg.Driver == config.DriverMemory {
		return &stores{
			leagues:     memory.NewLeagueStore(),
			members:     memory.NewMemberStore(),
			memberships: memory.NewMembershipStore(),
			attendance:  memory.NewAttendanceStore(),
			lockers:     memory.NewLockerStore(),
			firings:     memory.NewFiringLedger(),
		}, nil
	}

	db, err := initDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if err := repository.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &stores{
		leagues:     repository.NewLeagueRepository(db),
		members:     repository.NewMemberRepository(db),
		memberships: repository.NewMembershipRepository(db),
		attendance:  repository.NewAttendanceRepository(db),
		lockers:     repository.NewLockerRepository(db),
		firings:     repository.NewFiringRepository(db),
	}, nil
}

// HealthChecks returns a readiness check per connected backend.
func (a *App) HealthChecks() []handler.Check {
	var checks []handler.Check
	if a.DB != nil {
		checks = append(checks, handler.Check{Name: "database", Ping: a.DB.PingContext})
	}
	if a.Redis != nil {
		checks = append(checks, handler.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		}})
	}
	return checks
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if err := errors.Join(errs...); err != nil {
		slog.Error("app_close_failed", "error", err)
	}
}

func initDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return db, nil
}

func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Host + ":" + cfg.Port,
			Password: cfg.Password,
		}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func newAuditPublisher(cfg *config.Config, logger *slog.Logger) (audit.Publisher, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkKafka:
		return audit.NewKafkaPublisher(cfg.GetKafkaBrokers(), cfg.Audit.KafkaTopic)
	case config.AuditSinkLog, "":
		return audit.NewLogPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}
}
