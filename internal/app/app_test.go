package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/league-ledger/internal/config"
	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/testutil"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func exerciseApp(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()

	league := testutil.League(true)
	require.NoError(t, a.Ledger.LeagueRepo.Create(ctx, league))
	member := testutil.Member("Ada", "Lovelace", "ada@example.com")
	require.NoError(t, a.Ledger.MemberRepo.Create(ctx, member))
	require.NoError(t, a.Ledger.MembershipRepo.Create(ctx, testutil.Membership(member, league)))

	result, err := a.Ledger.SetStatus(ctx, &domain.SetStatusRequest{
		MemberID:   member.ID,
		LeagueID:   league.ID,
		WeekNumber: 1,
		Status:     "missed",
		AmountPaid: decimal.Zero,
		ActorID:    "staff-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(15)))

	report, err := a.Scheduler.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Fired)

	firings, err := a.Scheduler.Firings(ctx, report.Date)
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, domain.RuleOutstandingBalance, firings[0].RuleID)
}

func TestNew_SQLite(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"DATABASE_DRIVER": config.DriverSQLite,
		"DATABASE_URL":    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)",
	})

	a, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.DB)
	checks := a.HealthChecks()
	require.Len(t, checks, 1)
	assert.Equal(t, "database", checks[0].Name)
	assert.NoError(t, checks[0].Ping(context.Background()))

	exerciseApp(t, a)
}

func TestNew_Memory(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"DATABASE_DRIVER": config.DriverMemory})

	a, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Empty(t, a.HealthChecks())

	exerciseApp(t, a)
}

func TestNew_UnknownAuditSink(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"DATABASE_DRIVER": config.DriverMemory})
	cfg.Audit.Sink = "carrier-pigeon"

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}
