package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger, the scheduler and the audit pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Ledger writes by new status
	LedgerUpdates *prometheus.CounterVec

	// SetStatus latency including balance recompute
	LedgerUpdateLatency prometheus.Histogram

	BalanceRecomputes prometheus.Counter

	// Scheduler runs by trigger and outcome
	SchedulerRuns *prometheus.CounterVec

	SchedulerRunLatency prometheus.Histogram

	// Notification firings by rule and outcome
	Notifications *prometheus.CounterVec

	// Audit events by outcome
	AuditEvents *prometheus.CounterVec
}

// New registers the metrics with the default Prometheus registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LedgerUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "league_ledger_attendance_updates_total",
			Help: "Total attendance cell updates by new status",
		}, []string{"status"}),

		LedgerUpdateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "league_ledger_attendance_update_duration_seconds",
			Help:    "Duration of an attendance update including the balance recompute",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		BalanceRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "league_ledger_balance_recomputes_total",
			Help: "Total balance recomputations",
		}),

		SchedulerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "league_ledger_scheduler_runs_total",
			Help: "Total scheduler runs by trigger and outcome",
		}, []string{"trigger", "outcome"}), // trigger: "cron", "manual"; outcome: "completed", "overlap"

		SchedulerRunLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "league_ledger_scheduler_run_duration_seconds",
			Help:    "Duration of a full scheduler run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "league_ledger_notifications_total",
			Help: "Notification firings by rule and outcome",
		}, []string{"rule", "outcome"}), // outcome: "sent", "failed", "duplicate", "skipped"

		AuditEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "league_ledger_audit_events_total",
			Help: "Audit events by outcome",
		}, []string{"outcome"}), // outcome: "published", "failed", "dropped"
	}
}

// ObserveLedgerUpdate records one attendance update.
func (m *Metrics) ObserveLedgerUpdate(status string, start time.Time) {
	if m != nil {
		m.LedgerUpdates.WithLabelValues(status).Inc()
		m.LedgerUpdateLatency.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementBalanceRecompute() {
	if m != nil {
		m.BalanceRecomputes.Inc()
	}
}

// ObserveSchedulerRun records a completed run.
func (m *Metrics) ObserveSchedulerRun(trigger string, start time.Time) {
	if m != nil {
		m.SchedulerRuns.WithLabelValues(trigger, "completed").Inc()
		m.SchedulerRunLatency.Observe(time.Since(start).Seconds())
	}
}

// IncrementSchedulerOverlap records a run skipped because another was in progress.
func (m *Metrics) IncrementSchedulerOverlap(trigger string) {
	if m != nil {
		m.SchedulerRuns.WithLabelValues(trigger, "overlap").Inc()
	}
}

// IncrementNotification records the outcome of one firing.
func (m *Metrics) IncrementNotification(rule, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(rule, outcome).Inc()
	}
}

func (m *Metrics) IncrementAuditEvent(outcome string) {
	if m != nil {
		m.AuditEvents.WithLabelValues(outcome).Inc()
	}
}
