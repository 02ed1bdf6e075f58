package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/segyhp/league-ledger/internal/metrics"
)

const drainTimeout = 5 * time.Second

// Worker buffers events and hands them to a Publisher on its own goroutine.
// Emit never blocks; when the buffer is full the event is dropped and counted.
type Worker struct {
	publisher Publisher
	inbox     chan Event
	metrics   *metrics.Metrics
}

func NewWorker(publisher Publisher, bufferSize int, m *metrics.Metrics) *Worker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Worker{
		publisher: publisher,
		inbox:     make(chan Event, bufferSize),
		metrics:   m,
	}
}

func (w *Worker) Emit(event Event) {
	select {
	case w.inbox <- event:
	default:
		w.metrics.IncrementAuditEvent("dropped")
		slog.Warn("audit_event_dropped", "event_id", event.ID, "member_id", event.MemberID, "league_id", event.LeagueID)
	}
}

// Run publishes events until ctx is cancelled, then drains what is buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil
		case event := <-w.inbox:
			w.publish(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-w.inbox:
			w.publish(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) publish(ctx context.Context, event Event) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.metrics.IncrementAuditEvent("failed")
		slog.Error("audit_publish_failed", "event_id", event.ID, "error", err)
		return
	}
	w.metrics.IncrementAuditEvent("published")
}
