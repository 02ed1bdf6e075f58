// Package audit carries attendance changes to an append-only sink off the write path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
)

const EventAttendanceUpdated = "attendance.updated"

// Event records who changed a ledger cell, its prior and new value and the resulting balance.
type Event struct {
	ID         uuid.UUID                `json:"id"`
	Type       string                   `json:"type"`
	Actor      string                   `json:"actor"`
	MemberID   uuid.UUID                `json:"member_id"`
	LeagueID   uuid.UUID                `json:"league_id"`
	WeekNumber int                      `json:"week_number"`
	Prior      *domain.AttendanceRecord `json:"prior,omitempty"`
	Next       *domain.AttendanceRecord `json:"next"`
	Balance    decimal.Decimal          `json:"balance"`
	OccurredAt time.Time                `json:"occurred_at"`
}

// NewAttendanceEvent builds the event for one SetStatus call. prior is nil for a new cell.
func NewAttendanceEvent(prior, next *domain.AttendanceRecord, balance decimal.Decimal) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventAttendanceUpdated,
		Actor:      next.ModifiedBy,
		MemberID:   next.MemberID,
		LeagueID:   next.LeagueID,
		WeekNumber: next.WeekNumber,
		Prior:      prior,
		Next:       next,
		Balance:    balance,
		OccurredAt: next.UpdatedAt,
	}
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter accepts events without blocking the caller.
type Emitter interface {
	Emit(event Event)
}
