package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/calendar"
)

// AttendanceStatus is the settlement state of one member for one league week.
type AttendanceStatus string

const (
	StatusPaid          AttendanceStatus = "paid"
	StatusMissed        AttendanceStatus = "missed"
	StatusFixed         AttendanceStatus = "fixed"
	StatusNotApplicable AttendanceStatus = "na"
)

// ParseStatus accepts the stored spelling and "n/a".
func ParseStatus(s string) (AttendanceStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return StatusPaid, true
	case "missed":
		return StatusMissed, true
	case "fixed":
		return StatusFixed, true
	case "na", "n/a":
		return StatusNotApplicable, true
	}
	return "", false
}

// AttendanceRecord is the ledger cell for (member, league, week).
type AttendanceRecord struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	MemberID    uuid.UUID        `json:"member_id" db:"member_id"`
	LeagueID    uuid.UUID        `json:"league_id" db:"league_id"`
	WeekNumber  int              `json:"week_number" db:"week_number"`
	WeekDate    time.Time        `json:"week_date" db:"week_date"`
	Status      AttendanceStatus `json:"status" db:"status"`
	AmountPaid  decimal.Decimal  `json:"amount_paid" db:"amount_paid"`
	FineApplied bool             `json:"fine_applied" db:"fine_applied"`
	FinePaid    bool             `json:"fine_paid" db:"fine_paid"`
	ModifiedBy  string           `json:"modified_by" db:"modified_by"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// StatusChange is one update of a ledger cell.
type StatusChange struct {
	MemberID   uuid.UUID
	LeagueID   uuid.UUID
	WeekNumber int
	Status     AttendanceStatus
	AmountPaid decimal.Decimal
	Actor      string
}

// NextRecord applies change to the prior cell value (nil when the week was
// never touched) and returns the new value. prior is not modified.
//
// fixed always means the fine was settled and missed always means it was not,
// whatever the cell held before; other statuses keep the prior fine flag.
func NextRecord(prior *AttendanceRecord, change StatusChange, league *League, now time.Time) *AttendanceRecord {
	var next AttendanceRecord
	if prior != nil {
		next = *prior
	} else {
		next = AttendanceRecord{
			ID:         uuid.New(),
			MemberID:   change.MemberID,
			LeagueID:   change.LeagueID,
			WeekNumber: change.WeekNumber,
			WeekDate:   calendar.DateOf(league.StartDate, change.WeekNumber),
			CreatedAt:  now,
		}
	}

	next.Status = change.Status
	next.AmountPaid = change.AmountPaid
	next.ModifiedBy = change.Actor
	next.UpdatedAt = now

	switch change.Status {
	case StatusFixed:
		next.FinePaid = true
	case StatusMissed:
		next.FinePaid = false
	}
	next.FineApplied = league.HasFines && (change.Status == StatusMissed || change.Status == StatusFixed)

	return &next
}

// DTOs for requests and responses

type SetStatusRequest struct {
	MemberID   uuid.UUID       `json:"member_id" validate:"required"`
	LeagueID   uuid.UUID       `json:"league_id" validate:"required"`
	WeekNumber int             `json:"week_number" validate:"required,gte=1"`
	Status     string          `json:"status" validate:"required,oneof=paid missed fixed na n/a"`
	AmountPaid decimal.Decimal `json:"amount_paid" validate:"gte=0"`
	ActorID    string          `json:"actor_id" validate:"required"`
}

type SetStatusResponse struct {
	Record  *AttendanceRecord `json:"record"`
	Balance decimal.Decimal   `json:"balance"`
}

type BalanceResponse struct {
	MemberID uuid.UUID       `json:"member_id"`
	LeagueID uuid.UUID       `json:"league_id"`
	Balance  decimal.Decimal `json:"balance"`
}

// GridCell is one week of one grid row. Status is empty for untouched weeks.
type GridCell struct {
	WeekNumber int              `json:"week_number"`
	Status     AttendanceStatus `json:"status,omitempty"`
	AmountPaid decimal.Decimal  `json:"amount_paid"`
	FinePaid   bool             `json:"fine_paid"`
}

type GridRow struct {
	MembershipID uuid.UUID       `json:"membership_id"`
	MemberID     uuid.UUID       `json:"member_id"`
	MemberName   string          `json:"member_name"`
	TeamName     string          `json:"team_name,omitempty"`
	Cells        []GridCell      `json:"cells"`
	Balance      decimal.Decimal `json:"balance"`
}

// Grid is the rows x weeks attendance matrix of a league. CurrentWeek is the
// week bowled today, 0 when today is not a league night.
type Grid struct {
	LeagueID    uuid.UUID       `json:"league_id"`
	Weeks       []calendar.Week `json:"weeks"`
	CurrentWeek int             `json:"current_week"`
	Rows        []GridRow       `json:"rows"`
}
