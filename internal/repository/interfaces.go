package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
)

var (
	// ErrNotFound is returned by every store when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("record conflicts with existing state")
	// ErrInvalid is returned when a write would break a check constraint.
	ErrInvalid = errors.New("record violates a check constraint")
)

// LeagueRepository defines the interface for league data operations
type LeagueRepository interface {
	// Create creates a new league
	Create(ctx context.Context, league *domain.League) error

	// GetByID retrieves a league by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.League, error)

	// ListActive returns every league flagged active
	ListActive(ctx context.Context) ([]*domain.League, error)

	// CreateTeam creates a team inside a league
	CreateTeam(ctx context.Context, team *domain.Team) error

	// ListTeams returns the teams of a league
	ListTeams(ctx context.Context, leagueID uuid.UUID) ([]*domain.Team, error)
}

// MemberRepository defines the interface for member data operations
type MemberRepository interface {
	// Create creates a new member; a duplicate registration number is ErrConflict
	Create(ctx context.Context, member *domain.Member) error

	// GetByID retrieves a member by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error)

	// ListByRegistrationStatus returns members whose registration has the given status
	ListByRegistrationStatus(ctx context.Context, status string) ([]*domain.Member, error)
}

// MembershipRepository defines the interface for member-in-league data operations
type MembershipRepository interface {
	// Create enrolls a member in a league
	Create(ctx context.Context, membership *domain.Membership) error

	// Get retrieves the membership of a member in a league
	Get(ctx context.Context, memberID, leagueID uuid.UUID) (*domain.Membership, error)

	// ListByLeague returns every membership of a league
	ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.Membership, error)

	// UpdateBalance overwrites the cached balance of a membership
	UpdateBalance(ctx context.Context, membershipID uuid.UUID, balance decimal.Decimal) error
}

// AttendanceRepository defines the interface for ledger cell operations
type AttendanceRepository interface {
	// GetRecord retrieves the cell for a member, league and week
	GetRecord(ctx context.Context, memberID, leagueID uuid.UUID, week int) (*domain.AttendanceRecord, error)

	// Save upserts the cell keyed by (member, league, week) and returns the
	// member's full record set for the league, read in the same transaction
	Save(ctx context.Context, record *domain.AttendanceRecord) ([]*domain.AttendanceRecord, error)

	// ListByMembership returns a member's records for a league ordered by week
	ListByMembership(ctx context.Context, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error)

	// ListByLeague returns every record of a league ordered by member and week
	ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error)
}

// LockerRepository defines the interface for locker and rental data operations
type LockerRepository interface {
	// CreateLocker creates a new locker
	CreateLocker(ctx context.Context, locker *domain.Locker) error

	// GetLocker retrieves a locker by its ID
	GetLocker(ctx context.Context, id uuid.UUID) (*domain.Locker, error)

	// CreateRental creates a rental; a second active rental for the locker is ErrConflict
	CreateRental(ctx context.Context, rental *domain.LockerRental) error

	// ListActiveRentalsEndingOn returns active rentals whose end date equals date
	ListActiveRentalsEndingOn(ctx context.Context, date time.Time) ([]*domain.LockerRental, error)
}

// FiringLedger records which notification triggers already fired
type FiringLedger interface {
	// Claim atomically records the key; false means it was already claimed
	Claim(ctx context.Context, key domain.FiringKey) (bool, error)

	// Complete stores the dispatch outcome of a claimed firing
	Complete(ctx context.Context, firing *domain.NotificationFiring) error

	// ListByDate returns the firings of a trigger date
	ListByDate(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error)
}

// BalanceCache holds last computed balances for readers that tolerate staleness
type BalanceCache interface {
	Set(ctx context.Context, memberID, leagueID uuid.UUID, balance decimal.Decimal) error

	// Get returns false when no balance is cached
	Get(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, bool, error)
}

func translateNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
