package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LeagueTypeSingles = "singles"
	LeagueTypeTeams   = "teams"
)

// League represents a recurring weekly competition
type League struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	FinishDate     time.Time       `json:"finish_date" db:"finish_date"`
	SocialFee      decimal.Decimal `json:"social_fee" db:"social_fee"`
	BowlingFee     decimal.Decimal `json:"bowling_fee" db:"bowling_fee"` // settled at time of play, never part of the balance
	HasFines       bool            `json:"has_fines" db:"has_fines"`
	FineAmount     decimal.Decimal `json:"fine_amount" db:"fine_amount"`
	LeagueType     string          `json:"league_type" db:"league_type"`
	PlayersPerTeam int             `json:"players_per_team" db:"players_per_team"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// FeePolicy is the part of a league the balance depends on.
type FeePolicy struct {
	SocialFee  decimal.Decimal
	HasFines   bool
	FineAmount decimal.Decimal
}

// Policy returns the league's fee policy.
func (l *League) Policy() FeePolicy {
	return FeePolicy{
		SocialFee:  l.SocialFee,
		HasFines:   l.HasFines,
		FineAmount: l.FineAmount,
	}
}

// IsTeams reports whether members of the league bowl in teams.
func (l *League) IsTeams() bool {
	return l.LeagueType == LeagueTypeTeams
}

// Team groups memberships inside a teams league
type Team struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LeagueID  uuid.UUID `json:"league_id" db:"league_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
