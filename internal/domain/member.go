package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RegistrationValid   = "valid"
	RegistrationInvalid = "invalid"
	RegistrationPending = "pending"
)

// Member represents a bowler
type Member struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	RegistrationNumber    *string    `json:"registration_number,omitempty" db:"registration_number"`
	FirstName             string     `json:"first_name" db:"first_name"`
	Surname               string     `json:"surname" db:"surname"`
	Email                 string     `json:"email" db:"email"`
	Phone                 string     `json:"phone" db:"phone"`
	RegistrationStatus    string     `json:"registration_status" db:"registration_status"`
	RegistrationCheckedAt *time.Time `json:"registration_checked_at,omitempty" db:"registration_checked_at"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
}

// FullName returns "First Surname".
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.Surname)
}

// HasEmail reports whether the member can be reached by email.
func (m *Member) HasEmail() bool {
	return strings.TrimSpace(m.Email) != ""
}

// Membership links a member to a league. BalanceOwing is a cache of the
// balance derived from attendance records and is never authored directly.
type Membership struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	MemberID     uuid.UUID       `json:"member_id" db:"member_id"`
	LeagueID     uuid.UUID       `json:"league_id" db:"league_id"`
	TeamID       uuid.NullUUID   `json:"team_id" db:"team_id"`
	BalanceOwing decimal.Decimal `json:"balance_owing" db:"balance_owing"`
	JoinedAt     time.Time       `json:"joined_at" db:"joined_at"`
}
