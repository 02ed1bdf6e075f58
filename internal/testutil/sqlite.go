// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
)

// NewSQLiteDB opens a private in-memory SQLite database with the schema applied.
func NewSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, repository.Migrate(context.Background(), db))
	return db
}

// Date returns midnight UTC of the given day.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// League returns a singles league running Mondays from 2025-02-03 to 2025-04-28.
func League(hasFines bool) *domain.League {
	return &domain.League{
		ID:         uuid.New(),
		Name:       "Monday Night Singles",
		StartDate:  Date(2025, 2, 3),
		FinishDate: Date(2025, 4, 28),
		SocialFee:  decimal.NewFromInt(10),
		BowlingFee: decimal.NewFromInt(18),
		HasFines:   hasFines,
		FineAmount: decimal.NewFromInt(5),
		LeagueType: domain.LeagueTypeSingles,
		IsActive:   true,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// Member returns a member with a valid registration.
func Member(first, surname, email string) *domain.Member {
	return &domain.Member{
		ID:                 uuid.New(),
		FirstName:          first,
		Surname:            surname,
		Email:              email,
		RegistrationStatus: domain.RegistrationValid,
		CreatedAt:          time.Now().UTC().Truncate(time.Second),
	}
}

// Membership enrolls member in league without a team.
func Membership(member *domain.Member, league *domain.League) *domain.Membership {
	return &domain.Membership{
		ID:           uuid.New(),
		MemberID:     member.ID,
		LeagueID:     league.ID,
		BalanceOwing: decimal.Zero,
		JoinedAt:     time.Now().UTC().Truncate(time.Second),
	}
}
