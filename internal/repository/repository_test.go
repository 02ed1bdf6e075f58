package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
	"github.com/segyhp/league-ledger/internal/testutil"
)

type fixture struct {
	leagues     repository.LeagueRepository
	members     repository.MemberRepository
	memberships repository.MembershipRepository
	attendance  repository.AttendanceRepository
	lockers     repository.LockerRepository
	firings     repository.FiringLedger
}

func setupSQLite(t *testing.T) *fixture {
	db := testutil.NewSQLiteDB(t)
	return &fixture{
		leagues:     repository.NewLeagueRepository(db),
		members:     repository.NewMemberRepository(db),
		memberships: repository.NewMembershipRepository(db),
		attendance:  repository.NewAttendanceRepository(db),
		lockers:     repository.NewLockerRepository(db),
		firings:     repository.NewFiringRepository(db),
	}
}

func seedMembership(t *testing.T, f *fixture) (*domain.League, *domain.Member, *domain.Membership) {
	ctx := context.Background()

	league := testutil.League(true)
	require.NoError(t, f.leagues.Create(ctx, league))
	member := testutil.Member("Ada", "Lovelace", "ada@example.com")
	require.NoError(t, f.members.Create(ctx, member))
	membership := testutil.Membership(member, league)
	require.NoError(t, f.memberships.Create(ctx, membership))

	return league, member, membership
}

func record(member *domain.Member, league *domain.League, week int, status domain.AttendanceStatus, amount int64) *domain.AttendanceRecord {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.AttendanceRecord{
		ID:         uuid.New(),
		MemberID:   member.ID,
		LeagueID:   league.ID,
		WeekNumber: week,
		WeekDate:   league.StartDate.AddDate(0, 0, 7*(week-1)),
		Status:     status,
		AmountPaid: decimal.NewFromInt(amount),
		ModifiedBy: "staff",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestLeagueRepository(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()

	league := testutil.League(true)
	require.NoError(t, f.leagues.Create(ctx, league))

	got, err := f.leagues.GetByID(ctx, league.ID)
	require.NoError(t, err)
	assert.Equal(t, league.Name, got.Name)
	assert.True(t, got.StartDate.Equal(league.StartDate))
	assert.True(t, got.SocialFee.Equal(league.SocialFee))
	assert.True(t, got.HasFines)

	_, err = f.leagues.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	active, err := f.leagues.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	for _, name := range []string{"Strikers", "Alley Cats"} {
		require.NoError(t, f.leagues.CreateTeam(ctx, &domain.Team{
			ID: uuid.New(), LeagueID: league.ID, Name: name, CreatedAt: time.Now().UTC(),
		}))
	}
	teams, err := f.leagues.ListTeams(ctx, league.ID)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Alley Cats", teams[0].Name)
}

func TestMemberRepository_DuplicateRegistration(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()

	reg := "BNZ-1001"
	first := testutil.Member("Ada", "Lovelace", "ada@example.com")
	first.RegistrationNumber = &reg
	require.NoError(t, f.members.Create(ctx, first))

	second := testutil.Member("Grace", "Hopper", "grace@example.com")
	second.RegistrationNumber = &reg
	assert.ErrorIs(t, f.members.Create(ctx, second), repository.ErrConflict)

	invalid := testutil.Member("Alan", "Turing", "")
	invalid.RegistrationStatus = domain.RegistrationInvalid
	require.NoError(t, f.members.Create(ctx, invalid))

	members, err := f.members.ListByRegistrationStatus(ctx, domain.RegistrationInvalid)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, invalid.ID, members[0].ID)
}

func TestMembershipRepository_UpdateBalance(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()
	league, member, membership := seedMembership(t, f)

	require.NoError(t, f.memberships.UpdateBalance(ctx, membership.ID, decimal.RequireFromString("15.00")))

	got, err := f.memberships.Get(ctx, member.ID, league.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceOwing.Equal(decimal.NewFromInt(15)))

	assert.ErrorIs(t, f.memberships.UpdateBalance(ctx, uuid.New(), decimal.Zero), repository.ErrNotFound)

	_, err = f.memberships.Get(ctx, uuid.New(), league.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAttendanceRepository_SaveUpsertsCell(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()
	league, member, _ := seedMembership(t, f)

	records, err := f.attendance.Save(ctx, record(member, league, 1, domain.StatusPaid, 10))
	require.NoError(t, err)
	require.Len(t, records, 1)
	originalID := records[0].ID

	_, err = f.attendance.Save(ctx, record(member, league, 3, domain.StatusMissed, 0))
	require.NoError(t, err)

	update := record(member, league, 1, domain.StatusFixed, 15)
	update.FineApplied = true
	update.FinePaid = true
	records, err = f.attendance.Save(ctx, update)
	require.NoError(t, err)

	require.Len(t, records, 2, "one cell per week")
	assert.Equal(t, 1, records[0].WeekNumber)
	assert.Equal(t, 3, records[1].WeekNumber)
	assert.Equal(t, originalID, records[0].ID, "upsert keeps the original row")
	assert.Equal(t, domain.StatusFixed, records[0].Status)
	assert.True(t, records[0].AmountPaid.Equal(decimal.NewFromInt(15)))
	assert.True(t, records[0].FinePaid)

	cell, err := f.attendance.GetRecord(ctx, member.ID, league.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMissed, cell.Status)

	_, err = f.attendance.GetRecord(ctx, member.ID, league.ID, 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := f.attendance.ListByLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAttendanceRepository_ConcurrentSaves(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()
	league, member, _ := seedMembership(t, f)

	var wg sync.WaitGroup
	for week := 1; week <= 8; week++ {
		wg.Add(1)
		go func(week int) {
			defer wg.Done()
			_, err := f.attendance.Save(ctx, record(member, league, week, domain.StatusPaid, 10))
			assert.NoError(t, err)
		}(week)
	}
	wg.Wait()

	records, err := f.attendance.ListByMembership(ctx, member.ID, league.ID)
	require.NoError(t, err)
	assert.Len(t, records, 8)
}

func TestLockerRepository(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()
	_, member, _ := seedMembership(t, f)

	locker := &domain.Locker{ID: uuid.New(), Number: "A12", RentalRate: decimal.NewFromInt(40), RentalPeriod: "annual"}
	require.NoError(t, f.lockers.CreateLocker(ctx, locker))

	got, err := f.lockers.GetLocker(ctx, locker.ID)
	require.NoError(t, err)
	assert.Equal(t, "A12", got.Number)

	rental := &domain.LockerRental{
		ID:            uuid.New(),
		LockerID:      locker.ID,
		MemberID:      member.ID,
		StartDate:     testutil.Date(2025, 1, 1),
		EndDate:       testutil.Date(2025, 3, 31),
		PaymentStatus: domain.RentalPaymentPaid,
		AmountPaid:    decimal.NewFromInt(40),
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, f.lockers.CreateRental(ctx, rental))

	second := *rental
	second.ID = uuid.New()
	assert.ErrorIs(t, f.lockers.CreateRental(ctx, &second), repository.ErrConflict, "one active rental per locker")

	backwards := *rental
	backwards.ID = uuid.New()
	backwards.IsActive = false
	backwards.EndDate = backwards.StartDate
	assert.ErrorIs(t, f.lockers.CreateRental(ctx, &backwards), repository.ErrInvalid, "end_date must follow start_date")

	ending, err := f.lockers.ListActiveRentalsEndingOn(ctx, testutil.Date(2025, 3, 31))
	require.NoError(t, err)
	require.Len(t, ending, 1)
	assert.Equal(t, rental.ID, ending[0].ID)

	none, err := f.lockers.ListActiveRentalsEndingOn(ctx, testutil.Date(2025, 3, 30))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFiringRepository_ClaimOnce(t *testing.T) {
	f := setupSQLite(t)
	ctx := context.Background()

	key := domain.FiringKey{RuleID: "locker_expiry_member_30d", EntityID: uuid.NewString(), TriggerDate: testutil.Date(2025, 3, 1)}

	claimed, err := f.firings.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = f.firings.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim of the same key must lose")

	require.NoError(t, f.firings.Complete(ctx, &domain.NotificationFiring{
		FiringKey:  key,
		Status:     domain.FiringStatusSent,
		Recipients: 1,
		FiredAt:    time.Now().UTC(),
	}))

	firings, err := f.firings.ListByDate(ctx, key.TriggerDate)
	require.NoError(t, err)
	require.Len(t, firings, 1)
	assert.Equal(t, domain.FiringStatusSent, firings[0].Status)
	assert.Equal(t, 1, firings[0].Recipients)

	other := key
	other.TriggerDate = testutil.Date(2025, 3, 2)
	err = f.firings.Complete(ctx, &domain.NotificationFiring{FiringKey: other, Status: domain.FiringStatusSent})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
