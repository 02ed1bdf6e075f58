package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/league-ledger/internal/domain"
)

type MockLeagueRepository struct {
	mock.Mock
}

func (m *MockLeagueRepository) Create(ctx context.Context, league *domain.League) error {
	args := m.Called(ctx, league)
	return args.Error(0)
}

func (m *MockLeagueRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.League, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.League), args.Error(1)
}

func (m *MockLeagueRepository) ListActive(ctx context.Context) ([]*domain.League, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.League), args.Error(1)
}

func (m *MockLeagueRepository) CreateTeam(ctx context.Context, team *domain.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockLeagueRepository) ListTeams(ctx context.Context, leagueID uuid.UUID) ([]*domain.Team, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Team), args.Error(1)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) ListByRegistrationStatus(ctx context.Context, status string) ([]*domain.Member, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Member), args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *domain.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Get(ctx context.Context, memberID, leagueID uuid.UUID) (*domain.Membership, error) {
	args := m.Called(ctx, memberID, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.Membership, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Membership), args.Error(1)
}

func (m *MockMembershipRepository) UpdateBalance(ctx context.Context, membershipID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, membershipID, balance)
	return args.Error(0)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) GetRecord(ctx context.Context, memberID, leagueID uuid.UUID, week int) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, memberID, leagueID, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceRepository) Save(ctx context.Context, record *domain.AttendanceRecord) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceRepository) ListByMembership(ctx context.Context, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, memberID, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

type MockFiringLedger struct {
	mock.Mock
}

func (m *MockFiringLedger) Claim(ctx context.Context, key domain.FiringKey) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockFiringLedger) Complete(ctx context.Context, firing *domain.NotificationFiring) error {
	args := m.Called(ctx, firing)
	return args.Error(0)
}

func (m *MockFiringLedger) ListByDate(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationFiring), args.Error(1)
}

type MockBalanceCache struct {
	mock.Mock
}

func (m *MockBalanceCache) Set(ctx context.Context, memberID, leagueID uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, memberID, leagueID, balance)
	return args.Error(0)
}

func (m *MockBalanceCache) Get(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, memberID, leagueID)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}
