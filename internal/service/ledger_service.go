package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/league-ledger/internal/audit"
	"github.com/segyhp/league-ledger/internal/calendar"
	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/metrics"
	"github.com/segyhp/league-ledger/internal/repository"
	customError "github.com/segyhp/league-ledger/pkg/errors"
	"github.com/segyhp/league-ledger/pkg/utils"
)

type LedgerService struct {
	LeagueRepo     repository.LeagueRepository
	MemberRepo     repository.MemberRepository
	MembershipRepo repository.MembershipRepository
	AttendanceRepo repository.AttendanceRepository

	cache   repository.BalanceCache
	audit   audit.Emitter
	metrics *metrics.Metrics
	now     func() time.Time
	locks   *keyedMutex
	tracer  trace.Tracer
}

type LedgerOption func(*LedgerService)

// WithBalanceCache refreshes cache on every recompute.
func WithBalanceCache(cache repository.BalanceCache) LedgerOption {
	return func(s *LedgerService) { s.cache = cache }
}

func WithAuditEmitter(emitter audit.Emitter) LedgerOption {
	return func(s *LedgerService) { s.audit = emitter }
}

func WithMetrics(m *metrics.Metrics) LedgerOption {
	return func(s *LedgerService) { s.metrics = m }
}

func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(
	leagueRepo repository.LeagueRepository,
	memberRepo repository.MemberRepository,
	membershipRepo repository.MembershipRepository,
	attendanceRepo repository.AttendanceRepository,
	opts ...LedgerOption,
) *LedgerService {
	s := &LedgerService{
		LeagueRepo:     leagueRepo,
		MemberRepo:     memberRepo,
		MembershipRepo: membershipRepo,
		AttendanceRepo: attendanceRepo,
		now:            time.Now,
		locks:          newKeyedMutex(),
		tracer:         otel.Tracer("league-ledger/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetStatus records the status of a member for one league week and returns
// the recomputed balance. Nothing is written when validation fails.
func (s *LedgerService) SetStatus(ctx context.Context, request *domain.SetStatusRequest) (*domain.SetStatusResponse, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "ledger.set_status",
		trace.WithAttributes(
			attribute.String("member.id", request.MemberID.String()),
			attribute.String("league.id", request.LeagueID.String()),
			attribute.Int("week", request.WeekNumber),
			attribute.String("status", request.Status),
		),
	)
	defer span.End()

	response, err := s.setStatus(ctx, request)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.ObserveLedgerUpdate(string(response.Record.Status), start)
	span.SetAttributes(attribute.String("balance", response.Balance.StringFixed(2)))
	return response, nil
}

func (s *LedgerService) setStatus(ctx context.Context, request *domain.SetStatusRequest) (*domain.SetStatusResponse, error) {
	// 1. Validate the value before touching storage
	status, ok := domain.ParseStatus(request.Status)
	if !ok {
		return nil, customError.WrapValidation("unknown status %q", request.Status)
	}
	if request.AmountPaid.IsNegative() {
		return nil, customError.WrapValidation("amount_paid must not be negative")
	}

	// 2. Resolve league, member and membership
	league, membership, err := s.resolveMembership(ctx, request.MemberID, request.LeagueID)
	if err != nil {
		return nil, err
	}

	weeks := calendar.WeeksIn(league.StartDate, league.FinishDate)
	if !calendar.Contains(league.StartDate, league.FinishDate, request.WeekNumber) {
		return nil, customError.WrapValidation("week %d is outside league weeks 1..%d", request.WeekNumber, weeks)
	}

	// 3. Serialise writers of the same membership
	unlock := s.locks.Lock(lockKey(membership.MemberID, membership.LeagueID))
	defer unlock()

	prior, err := s.AttendanceRepo.GetRecord(ctx, request.MemberID, request.LeagueID, request.WeekNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}

	next := domain.NextRecord(prior, domain.StatusChange{
		MemberID:   request.MemberID,
		LeagueID:   request.LeagueID,
		WeekNumber: request.WeekNumber,
		Status:     status,
		AmountPaid: utils.RoundMoney(request.AmountPaid),
		Actor:      request.ActorID,
	}, league, s.now().UTC())

	// 4. Upsert and re-read the full set in one transaction
	records, err := s.AttendanceRepo.Save(ctx, next)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	// 5. Recompute and refresh the cached balance
	balance := CalculateBalance(records, league.Policy())
	s.metrics.IncrementBalanceRecompute()
	if err := s.refreshBalance(ctx, membership, balance); err != nil {
		return nil, err
	}

	saved := next
	for _, record := range records {
		if record.WeekNumber == next.WeekNumber {
			saved = record
			break
		}
	}

	if s.audit != nil {
		s.audit.Emit(audit.NewAttendanceEvent(prior, saved, balance))
	}

	slog.InfoContext(ctx, "attendance_updated",
		"member_id", request.MemberID,
		"league_id", request.LeagueID,
		"week", request.WeekNumber,
		"status", status,
		"actor", request.ActorID,
		"balance", balance.StringFixed(2),
	)

	return &domain.SetStatusResponse{Record: saved, Balance: balance}, nil
}

// GetBalance recomputes the balance of a member in a league from their records.
func (s *LedgerService) GetBalance(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.get_balance",
		trace.WithAttributes(
			attribute.String("member.id", memberID.String()),
			attribute.String("league.id", leagueID.String()),
		),
	)
	defer span.End()

	league, membership, err := s.resolveMembership(ctx, memberID, leagueID)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	balance, _, err := s.recompute(ctx, league, membership)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	return balance, nil
}

// recompute reads the member's records under the membership lock, derives the
// balance and refreshes the cached copies.
func (s *LedgerService) recompute(ctx context.Context, league *domain.League, membership *domain.Membership) (decimal.Decimal, []*domain.AttendanceRecord, error) {
	unlock := s.locks.Lock(lockKey(membership.MemberID, membership.LeagueID))
	defer unlock()

	records, err := s.AttendanceRepo.ListByMembership(ctx, membership.MemberID, membership.LeagueID)
	if err != nil {
		return decimal.Zero, nil, customError.WrapDatabaseError(err)
	}

	balance := CalculateBalance(records, league.Policy())
	s.metrics.IncrementBalanceRecompute()
	if err := s.refreshBalance(ctx, membership, balance); err != nil {
		return decimal.Zero, nil, err
	}

	return balance, records, nil
}

func lockKey(memberID, leagueID uuid.UUID) string {
	return memberID.String() + ":" + leagueID.String()
}

// GetRecords returns the attendance records of a member in a league ordered by week.
func (s *LedgerService) GetRecords(ctx context.Context, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	if _, _, err := s.resolveMembership(ctx, memberID, leagueID); err != nil {
		return nil, err
	}

	records, err := s.AttendanceRepo.ListByMembership(ctx, memberID, leagueID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return records, nil
}

// GetWeeks returns the week calendar of a league.
func (s *LedgerService) GetWeeks(ctx context.Context, leagueID uuid.UUID) ([]calendar.Week, error) {
	league, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	return calendar.WeeksFor(league.StartDate, league.FinishDate), nil
}

// GetGrid builds the members x weeks matrix of a league with every row's balance recomputed.
func (s *LedgerService) GetGrid(ctx context.Context, leagueID uuid.UUID) (*domain.Grid, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.get_grid",
		trace.WithAttributes(attribute.String("league.id", leagueID.String())),
	)
	defer span.End()

	league, err := s.getLeague(ctx, leagueID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	memberships, err := s.MembershipRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	records, err := s.AttendanceRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	byMember := make(map[uuid.UUID][]*domain.AttendanceRecord)
	for _, record := range records {
		byMember[record.MemberID] = append(byMember[record.MemberID], record)
	}

	teamNames := make(map[uuid.UUID]string)
	if league.IsTeams() {
		teams, err := s.LeagueRepo.ListTeams(ctx, leagueID)
		if err != nil {
			return nil, customError.WrapDatabaseError(err)
		}
		for _, team := range teams {
			teamNames[team.ID] = team.Name
		}
	}

	weeks := calendar.WeeksFor(league.StartDate, league.FinishDate)
	rows := make([]gridEntry, 0, len(memberships))

	for _, membership := range memberships {
		member, err := s.MemberRepo.GetByID(ctx, membership.MemberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, customError.WrapDatabaseError(err)
		}

		memberRecords := byMember[membership.MemberID]
		balance := CalculateBalance(memberRecords, league.Policy())
		if !balance.Equal(membership.BalanceOwing) {
			// A writer may have moved on since the league-wide read.
			if balance, memberRecords, err = s.recompute(ctx, league, membership); err != nil {
				return nil, err
			}
		}

		row := domain.GridRow{
			MembershipID: membership.ID,
			MemberID:     member.ID,
			MemberName:   member.FullName(),
			Cells:        buildCells(weeks, memberRecords),
			Balance:      balance,
		}
		if membership.TeamID.Valid {
			row.TeamName = teamNames[membership.TeamID.UUID]
		}
		rows = append(rows, gridEntry{row: row, member: member})
	}

	sortGrid(rows, league.IsTeams())

	grid := &domain.Grid{
		LeagueID:    leagueID,
		Weeks:       weeks,
		CurrentWeek: calendar.WeekOf(league.StartDate, league.FinishDate, utils.DateOnly(s.now())),
		Rows:        make([]domain.GridRow, len(rows)),
	}
	for i, entry := range rows {
		grid.Rows[i] = entry.row
	}

	span.SetAttributes(attribute.Int("rows", len(grid.Rows)))
	return grid, nil
}

type gridEntry struct {
	row    domain.GridRow
	member *domain.Member
}

// sortGrid orders teams leagues by team name with team-less members last, then
// every league by surname and first name.
func sortGrid(rows []gridEntry, teams bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if teams {
			aHasTeam, bHasTeam := a.row.TeamName != "", b.row.TeamName != ""
			if aHasTeam != bHasTeam {
				return aHasTeam
			}
			if a.row.TeamName != b.row.TeamName {
				return a.row.TeamName < b.row.TeamName
			}
		}
		if a.member.Surname != b.member.Surname {
			return a.member.Surname < b.member.Surname
		}
		return a.member.FirstName < b.member.FirstName
	})
}

func buildCells(weeks []calendar.Week, records []*domain.AttendanceRecord) []domain.GridCell {
	byWeek := make(map[int]*domain.AttendanceRecord, len(records))
	for _, record := range records {
		byWeek[record.WeekNumber] = record
	}

	cells := make([]domain.GridCell, len(weeks))
	for i, week := range weeks {
		cells[i] = domain.GridCell{WeekNumber: week.Number, AmountPaid: decimal.Zero}
		if record, ok := byWeek[week.Number]; ok {
			cells[i].Status = record.Status
			cells[i].AmountPaid = record.AmountPaid
			cells[i].FinePaid = record.FinePaid
		}
	}
	return cells
}

func (s *LedgerService) getLeague(ctx context.Context, leagueID uuid.UUID) (*domain.League, error) {
	league, err := s.LeagueRepo.GetByID(ctx, leagueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapLeagueNotFound(leagueID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return league, nil
}

func (s *LedgerService) resolveMembership(ctx context.Context, memberID, leagueID uuid.UUID) (*domain.League, *domain.Membership, error) {
	league, err := s.getLeague(ctx, leagueID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.MemberRepo.GetByID(ctx, memberID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, customError.WrapMemberNotFound(memberID.String())
		}
		return nil, nil, customError.WrapDatabaseError(err)
	}

	membership, err := s.MembershipRepo.Get(ctx, memberID, leagueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, customError.WrapMembershipNotFound(memberID.String(), leagueID.String())
	}
	if err != nil {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	return league, membership, nil
}

// refreshBalance stores balance on the membership and in the cache. A cache
// failure is logged; the membership row stays the source of the cached value.
func (s *LedgerService) refreshBalance(ctx context.Context, membership *domain.Membership, balance decimal.Decimal) error {
	if err := s.MembershipRepo.UpdateBalance(ctx, membership.ID, balance); err != nil {
		return customError.WrapDatabaseError(err)
	}
	membership.BalanceOwing = balance

	if s.cache == nil {
		return nil
	}
	if err := s.cache.Set(ctx, membership.MemberID, membership.LeagueID, balance); err != nil {
		slog.WarnContext(ctx, "balance_cache_write_failed",
			"member_id", membership.MemberID,
			"league_id", membership.LeagueID,
			"error", customError.WrapCacheError(err),
		)
	}
	return nil
}
