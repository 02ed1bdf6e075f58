// Package scheduler scans stored state once a day and fires reminders at most
// once per rule, entity and trigger date.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/metrics"
	"github.com/segyhp/league-ledger/internal/notifier"
	"github.com/segyhp/league-ledger/internal/repository"
	customError "github.com/segyhp/league-ledger/pkg/errors"
	"github.com/segyhp/league-ledger/pkg/utils"
)

const (
	triggerCron   = "cron"
	triggerManual = "manual"
)

// BalanceSource recomputes the balance of a member in a league.
type BalanceSource interface {
	GetBalance(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, error)
}

// Rules configures which reminders fire and when.
type Rules struct {
	MemberOffsets       []int
	StaffOffsets        []int
	BalanceWeekday      time.Weekday
	RegistrationWeekday time.Weekday
	StaffRecipients     []string
}

// Dependencies are the stores and collaborators a Service reads and writes.
type Dependencies struct {
	Leagues     repository.LeagueRepository
	Members     repository.MemberRepository
	Memberships repository.MembershipRepository
	Lockers     repository.LockerRepository
	Firings     repository.FiringLedger
	Balances    BalanceSource
	// BalanceCache is read before Balances; may be nil.
	BalanceCache repository.BalanceCache
	Sender       notifier.Sender
	Renderer     *notifier.Renderer
}

type Service struct {
	deps     Dependencies
	rules    Rules
	location *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	running sync.Mutex
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone that decides which calendar day "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(deps Dependencies, rules Rules, opts ...Option) *Service {
	s := &Service{
		deps:     deps,
		rules:    rules,
		location: time.UTC,
		now:      time.Now,
		tracer:   otel.Tracer("league-ledger/scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the scheduler's zone.
func (s *Service) Today() time.Time {
	return utils.DateOnly(s.now().In(s.location))
}

// Run schedules Tick on spec and blocks until ctx is done, then waits for a
// running tick to finish.
func (s *Service) Run(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(s.location))

	if _, err := c.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule notification run %q: %w", spec, err)
	}

	c.Start()
	slog.Info("scheduler_started", "spec", spec, "timezone", s.location.String())

	<-ctx.Done()

	<-c.Stop().Done()
	slog.Info("scheduler_stopped")
	return nil
}

// Tick is the cron entry point. Weekday gating applies and an overlapping
// tick is skipped.
func (s *Service) Tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.metrics.IncrementSchedulerOverlap(triggerCron)
		slog.WarnContext(ctx, "notification_run_skipped", "reason", "previous run in progress")
		return
	}
	defer s.running.Unlock()

	s.run(ctx, s.Today(), false)
}

// RunNow runs every rule for today regardless of weekday. Firings already
// recorded for today are not repeated.
func (s *Service) RunNow(ctx context.Context) (*domain.RunReport, error) {
	return s.RunForDate(ctx, s.Today())
}

// RunForDate is RunNow for an explicit trigger date.
func (s *Service) RunForDate(ctx context.Context, date time.Time) (*domain.RunReport, error) {
	if !s.running.TryLock() {
		s.metrics.IncrementSchedulerOverlap(triggerManual)
		return nil, customError.WrapRunInProgress()
	}
	defer s.running.Unlock()

	return s.run(ctx, utils.DateOnly(date), true), nil
}

// Firings lists the firings recorded for a trigger date.
func (s *Service) Firings(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	firings, err := s.deps.Firings.ListByDate(ctx, utils.DateOnly(date))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return firings, nil
}

// SendTest delivers the test template to recipient without touching the firing ledger.
func (s *Service) SendTest(ctx context.Context, recipient string) error {
	msg, err := s.deps.Renderer.Render(notifier.TemplateTest, recipient, notifier.TestNotice{
		Recipient: recipient,
		SentAt:    s.now().In(s.location).Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	if err := s.deps.Sender.Send(ctx, msg); err != nil {
		return customError.WrapDispatchError(recipient, err)
	}
	return nil
}

// Broadcast sends a free-form message to every member of a league with an
// email. It bypasses the firing ledger, so repeating it sends again.
func (s *Service) Broadcast(ctx context.Context, leagueID uuid.UUID, req *domain.BroadcastRequest) (*domain.BroadcastReport, error) {
	subject := strings.Join(strings.Fields(req.Subject), " ")
	if subject == "" || strings.TrimSpace(req.Message) == "" {
		return nil, customError.WrapValidation("subject and message are required")
	}

	ctx, span := s.tracer.Start(ctx, "scheduler.broadcast",
		trace.WithAttributes(attribute.String("league_id", leagueID.String())),
	)
	defer span.End()

	league, err := s.deps.Leagues.GetByID(ctx, leagueID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapLeagueNotFound(leagueID.String())
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	memberships, err := s.deps.Memberships.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	report := &domain.BroadcastReport{LeagueID: leagueID.String()}
	for _, membership := range memberships {
		member, err := s.deps.Members.GetByID(ctx, membership.MemberID)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("load member %s: %v", membership.MemberID, err))
			s.metrics.IncrementNotification(domain.RuleLeagueBroadcast, "failed")
			continue
		}
		if !member.HasEmail() {
			report.Skipped++
			s.metrics.IncrementNotification(domain.RuleLeagueBroadcast, "skipped")
			continue
		}

		msg, err := s.deps.Renderer.Render(notifier.TemplateLeagueBroadcast, member.Email, notifier.LeagueBroadcast{
			Subject:    subject,
			MemberName: member.FullName(),
			LeagueName: league.Name,
			Message:    req.Message,
		})
		if err == nil {
			err = s.deps.Sender.Send(ctx, msg)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, customError.WrapDispatchError(member.Email, err).Error())
			s.metrics.IncrementNotification(domain.RuleLeagueBroadcast, "failed")
			slog.ErrorContext(ctx, "league_broadcast_failed",
				"league_id", leagueID,
				"member_id", member.ID,
				"error", err,
			)
			continue
		}

		report.Sent++
		s.metrics.IncrementNotification(domain.RuleLeagueBroadcast, "sent")
	}

	span.SetAttributes(
		attribute.Int("sent", report.Sent),
		attribute.Int("failed", report.Failed),
	)
	slog.InfoContext(ctx, "league_broadcast_completed",
		"league_id", leagueID,
		"sent", report.Sent,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)

	return report, nil
}

func (s *Service) run(ctx context.Context, today time.Time, manual bool) *domain.RunReport {
	start := time.Now()
	trigger := triggerCron
	if manual {
		trigger = triggerManual
	}

	ctx, span := s.tracer.Start(ctx, "scheduler.run",
		trace.WithAttributes(
			attribute.String("date", utils.FormatDate(today)),
			attribute.String("trigger", trigger),
		),
	)
	defer span.End()

	report := &domain.RunReport{Date: today, Manual: manual}

	s.runLockerRules(ctx, report, today)

	if manual || today.Weekday() == s.rules.BalanceWeekday {
		s.runBalanceRule(ctx, report, today)
	}

	if manual || today.Weekday() == s.rules.RegistrationWeekday {
		s.runRegistrationRule(ctx, report, today)
	}

	s.metrics.ObserveSchedulerRun(trigger, start)
	span.SetAttributes(
		attribute.Int("fired", report.Fired),
		attribute.Int("duplicates", report.Duplicates),
		attribute.Int("failed", report.Failed),
	)

	slog.InfoContext(ctx, "notification_run_completed",
		"date", utils.FormatDate(today),
		"trigger", trigger,
		"fired", report.Fired,
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"errors", len(report.Errors),
	)

	return report
}

func (s *Service) runLockerRules(ctx context.Context, report *domain.RunReport, today time.Time) {
	offsets := slices.Clone(s.rules.MemberOffsets)
	for _, offset := range s.rules.StaffOffsets {
		if !slices.Contains(offsets, offset) {
			offsets = append(offsets, offset)
		}
	}

	for _, offset := range offsets {
		rentals, err := s.deps.Lockers.ListActiveRentalsEndingOn(ctx, utils.AddDays(today, offset))
		if err != nil {
			addError(report, fmt.Errorf("list rentals ending in %d days: %w", offset, err))
			continue
		}

		for _, rental := range rentals {
			s.remindLocker(ctx, report, today, rental, offset)
		}
	}
}

func (s *Service) remindLocker(ctx context.Context, report *domain.RunReport, today time.Time, rental *domain.LockerRental, offset int) {
	member, err := s.deps.Members.GetByID(ctx, rental.MemberID)
	if err != nil {
		addError(report, fmt.Errorf("rental %s member: %w", rental.ID, err))
		return
	}
	locker, err := s.deps.Lockers.GetLocker(ctx, rental.LockerID)
	if err != nil {
		addError(report, fmt.Errorf("rental %s locker: %w", rental.ID, err))
		return
	}

	data := notifier.LockerReminder{
		MemberName:   member.FullName(),
		Email:        member.Email,
		Phone:        member.Phone,
		LockerNumber: locker.Number,
		Location:     locker.Location,
		RentalRate:   locker.RentalRate.StringFixed(2),
		RentalPeriod: locker.RentalPeriod,
		EndDate:      utils.FormatDate(rental.EndDate),
		Days:         offset,
	}
	entityID := rental.ID.String()

	if slices.Contains(s.rules.MemberOffsets, offset) {
		rule := domain.LockerRuleID(domain.RuleLockerExpiryMember, offset)
		if member.HasEmail() {
			s.fire(ctx, report, rule, entityID, today, notifier.TemplateLockerMember, []string{member.Email}, data)
		} else {
			s.skip(ctx, report, rule, entityID, "member has no email")
		}
	}

	if slices.Contains(s.rules.StaffOffsets, offset) {
		rule := domain.LockerRuleID(domain.RuleLockerExpiryStaff, offset)
		if len(s.rules.StaffRecipients) > 0 {
			s.fire(ctx, report, rule, entityID, today, notifier.TemplateLockerStaff, s.rules.StaffRecipients, data)
		} else {
			s.skip(ctx, report, rule, entityID, "no staff recipients configured")
		}
	}
}

func (s *Service) runBalanceRule(ctx context.Context, report *domain.RunReport, today time.Time) {
	leagues, err := s.deps.Leagues.ListActive(ctx)
	if err != nil {
		addError(report, fmt.Errorf("list active leagues: %w", err))
		return
	}

	for _, league := range leagues {
		memberships, err := s.deps.Memberships.ListByLeague(ctx, league.ID)
		if err != nil {
			addError(report, fmt.Errorf("league %s memberships: %w", league.ID, err))
			continue
		}

		for _, membership := range memberships {
			balance, err := s.balanceOf(ctx, membership)
			if err != nil {
				addError(report, fmt.Errorf("membership %s balance: %w", membership.ID, err))
				continue
			}
			if !balance.IsPositive() {
				continue
			}

			member, err := s.deps.Members.GetByID(ctx, membership.MemberID)
			if err != nil {
				addError(report, fmt.Errorf("membership %s member: %w", membership.ID, err))
				continue
			}

			entityID := membership.ID.String()
			if !member.HasEmail() {
				s.skip(ctx, report, domain.RuleOutstandingBalance, entityID, "member has no email")
				continue
			}

			s.fire(ctx, report, domain.RuleOutstandingBalance, entityID, today, notifier.TemplateOutstandingBalance,
				[]string{member.Email},
				notifier.BalanceReminder{
					MemberName: member.FullName(),
					LeagueName: league.Name,
					Balance:    balance.StringFixed(2),
				},
			)
		}
	}
}

// balanceOf prefers the cached balance and recomputes on a miss or cache error.
func (s *Service) balanceOf(ctx context.Context, membership *domain.Membership) (decimal.Decimal, error) {
	if s.deps.BalanceCache != nil {
		balance, ok, err := s.deps.BalanceCache.Get(ctx, membership.MemberID, membership.LeagueID)
		if err != nil {
			slog.WarnContext(ctx, "balance_cache_read_failed", "membership_id", membership.ID, "error", err)
		}
		if err == nil && ok {
			return balance, nil
		}
	}
	return s.deps.Balances.GetBalance(ctx, membership.MemberID, membership.LeagueID)
}

func (s *Service) runRegistrationRule(ctx context.Context, report *domain.RunReport, today time.Time) {
	members, err := s.deps.Members.ListByRegistrationStatus(ctx, domain.RegistrationInvalid)
	if err != nil {
		addError(report, fmt.Errorf("list invalid registrations: %w", err))
		return
	}

	for _, member := range members {
		entityID := member.ID.String()
		if !member.HasEmail() {
			s.skip(ctx, report, domain.RuleRegistrationInvalid, entityID, "member has no email")
			continue
		}

		registration := ""
		if member.RegistrationNumber != nil {
			registration = *member.RegistrationNumber
		}

		s.fire(ctx, report, domain.RuleRegistrationInvalid, entityID, today, notifier.TemplateRegistrationInvalid,
			[]string{member.Email},
			notifier.RegistrationReminder{MemberName: member.FullName(), RegistrationNumber: registration},
		)
	}
}

// fire claims the trigger and, only when the claim is new, sends to every
// recipient. One recipient failing does not stop the others.
func (s *Service) fire(ctx context.Context, report *domain.RunReport, rule, entityID string, today time.Time, template string, recipients []string, data any) {
	key := domain.FiringKey{RuleID: rule, EntityID: entityID, TriggerDate: today}

	claimed, err := s.deps.Firings.Claim(ctx, key)
	if err != nil {
		report.Failed++
		addError(report, fmt.Errorf("claim %s: %w", key, err))
		s.metrics.IncrementNotification(rule, "failed")
		return
	}
	if !claimed {
		report.Duplicates++
		s.metrics.IncrementNotification(rule, "duplicate")
		return
	}

	delivered := 0
	var failures []error
	for _, recipient := range recipients {
		msg, err := s.deps.Renderer.Render(template, recipient, data)
		if err == nil {
			err = s.deps.Sender.Send(ctx, msg)
		}
		if err != nil {
			dispatchErr := customError.WrapDispatchError(recipient, err)
			failures = append(failures, dispatchErr)
			slog.ErrorContext(ctx, "notification_dispatch_failed",
				"rule", rule,
				"entity_id", entityID,
				"recipient", recipient,
				"error", err,
			)
			continue
		}
		delivered++
	}

	firing := &domain.NotificationFiring{
		FiringKey:  key,
		Status:     domain.FiringStatusSent,
		Recipients: delivered,
		FiredAt:    s.now().UTC(),
	}
	if len(failures) > 0 {
		firing.Status = domain.FiringStatusFailed
		firing.Error = errors.Join(failures...).Error()
		report.Failed++
		addError(report, fmt.Errorf("%s: %w", key, errors.Join(failures...)))
		s.metrics.IncrementNotification(rule, "failed")
	}
	if delivered > 0 {
		report.Fired++
		s.metrics.IncrementNotification(rule, "sent")
	}

	if err := s.deps.Firings.Complete(ctx, firing); err != nil {
		addError(report, fmt.Errorf("record outcome of %s: %w", key, err))
	}

	slog.InfoContext(ctx, "notification_fired",
		"rule", rule,
		"entity_id", entityID,
		"date", utils.FormatDate(today),
		"delivered", delivered,
		"failed", len(failures),
	)
}

func (s *Service) skip(ctx context.Context, report *domain.RunReport, rule, entityID, reason string) {
	report.Skipped++
	s.metrics.IncrementNotification(rule, "skipped")
	slog.DebugContext(ctx, "notification_skipped", "rule", rule, "entity_id", entityID, "reason", reason)
}

func addError(report *domain.RunReport, err error) {
	report.Errors = append(report.Errors, err.Error())
}
