package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
	"github.com/segyhp/league-ledger/pkg/utils"
)

type InMemoryFiringLedger struct {
	mu      sync.Mutex
	firings map[string]domain.NotificationFiring
}

func NewFiringLedger() *InMemoryFiringLedger {
	return &InMemoryFiringLedger{firings: make(map[string]domain.NotificationFiring)}
}

var _ repository.FiringLedger = (*InMemoryFiringLedger)(nil)

func normalizeKey(key domain.FiringKey) domain.FiringKey {
	key.TriggerDate = utils.DateOnly(key.TriggerDate)
	return key
}

func (l *InMemoryFiringLedger) Claim(_ context.Context, key domain.FiringKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key = normalizeKey(key)
	if _, exists := l.firings[key.String()]; exists {
		return false, nil
	}
	l.firings[key.String()] = domain.NotificationFiring{
		FiringKey: key,
		Status:    domain.FiringStatusPending,
		FiredAt:   time.Now().UTC(),
	}
	return true, nil
}

func (l *InMemoryFiringLedger) Complete(_ context.Context, firing *domain.NotificationFiring) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := normalizeKey(firing.FiringKey)
	if _, exists := l.firings[key.String()]; !exists {
		return repository.ErrNotFound
	}
	stored := *firing
	stored.FiringKey = key
	l.firings[key.String()] = stored
	return nil
}

func (l *InMemoryFiringLedger) ListByDate(_ context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := utils.DateOnly(date)
	var firings []*domain.NotificationFiring
	for _, firing := range l.firings {
		if firing.TriggerDate.Equal(day) {
			f := firing
			firings = append(firings, &f)
		}
	}
	sort.Slice(firings, func(i, j int) bool {
		if firings[i].RuleID != firings[j].RuleID {
			return firings[i].RuleID < firings[j].RuleID
		}
		return firings[i].EntityID < firings[j].EntityID
	})
	return firings, nil
}

type InMemoryBalanceCache struct {
	mu       sync.RWMutex
	balances map[membershipKey]decimal.Decimal
}

func NewBalanceCache() *InMemoryBalanceCache {
	return &InMemoryBalanceCache{balances: make(map[membershipKey]decimal.Decimal)}
}

var _ repository.BalanceCache = (*InMemoryBalanceCache)(nil)

func (c *InMemoryBalanceCache) Set(_ context.Context, memberID, leagueID uuid.UUID, balance decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.balances[membershipKey{memberID, leagueID}] = balance
	return nil
}

func (c *InMemoryBalanceCache) Get(_ context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	balance, ok := c.balances[membershipKey{memberID, leagueID}]
	return balance, ok, nil
}
