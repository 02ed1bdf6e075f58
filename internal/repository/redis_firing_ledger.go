package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/pkg/utils"
)

const firingKeyPrefix = "firing"

type redisFiringLedger struct {
	client    redis.Cmdable
	retention time.Duration
}

// NewRedisFiringLedger returns a FiringLedger kept in Redis. Entries expire
// after retention, which must outlive the longest reminder offset.
func NewRedisFiringLedger(client redis.Cmdable, retention time.Duration) FiringLedger {
	return &redisFiringLedger{client: client, retention: retention}
}

func firingRedisKey(key domain.FiringKey) string {
	return fmt.Sprintf("%s:%s:%s:%s", firingKeyPrefix, utils.FormatDate(key.TriggerDate), key.RuleID, key.EntityID)
}

func (l *redisFiringLedger) Claim(ctx context.Context, key domain.FiringKey) (bool, error) {
	payload, err := json.Marshal(&domain.NotificationFiring{
		FiringKey: key,
		Status:    domain.FiringStatusPending,
		FiredAt:   time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}

	return l.client.SetNX(ctx, firingRedisKey(key), payload, l.retention).Result()
}

func (l *redisFiringLedger) Complete(ctx context.Context, firing *domain.NotificationFiring) error {
	payload, err := json.Marshal(firing)
	if err != nil {
		return err
	}

	ok, err := l.client.SetXX(ctx, firingRedisKey(firing.FiringKey), payload, redis.KeepTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	return nil
}

func (l *redisFiringLedger) ListByDate(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	pattern := fmt.Sprintf("%s:%s:*", firingKeyPrefix, utils.FormatDate(date))

	var keys []string
	iter := l.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	firings := make([]*domain.NotificationFiring, 0, len(keys))
	for _, key := range keys {
		raw, err := l.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var firing domain.NotificationFiring
		if err := json.Unmarshal(raw, &firing); err != nil {
			return nil, fmt.Errorf("decode firing %s: %w", key, err)
		}
		firings = append(firings, &firing)
	}

	sort.Slice(firings, func(i, j int) bool {
		if firings[i].RuleID != firings[j].RuleID {
			return firings[i].RuleID < firings[j].RuleID
		}
		return firings[i].EntityID < firings[j].EntityID
	})

	return firings, nil
}
