package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type redisBalanceCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisBalanceCache returns a BalanceCache in Redis. A zero ttl keeps
// entries until they are overwritten.
func NewRedisBalanceCache(client redis.Cmdable, ttl time.Duration) BalanceCache {
	return &redisBalanceCache{client: client, ttl: ttl}
}

func balanceKey(memberID, leagueID uuid.UUID) string {
	return fmt.Sprintf("balance:%s:%s", leagueID, memberID)
}

func (c *redisBalanceCache) Set(ctx context.Context, memberID, leagueID uuid.UUID, balance decimal.Decimal) error {
	return c.client.Set(ctx, balanceKey(memberID, leagueID), balance.String(), c.ttl).Err()
}

func (c *redisBalanceCache) Get(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, balanceKey(memberID, leagueID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("cached balance %q: %w", raw, err)
	}

	return balance, true, nil
}
