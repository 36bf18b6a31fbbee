package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/adapters/redis"
	"cartera/pkg/errors"
)

// SpendCache shares the daily spending window across processes so the
// guard cannot be bypassed by running several instances against the
// same budget.
type SpendCache interface {
	// DailySpending returns the cached amount spent on the day of ref
	DailySpending(ctx context.Context, ref time.Time) (decimal.Decimal, error)
	// Increment adds amount to the day-of-ref counter
	Increment(ctx context.Context, ref time.Time, amount decimal.Decimal) error
}

const spendKeyPrefix = "cartera:spend:daily:"

// Keep the counter around past midnight so a late status query still sees
// yesterday's number before the key rolls over.
const spendKeyTTL = 48 * time.Hour

// RedisSpendCache keeps one float counter per calendar day
type RedisSpendCache struct {
	client *redis.Client
}

var _ SpendCache = (*RedisSpendCache)(nil)

func NewRedisSpendCache(client *redis.Client) *RedisSpendCache {
	return &RedisSpendCache{client: client}
}

func (c *RedisSpendCache) DailySpending(ctx context.Context, ref time.Time) (decimal.Decimal, error) {
	raw, err := c.client.GetString(ctx, spendKey(ref))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "read daily spend")
	}
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse daily spend %q", raw)
	}
	return amount, nil
}

func (c *RedisSpendCache) Increment(ctx context.Context, ref time.Time, amount decimal.Decimal) error {
	key := spendKey(ref)
	value, _ := amount.Float64()
	if _, err := c.client.IncrByFloat(ctx, key, value); err != nil {
		return errors.Wrap(err, "increment daily spend")
	}
	if err := c.client.Expire(ctx, key, spendKeyTTL); err != nil {
		return errors.Wrap(err, "set daily spend ttl")
	}
	return nil
}

func spendKey(ref time.Time) string {
	return fmt.Sprintf("%s%s", spendKeyPrefix, ref.Format("2006-01-02"))
}
