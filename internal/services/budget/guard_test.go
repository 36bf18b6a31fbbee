package budget

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/domain/usage"
)

func testPolicy() Policy {
	return Policy{
		LifetimeLimit: decimal.RequireFromString("5.0"),
		DailyLimit:    decimal.RequireFromString("0.25"),
	}
}

func newTestGuard(t *testing.T, now time.Time, records ...usage.Record) *Guard {
	t.Helper()
	ledger, err := NewLedger(context.Background(), &memoryStore{records: records})
	require.NoError(t, err)
	return NewGuard(testPolicy(), ledger, WithClock(func() time.Time { return now }))
}

func spend(ts time.Time, cost string) usage.Record {
	r := record(ts, cost)
	return r
}

func TestGuardAllowsWithinLimits(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	guard := newTestGuard(t, now, spend(now.Add(-time.Hour), "0.10"))

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.01"))
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestGuardRejectsOverDailyLimit(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	guard := newTestGuard(t, now, spend(now.Add(-time.Hour), "0.24"))

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.02"))
	assert.False(t, ok)
	assert.Contains(t, reason, "Daily limit reached")
	assert.Contains(t, reason, "$0.25")
}

func TestGuardRejectsOverLifetimeLimit(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	// lifetime nearly exhausted by spending on an earlier day
	guard := newTestGuard(t, now, spend(now.Add(-72*time.Hour), "4.995"))

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.01"))
	assert.False(t, ok)
	assert.Contains(t, reason, "Budget limit reached")
	assert.Contains(t, reason, "$5.00")
}

func TestGuardLifetimeCheckedBeforeDaily(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	// both limits would reject; the lifetime reason must win
	guard := newTestGuard(t, now, spend(now.Add(-time.Hour), "4.999"))

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.30"))
	assert.False(t, ok)
	assert.Contains(t, reason, "Budget limit reached")
}

func TestGuardAllowsSpendingExactlyToLimit(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	guard := newTestGuard(t, now, spend(now.Add(-time.Hour), "0.20"))

	// 0.20 + 0.05 == 0.25 lands exactly on the daily limit
	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.05"))
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestGuardStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	guard := newTestGuard(t, now,
		spend(now.Add(-72*time.Hour), "1.00"),
		spend(now.Add(-time.Hour), "0.10"),
	)

	status := guard.Status(context.Background())
	assert.True(t, status.TotalSpent.Equal(decimal.RequireFromString("1.10")))
	assert.True(t, status.TotalRemaining.Equal(decimal.RequireFromString("3.90")))
	assert.True(t, status.DailySpent.Equal(decimal.RequireFromString("0.10")))
	assert.True(t, status.DailyRemaining.Equal(decimal.RequireFromString("0.15")))
	assert.InDelta(t, 22.0, status.TotalPercent, 0.001)
	assert.Equal(t, LevelOK, status.Level)
}

func TestGuardLevelBands(t *testing.T) {
	tests := []struct {
		percent float64
		want    Level
	}{
		{0, LevelOK},
		{49.9, LevelOK},
		{50, LevelCaution},
		{79.9, LevelCaution},
		{80, LevelWarning},
		{94.9, LevelWarning},
		{95, LevelCritical},
		{120, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.percent), "percent %v", tt.percent)
	}
}

type fakeSpendCache struct {
	spending  decimal.Decimal
	readErr   error
	increment decimal.Decimal
}

func (c *fakeSpendCache) DailySpending(ctx context.Context, ref time.Time) (decimal.Decimal, error) {
	if c.readErr != nil {
		return decimal.Zero, c.readErr
	}
	return c.spending, nil
}

func (c *fakeSpendCache) Increment(ctx context.Context, ref time.Time, amount decimal.Decimal) error {
	c.increment = c.increment.Add(amount)
	return nil
}

func TestGuardUsesCacheWhenItKnowsMore(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ledger, err := NewLedger(context.Background(), &memoryStore{})
	require.NoError(t, err)

	// another process already spent most of today's budget
	cache := &fakeSpendCache{spending: decimal.RequireFromString("0.24")}
	guard := NewGuard(testPolicy(), ledger,
		WithClock(func() time.Time { return now }),
		WithSpendCache(cache),
	)

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.02"))
	assert.False(t, ok)
	assert.Contains(t, reason, "Daily limit reached")
}

func TestGuardDegradesToLedgerOnCacheFailure(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ledger, err := NewLedger(context.Background(), &memoryStore{records: []usage.Record{
		spend(now.Add(-time.Hour), "0.10"),
	}})
	require.NoError(t, err)

	cache := &fakeSpendCache{readErr: context.DeadlineExceeded}
	guard := NewGuard(testPolicy(), ledger,
		WithClock(func() time.Time { return now }),
		WithSpendCache(cache),
	)

	ok, reason := guard.CanProceed(context.Background(), decimal.RequireFromString("0.01"))
	assert.True(t, ok)
	assert.Equal(t, "OK", reason)
}

func TestGuardRecordSpendMirrorsToCache(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ledger, err := NewLedger(context.Background(), &memoryStore{})
	require.NoError(t, err)

	cache := &fakeSpendCache{}
	guard := NewGuard(testPolicy(), ledger,
		WithClock(func() time.Time { return now }),
		WithSpendCache(cache),
	)

	guard.RecordSpend(context.Background(), decimal.RequireFromString("0.0025"))
	assert.True(t, cache.increment.Equal(decimal.RequireFromString("0.0025")))
}
