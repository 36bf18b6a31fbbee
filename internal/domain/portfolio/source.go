package portfolio

import (
	"context"
	"sync"
	"time"
)

// Source provides the current portfolio
type Source interface {
	Portfolio(ctx context.Context) (*Portfolio, error)
}

// Snapshot is a fetched portfolio with its fetch time
type Snapshot struct {
	Value     *Portfolio
	FetchedAt time.Time
}

// Expired reports whether the snapshot is older than ttl at now
func (s Snapshot) Expired(now time.Time, ttl time.Duration) bool {
	if s.Value == nil {
		return true
	}
	return now.Sub(s.FetchedAt) >= ttl
}

// CachedSource memoizes another source for a fixed TTL. Each instance
// owns its snapshot; callers wanting a shared cache share the instance.
type CachedSource struct {
	mu       sync.Mutex
	inner    Source
	ttl      time.Duration
	now      func() time.Time
	snapshot Snapshot
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps inner with a TTL cache
func NewCachedSource(inner Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithNow overrides the time source, for tests
func (c *CachedSource) WithNow(now func() time.Time) *CachedSource {
	c.now = now
	return c
}

// Portfolio returns the cached portfolio, refreshing it when expired.
// A failed refresh does not evict an expired snapshot; the error is
// returned and the next call retries.
func (c *CachedSource) Portfolio(ctx context.Context) (*Portfolio, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.snapshot.Expired(c.now(), c.ttl) {
		return c.snapshot.Value, nil
	}

	value, err := c.inner.Portfolio(ctx)
	if err != nil {
		return nil, err
	}

	c.snapshot = Snapshot{Value: value, FetchedAt: c.now()}
	return value, nil
}
