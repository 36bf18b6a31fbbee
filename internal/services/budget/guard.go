package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/metrics"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

// Policy holds the two independent spending caps, fixed at construction
type Policy struct {
	LifetimeLimit decimal.Decimal
	DailyLimit    decimal.Decimal
}

// Level is the qualitative budget state derived from lifetime usage
type Level string

const (
	LevelOK       Level = "OK"
	LevelCaution  Level = "CAUTION"
	LevelWarning  Level = "WARNING"
	LevelCritical Level = "CRITICAL"
)

// Status reports spending against both windows
type Status struct {
	TotalSpent     decimal.Decimal
	TotalLimit     decimal.Decimal
	TotalRemaining decimal.Decimal
	TotalPercent   float64
	DailySpent     decimal.Decimal
	DailyLimit     decimal.Decimal
	DailyRemaining decimal.Decimal
	Level          Level
}

// Guard evaluates the ledger against the policy before a model call is
// allowed. The check is advisory pre-flight: it works from an estimate,
// and the true cost is recorded after the call regardless.
type Guard struct {
	policy Policy
	ledger *Ledger
	cache  SpendCache // optional, shares the daily window across processes
	now    func() time.Time
	log    *logger.Logger
}

// GuardOption customizes guard construction
type GuardOption func(*Guard)

// WithSpendCache wires a shared daily-spend cache (typically Redis)
func WithSpendCache(cache SpendCache) GuardOption {
	return func(g *Guard) { g.cache = cache }
}

// WithClock injects the time source, for tests
func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard creates a budget guard over the given ledger
func NewGuard(policy Policy, ledger *Ledger, opts ...GuardOption) *Guard {
	g := &Guard{
		policy: policy,
		ledger: ledger,
		now:    time.Now,
		log:    logger.Get().With("component", "budget_guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanProceed reports whether a call with the given estimated cost fits
// both limits. The lifetime check runs first and short-circuits; spending
// exactly up to a limit is allowed, only strict overshoot rejects.
func (g *Guard) CanProceed(ctx context.Context, estimate decimal.Decimal) (bool, string) {
	if err := g.Check(ctx, estimate); err != nil {
		var rejection *RejectionError
		if errors.As(err, &rejection) {
			return false, rejection.Reason
		}
		return false, err.Error()
	}
	return true, "OK"
}

// RejectionError carries the human-readable reason for a budget rejection
type RejectionError struct {
	Reason string
	cause  error
}

func (e *RejectionError) Error() string { return e.Reason }
func (e *RejectionError) Unwrap() error { return e.cause }

// Check evaluates both limits, returning a typed rejection when the
// estimated call would overshoot either one
func (g *Guard) Check(ctx context.Context, estimate decimal.Decimal) error {
	total := g.ledger.TotalSpent()
	daily := g.dailySpent(ctx)

	if total.Add(estimate).GreaterThan(g.policy.LifetimeLimit) {
		remaining := g.policy.LifetimeLimit.Sub(total)
		metrics.BudgetRejections.WithLabelValues("lifetime").Inc()
		return &RejectionError{
			Reason: fmt.Sprintf("Budget limit reached. Total: $%s / $%s. Remaining: $%s",
				total.StringFixed(4), g.policy.LifetimeLimit.StringFixed(2), remaining.StringFixed(4)),
			cause: errors.ErrBudgetExceeded,
		}
	}

	if daily.Add(estimate).GreaterThan(g.policy.DailyLimit) {
		remaining := g.policy.DailyLimit.Sub(daily)
		metrics.BudgetRejections.WithLabelValues("daily").Inc()
		return &RejectionError{
			Reason: fmt.Sprintf("Daily limit reached. Today: $%s / $%s. Remaining: $%s",
				daily.StringFixed(4), g.policy.DailyLimit.StringFixed(2), remaining.StringFixed(4)),
			cause: errors.ErrDailyLimitExceeded,
		}
	}

	return nil
}

// Status returns current spending against both windows
func (g *Guard) Status(ctx context.Context) Status {
	total := g.ledger.TotalSpent()
	daily := g.dailySpent(ctx)

	percent := 0.0
	if g.policy.LifetimeLimit.IsPositive() {
		percent, _ = total.Div(g.policy.LifetimeLimit).Mul(decimal.NewFromInt(100)).Float64()
	}

	return Status{
		TotalSpent:     total,
		TotalLimit:     g.policy.LifetimeLimit,
		TotalRemaining: g.policy.LifetimeLimit.Sub(total),
		TotalPercent:   percent,
		DailySpent:     daily,
		DailyLimit:     g.policy.DailyLimit,
		DailyRemaining: g.policy.DailyLimit.Sub(daily),
		Level:          levelFor(percent),
	}
}

// RecordSpend mirrors an appended cost into the shared cache, when wired.
// Cache failures only log; the ledger stays authoritative.
func (g *Guard) RecordSpend(ctx context.Context, cost decimal.Decimal) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Increment(ctx, g.now(), cost); err != nil {
		g.log.Warnf("spend cache increment failed: %v", err)
	}
}

// dailySpent merges the ledger's view of today with the shared cache.
// The larger value wins: the cache may know about sibling processes,
// the ledger may hold a record the cache write missed.
func (g *Guard) dailySpent(ctx context.Context) decimal.Decimal {
	daily := g.ledger.DailySpent(g.now())

	if g.cache == nil {
		return daily
	}

	cached, err := g.cache.DailySpending(ctx, g.now())
	if err != nil {
		g.log.Warnf("spend cache read failed, using ledger only: %v", err)
		return daily
	}
	if cached.GreaterThan(daily) {
		return cached
	}
	return daily
}

func levelFor(percent float64) Level {
	switch {
	case percent >= 95:
		return LevelCritical
	case percent >= 80:
		return LevelWarning
	case percent >= 50:
		return LevelCaution
	default:
		return LevelOK
	}
}
