// Package budget tracks money spent on model calls and gates new calls
// against configured spending limits.
package budget

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/domain/usage"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
)

// Ledger is the append-only record of billed model calls.
//
// Records live in memory after the initial load and every append goes
// through a single mutex, so aggregates are read-after-write consistent
// within one process. Cross-process consistency is only as good as the
// backing store; see Guard's spend cache for the shared daily window.
type Ledger struct {
	mu      sync.Mutex
	store   usage.Store
	records []usage.Record
	log     *logger.Logger
}

// NewLedger loads the persisted sequence (missing store contents mean an
// empty ledger) and returns a ready ledger
func NewLedger(ctx context.Context, store usage.Store) (*Ledger, error) {
	records, err := store.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load usage ledger")
	}

	return &Ledger{
		store:   store,
		records: records,
		log:     logger.Get().With("component", "usage_ledger"),
	}, nil
}

// Append durably adds one record.
//
// The in-memory sequence keeps the record even when the store write
// fails: accounting for the current process stays correct, and the
// persistence error is surfaced to the caller. The record is lost for
// future processes in that case; the budget accepts this at-most-once
// gap rather than double-charging on retry.
func (l *Ledger) Append(ctx context.Context, record usage.Record) error {
	if err := record.Validate(); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, record)

	if err := l.store.Append(ctx, record); err != nil {
		l.log.Errorf("ledger write failed, record kept in memory only: %v", err)
		return errors.Wrap(err, "persist usage record")
	}

	return nil
}

// TotalSpent returns the sum of cost over all records
func (l *Ledger) TotalSpent() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, r := range l.records {
		total = total.Add(r.Cost)
	}
	return total
}

// DailySpent returns the sum of cost over records on ref's calendar day
func (l *Ledger) DailySpent(ref time.Time) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	for _, r := range l.records {
		if r.SameDay(ref) {
			total = total.Add(r.Cost)
		}
	}
	return total
}

// History returns records from the last windowDays, newest first
func (l *Ledger) History(windowDays int) []usage.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -windowDays)

	out := make([]usage.Record, 0)
	for _, r := range l.records {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// Len returns the number of recorded calls
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
