package agents

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/adapters/ai"
	"cartera/internal/domain/usage"
	"cartera/internal/services/budget"
	"cartera/pkg/errors"
)

type memoryStore struct {
	records   []usage.Record
	appendErr error
}

func (s *memoryStore) Load(ctx context.Context) ([]usage.Record, error) {
	return append([]usage.Record(nil), s.records...), nil
}

func (s *memoryStore) Append(ctx context.Context, record usage.Record) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.records = append(s.records, record)
	return nil
}

type fixedClient struct {
	completion *ai.Completion
	err        error
	calls      int
}

func (c *fixedClient) Complete(ctx context.Context, prompt string) (*ai.Completion, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.completion, nil
}

func (c *fixedClient) Model() string { return "openai/gpt-3.5-turbo" }

func newLedgerAndGuard(t *testing.T, store usage.Store) (*budget.Ledger, *budget.Guard) {
	t.Helper()
	ledger, err := budget.NewLedger(context.Background(), store)
	require.NoError(t, err)
	guard := budget.NewGuard(budget.Policy{
		LifetimeLimit: decimal.RequireFromString("5.0"),
		DailyLimit:    decimal.RequireFromString("0.25"),
	}, ledger)
	return ledger, guard
}

func TestTrackedClientRecordsExactUsage(t *testing.T) {
	store := &memoryStore{}
	ledger, guard := newLedgerAndGuard(t, store)

	inner := &fixedClient{completion: &ai.Completion{
		Content:  "Final Answer: ok",
		Usage:    ai.TokenUsage{InputTokens: 1000, OutputTokens: 500},
		HasUsage: true,
	}}

	tracked := NewTrackedClient(inner, ledger, guard, ai.DefaultRateTable(), "summary")
	_, err := tracked.Complete(context.Background(), "a prompt with several words in it")
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	record := store.records[0]
	assert.Equal(t, 1000, record.InputTokens)
	assert.Equal(t, 500, record.OutputTokens)
	assert.Equal(t, "summary", record.QueryType)
	assert.True(t, record.Cost.Equal(decimal.RequireFromString("0.0025")))
}

func TestTrackedClientFallsBackToEstimate(t *testing.T) {
	store := &memoryStore{}
	ledger, guard := newLedgerAndGuard(t, store)

	inner := &fixedClient{completion: &ai.Completion{Content: "ok", HasUsage: false}}
	tracked := NewTrackedClient(inner, ledger, guard, ai.DefaultRateTable(), "general")

	// 10 words -> 13 provisional input tokens, output defaults to 0
	_, err := tracked.Complete(context.Background(), "one two three four five six seven eight nine ten")
	require.NoError(t, err)

	require.Len(t, store.records, 1)
	assert.Equal(t, 13, store.records[0].InputTokens)
	assert.Equal(t, 0, store.records[0].OutputTokens)
}

func TestTrackedClientNoRecordOnTransportFailure(t *testing.T) {
	store := &memoryStore{}
	ledger, guard := newLedgerAndGuard(t, store)

	inner := &fixedClient{err: errors.ErrUpstream}
	tracked := NewTrackedClient(inner, ledger, guard, ai.DefaultRateTable(), "general")

	_, err := tracked.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Empty(t, store.records)
	assert.Equal(t, 0, ledger.Len())
}

func TestTrackedClientWriteFailureDoesNotFailCall(t *testing.T) {
	store := &memoryStore{appendErr: errors.ErrPersistence}
	ledger, guard := newLedgerAndGuard(t, store)

	inner := &fixedClient{completion: &ai.Completion{
		Content:  "ok",
		Usage:    ai.TokenUsage{InputTokens: 10, OutputTokens: 5},
		HasUsage: true,
	}}
	tracked := NewTrackedClient(inner, ledger, guard, ai.DefaultRateTable(), "general")

	completion, err := tracked.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Content)

	// the in-memory ledger still carries the record
	assert.Equal(t, 1, ledger.Len())
}
