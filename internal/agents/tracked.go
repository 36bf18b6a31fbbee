package agents

import (
	"context"
	"time"

	"cartera/internal/adapters/ai"
	"cartera/internal/domain/usage"
	"cartera/internal/metrics"
	"cartera/internal/services/budget"
	"cartera/pkg/logger"
)

// TrackedClient wraps a model client so that every completed call lands
// on the usage ledger as exactly one record. Calls that fail in
// transport are never billed. A failed ledger write is logged and
// reported, never retried, and never fails the call that produced it.
type TrackedClient struct {
	inner     ai.Client
	ledger    *budget.Ledger
	guard     *budget.Guard
	rates     *ai.RateTable
	queryType string
	log       *logger.Logger
}

var _ ai.Client = (*TrackedClient)(nil)

// NewTrackedClient wraps inner with usage accounting tagged queryType
func NewTrackedClient(inner ai.Client, ledger *budget.Ledger, guard *budget.Guard, rates *ai.RateTable, queryType string) *TrackedClient {
	return &TrackedClient{
		inner:     inner,
		ledger:    ledger,
		guard:     guard,
		rates:     rates,
		queryType: queryType,
		log:       logger.Get().With("component", "tracked_client", "query_type", queryType),
	}
}

// Complete forwards to the wrapped client and records the call's cost
func (c *TrackedClient) Complete(ctx context.Context, prompt string) (*ai.Completion, error) {
	// provisional estimate, replaced by exact usage when reported
	inputTokens := ai.EstimateTokens(prompt)
	outputTokens := 0

	completion, err := c.inner.Complete(ctx, prompt)
	if err != nil {
		metrics.RecordModelCall(c.inner.Model(), 0, 0, err)
		return nil, err
	}

	if completion.HasUsage {
		inputTokens = completion.Usage.InputTokens
		outputTokens = completion.Usage.OutputTokens
	}

	model := c.inner.Model()
	cost := c.rates.Estimate(model, inputTokens, outputTokens)

	record := usage.Record{
		Timestamp:    time.Now().UTC(),
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         cost,
		QueryType:    c.queryType,
	}

	if appendErr := c.ledger.Append(ctx, record); appendErr != nil {
		metrics.LedgerWriteFailures.Inc()
		c.log.Errorf("usage record not persisted: %v", appendErr)
	}
	c.guard.RecordSpend(ctx, cost)

	metrics.RecordModelCall(model, inputTokens, outputTokens, nil)
	metrics.CostUSD.WithLabelValues(model, c.queryType).Add(cost.InexactFloat64())

	return completion, nil
}

// Model returns the wrapped client's model identifier
func (c *TrackedClient) Model() string {
	return c.inner.Model()
}
