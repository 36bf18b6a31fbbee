package agents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cartera/internal/adapters/ai"
	"cartera/internal/metrics"
	"cartera/internal/services/budget"
	"cartera/internal/tools"
	"cartera/pkg/logger"
)

// AssistantConfig bounds one assistant's reasoning and spending
type AssistantConfig struct {
	MaxIterations   int
	ToolTimeout     time.Duration
	DefaultEstimate decimal.Decimal
}

// Assistant answers portfolio questions, gating every query on the
// budget guard before any model call happens
type Assistant struct {
	client   ai.Client
	registry *tools.Registry
	guard    *budget.Guard
	ledger   *budget.Ledger
	rates    *ai.RateTable
	cfg      AssistantConfig
	log      *logger.Logger
}

// NewAssistant wires the assistant
func NewAssistant(client ai.Client, registry *tools.Registry, guard *budget.Guard, ledger *budget.Ledger, rates *ai.RateTable, cfg AssistantConfig) *Assistant {
	if cfg.DefaultEstimate.IsZero() {
		cfg.DefaultEstimate = decimal.RequireFromString("0.01")
	}
	return &Assistant{
		client:   client,
		registry: registry,
		guard:    guard,
		ledger:   ledger,
		rates:    rates,
		cfg:      cfg,
		log:      logger.Get().With("component", "assistant"),
	}
}

// Query answers one question. The budget check runs first: a rejected
// query makes no model call and writes nothing to the ledger.
func (a *Assistant) Query(ctx context.Context, question, queryType string) (string, error) {
	start := time.Now()

	if err := a.guard.Check(ctx, a.cfg.DefaultEstimate); err != nil {
		metrics.RecordQuery(queryType, "rejected", time.Since(start))
		return "", err
	}

	status := a.guard.Status(ctx)
	if status.Level == budget.LevelWarning || status.Level == budget.LevelCritical {
		a.log.Warnw("budget alert",
			"level", status.Level,
			"spent", status.TotalSpent.StringFixed(4),
			"limit", status.TotalLimit.StringFixed(2),
			"remaining", status.TotalRemaining.StringFixed(4))
	}

	session := uuid.NewString()
	log := a.log.With("session", session, "query_type", queryType)
	log.Infow("query started", "question", question)

	tracked := NewTrackedClient(a.client, a.ledger, a.guard, a.rates, queryType)
	executor := NewExecutor(tracked, a.registry, a.cfg.MaxIterations, a.cfg.ToolTimeout, log)

	answer, err := executor.Run(ctx, question)
	if err != nil {
		metrics.RecordQuery(queryType, "error", time.Since(start))
		log.Warnw("query failed", "state", executor.State(), "error", err)
		return "", err
	}

	metrics.RecordQuery(queryType, "success", time.Since(start))
	log.Infow("query answered", "duration", time.Since(start))
	return answer, nil
}

// Status exposes the guard's budget status for the CLI
func (a *Assistant) Status(ctx context.Context) budget.Status {
	return a.guard.Status(ctx)
}
