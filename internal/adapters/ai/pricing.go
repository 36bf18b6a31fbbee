package ai

import (
	"github.com/shopspring/decimal"
)

// ModelRates holds per-1K-token prices in USD
type ModelRates struct {
	InputPer1K  decimal.Decimal
	OutputPer1K decimal.Decimal
}

// RateTable maps model identifiers to their token prices. Unknown models
// fall back to the default model's rates so every call gets a nonzero
// cost on the ledger.
type RateTable struct {
	rates        map[string]ModelRates
	defaultModel string
}

const defaultRateModel = "openai/gpt-3.5-turbo"

// DefaultRateTable returns the built-in price list
func DefaultRateTable() *RateTable {
	return &RateTable{
		rates: map[string]ModelRates{
			"openai/gpt-3.5-turbo": {
				InputPer1K:  decimal.RequireFromString("0.0015"),
				OutputPer1K: decimal.RequireFromString("0.002"),
			},
			"anthropic/claude-3-haiku": {
				InputPer1K:  decimal.RequireFromString("0.00025"),
				OutputPer1K: decimal.RequireFromString("0.00125"),
			},
			"google/gemini-flash-1.5": {
				InputPer1K:  decimal.RequireFromString("0.00035"),
				OutputPer1K: decimal.RequireFromString("0.00105"),
			},
		},
		defaultModel: defaultRateModel,
	}
}

// Rates returns the price entry for model, falling back to the default
// model when it is not listed
func (t *RateTable) Rates(model string) ModelRates {
	if rates, ok := t.rates[model]; ok {
		return rates
	}
	return t.rates[t.defaultModel]
}

// Estimate computes the USD cost of a call from its token counts
func (t *RateTable) Estimate(model string, inputTokens, outputTokens int) decimal.Decimal {
	rates := t.Rates(model)
	thousand := decimal.NewFromInt(1000)

	input := decimal.NewFromInt(int64(inputTokens)).Div(thousand).Mul(rates.InputPer1K)
	output := decimal.NewFromInt(int64(outputTokens)).Div(thousand).Mul(rates.OutputPer1K)

	return input.Add(output)
}
