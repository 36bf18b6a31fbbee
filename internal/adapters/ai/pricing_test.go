package ai

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRateTableEstimate(t *testing.T) {
	table := DefaultRateTable()

	tests := []struct {
		name         string
		model        string
		inputTokens  int
		outputTokens int
		want         string
	}{
		{
			name:         "gpt-3.5-turbo",
			model:        "openai/gpt-3.5-turbo",
			inputTokens:  1000,
			outputTokens: 500,
			want:         "0.0025",
		},
		{
			name:         "claude haiku",
			model:        "anthropic/claude-3-haiku",
			inputTokens:  2000,
			outputTokens: 1000,
			want:         "0.00175",
		},
		{
			name:         "gemini flash",
			model:        "google/gemini-flash-1.5",
			inputTokens:  1000,
			outputTokens: 1000,
			want:         "0.0014",
		},
		{
			name:         "zero tokens",
			model:        "openai/gpt-3.5-turbo",
			inputTokens:  0,
			outputTokens: 0,
			want:         "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Estimate(tt.model, tt.inputTokens, tt.outputTokens)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestRateTableUnknownModelFallsBack(t *testing.T) {
	table := DefaultRateTable()

	unknown := table.Estimate("some/new-model", 1000, 500)
	known := table.Estimate("openai/gpt-3.5-turbo", 1000, 500)

	assert.True(t, unknown.Equal(known))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hola"))
	// 10 words * 1.3 = 13
	assert.Equal(t, 13, EstimateTokens("how is my portfolio distributed across platforms right now today"))
}
