package ai

import "strings"

// Words average out to roughly 1.3 tokens each across the supported
// models; close enough for a pre-flight estimate that exact usage from
// the provider will override.
const tokensPerWord = 1.3

// EstimateTokens approximates the token count of text without a
// model-specific tokenizer
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}
