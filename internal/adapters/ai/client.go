// Package ai provides the model client used by the reasoning loop,
// plus token and cost estimation for the usage ledger.
package ai

import "context"

// TokenUsage is the billed token count reported by the provider
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Completion is one model response
type Completion struct {
	Content string
	Usage   TokenUsage
	// HasUsage is false when the provider omitted token accounting,
	// in which case callers fall back to their own estimate
	HasUsage bool
}

// Client sends a single prompt and returns the model's completion
type Client interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
	Model() string
}
