// Package tools exposes portfolio and market capabilities to the
// reasoning loop as named, string-in string-out tools.
package tools

import (
	"context"

	"cartera/pkg/errors"
)

// Tool represents a callable capability exposed to the agent.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Run performs the tool's action on the given input string.
	Run(ctx context.Context, input string) (string, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, input string) (string, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Run executes the underlying handler.
func (t *FunctionTool) Run(ctx context.Context, input string) (string, error) {
	if t.handler == nil {
		return "", errors.Wrapf(errors.ErrInternal, "tool %s has no handler", t.name)
	}

	return t.handler(ctx, input)
}
