package usage

import (
	"time"

	"github.com/shopspring/decimal"

	"cartera/pkg/errors"
)

// Record is one entry in the usage ledger, written once per completed
// model call and never mutated afterwards.
type Record struct {
	Timestamp    time.Time       `json:"timestamp"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Cost         decimal.Decimal `json:"cost"`
	QueryType    string          `json:"query_type"`
}

// Validate checks the record invariants before it enters the ledger
func (r Record) Validate() error {
	if r.Model == "" {
		return errors.NewValidationError("model", "cannot be empty", r.Model)
	}
	if r.InputTokens < 0 {
		return errors.NewValidationError("input_tokens", "cannot be negative", r.InputTokens)
	}
	if r.OutputTokens < 0 {
		return errors.NewValidationError("output_tokens", "cannot be negative", r.OutputTokens)
	}
	if r.Cost.IsNegative() {
		return errors.NewValidationError("cost", "cannot be negative", r.Cost)
	}
	if r.Timestamp.IsZero() {
		return errors.NewValidationError("timestamp", "cannot be zero", r.Timestamp)
	}
	return nil
}

// SameDay reports whether the record falls on the same calendar day as ref,
// evaluated in ref's location
func (r Record) SameDay(ref time.Time) bool {
	y1, m1, d1 := r.Timestamp.In(ref.Location()).Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
