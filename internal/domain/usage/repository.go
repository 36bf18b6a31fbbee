package usage

import "context"

// Store persists the ordered sequence of usage records.
//
// A missing backing store loads as an empty sequence, never an error.
// Append must leave the persisted sequence equal to the loaded sequence
// plus the new record; implementations may rewrite the whole sequence
// (file store) or insert a single row (SQL store).
type Store interface {
	Load(ctx context.Context) ([]Record, error)
	Append(ctx context.Context, record Record) error
}
