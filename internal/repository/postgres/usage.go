package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/domain/usage"
	"cartera/pkg/errors"
)

// Compile-time check that we implement the interface
var _ usage.Store = (*UsageStore)(nil)

// UsageStore implements usage.Store over PostgreSQL for setups where
// several processes share one ledger
type UsageStore struct {
	db DBTX
}

// NewUsageStore creates a new usage store
func NewUsageStore(db DBTX) *UsageStore {
	return &UsageStore{db: db}
}

// EnsureSchema creates the ledger table if it does not exist yet
func (s *UsageStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usage_log (
			id            BIGSERIAL PRIMARY KEY,
			recorded_at   TIMESTAMPTZ NOT NULL,
			model         TEXT NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost          NUMERIC(12, 8) NOT NULL,
			query_type    TEXT NOT NULL
		)`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(errors.ErrPersistence, "ensure usage_log schema: %v", err)
	}
	return nil
}

type usageRow struct {
	RecordedAt   time.Time `db:"recorded_at"`
	Model        string    `db:"model"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	Cost         string    `db:"cost"`
	QueryType    string    `db:"query_type"`
}

// Load reads the full sequence of records in append order
func (s *UsageStore) Load(ctx context.Context) ([]usage.Record, error) {
	query := `
		SELECT recorded_at, model, input_tokens, output_tokens, cost, query_type
		FROM usage_log
		ORDER BY id`

	var rows []usageRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrapf(errors.ErrPersistence, "load usage_log: %v", err)
	}

	records := make([]usage.Record, 0, len(rows))
	for _, row := range rows {
		cost, err := decimal.NewFromString(row.Cost)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrPersistence, "invalid cost %q in usage_log", row.Cost)
		}
		records = append(records, usage.Record{
			Timestamp:    row.RecordedAt,
			Model:        row.Model,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			Cost:         cost,
			QueryType:    row.QueryType,
		})
	}

	return records, nil
}

// Append inserts a single record
func (s *UsageStore) Append(ctx context.Context, record usage.Record) error {
	query := `
		INSERT INTO usage_log (recorded_at, model, input_tokens, output_tokens, cost, query_type)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		record.Timestamp, record.Model, record.InputTokens, record.OutputTokens,
		record.Cost.String(), record.QueryType,
	)
	if err != nil {
		return errors.Wrapf(errors.ErrPersistence, "insert usage_log: %v", err)
	}

	return nil
}
