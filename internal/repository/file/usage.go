package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cartera/internal/domain/usage"
	"cartera/pkg/errors"
)

// Compile-time check that we implement the interface
var _ usage.Store = (*UsageStore)(nil)

// usageRow is the on-disk encoding of a ledger record
type usageRow struct {
	Timestamp    string  `json:"timestamp"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	QueryType    string  `json:"query_type"`
}

// UsageStore persists ledger records as a JSON array on disk.
// Every append rewrites the whole file; the ledger is small enough
// (personal use) that this stays cheap.
type UsageStore struct {
	path string
	mu   sync.Mutex
}

// NewUsageStore creates a store backed by the given file path
func NewUsageStore(path string) *UsageStore {
	return &UsageStore{path: path}
}

// Load reads the full sequence of records. A missing file is an empty ledger.
func (s *UsageStore) Load(ctx context.Context) ([]usage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Append adds one record by rewriting the persisted sequence
func (s *UsageStore) Append(ctx context.Context, record usage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	records = append(records, record)
	return s.save(records)
}

func (s *UsageStore) load() ([]usage.Record, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrPersistence, "read %s: %v", s.path, err)
	}

	var rows []usageRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrPersistence, "decode %s: %v", s.path, err)
	}

	records := make([]usage.Record, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrPersistence, "invalid timestamp %q in %s", row.Timestamp, s.path)
		}
		records = append(records, usage.Record{
			Timestamp:    ts,
			Model:        row.Model,
			InputTokens:  row.InputTokens,
			OutputTokens: row.OutputTokens,
			Cost:         decimal.NewFromFloat(row.Cost),
			QueryType:    row.QueryType,
		})
	}

	return records, nil
}

// save overwrites the whole sequence via a temp file and rename, so a crash
// mid-write never leaves a truncated ledger behind
func (s *UsageStore) save(records []usage.Record) error {
	rows := make([]usageRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, usageRow{
			Timestamp:    r.Timestamp.Format(time.RFC3339Nano),
			Model:        r.Model,
			InputTokens:  r.InputTokens,
			OutputTokens: r.OutputTokens,
			Cost:         r.Cost.InexactFloat64(),
			QueryType:    r.QueryType,
		})
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrPersistence, "encode ledger: %v", err)
	}

	tmp := s.path + ".tmp"
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(errors.ErrPersistence, "create ledger dir: %v", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrPersistence, "write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrapf(errors.ErrPersistence, "rename %s: %v", tmp, err)
	}

	return nil
}
