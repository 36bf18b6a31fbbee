package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/domain/usage"
)

func testRecord(cost float64, queryType string) usage.Record {
	return usage.Record{
		Timestamp:    time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
		Model:        "openai/gpt-3.5-turbo",
		InputTokens:  1200,
		OutputTokens: 340,
		Cost:         decimal.NewFromFloat(cost),
		QueryType:    queryType,
	}
}

func TestUsageStoreMissingFileIsEmpty(t *testing.T) {
	store := NewUsageStore(filepath.Join(t.TempDir(), "usage.json"))

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUsageStoreAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	store := NewUsageStore(path)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testRecord(0.0025, "summary")))
	require.NoError(t, store.Append(ctx, testRecord(0.01, "analysis")))

	// A fresh store over the same file sees both records
	reloaded, err := NewUsageStore(path).Load(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded, 2)

	assert.Equal(t, "openai/gpt-3.5-turbo", reloaded[0].Model)
	assert.Equal(t, 1200, reloaded[0].InputTokens)
	assert.Equal(t, 340, reloaded[0].OutputTokens)
	assert.Equal(t, "summary", reloaded[0].QueryType)
	assert.Equal(t, "analysis", reloaded[1].QueryType)
	assert.True(t, reloaded[0].Timestamp.Equal(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)))
}

func TestUsageStoreRoundTripPreservesTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	store := NewUsageStore(path)
	ctx := context.Background()

	costs := []float64{0.0025, 0.24, 0.000125}
	total := decimal.Zero
	for _, c := range costs {
		rec := testRecord(c, "general")
		total = total.Add(rec.Cost)
		require.NoError(t, store.Append(ctx, rec))
	}

	reloaded, err := NewUsageStore(path).Load(ctx)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, r := range reloaded {
		sum = sum.Add(r.Cost)
	}
	assert.True(t, total.Equal(sum), "expected %s, got %s", total, sum)
}

func TestUsageStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.json")
	store := NewUsageStore(path)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, testRecord(0.01, "general")))

	// Truncate the file mid-array
	require.NoError(t, os.WriteFile(path, []byte(`[{"timestamp": "not-a-date"`), 0o644))

	_, err := store.Load(ctx)
	assert.Error(t, err)
}
