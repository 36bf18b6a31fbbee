package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartera/internal/domain/portfolio"
	"cartera/pkg/errors"
)

type stubSource struct {
	portfolio *portfolio.Portfolio
	err       error
}

func (s *stubSource) Portfolio(ctx context.Context) (*portfolio.Portfolio, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.portfolio, nil
}

type stubRates struct{}

func (stubRates) Rates(ctx context.Context) portfolio.Rates {
	return portfolio.Rates{
		portfolio.COP: decimal.NewFromInt(1),
		portfolio.USD: decimal.NewFromInt(4000),
	}
}

func samplePortfolio() *portfolio.Portfolio {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &portfolio.Portfolio{Positions: []portfolio.Position{
		{
			Platform: "trii", Symbol: "ECOPETROL", AssetType: portfolio.AssetStock,
			Quantity: decimal.NewFromInt(100), AveragePrice: decimal.NewFromInt(2500),
			Currency: portfolio.COP, PurchaseDate: date,
		},
		{
			Platform: "etoro", Symbol: "Euro Stoxx 50", AssetType: portfolio.AssetETF,
			Quantity: decimal.NewFromInt(2), AveragePrice: decimal.NewFromInt(400),
			Currency: portfolio.USD, PurchaseDate: date,
		},
		{
			Platform: "nu", Symbol: "CASH", AssetType: portfolio.AssetCash,
			Quantity: decimal.NewFromInt(1), AveragePrice: decimal.NewFromInt(1000000),
			Currency: portfolio.COP, PurchaseDate: date,
		},
	}}
}

func newPortfolioTools(p *portfolio.Portfolio) *PortfolioTools {
	return NewPortfolioTools(&stubSource{portfolio: p}, stubRates{})
}

func TestSummary(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).Summary(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "Total Positions: 3")
	assert.Contains(t, out, "trii, etoro, nu")
	assert.Contains(t, out, "COP, USD")
	// 250,000 + 800*4,000 + 1,000,000
	assert.Contains(t, out, "4,450,000")
	assert.Contains(t, out, "1 USD = 4,000 COP")
}

func TestSummarySourceError(t *testing.T) {
	pt := NewPortfolioTools(&stubSource{err: errors.ErrUnavailable}, stubRates{})
	_, err := pt.Summary(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestPositionsAll(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).Positions(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "Positions (3):")
	assert.Contains(t, out, "ECOPETROL (trii)")
	assert.Contains(t, out, "Type: etf")
}

func TestPositionsFilteredByPlatform(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).Positions(context.Background(), "trii")
	require.NoError(t, err)

	assert.Contains(t, out, "Positions (1):")
	assert.NotContains(t, out, "etoro")
}

func TestPositionsUnknownPlatform(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).Positions(context.Background(), "robinhood")
	require.NoError(t, err)
	assert.Equal(t, "No positions found for platform: robinhood", out)
}

func TestAllocationsSortedDescending(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).AllocationByCurrency(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "Allocation by Currency:")
	// USD (3,200,000 of 4,450,000) dominates and must come first
	usdIdx := strings.Index(out, "USD")
	copIdx := strings.Index(out, "COP")
	assert.Less(t, usdIdx, copIdx)
}

func TestAllocationByAssetType(t *testing.T) {
	out, err := newPortfolioTools(samplePortfolio()).AllocationByAssetType(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, out, "etf")
	assert.Contains(t, out, "stock")
	assert.Contains(t, out, "cash")
}
