package portfolio

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func position(platform, symbol string, assetType AssetType, qty, price string, currency Currency) Position {
	return Position{
		Platform:     platform,
		Symbol:       symbol,
		AssetType:    assetType,
		Quantity:     decimal.RequireFromString(qty),
		AveragePrice: decimal.RequireFromString(price),
		Currency:     currency,
		PurchaseDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testPortfolio() *Portfolio {
	return &Portfolio{Positions: []Position{
		position("trii", "ECOPETROL", AssetStock, "100", "2500", COP),   // 250,000 COP
		position("etoro", "VOO", AssetETF, "2", "400", USD),             // 800 USD
		position("davivienda", "CASH", AssetCash, "1", "1000000", COP),  // 1,000,000 COP
	}}
}

func TestPositionValidate(t *testing.T) {
	valid := position("trii", "ECOPETROL", AssetStock, "100", "2500", COP)
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Position)
	}{
		{"empty platform", func(p *Position) { p.Platform = "  " }},
		{"empty symbol", func(p *Position) { p.Symbol = "" }},
		{"bad asset type", func(p *Position) { p.AssetType = "crypto" }},
		{"zero quantity", func(p *Position) { p.Quantity = decimal.Zero }},
		{"negative price", func(p *Position) { p.AveragePrice = decimal.NewFromInt(-1) }},
		{"bad currency", func(p *Position) { p.Currency = "EUR" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPositionTotalValue(t *testing.T) {
	p := position("trii", "ECOPETROL", AssetStock, "100", "2500", COP)
	assert.True(t, p.TotalValue().Equal(decimal.NewFromInt(250000)))
}

func TestPortfolioTotalValueCOP(t *testing.T) {
	p := testPortfolio()
	rates := Rates{COP: decimal.NewFromInt(1), USD: decimal.NewFromInt(4000)}

	// 250,000 + 800*4000 + 1,000,000 = 4,450,000
	assert.True(t, p.TotalValueCOP(rates).Equal(decimal.NewFromInt(4450000)))
}

func TestPortfolioTotalValueCOPDefaultRates(t *testing.T) {
	p := testPortfolio()
	// nil rates fall back to USD=4000
	assert.True(t, p.TotalValueCOP(nil).Equal(decimal.NewFromInt(4450000)))
}

func TestPortfolioTotalValueByCurrency(t *testing.T) {
	p := testPortfolio()
	assert.True(t, p.TotalValueByCurrency(COP).Equal(decimal.NewFromInt(1250000)))
	assert.True(t, p.TotalValueByCurrency(USD).Equal(decimal.NewFromInt(800)))
}

func TestPortfolioAllocations(t *testing.T) {
	p := testPortfolio()
	rates := Rates{COP: decimal.NewFromInt(1), USD: decimal.NewFromInt(4000)}

	byCurrency := p.AllocationByCurrency(rates)
	require.Len(t, byCurrency, 2)
	// USD share: 3,200,000 / 4,450,000
	usd, _ := byCurrency["USD"].Float64()
	cop, _ := byCurrency["COP"].Float64()
	assert.InDelta(t, 71.91, usd, 0.01)
	assert.InDelta(t, 28.09, cop, 0.01)

	byPlatform := p.AllocationByPlatform(rates)
	require.Len(t, byPlatform, 3)

	sum := decimal.Zero
	for _, v := range byPlatform {
		sum = sum.Add(v)
	}
	total, _ := sum.Float64()
	assert.InDelta(t, 100.0, total, 0.0001)

	byType := p.AllocationByAssetType(rates)
	require.Len(t, byType, 3)
}

func TestPortfolioAllocationsEmpty(t *testing.T) {
	p := &Portfolio{}
	assert.Empty(t, p.AllocationByPlatform(nil))
	assert.Empty(t, p.AllocationByCurrency(nil))
	assert.Empty(t, p.AllocationByAssetType(nil))
}

func TestPortfolioFilters(t *testing.T) {
	p := testPortfolio()

	trii := p.PositionsByPlatform("trii")
	require.Len(t, trii, 1)
	assert.Equal(t, "ECOPETROL", trii[0].Symbol)

	voo := p.PositionsBySymbol("voo")
	require.Len(t, voo, 1)
	assert.Equal(t, "VOO", voo[0].Symbol)

	assert.Empty(t, p.PositionsByPlatform("nubank"))
}

func TestPortfolioSets(t *testing.T) {
	p := testPortfolio()
	assert.Equal(t, []string{"trii", "etoro", "davivienda"}, p.Platforms())
	assert.Equal(t, []Currency{COP, USD}, p.Currencies())
	assert.Equal(t, 3, p.Len())
}
