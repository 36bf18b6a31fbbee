package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"cartera/internal/adapters/rates"
	"cartera/internal/domain/portfolio"
)

// PortfolioTools builds the portfolio inspection tools over a shared
// source and rates provider
type PortfolioTools struct {
	source portfolio.Source
	rates  rates.Provider
}

// NewPortfolioTools creates the portfolio tool set
func NewPortfolioTools(source portfolio.Source, ratesProvider rates.Provider) *PortfolioTools {
	return &PortfolioTools{source: source, rates: ratesProvider}
}

// RegisterAll adds every portfolio tool to the registry
func (pt *PortfolioTools) RegisterAll(registry *Registry) {
	registry.Register(New(
		"get_portfolio_summary",
		"Get overall portfolio summary including total value, positions count, platforms, and currencies. Use this for general portfolio questions.",
		pt.Summary,
	))
	registry.Register(New(
		"get_positions",
		"Get list of all positions, optionally filtered by platform. Input: platform name (optional, e.g., 'Lulo', 'Trii') or empty string for all positions.",
		pt.Positions,
	))
	registry.Register(New(
		"get_allocation_by_platform",
		"Get portfolio allocation breakdown by platform showing percentage per platform. Use this when user asks about distribution across platforms.",
		pt.AllocationByPlatform,
	))
	registry.Register(New(
		"get_allocation_by_currency",
		"Get portfolio allocation breakdown by currency (COP vs USD). Use this when user asks about currency exposure.",
		pt.AllocationByCurrency,
	))
	registry.Register(New(
		"get_allocation_by_asset_type",
		"Get portfolio allocation breakdown by asset type (stocks, ETFs, funds, cash). Use this when user asks about diversification.",
		pt.AllocationByAssetType,
	))
}

// Summary renders the portfolio totals and currency breakdown
func (pt *PortfolioTools) Summary(ctx context.Context, _ string) (string, error) {
	p, err := pt.source.Portfolio(ctx)
	if err != nil {
		return "", err
	}

	conversionRates := pt.rates.Rates(ctx)
	usdRate := conversionRates[portfolio.USD]

	totalCOP := p.TotalValueCOP(conversionRates)
	copTotal := p.TotalValueByCurrency(portfolio.COP)
	usdTotal := p.TotalValueByCurrency(portfolio.USD)

	currencies := make([]string, 0)
	for _, c := range p.Currencies() {
		currencies = append(currencies, string(c))
	}

	var b strings.Builder
	b.WriteString("Portfolio Summary:\n")
	fmt.Fprintf(&b, "- Total Positions: %d\n", p.Len())
	fmt.Fprintf(&b, "- Total Value: $%s COP\n", money(totalCOP))
	fmt.Fprintf(&b, "- Platforms: %s\n", strings.Join(p.Platforms(), ", "))
	fmt.Fprintf(&b, "- Currencies: %s\n\n", strings.Join(currencies, ", "))
	b.WriteString("By Currency:\n")
	fmt.Fprintf(&b, "- COP: $%s\n", money(copTotal))
	fmt.Fprintf(&b, "- USD: $%s ($%s COP at rate %s)\n\n", money(usdTotal), money(usdTotal.Mul(usdRate)), money(usdRate))
	fmt.Fprintf(&b, "Current Exchange Rate: 1 USD = %s COP\n", money(usdRate))

	return b.String(), nil
}

// Positions lists positions, optionally filtered by platform
func (pt *PortfolioTools) Positions(ctx context.Context, input string) (string, error) {
	p, err := pt.source.Portfolio(ctx)
	if err != nil {
		return "", err
	}

	platform := strings.TrimSpace(input)
	positions := p.Positions
	if platform != "" {
		positions = p.PositionsByPlatform(platform)
		if len(positions) == 0 {
			return fmt.Sprintf("No positions found for platform: %s", platform), nil
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Positions (%d):\n\n", len(positions))
	for _, pos := range positions {
		fmt.Fprintf(&b, "- %s (%s)\n", pos.Symbol, pos.Platform)
		fmt.Fprintf(&b, "  Value: $%s %s\n", money(pos.TotalValue()), pos.Currency)
		fmt.Fprintf(&b, "  Type: %s\n\n", pos.AssetType)
	}

	return b.String(), nil
}

// AllocationByPlatform renders per-platform percentages, largest first
func (pt *PortfolioTools) AllocationByPlatform(ctx context.Context, _ string) (string, error) {
	return pt.allocation(ctx, "Allocation by Platform", (*portfolio.Portfolio).AllocationByPlatform)
}

// AllocationByCurrency renders per-currency percentages, largest first
func (pt *PortfolioTools) AllocationByCurrency(ctx context.Context, _ string) (string, error) {
	return pt.allocation(ctx, "Allocation by Currency", (*portfolio.Portfolio).AllocationByCurrency)
}

// AllocationByAssetType renders per-asset-type percentages, largest first
func (pt *PortfolioTools) AllocationByAssetType(ctx context.Context, _ string) (string, error) {
	return pt.allocation(ctx, "Allocation by Asset Type", (*portfolio.Portfolio).AllocationByAssetType)
}

func (pt *PortfolioTools) allocation(
	ctx context.Context,
	title string,
	breakdown func(*portfolio.Portfolio, portfolio.Rates) map[string]decimal.Decimal,
) (string, error) {
	p, err := pt.source.Portfolio(ctx)
	if err != nil {
		return "", err
	}

	allocations := breakdown(p, pt.rates.Rates(ctx))

	type entry struct {
		key     string
		percent decimal.Decimal
	}
	entries := make([]entry, 0, len(allocations))
	for k, v := range allocations {
		entries = append(entries, entry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].percent.Equal(entries[j].percent) {
			return entries[i].key < entries[j].key
		}
		return entries[i].percent.GreaterThan(entries[j].percent)
	})

	var b strings.Builder
	b.WriteString(title + ":\n\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s%%\n", e.key, e.percent.StringFixed(2))
	}

	return b.String(), nil
}

// money formats a decimal amount with thousand separators and two decimals
func money(v decimal.Decimal) string {
	return humanize.CommafWithDigits(v.InexactFloat64(), 2)
}
