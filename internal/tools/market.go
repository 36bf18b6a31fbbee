package tools

import (
	"context"
	"fmt"
	"strings"

	"cartera/internal/adapters/market"
	"cartera/internal/domain/portfolio"
	"cartera/pkg/logger"
)

// Sheet symbols to market tickers for the ETFs tracked in the portfolio
var tickerMapping = map[string]string{
	"euro stoxx 50":     "FEZ",
	"etf euro stoxx 50": "FEZ",
	"dow jones":         "DIA",
	"etf dow jones us":  "DIA",
}

// MarketTools builds the market data tools
type MarketTools struct {
	source portfolio.Source
	quoter market.Quoter
	log    *logger.Logger
}

// NewMarketTools creates the market tool set
func NewMarketTools(source portfolio.Source, quoter market.Quoter) *MarketTools {
	return &MarketTools{
		source: source,
		quoter: quoter,
		log:    logger.Get().With("component", "market_tools"),
	}
}

// RegisterAll adds every market tool to the registry
func (mt *MarketTools) RegisterAll(registry *Registry) {
	registry.Register(New(
		"get_etf_prices",
		"Get current market prices for ETFs in portfolio. Shows real-time prices, daily changes, and P&L if purchase data available. Use when user asks about ETF performance, current values, or profit/loss.",
		mt.ETFPrices,
	))
}

// ETFPrices quotes each ETF position and renders price plus unrealized P&L
func (mt *MarketTools) ETFPrices(ctx context.Context, _ string) (string, error) {
	p, err := mt.source.Portfolio(ctx)
	if err != nil {
		return "", err
	}

	etfPositions := make([]portfolio.Position, 0)
	for _, pos := range p.Positions {
		if pos.AssetType == portfolio.AssetETF || strings.Contains(strings.ToLower(pos.Symbol), "etf") {
			etfPositions = append(etfPositions, pos)
		}
	}

	if len(etfPositions) == 0 {
		return "No ETF positions found in portfolio.", nil
	}

	var b strings.Builder
	b.WriteString("Current ETF Prices:\n\n")

	quoted := 0
	unmapped := make([]string, 0)
	for _, pos := range etfPositions {
		ticker := tickerFor(pos.Symbol)
		if ticker == "" {
			unmapped = append(unmapped, pos.Symbol)
			continue
		}

		quote, err := mt.quoter.Quote(ctx, ticker)
		if err != nil {
			mt.log.Warnf("quote failed for %s (%s): %v", pos.Symbol, ticker, err)
			continue
		}
		quoted++

		fmt.Fprintf(&b, "%s (%s):\n", quote.Name, ticker)
		fmt.Fprintf(&b, "  Current Price: $%s %s\n", money(quote.Price), quote.Currency)
		fmt.Fprintf(&b, "  Change: $%s (%s%%)\n", money(quote.Change), quote.ChangePercent.StringFixed(2))

		pnl := market.PositionPnL(pos.AveragePrice, quote.Price, pos.Quantity, string(pos.Currency))
		fmt.Fprintf(&b, "  Your Position: %s shares\n", pos.Quantity.StringFixed(2))
		fmt.Fprintf(&b, "  Cost Basis: $%s\n", money(pnl.CostBasis))
		fmt.Fprintf(&b, "  Current Value: $%s\n", money(pnl.CurrentValue))
		fmt.Fprintf(&b, "  P&L: $%s (%s%%)\n\n", money(pnl.Unrealized), pnl.Percent.StringFixed(2))
	}

	if quoted == 0 {
		if len(unmapped) > 0 {
			return "Could not identify ticker symbols for ETFs. Available ETFs: " +
				strings.Join(unmapped, ", "), nil
		}
		return "Failed to fetch ETF prices. Market may be closed or tickers incorrect.", nil
	}

	return b.String(), nil
}

// tickerFor resolves a sheet symbol to a market ticker. Symbols that
// already look like tickers pass through unchanged.
func tickerFor(symbol string) string {
	if ticker, ok := tickerMapping[strings.ToLower(strings.TrimSpace(symbol))]; ok {
		return ticker
	}
	trimmed := strings.TrimSpace(symbol)
	if len(trimmed) <= 5 && strings.ToUpper(trimmed) == trimmed && !strings.Contains(trimmed, " ") {
		return trimmed
	}
	return ""
}
