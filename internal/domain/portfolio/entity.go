// Package portfolio holds the investment portfolio domain model.
package portfolio

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cartera/pkg/errors"
)

// AssetType classifies a position
type AssetType string

const (
	AssetStock AssetType = "stock"
	AssetETF   AssetType = "etf"
	AssetFund  AssetType = "fund"
	AssetCash  AssetType = "cash"
)

// Currency is the denomination of a position
type Currency string

const (
	COP Currency = "COP"
	USD Currency = "USD"
)

// ValidAssetType reports whether t is one of the supported asset types
func ValidAssetType(t AssetType) bool {
	switch t {
	case AssetStock, AssetETF, AssetFund, AssetCash:
		return true
	}
	return false
}

// ValidCurrency reports whether c is one of the supported currencies
func ValidCurrency(c Currency) bool {
	return c == COP || c == USD
}

// Position is a single holding on one platform
type Position struct {
	Platform     string
	Symbol       string
	AssetType    AssetType
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	Currency     Currency
	PurchaseDate time.Time
}

// Validate checks the position invariants
func (p Position) Validate() error {
	if strings.TrimSpace(p.Platform) == "" {
		return errors.NewValidationError("platform", "cannot be empty", p.Platform)
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return errors.NewValidationError("symbol", "cannot be empty", p.Symbol)
	}
	if !ValidAssetType(p.AssetType) {
		return errors.NewValidationError("asset_type", "must be stock, etf, fund or cash", p.AssetType)
	}
	if !p.Quantity.IsPositive() {
		return errors.NewValidationError("quantity", "must be positive", p.Quantity)
	}
	if !p.AveragePrice.IsPositive() {
		return errors.NewValidationError("average_price", "must be positive", p.AveragePrice)
	}
	if !ValidCurrency(p.Currency) {
		return errors.NewValidationError("currency", "must be COP or USD", p.Currency)
	}
	return nil
}

// TotalValue returns quantity times average price, in the position's currency
func (p Position) TotalValue() decimal.Decimal {
	return p.Quantity.Mul(p.AveragePrice)
}

// Portfolio is the full set of positions
type Portfolio struct {
	Positions []Position
}

// Rates maps currency codes to their value in COP, e.g. {COP: 1, USD: 4000}
type Rates map[Currency]decimal.Decimal

// DefaultRates is the fallback conversion used when no live quote is available
func DefaultRates() Rates {
	return Rates{
		COP: decimal.NewFromInt(1),
		USD: decimal.NewFromInt(4000),
	}
}

// Len returns the number of positions
func (p *Portfolio) Len() int {
	return len(p.Positions)
}

// Platforms returns the distinct platform names, in first-seen order
func (p *Portfolio) Platforms() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, pos := range p.Positions {
		if !seen[pos.Platform] {
			seen[pos.Platform] = true
			out = append(out, pos.Platform)
		}
	}
	return out
}

// Currencies returns the distinct currencies, in first-seen order
func (p *Portfolio) Currencies() []Currency {
	seen := make(map[Currency]bool)
	out := make([]Currency, 0)
	for _, pos := range p.Positions {
		if !seen[pos.Currency] {
			seen[pos.Currency] = true
			out = append(out, pos.Currency)
		}
	}
	return out
}

// TotalValueByCurrency sums position values denominated in the given currency
func (p *Portfolio) TotalValueByCurrency(currency Currency) decimal.Decimal {
	total := decimal.Zero
	for _, pos := range p.Positions {
		if pos.Currency == currency {
			total = total.Add(pos.TotalValue())
		}
	}
	return total
}

// TotalValueCOP converts every position to COP using rates and sums them.
// Currencies missing from rates convert at 1:1.
func (p *Portfolio) TotalValueCOP(rates Rates) decimal.Decimal {
	if rates == nil {
		rates = DefaultRates()
	}

	total := decimal.Zero
	for _, pos := range p.Positions {
		total = total.Add(pos.TotalValue().Mul(rateFor(rates, pos.Currency)))
	}
	return total
}

// AllocationByPlatform returns percentage of COP value held per platform
func (p *Portfolio) AllocationByPlatform(rates Rates) map[string]decimal.Decimal {
	return p.allocation(rates, func(pos Position) string { return pos.Platform })
}

// AllocationByCurrency returns percentage of COP value held per currency
func (p *Portfolio) AllocationByCurrency(rates Rates) map[string]decimal.Decimal {
	return p.allocation(rates, func(pos Position) string { return string(pos.Currency) })
}

// AllocationByAssetType returns percentage of COP value held per asset type
func (p *Portfolio) AllocationByAssetType(rates Rates) map[string]decimal.Decimal {
	return p.allocation(rates, func(pos Position) string { return string(pos.AssetType) })
}

// PositionsByPlatform returns the positions held on the given platform
func (p *Portfolio) PositionsByPlatform(platform string) []Position {
	out := make([]Position, 0)
	for _, pos := range p.Positions {
		if pos.Platform == platform {
			out = append(out, pos)
		}
	}
	return out
}

// PositionsBySymbol returns the positions matching symbol, case-insensitive
func (p *Portfolio) PositionsBySymbol(symbol string) []Position {
	out := make([]Position, 0)
	for _, pos := range p.Positions {
		if strings.EqualFold(pos.Symbol, symbol) {
			out = append(out, pos)
		}
	}
	return out
}

func (p *Portfolio) allocation(rates Rates, key func(Position) string) map[string]decimal.Decimal {
	if len(p.Positions) == 0 {
		return map[string]decimal.Decimal{}
	}
	if rates == nil {
		rates = DefaultRates()
	}

	total := p.TotalValueCOP(rates)
	if total.IsZero() {
		return map[string]decimal.Decimal{}
	}

	values := make(map[string]decimal.Decimal)
	for _, pos := range p.Positions {
		value := pos.TotalValue().Mul(rateFor(rates, pos.Currency))
		values[key(pos)] = values[key(pos)].Add(value)
	}

	hundred := decimal.NewFromInt(100)
	out := make(map[string]decimal.Decimal, len(values))
	for k, v := range values {
		out[k] = v.Div(total).Mul(hundred)
	}
	return out
}

func rateFor(rates Rates, currency Currency) decimal.Decimal {
	if rate, ok := rates[currency]; ok {
		return rate
	}
	return decimal.NewFromInt(1)
}
