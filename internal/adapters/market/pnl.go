package market

import "github.com/shopspring/decimal"

// PnL is the unrealized result of holding a position at the current price
type PnL struct {
	CostBasis     decimal.Decimal
	CurrentValue  decimal.Decimal
	Unrealized    decimal.Decimal
	Percent       decimal.Decimal
	Currency      string
}

// PositionPnL computes cost basis and unrealized P&L for a holding
func PositionPnL(purchasePrice, currentPrice, quantity decimal.Decimal, currency string) PnL {
	costBasis := purchasePrice.Mul(quantity)
	currentValue := currentPrice.Mul(quantity)
	unrealized := currentValue.Sub(costBasis)

	percent := decimal.Zero
	if costBasis.IsPositive() {
		percent = unrealized.Div(costBasis).Mul(decimal.NewFromInt(100))
	}

	return PnL{
		CostBasis:    costBasis,
		CurrentValue: currentValue,
		Unrealized:   unrealized,
		Percent:      percent,
		Currency:     currency,
	}
}
