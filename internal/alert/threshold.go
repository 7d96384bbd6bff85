package alert

import (
	"github.com/shopspring/decimal"

	"pairAlert/internal/model"
	"pairAlert/internal/units"
)

// Thresholds are the per-side minimum decimal amounts for a swap alert.
type Thresholds struct {
	Token0 decimal.Decimal
	Token1 decimal.Decimal
}

// Passes reports whether any swap amount reaches its side's threshold.
func (t Thresholds) Passes(ev model.SwapEvent, decimals uint8) bool {
	return units.ToDecimal(ev.Amount0In, decimals).GreaterThanOrEqual(t.Token0) ||
		units.ToDecimal(ev.Amount0Out, decimals).GreaterThanOrEqual(t.Token0) ||
		units.ToDecimal(ev.Amount1In, decimals).GreaterThanOrEqual(t.Token1) ||
		units.ToDecimal(ev.Amount1Out, decimals).GreaterThanOrEqual(t.Token1)
}
