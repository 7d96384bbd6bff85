package units

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the fixed-point scale of both pair tokens.
const DefaultDecimals uint8 = 18

// ToDecimal scales a raw integer amount down by 10^decimals without rounding.
func ToDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// Format renders amount / 10^decimals as a decimal string with trailing zeros trimmed.
// A zero amount renders as "0".
func Format(amount *big.Int, decimals uint8) string {
	return ToDecimal(amount, decimals).String()
}
