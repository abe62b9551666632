package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatGrams renders a quantity with four decimals, e.g. "0.1639g".
func FormatGrams(q decimal.Decimal) string {
	return fmt.Sprintf("%sg", q.StringFixed(4))
}

// FormatINR renders an amount with two decimals, e.g. "₹1000.00".
func FormatINR(a decimal.Decimal) string {
	return fmt.Sprintf("₹%s", a.StringFixed(2))
}
