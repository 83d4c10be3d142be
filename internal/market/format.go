package market

import "github.com/shopspring/decimal"

// FormatPrice renders a price as dollars with two decimals, e.g. "$10.00".
func FormatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// FormatChange renders a percentage change with an explicit sign, e.g. "+0.00%".
// The sign follows the unrounded value, so -0.001 is "-0.00%".
func FormatChange(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2) + "%"
	}
	return "-" + d.Abs().StringFixed(2) + "%"
}
