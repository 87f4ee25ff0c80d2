package ledger

import "github.com/shopspring/decimal"

// Epsilon is the tolerance under which an amount counts as settled.
var Epsilon = decimal.RequireFromString("0.01")

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsNegligible reports whether |d| <= Epsilon.
func IsNegligible(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// exceedsEpsilon reports whether d > Epsilon.
func exceedsEpsilon(d decimal.Decimal) bool {
	return d.GreaterThan(Epsilon)
}
