package valueobject

import "github.com/shopspring/decimal"

// Tolerance is the fixed currency-unit threshold below which two monetary
// values are treated as equal. It absorbs floating-point drift from upstream
// systems that computed amounts in binary floats.
var Tolerance = decimal.NewFromFloat(0.01)

// Round2 rounds a monetary amount to 2 decimal places (half away from zero).
// Every monetary value crossing a boundary in this system passes through it.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether two amounts differ by no more than Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}
