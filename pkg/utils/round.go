package utils

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to the given number of decimal places.
// Uses decimal arithmetic so that values like 2.675 round as written.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
