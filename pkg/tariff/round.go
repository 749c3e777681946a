package tariff

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to 2 decimal places for display.
// Calculations keep full precision and only round at the end.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Round2Ptr is Round2 for optional values.
func Round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := Round2(*v)
	return &r
}

func ptr(v float64) *float64 {
	return &v
}
