package aggregator

import "math"

// PctDecimals is the precision of every percentage the engine produces.
const PctDecimals = 1

// Ratio returns n/d, or 0 when d <= 0 or either operand is not finite.
func Ratio(n, d float64) float64 {
	if !finite(n) || !finite(d) || d <= 0 {
		return 0
	}
	return n / d
}

// Pct returns n/d scaled to 100 and rounded half-up to decimals places.
func Pct(n, d float64, decimals int) float64 {
	return RoundTo(Ratio(n, d)*100, decimals)
}

// RoundTo rounds half-up (toward +Inf on ties) to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	if !finite(v) {
		return 0
	}
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	r := math.Floor(v*scale+0.5) / scale
	if !finite(r) {
		return v
	}
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
