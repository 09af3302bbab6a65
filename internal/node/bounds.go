package node

import "math"

// Bounds of the editable tunables.
const (
	MaxCount      = 999
	MaxThroughput = 250.0
	MinTier       = 1
)

// displayTolerance is how close to an integer a value must be to display as
// that integer.
const displayTolerance = 0.01

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// Round prepares a computed value for display: values within 0.01 of their
// truncation show as that integer, others are rounded to two decimals.
func Round(v float64) float64 {
	t := math.Trunc(v)
	if math.Abs(v-t) < displayTolerance {
		return t
	}
	return math.Round(v*100) / 100
}
