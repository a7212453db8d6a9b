package errors

import (
	"math"
)

// CheckScalar checks a single scalar value for numerical divergence.
// NaN and ±Inf are both treated as undefined.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalDivergenceError(operation, iteration, value)
	}
	return nil
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
