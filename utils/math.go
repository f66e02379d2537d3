package utils

import "math"

// AbsInt returns the absolute value of the given int.
func AbsInt(n int) int {
	if n < 0 {
		return -1 * n
	}
	return n
}

// ClampF64 restricts a number to be within a range.
func ClampF64(n, low, high float64) float64 {
	return math.Max(math.Min(n, high), low)
}
