package sampler

import "math"

// isFinite reports whether x is neither NaN nor an infinity — used by tests
// asserting the render path never produces a blown-up sample.
func isFinite(x float32) bool {
	return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
}
