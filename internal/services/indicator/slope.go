package indicator

import "math"

// Slope returns the ordinary least-squares regression slope of the trailing
// n non-NaN values of xs against the index 0..n-1. It returns NaN when fewer
// than n valid values exist or when the fit is degenerate.
func Slope(xs []float64, n int) float64 {
	y, ok := lastValues(xs, n)
	if !ok || n < 2 {
		return math.NaN()
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	fn := float64(n)
	den := fn*sumXX - sumX*sumX
	if den == 0 {
		return math.NaN()
	}
	s := (fn*sumXY - sumX*sumY) / den
	if math.IsInf(s, 0) {
		return math.NaN()
	}
	return s
}
