package indicator

import "math"

// NaN-aware helpers shared by the indicator computations. All series are
// aligned with the input bars: positions without a defined value carry NaN.

// NaNs returns a series of length n filled with NaN.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA computes the simple moving average of xs over window w. A position is
// NaN until w values are available or when any value in the window is NaN.
func SMA(xs []float64, w int) []float64 {
	out := NaNs(len(xs))
	if w <= 0 || len(xs) < w {
		return out
	}
	for i := w - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - w + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(w)
		}
	}
	return out
}

// rollingMin returns the minimum of xs over a trailing window w (NaN until full).
func rollingMin(xs []float64, w int) []float64 {
	out := NaNs(len(xs))
	for i := w - 1; i < len(xs); i++ {
		m := xs[i-w+1]
		for j := i - w + 2; j <= i; j++ {
			if xs[j] < m {
				m = xs[j]
			}
		}
		out[i] = m
	}
	return out
}

// rollingMax returns the maximum of xs over a trailing window w (NaN until full).
func rollingMax(xs []float64, w int) []float64 {
	out := NaNs(len(xs))
	for i := w - 1; i < len(xs); i++ {
		m := xs[i-w+1]
		for j := i - w + 2; j <= i; j++ {
			if xs[j] > m {
				m = xs[j]
			}
		}
		out[i] = m
	}
	return out
}

// lastValues returns the trailing n non-NaN values of xs, oldest first.
// The second result is false when fewer than n valid values exist.
func lastValues(xs []float64, n int) ([]float64, bool) {
	vals := make([]float64, 0, n)
	for i := len(xs) - 1; i >= 0 && len(vals) < n; i-- {
		if !math.IsNaN(xs[i]) {
			vals = append(vals, xs[i])
		}
	}
	if len(vals) < n {
		return nil, false
	}
	// reverse into chronological order
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
	return vals, true
}
