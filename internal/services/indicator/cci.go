package indicator

import (
	"math"

	"SignalSynth/internal/domain/models"
)

// cciConstant is Lambert's scaling factor.
const cciConstant = 0.015

// CCI computes the Commodity Channel Index over the given period:
// (TP - SMA(TP)) / (0.015 * mean deviation), TP = (H+L+C)/3.
// Positions before a full window, and windows with zero deviation, are NaN.
func CCI(bars []models.Bar, period int) []float64 {
	n := len(bars)
	out := NaNs(n)
	if period <= 0 || n < period {
		return out
	}

	tp := make([]float64, n)
	for i, b := range bars {
		tp[i] = (b.High + b.Low + b.Close) / 3
	}

	for i := period - 1; i < n; i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += tp[j]
		}
		mean := sum / float64(period)

		dev := 0.0
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			continue
		}
		out[i] = (tp[i] - mean) / (cciConstant * dev)
	}
	return out
}
