package indicator

import (
	"math"

	"SignalSynth/internal/domain/models"
)

// Stochastic computes the twice-smoothed stochastic oscillator.
//
// Raw %K over window w is 100*(close-minLow)/(maxHigh-minLow); a flat window
// (zero denominator) yields NaN rather than an error. Raw %K smoothed by
// SMA(kSmooth) gives %K, which smoothed again by SMA(dSmooth) gives %D.
func Stochastic(bars []models.Bar, w, kSmooth, dSmooth int) (k, d []float64) {
	n := len(bars)
	lows := make([]float64, n)
	highs := make([]float64, n)
	for i, b := range bars {
		lows[i] = b.Low
		highs[i] = b.High
	}

	rawK := NaNs(n)
	if w > 0 && n >= w {
		minLow := rollingMin(lows, w)
		maxHigh := rollingMax(highs, w)
		for i := w - 1; i < n; i++ {
			den := maxHigh[i] - minLow[i]
			if den == 0 || math.IsNaN(den) {
				continue
			}
			rawK[i] = 100 * (bars[i].Close - minLow[i]) / den
		}
	}

	k = SMA(rawK, kSmooth)
	d = SMA(k, dSmooth)
	return k, d
}
