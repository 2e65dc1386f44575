package indicator

import (
	"math"

	"SignalSynth/internal/domain/models"
)

// DMI computes Wilder's Directional Movement Index: +DI, -DI and ADX over the
// given period. +DI/-DI need period+1 bars before the first value; ADX needs
// a second Wilder window on top of that (first value at index 2*period-1).
// Everything earlier is NaN.
func DMI(bars []models.Bar, period int) (plusDI, minusDI, adx []float64) {
	n := len(bars)
	plusDI, minusDI, adx = NaNs(n), NaNs(n), NaNs(n)
	if period <= 0 || n < period+1 {
		return plusDI, minusDI, adx
	}

	tr := make([]float64, n)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		h, l, pc := bars[i].High, bars[i].Low, bars[i-1].Close
		tr[i] = math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))

		up := h - bars[i-1].High
		down := bars[i-1].Low - l
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing: seed with the sum of the first period values, then
	// s = s - s/period + x.
	var sTR, sPlus, sMinus float64
	for i := 1; i <= period; i++ {
		sTR += tr[i]
		sPlus += plusDM[i]
		sMinus += minusDM[i]
	}

	dx := NaNs(n)
	var sumDX, adxPrev float64
	dxCount := 0

	for i := period; i < n; i++ {
		if i > period {
			sTR = sTR - sTR/float64(period) + tr[i]
			sPlus = sPlus - sPlus/float64(period) + plusDM[i]
			sMinus = sMinus - sMinus/float64(period) + minusDM[i]
		}
		if sTR == 0 {
			continue
		}
		p := 100 * sPlus / sTR
		m := 100 * sMinus / sTR
		plusDI[i] = p
		minusDI[i] = m

		if p+m == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(p-m) / (p + m)

		dxCount++
		if dxCount < period {
			sumDX += dx[i]
			continue
		}
		if dxCount == period {
			sumDX += dx[i]
			adxPrev = sumDX / float64(period)
		} else {
			adxPrev = (adxPrev*float64(period-1) + dx[i]) / float64(period)
		}
		adx[i] = adxPrev
	}
	return plusDI, minusDI, adx
}
