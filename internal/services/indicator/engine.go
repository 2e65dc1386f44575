// Package indicator computes the rolling technical indicators the signal
// synthesis is built on: twice-smoothed stochastic oscillator, CCI, Wilder's
// DMI/ADX, and the regression slope of an indicator series.
//
// All computations are pure functions of the input series and parameters.
// Insufficient history or degenerate arithmetic degrades to NaN, never to an
// error or a panic; downstream classification treats NaN as "no signal".
package indicator

import (
	"math"

	"SignalSynth/internal/domain/models"
)

// Params holds every rolling-window parameter in one place.
type Params struct {
	StochWindow int // raw %K look-back
	KSmooth     int // SMA length producing %K
	DSmooth     int // SMA length producing %D
	CCIPeriod   int
	DMIPeriod   int
	SlopeWindow int
}

// DefaultParams returns the parameter set the synthesis has always used.
func DefaultParams() Params {
	return Params{
		StochWindow: 55,
		KSmooth:     55,
		DSmooth:     36,
		CCIPeriod:   20,
		DMIPeriod:   14,
		SlopeWindow: 10,
	}
}

// Computed holds the aligned indicator series for one bar series.
type Computed struct {
	K       []float64
	D       []float64
	CCI     []float64
	PlusDI  []float64
	MinusDI []float64
	ADX     []float64
}

// Compute derives every indicator series for the given ascending bar series.
func Compute(bars []models.Bar, p Params) Computed {
	var c Computed
	c.K, c.D = Stochastic(bars, p.StochWindow, p.KSmooth, p.DSmooth)
	c.CCI = CCI(bars, p.CCIPeriod)
	c.PlusDI, c.MinusDI, c.ADX = DMI(bars, p.DMIPeriod)
	return c
}

// LastValid extracts the snapshot at the most recent bar where %K, %D and CCI
// are all defined. The DMI values at that bar may still be NaN; the
// classifier handles that. Returns false when no bar qualifies.
func LastValid(bars []models.Bar, c Computed, p Params) (models.IndicatorSnapshot, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if math.IsNaN(c.K[i]) || math.IsNaN(c.D[i]) || math.IsNaN(c.CCI[i]) {
			continue
		}
		// Slopes run over the valid prefix ending at i so a trailing
		// NaN gap cannot leak newer values into the fit.
		return models.IndicatorSnapshot{
			Time:    bars[i].Time,
			Close:   bars[i].Close,
			K:       c.K[i],
			D:       c.D[i],
			CCI:     c.CCI[i],
			PlusDI:  c.PlusDI[i],
			MinusDI: c.MinusDI[i],
			ADX:     c.ADX[i],
			SlopeK:  Slope(c.K[:i+1], p.SlopeWindow),
			SlopeD:  Slope(c.D[:i+1], p.SlopeWindow),
		}, true
	}
	return models.IndicatorSnapshot{}, false
}
