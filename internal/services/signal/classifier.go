// Package signal maps indicator snapshots to trading signal states and
// enriches emitted records with cross-timeframe trend context.
package signal

import (
	"math"

	"SignalSynth/internal/domain/models"
)

const (
	// ADXThreshold is the minimum trend strength for a "+" grade.
	ADXThreshold = 20.0
	// SlopeThreshold is the minimum |slope| of both %K and %D for a "+" grade.
	SlopeThreshold = 0.45
)

// Classify returns the signal state for the last valid snapshot of one
// (token, timeframe) pair. ok is false when the pair produces no signal;
// such pairs are dropped, never persisted as a "Neutral" row.
func Classify(s models.IndicatorSnapshot) (models.SignalState, bool) {
	if !s.Valid() {
		return "", false
	}

	kAboveD := s.K > s.D
	kBelowD := s.K < s.D
	cciBullish := s.CCI < -100
	cciBearish := s.CCI > 100
	dmiBullish := s.PlusDI > s.MinusDI && s.ADX > ADXThreshold
	dmiBearish := s.MinusDI > s.PlusDI && s.ADX > ADXThreshold
	strongSlopes := !math.IsNaN(s.SlopeK) && !math.IsNaN(s.SlopeD) &&
		math.Abs(s.SlopeK) > SlopeThreshold && math.Abs(s.SlopeD) > SlopeThreshold

	switch {
	case kAboveD && cciBullish:
		if dmiBullish && strongSlopes {
			return models.SignalBuyStrong, true
		}
		if !dmiBearish {
			return models.SignalBuy, true
		}
	case kBelowD && cciBearish:
		if dmiBearish && strongSlopes {
			return models.SignalSellStrong, true
		}
		if !dmiBullish {
			return models.SignalSell, true
		}
	}
	return "", false
}

// SignedADX encodes the dominant direction into the ADX magnitude: negative
// when -DI leads. NaN passes through untouched.
func SignedADX(s models.IndicatorSnapshot) float64 {
	if math.IsNaN(s.ADX) {
		return s.ADX
	}
	if s.MinusDI > s.PlusDI {
		return -s.ADX
	}
	return s.ADX
}

// NewRecord builds the signal record for an emitted (token, timeframe) pair.
// Trend context and user-owned fields are filled later, by the enricher and
// the reconciliation merge respectively.
func NewRecord(token string, state models.SignalState, s models.IndicatorSnapshot) models.SignalRecord {
	return models.SignalRecord{
		Time:    s.Time,
		Signal:  state,
		Token:   token,
		Close:   s.Close,
		CCI:     s.CCI,
		K:       s.K,
		D:       s.D,
		SlopeK:  s.SlopeK,
		SlopeD:  s.SlopeD,
		ADX:     SignedADX(s),
		PlusDI:  s.PlusDI,
		MinusDI: s.MinusDI,
	}
}
