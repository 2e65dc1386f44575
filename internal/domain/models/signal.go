package models

import (
	"math"
	"time"
)

// SignalState is the discrete trading signal for one (token, timeframe) pair.
type SignalState string

const (
	SignalBuyStrong  SignalState = "Buy+"
	SignalBuy        SignalState = "Buy"
	SignalSellStrong SignalState = "Sell+"
	SignalSell       SignalState = "Sell"
)

// IsValidSignal reports whether s is a state this generator emits. Persisted
// tables may also carry "Buy-"/"Sell-" rows written by older revisions; those
// are retained on merge but never re-emitted.
func IsValidSignal(s SignalState) bool {
	switch s {
	case SignalBuyStrong, SignalBuy, SignalSellStrong, SignalSell:
		return true
	default:
		return false
	}
}

// IndicatorSnapshot holds the derived values at the last valid bar of a pair.
type IndicatorSnapshot struct {
	Time    time.Time
	Close   float64
	K       float64
	D       float64
	CCI     float64
	PlusDI  float64
	MinusDI float64
	ADX     float64
	SlopeK  float64
	SlopeD  float64
}

// Valid reports whether every field the classifier needs is a real number.
func (s IndicatorSnapshot) Valid() bool {
	for _, v := range []float64{s.K, s.D, s.CCI, s.PlusDI, s.MinusDI, s.ADX} {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// RecordKey is the composite identity key used during reconciliation.
// Timestamp alone is not enough: distinct tokens can share a bar timestamp,
// and a token can re-emit a different state at an identical-looking timestamp
// after timezone normalization.
type RecordKey struct {
	Time   time.Time
	Token  string
	Signal SignalState
}

// SignalRecord is the unit of output and persistence for one timeframe table.
//
// Notes and the trade journal fields are owned by the user; the generator
// never computes them and the merge must carry them forward whenever the
// identity key still matches.
type SignalRecord struct {
	Time    time.Time
	Signal  SignalState
	Token   string
	Close   float64
	CCI     float64
	K       float64
	D       float64
	SlopeK  float64
	SlopeD  float64
	ADX     float64 // sign-encoded: negative when -DI dominates
	PlusDI  float64
	MinusDI float64

	Notes string

	// TrendBy maps a sibling timeframe name to "up", "down" or "".
	TrendBy map[string]string

	TradeType   string
	EntryPrice  string
	TargetPrice string
	ExitPrice   string
	PNL         string
	PNLPct      string
}

// Key returns the reconciliation identity key.
func (r SignalRecord) Key() RecordKey {
	return RecordKey{Time: r.Time, Token: r.Token, Signal: r.Signal}
}

// Trend returns the trend annotation for a sibling timeframe ("" if unset).
func (r SignalRecord) Trend(tf string) string {
	if r.TrendBy == nil {
		return ""
	}
	return r.TrendBy[tf]
}

// SetTrend records a sibling-timeframe trend annotation.
func (r *SignalRecord) SetTrend(tf, dir string) {
	if r.TrendBy == nil {
		r.TrendBy = make(map[string]string, 4)
	}
	r.TrendBy[tf] = dir
}

// SignalTable is the full record set persisted for one timeframe.
type SignalTable struct {
	Timeframe string
	Columns   []string
	Records   []SignalRecord
}
