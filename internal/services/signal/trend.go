package signal

import (
	"math"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
)

// oscState is the latest valid oscillator reading of one (token, timeframe).
type oscState struct {
	K float64
	D float64
}

type trendKey struct {
	Token     string
	Timeframe string
}

// TrendTable maps (token, timeframe) to its latest valid oscillator state.
// It is built during the compute phase, where every pair with a valid
// reading contributes whether or not it produced a tradable signal, then
// consumed read-only during enrichment.
type TrendTable struct {
	states map[trendKey]oscState
}

// TrendTableBuilder accumulates oscillator states during the compute phase.
type TrendTableBuilder struct {
	states map[trendKey]oscState
}

func NewTrendTableBuilder() *TrendTableBuilder {
	return &TrendTableBuilder{states: make(map[trendKey]oscState, 64)}
}

// Observe records the latest oscillator state for a pair. NaN readings are
// ignored so enrichment later resolves to "".
func (b *TrendTableBuilder) Observe(token, timeframe string, s models.IndicatorSnapshot) {
	if math.IsNaN(s.K) || math.IsNaN(s.D) {
		return
	}
	b.states[trendKey{Token: token, Timeframe: timeframe}] = oscState{K: s.K, D: s.D}
}

// Build freezes the accumulated states into an immutable lookup table.
func (b *TrendTableBuilder) Build() *TrendTable {
	return &TrendTable{states: b.states}
}

// Direction returns "up" when the pair's latest %K > %D, "down" when
// %K < %D, and "" when the pair is unknown or the reading is equal.
func (t *TrendTable) Direction(token, timeframe string) string {
	s, ok := t.states[trendKey{Token: token, Timeframe: timeframe}]
	if !ok {
		return ""
	}
	switch {
	case s.K > s.D:
		return "up"
	case s.K < s.D:
		return "down"
	default:
		return ""
	}
}

// Enrich attaches, to every record of the given timeframe, one trend field
// per sibling timeframe. It only appends trend fields; indicator values are
// never touched, and missing sibling data yields "" rather than an error.
func Enrich(records []models.SignalRecord, own string, tfs []domrepo.TimeframeConfig, table *TrendTable) {
	siblings := domrepo.SiblingNames(tfs, own)
	for i := range records {
		for _, sib := range siblings {
			records[i].SetTrend(sib, table.Direction(records[i].Token, sib))
		}
	}
}
