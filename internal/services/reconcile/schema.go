// Package reconcile merges freshly computed signal records into the
// previously persisted table for a timeframe, preserving user-owned fields
// and retaining history the new run did not regenerate.
package reconcile

import domrepo "SignalSynth/internal/domain/repository"

// Column names of the persisted tables. The workbook has carried these
// headers across generator revisions; renaming any of them would orphan
// user annotations.
const (
	ColDatetime = "datetime"
	ColSignal   = "signal"
	ColNotes    = "notes"
	ColToken    = "token"
	ColClose    = "close price"
	ColCCI      = "CCI"
	ColStochK   = "stoch K"
	ColStochD   = "stoch D"
	ColSlopeK   = "slope K"
	ColSlopeD   = "slope D"
	ColADX      = "ADX"
	ColPlusDI   = "+DI"
	ColMinusDI  = "-DI"

	ColTradeType   = "Trade Type"
	ColEntryPrice  = "Entry Price"
	ColTargetPrice = "Target Exit Price"
	ColExitPrice   = "Exit Price"
	ColPNL         = "PNL"
	ColPNLPct      = "PNL %"

	trendSuffix = "_trend"
)

// baseColumns precede the per-timeframe trend columns.
var baseColumns = []string{
	ColDatetime, ColSignal, ColNotes, ColToken, ColClose,
	ColCCI, ColStochK, ColStochD, ColSlopeK, ColSlopeD,
	ColADX, ColPlusDI, ColMinusDI,
}

// tradeColumns close out every table.
var tradeColumns = []string{
	ColTradeType, ColEntryPrice, ColTargetPrice, ColExitPrice, ColPNL, ColPNLPct,
}

// TrendColumn returns the column name carrying the sibling timeframe's trend.
func TrendColumn(tf string) string { return tf + trendSuffix }

// Columns computes the exact column set, in output order, for the table of
// timeframe own given the full static timeframe configuration: identity and
// annotation first, then the indicator columns, then one trend column per
// sibling timeframe in lexicographic order, then the trade journal columns.
func Columns(own string, tfs []domrepo.TimeframeConfig) []string {
	siblings := domrepo.SiblingNames(tfs, own)
	out := make([]string, 0, len(baseColumns)+len(siblings)+len(tradeColumns))
	out = append(out, baseColumns...)
	for _, sib := range siblings {
		out = append(out, TrendColumn(sib))
	}
	out = append(out, tradeColumns...)
	return out
}
