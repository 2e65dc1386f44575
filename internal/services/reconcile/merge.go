package reconcile

import (
	"math"
	"strconv"

	"SignalSynth/internal/domain/models"
)

// Merge produces the table to persist for one timeframe from the newly
// computed (and enriched) records and the previously persisted records.
//
// Records are matched by the composite identity key (timestamp, token,
// signal). On a match the new record's computed values win while the
// previous record's notes and trade journal fields are copied over.
// Previous records whose key is absent from the new batch are retained
// unchanged and appended, so past signals are never silently deleted.
// Duplicates collapse to the first occurrence, which puts merged new
// records ahead of stale ones. All numeric indicator columns come out
// rounded to two decimals.
func Merge(newRecs, prev []models.SignalRecord) []models.SignalRecord {
	prevByKey := make(map[models.RecordKey]models.SignalRecord, len(prev))
	for _, r := range prev {
		if _, dup := prevByKey[r.Key()]; !dup {
			prevByKey[r.Key()] = r
		}
	}

	newKeys := make(map[models.RecordKey]struct{}, len(newRecs))
	out := make([]models.SignalRecord, 0, len(newRecs)+len(prev))

	for _, r := range newRecs {
		k := r.Key()
		if _, dup := newKeys[k]; dup {
			continue
		}
		newKeys[k] = struct{}{}

		if old, ok := prevByKey[k]; ok {
			copyUserFields(&r, old)
		}
		refreshPNL(&r)
		out = append(out, roundRecord(r))
	}

	for _, r := range prev {
		k := r.Key()
		if _, seen := newKeys[k]; seen {
			continue
		}
		newKeys[k] = struct{}{}
		out = append(out, roundRecord(r))
	}

	return out
}

// copyUserFields carries the user-owned columns from old onto r.
func copyUserFields(r *models.SignalRecord, old models.SignalRecord) {
	r.Notes = old.Notes
	r.TradeType = old.TradeType
	r.EntryPrice = old.EntryPrice
	r.TargetPrice = old.TargetPrice
	r.ExitPrice = old.ExitPrice
	r.PNL = old.PNL
	r.PNLPct = old.PNLPct
}

// Round2 rounds to two decimal places; NaN passes through so the store can
// render it as an empty cell. Re-rounding a rounded value is a no-op.
func Round2(x float64) float64 {
	if math.IsNaN(x) {
		return x
	}
	return math.Round(x*100) / 100
}

func roundRecord(r models.SignalRecord) models.SignalRecord {
	r.Close = Round2(r.Close)
	r.CCI = Round2(r.CCI)
	r.K = Round2(r.K)
	r.D = Round2(r.D)
	r.SlopeK = Round2(r.SlopeK)
	r.SlopeD = Round2(r.SlopeD)
	r.ADX = Round2(r.ADX)
	r.PlusDI = Round2(r.PlusDI)
	r.MinusDI = Round2(r.MinusDI)
	return r
}

// ComputePNL derives absolute and percent P&L from the trade journal fields.
// Buy: exit - entry; Sell: entry - exit. ok is false when the trade type is
// unknown or either price is missing/unparseable; pct is NaN for a zero entry.
func ComputePNL(tradeType, entry, exit string) (pnl, pct float64, ok bool) {
	if tradeType != "Buy" && tradeType != "Sell" {
		return 0, 0, false
	}
	e, err1 := strconv.ParseFloat(entry, 64)
	x, err2 := strconv.ParseFloat(exit, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if tradeType == "Buy" {
		pnl = x - e
	} else {
		pnl = e - x
	}
	if e == 0 {
		return pnl, math.NaN(), true
	}
	return pnl, pnl / e * 100, true
}

// refreshPNL recomputes the derived P&L columns when the journal carries
// both prices; user-entered values are otherwise left alone.
func refreshPNL(r *models.SignalRecord) {
	pnl, pct, ok := ComputePNL(r.TradeType, r.EntryPrice, r.ExitPrice)
	if !ok {
		return
	}
	r.PNL = strconv.FormatFloat(Round2(pnl), 'f', 2, 64)
	if math.IsNaN(pct) {
		r.PNLPct = ""
	} else {
		r.PNLPct = strconv.FormatFloat(Round2(pct), 'f', 2, 64)
	}
}
