package reconcile

import (
	"math"
	"testing"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
)

var t0 = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func rec(ts time.Time, token string, sig models.SignalState) models.SignalRecord {
	return models.SignalRecord{
		Time: ts, Token: token, Signal: sig,
		Close: 100.123, CCI: -123.456, K: 60.111, D: 40.999,
		SlopeK: 0.612, SlopeD: 0.587, ADX: 25.555, PlusDI: 30.1, MinusDI: 15.2,
	}
}

func find(t *testing.T, recs []models.SignalRecord, k models.RecordKey) models.SignalRecord {
	t.Helper()
	for _, r := range recs {
		if r.Key() == k {
			return r
		}
	}
	t.Fatalf("record %v not found", k)
	return models.SignalRecord{}
}

func TestMergePreservesNotes(t *testing.T) {
	old := rec(t0, "AAPL", models.SignalBuy)
	old.Notes = "watching the gap"

	merged := Merge([]models.SignalRecord{rec(t0, "AAPL", models.SignalBuy)}, []models.SignalRecord{old})

	got := find(t, merged, old.Key())
	if got.Notes != "watching the gap" {
		t.Fatalf("notes lost on merge: %q", got.Notes)
	}
	if got.Close != 100.12 {
		t.Fatalf("computed value should be refreshed and rounded, got %v", got.Close)
	}
}

func TestMergePreservesTradeJournal(t *testing.T) {
	old := rec(t0, "AAPL", models.SignalBuy)
	old.TradeType = "Buy"
	old.EntryPrice = "100"
	old.ExitPrice = "110"

	merged := Merge([]models.SignalRecord{rec(t0, "AAPL", models.SignalBuy)}, []models.SignalRecord{old})

	got := find(t, merged, old.Key())
	if got.TradeType != "Buy" || got.EntryPrice != "100" {
		t.Fatalf("journal fields lost: %+v", got)
	}
	if got.PNL != "10.00" || got.PNLPct != "10.00" {
		t.Fatalf("derived P&L = (%q, %q), want (10.00, 10.00)", got.PNL, got.PNLPct)
	}
}

func TestMergeRetainsHistory(t *testing.T) {
	gone := rec(t0.AddDate(0, 0, -30), "MSFT", models.SignalSell)
	gone.Notes = "old trade"

	merged := Merge([]models.SignalRecord{rec(t0, "AAPL", models.SignalBuy)}, []models.SignalRecord{gone})

	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
	got := find(t, merged, gone.Key())
	if got.Notes != "old trade" {
		t.Fatalf("retained record mutated: %+v", got)
	}
}

func TestMergeIdempotent(t *testing.T) {
	batch := []models.SignalRecord{
		rec(t0, "AAPL", models.SignalBuy),
		rec(t0, "MSFT", models.SignalSellStrong),
	}
	once := Merge(batch, nil)
	twice := Merge(batch, once)

	if len(twice) != len(once) {
		t.Fatalf("idempotent merge changed size: %d -> %d", len(once), len(twice))
	}
	seen := map[models.RecordKey]bool{}
	for _, r := range twice {
		if seen[r.Key()] {
			t.Fatalf("duplicate identity key %v in output", r.Key())
		}
		seen[r.Key()] = true
	}
}

func TestMergeDedupesFirstWins(t *testing.T) {
	a := rec(t0, "AAPL", models.SignalBuy)
	a.K = 61
	b := rec(t0, "AAPL", models.SignalBuy) // same key, stale duplicate
	b.K = 11

	merged := Merge([]models.SignalRecord{a, b}, nil)
	if len(merged) != 1 {
		t.Fatalf("expected 1 record, got %d", len(merged))
	}
	if merged[0].K != 61 {
		t.Fatalf("first occurrence must win, got K=%v", merged[0].K)
	}
}

func TestMergeSameTimestampDifferentState(t *testing.T) {
	// The composite key keeps both rows when a token flips state at an
	// identical-looking timestamp.
	prev := []models.SignalRecord{rec(t0, "AAPL", models.SignalSell)}
	merged := Merge([]models.SignalRecord{rec(t0, "AAPL", models.SignalBuy)}, prev)
	if len(merged) != 2 {
		t.Fatalf("expected both states kept, got %d", len(merged))
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.005); got != 1.0 && got != 1.01 {
		t.Fatalf("unexpected rounding %v", got)
	}
	if got := Round2(Round2(123.456)); got != 123.46 {
		t.Fatalf("re-rounding must be a no-op, got %v", got)
	}
	if !math.IsNaN(Round2(math.NaN())) {
		t.Fatalf("NaN must survive rounding")
	}
}

func TestComputePNL(t *testing.T) {
	if pnl, pct, ok := ComputePNL("Buy", "100", "110"); !ok || pnl != 10 || pct != 10 {
		t.Fatalf("buy pnl = (%v, %v, %v)", pnl, pct, ok)
	}
	if pnl, pct, ok := ComputePNL("Sell", "100", "90"); !ok || pnl != 10 || pct != 10 {
		t.Fatalf("sell pnl = (%v, %v, %v)", pnl, pct, ok)
	}
	if _, _, ok := ComputePNL("Hold", "100", "90"); ok {
		t.Fatalf("unknown trade type must not compute")
	}
	if _, _, ok := ComputePNL("Buy", "", "90"); ok {
		t.Fatalf("missing entry must not compute")
	}
	if _, pct, ok := ComputePNL("Buy", "0", "90"); !ok || !math.IsNaN(pct) {
		t.Fatalf("zero entry must yield NaN percent")
	}
}

func TestColumns(t *testing.T) {
	tfs := domrepo.DefaultTimeframes()
	cols := Columns("daily", tfs)

	if cols[0] != ColDatetime || cols[1] != ColSignal || cols[2] != ColNotes {
		t.Fatalf("identity/annotation columns out of order: %v", cols[:3])
	}
	// sibling trend columns, lexicographic
	wantTrend := []string{"4h_trend", "weekly_trend"}
	gotTrend := []string{}
	for _, c := range cols {
		if len(c) > len(trendSuffix) && c[len(c)-len(trendSuffix):] == trendSuffix {
			gotTrend = append(gotTrend, c)
		}
	}
	if len(gotTrend) != 2 || gotTrend[0] != wantTrend[0] || gotTrend[1] != wantTrend[1] {
		t.Fatalf("trend columns = %v, want %v", gotTrend, wantTrend)
	}
	if cols[len(cols)-1] != ColPNLPct {
		t.Fatalf("trade journal must close the table, got %v", cols[len(cols)-1])
	}
	for _, c := range cols {
		if c == "daily_trend" {
			t.Fatalf("own timeframe must not have a trend column")
		}
	}
}
