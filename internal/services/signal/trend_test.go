package signal

import (
	"math"
	"testing"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
)

func osc(k, d float64) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{K: k, D: d}
}

func TestTrendTableDirection(t *testing.T) {
	b := NewTrendTableBuilder()
	b.Observe("X", "weekly", osc(70, 40))
	b.Observe("X", "daily", osc(30, 60))
	b.Observe("X", "4h", osc(50, 50))
	b.Observe("Y", "weekly", osc(math.NaN(), 40)) // ignored
	tbl := b.Build()

	if got := tbl.Direction("X", "weekly"); got != "up" {
		t.Fatalf("weekly = %q, want up", got)
	}
	if got := tbl.Direction("X", "daily"); got != "down" {
		t.Fatalf("daily = %q, want down", got)
	}
	if got := tbl.Direction("X", "4h"); got != "" {
		t.Fatalf("equal K/D must be empty, got %q", got)
	}
	if got := tbl.Direction("Y", "weekly"); got != "" {
		t.Fatalf("NaN observation must stay unknown, got %q", got)
	}
	if got := tbl.Direction("Z", "daily"); got != "" {
		t.Fatalf("unknown pair must be empty, got %q", got)
	}
}

func TestEnrichAppendsSiblingTrends(t *testing.T) {
	tfs := domrepo.DefaultTimeframes()
	b := NewTrendTableBuilder()
	b.Observe("X", "weekly", osc(70, 40))
	b.Observe("X", "4h", osc(20, 60))
	tbl := b.Build()

	recs := []models.SignalRecord{{Token: "X", Signal: models.SignalBuy, K: 55, D: 45}}
	Enrich(recs, "daily", tfs, tbl)

	if got := recs[0].Trend("weekly"); got != "up" {
		t.Fatalf("weekly_trend = %q, want up", got)
	}
	if got := recs[0].Trend("4h"); got != "down" {
		t.Fatalf("4h_trend = %q, want down", got)
	}
	if _, has := recs[0].TrendBy["daily"]; has {
		t.Fatalf("own timeframe must not receive a trend column")
	}
	if recs[0].K != 55 || recs[0].D != 45 {
		t.Fatalf("enrichment must not mutate indicator values")
	}
}

func TestEnrichNeutralPairContributes(t *testing.T) {
	// A pair that produced no tradable signal still feeds the side table.
	tfs := domrepo.DefaultTimeframes()
	b := NewTrendTableBuilder()
	snapNeutral := osc(48, 52) // K<D but suppose CCI kept it neutral
	b.Observe("X", "weekly", snapNeutral)
	tbl := b.Build()

	recs := []models.SignalRecord{{Token: "X", Signal: models.SignalSell}}
	Enrich(recs, "daily", tfs, tbl)
	if got := recs[0].Trend("weekly"); got != "down" {
		t.Fatalf("weekly_trend = %q, want down", got)
	}
}
