package signal

import (
	"math"
	"testing"

	"SignalSynth/internal/domain/models"
)

func snap(k, d, cci, plusDI, minusDI, adx, slopeK, slopeD float64) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		K: k, D: d, CCI: cci,
		PlusDI: plusDI, MinusDI: minusDI, ADX: adx,
		SlopeK: slopeK, SlopeD: slopeD,
	}
}

func TestClassify(t *testing.T) {
	nan := math.NaN()
	cases := []struct {
		name string
		in   models.IndicatorSnapshot
		want models.SignalState
		ok   bool
	}{
		{
			name: "strong buy: bullish dmi and steep slopes",
			in:   snap(60, 40, -150, 30, 15, 25, 0.6, 0.6),
			want: models.SignalBuyStrong,
			ok:   true,
		},
		{
			name: "plain buy: adx below threshold",
			in:   snap(60, 40, -150, 30, 15, 10, 0.6, 0.6),
			want: models.SignalBuy,
			ok:   true,
		},
		{
			name: "plain buy: slopes too shallow for a plus",
			in:   snap(60, 40, -150, 30, 15, 25, 0.1, 0.1),
			want: models.SignalBuy,
			ok:   true,
		},
		{
			name: "buy blocked by bearish dmi",
			in:   snap(60, 40, -150, 10, 30, 25, 0.6, 0.6),
			ok:   false,
		},
		{
			name: "strong sell",
			in:   snap(20, 50, 150, 5, 30, 25, -0.6, -0.6),
			want: models.SignalSellStrong,
			ok:   true,
		},
		{
			name: "plain sell: weak trend",
			in:   snap(20, 50, 150, 5, 10, 10, -0.2, -0.2),
			want: models.SignalSell,
			ok:   true,
		},
		{
			name: "sell blocked by bullish dmi",
			in:   snap(20, 50, 150, 30, 5, 25, -0.2, -0.2),
			ok:   false,
		},
		{
			name: "no signal: oscillator and cci disagree",
			in:   snap(60, 40, 150, 30, 15, 25, 0.6, 0.6),
			ok:   false,
		},
		{
			name: "no signal: cci inside the band",
			in:   snap(60, 40, -50, 30, 15, 25, 0.6, 0.6),
			ok:   false,
		},
		{
			name: "nan adx drops the pair",
			in:   snap(60, 40, -150, 30, 15, nan, 0.6, 0.6),
			ok:   false,
		},
		{
			name: "nan cci drops the pair",
			in:   snap(60, 40, nan, 30, 15, 25, 0.6, 0.6),
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Classify(tc.in)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("state = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSignedADX(t *testing.T) {
	if got := SignedADX(snap(0, 0, 0, 10, 30, 25, 0, 0)); got != -25 {
		t.Fatalf("bearish ADX should be sign-encoded negative, got %v", got)
	}
	if got := SignedADX(snap(0, 0, 0, 30, 10, 25, 0, 0)); got != 25 {
		t.Fatalf("bullish ADX should stay positive, got %v", got)
	}
	if got := SignedADX(snap(0, 0, 0, 30, 10, math.NaN(), 0, 0)); !math.IsNaN(got) {
		t.Fatalf("NaN ADX must pass through, got %v", got)
	}
}

func TestNewRecordCarriesSnapshot(t *testing.T) {
	s := snap(60, 40, -150, 30, 15, 25, 0.6, 0.6)
	s.Close = 101.5
	r := NewRecord("AAPL", models.SignalBuyStrong, s)
	if r.Token != "AAPL" || r.Signal != models.SignalBuyStrong {
		t.Fatalf("unexpected identity: %+v", r)
	}
	if r.Close != 101.5 || r.K != 60 || r.D != 40 || r.ADX != 25 {
		t.Fatalf("snapshot values not carried: %+v", r)
	}
	if r.Notes != "" || r.TradeType != "" {
		t.Fatalf("user-owned fields must start empty")
	}
}
