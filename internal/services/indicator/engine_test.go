package indicator

import (
	"math"
	"testing"
	"time"

	"SignalSynth/internal/domain/models"
)

func mkBars(closes []float64) []models.Bar {
	out := make([]models.Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = models.Bar{
			Time:  base.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return out
}

func allNaN(xs []float64) bool {
	for _, v := range xs {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

func TestSMA(t *testing.T) {
	got := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected NaN before full window, got %v", got)
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(got[i+2]-w) > 1e-9 {
			t.Fatalf("sma[%d] = %v, want %v", i+2, got[i+2], w)
		}
	}
}

func TestStochasticFlatWindowIsNaN(t *testing.T) {
	bars := make([]models.Bar, 10)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Time: base.AddDate(0, 0, i), Open: 5, High: 5, Low: 5, Close: 5}
	}
	k, d := Stochastic(bars, 3, 2, 2)
	if !allNaN(k) || !allNaN(d) {
		t.Fatalf("flat series must yield NaN stochastic, got k=%v d=%v", k, d)
	}
}

func TestStochasticRange(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
	bars := mkBars(closes)
	k, _ := Stochastic(bars, 5, 3, 3)
	last := k[len(k)-1]
	if math.IsNaN(last) {
		t.Fatalf("expected defined %%K at tail")
	}
	if last < 0 || last > 100 {
		t.Fatalf("%%K out of range: %v", last)
	}
}

func TestCCIInsufficientHistory(t *testing.T) {
	bars := mkBars([]float64{1, 2, 3})
	if got := CCI(bars, 20); !allNaN(got) {
		t.Fatalf("short series must be all NaN, got %v", got)
	}
}

func TestCCISign(t *testing.T) {
	// Steady climb ends above its window mean; CCI at the tail must be positive.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got := CCI(mkBars(closes), 20)
	if v := got[len(got)-1]; math.IsNaN(v) || v <= 0 {
		t.Fatalf("expected positive CCI on an uptrend, got %v", v)
	}
}

func TestDMIShortSeriesAllNaN(t *testing.T) {
	period := 14
	bars := mkBars(make([]float64, period)) // period bars < period+1
	p, m, a := DMI(bars, period)
	if !allNaN(p) || !allNaN(m) || !allNaN(a) {
		t.Fatalf("DMI on %d bars must be entirely NaN", len(bars))
	}
}

func TestDMIUptrendDirection(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + 2*float64(i)
	}
	p, m, a := DMI(mkBars(closes), 14)
	last := len(closes) - 1
	if math.IsNaN(p[last]) || math.IsNaN(m[last]) || math.IsNaN(a[last]) {
		t.Fatalf("expected defined DMI at tail: +DI=%v -DI=%v ADX=%v", p[last], m[last], a[last])
	}
	if p[last] <= m[last] {
		t.Fatalf("uptrend should have +DI > -DI, got +DI=%v -DI=%v", p[last], m[last])
	}
	if a[last] <= 0 {
		t.Fatalf("ADX should be positive on a strong trend, got %v", a[last])
	}
}

func TestSlopeLinearSeries(t *testing.T) {
	xs := []float64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}
	got := Slope(xs, 10)
	if math.Abs(got-2) > 1e-9 {
		t.Fatalf("slope of y=2x+1 must be 2, got %v", got)
	}
}

func TestSlopeSkipsNaNs(t *testing.T) {
	xs := []float64{math.NaN(), 1, math.NaN(), 2, 3, 4}
	got := Slope(xs, 4)
	if math.Abs(got-1) > 1e-9 {
		t.Fatalf("slope over last 4 valid values must be 1, got %v", got)
	}
}

func TestSlopeInsufficientValues(t *testing.T) {
	xs := []float64{math.NaN(), 1, 2}
	if got := Slope(xs, 10); !math.IsNaN(got) {
		t.Fatalf("expected NaN with <10 valid values, got %v", got)
	}
}

func TestLastValidSkipsTrailingNaN(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*10 + float64(i)/10
	}
	bars := mkBars(closes)
	p := Params{StochWindow: 10, KSmooth: 5, DSmooth: 5, CCIPeriod: 20, DMIPeriod: 14, SlopeWindow: 10}
	c := Compute(bars, p)
	snap, ok := LastValid(bars, c, p)
	if !ok {
		t.Fatalf("expected a valid snapshot")
	}
	if math.IsNaN(snap.K) || math.IsNaN(snap.D) || math.IsNaN(snap.CCI) {
		t.Fatalf("snapshot core values must be defined: %+v", snap)
	}
	if !snap.Time.Equal(bars[len(bars)-1].Time) {
		t.Fatalf("fully valid series should snapshot the last bar")
	}
}

func TestLastValidNone(t *testing.T) {
	bars := mkBars([]float64{1, 2, 3})
	p := DefaultParams()
	c := Compute(bars, p)
	if _, ok := LastValid(bars, c, p); ok {
		t.Fatalf("short series must yield no snapshot")
	}
}
