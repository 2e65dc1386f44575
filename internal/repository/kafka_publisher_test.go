package repository

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"SignalSynth/internal/domain/models"
)

func TestSignalEventMarshalsNaNSlopesAsNull(t *testing.T) {
	rec := models.SignalRecord{
		Time:    time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Signal:  models.SignalBuy,
		Token:   "BTC",
		Close:   101.5,
		CCI:     -150,
		K:       60,
		D:       40,
		SlopeK:  math.NaN(),
		SlopeD:  math.NaN(),
		ADX:     25,
		PlusDI:  30,
		MinusDI: 15,
	}

	event := NewSignalEvent("daily", rec)
	b, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	for _, field := range []string{"slope_k", "slope_d"} {
		if v, ok := decoded[field]; !ok || v != nil {
			t.Errorf("%s = %v, want null", field, v)
		}
	}
	if got := decoded["close"]; got != 101.5 {
		t.Errorf("close = %v, want 101.5", got)
	}
	if got := decoded["adx"]; got != 25.0 {
		t.Errorf("adx = %v, want 25", got)
	}
	if !strings.Contains(string(b), `"datetime":"2026-03-02 00:00:00"`) {
		t.Errorf("datetime not formatted, payload %s", b)
	}
}
