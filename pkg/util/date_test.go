package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestAlignRangeWeekly(t *testing.T) {
	from := time.Date(2024, 10, 10, 15, 30, 0, 0, time.UTC) // Thursday
	to := time.Date(2024, 10, 13, 2, 0, 0, 0, time.UTC)     // Sunday
	gotFrom, gotTo := AlignRange(from, to, "1wk")

	monday := time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)
	if !gotFrom.Equal(monday) || !gotTo.Equal(monday) {
		t.Fatalf("expected %v, got %v / %v", monday, gotFrom, gotTo)
	}
}

func TestAlignRangeFourHour(t *testing.T) {
	from := time.Date(2024, 10, 10, 15, 30, 0, 0, time.UTC)
	gotFrom, _ := AlignRange(from, from, "4h")
	want := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	if !gotFrom.Equal(want) {
		t.Fatalf("expected %v, got %v", want, gotFrom)
	}
}
