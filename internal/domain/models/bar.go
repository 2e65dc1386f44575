package models

import "time"

// Bar is one OHLCV observation for a symbol at a given timeframe.
// Timestamps are timezone-naive (UTC wall clock) by the time they reach the
// indicator layer; providers are responsible for stripping the zone.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NaiveUTC strips the timezone from t, keeping the wall-clock reading.
func NaiveUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
