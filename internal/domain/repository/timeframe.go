package repository

import "sort"

// TimeframeConfig describes how bars for one timeframe are requested:
// the sampling interval and the historical lookback period.
// The set is fixed at process start and never mutated afterwards.
type TimeframeConfig struct {
	Name     string // sheet/table name: "weekly", "daily", "4h"
	Interval string // provider interval token: "1wk", "1d", "4h"
	Period   string // provider lookback token: "3y", "1y", "90d"
}

// DefaultTimeframes mirrors the configuration the synthesis has always run with.
func DefaultTimeframes() []TimeframeConfig {
	return []TimeframeConfig{
		{Name: "weekly", Interval: "1wk", Period: "3y"},
		{Name: "daily", Interval: "1d", Period: "1y"},
		{Name: "4h", Interval: "4h", Period: "90d"},
	}
}

// TimeframeNames returns the names of tfs in declaration order.
func TimeframeNames(tfs []TimeframeConfig) []string {
	out := make([]string, 0, len(tfs))
	for _, tf := range tfs {
		out = append(out, tf.Name)
	}
	return out
}

// SiblingNames returns every timeframe name except own, sorted
// lexicographically so derived column order is deterministic.
func SiblingNames(tfs []TimeframeConfig, own string) []string {
	out := make([]string, 0, len(tfs))
	for _, tf := range tfs {
		if tf.Name != own {
			out = append(out, tf.Name)
		}
	}
	sort.Strings(out)
	return out
}

// FindTimeframe returns the config named name, if present.
func FindTimeframe(tfs []TimeframeConfig, name string) (TimeframeConfig, bool) {
	for _, tf := range tfs {
		if tf.Name == name {
			return tf, true
		}
	}
	return TimeframeConfig{}, false
}
