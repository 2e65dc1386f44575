package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	signals     *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	lastClose   *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalsynth_runs_total",
				Help: "Total synthesis runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "signalsynth_run_duration_seconds",
				Help:    "Duration of a full synthesis run",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalsynth_signals_emitted_total",
				Help: "Emitted signal records by timeframe and state",
			},
			[]string{"timeframe", "signal"},
		),
		skipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalsynth_pairs_skipped_total",
				Help: "Symbol/timeframe pairs skipped during a run",
			},
			[]string{"reason"},
		),
		lastClose: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalsynth_last_close_price",
				Help: "Last observed close price for a symbol",
			},
			[]string{"symbol"},
		),
	}
}

// RecordRun records a finished synthesis run and its duration.
func (r *Recorder) RecordRun(outcome string, seconds float64) {
	r.runs.WithLabelValues(outcome).Inc()
	r.runDuration.Observe(seconds)
}

// RecordSignal records one emitted signal record.
func (r *Recorder) RecordSignal(timeframe, signal string) {
	r.signals.WithLabelValues(timeframe, signal).Inc()
}

// RecordPairSkipped records a skipped (symbol, timeframe) pair.
func (r *Recorder) RecordPairSkipped(reason string) {
	r.skipped.WithLabelValues(reason).Inc()
}

// RecordLastClose records the last close price seen for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}
