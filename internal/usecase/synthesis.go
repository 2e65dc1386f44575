// Package usecase orchestrates the synthesis run: fetch bar history for
// every (symbol, timeframe) pair, compute indicators, classify signals,
// enrich them with sibling-timeframe trends, reconcile against the persisted
// tables, and push the result to the store and downstream consumers.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/services/indicator"
	"SignalSynth/internal/services/reconcile"
	"SignalSynth/internal/services/signal"
	applogger "SignalSynth/pkg/logger"
)

// ErrRunInProgress is returned when another synthesis run holds the lock.
var ErrRunInProgress = errors.New("synthesis run already in progress")

// RunResult summarizes one completed synthesis run.
type RunResult struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Symbols   int            `json:"symbols"`
	Pairs     int            `json:"pairs"`
	Skipped   int            `json:"skipped"`
	Emitted   map[string]int `json:"emitted"` // timeframe -> new record count
}

// SynthesisRunner executes synthesis runs against the configured ports.
type SynthesisRunner struct {
	bars      domrepo.BarProvider
	universe  domrepo.UniverseProvider
	store     domrepo.TableStore
	publisher domrepo.Publisher
	lock      domrepo.RunLock
	metrics   domrepo.Metrics
	tfs       []domrepo.TimeframeConfig
	params    indicator.Params
	workers   int
	l         *applogger.Logger
}

// NewSynthesisRunner wires a runner. workers bounds concurrent pair fetches.
func NewSynthesisRunner(
	bars domrepo.BarProvider,
	universe domrepo.UniverseProvider,
	store domrepo.TableStore,
	publisher domrepo.Publisher,
	lock domrepo.RunLock,
	metrics domrepo.Metrics,
	tfs []domrepo.TimeframeConfig,
	params indicator.Params,
	workers int,
	l *applogger.Logger,
) *SynthesisRunner {
	if workers <= 0 {
		workers = 4
	}
	return &SynthesisRunner{
		bars:      bars,
		universe:  universe,
		store:     store,
		publisher: publisher,
		lock:      lock,
		metrics:   metrics,
		tfs:       tfs,
		params:    params,
		workers:   workers,
		l:         l,
	}
}

// pairTask is one (symbol, timeframe) fetch-and-compute unit.
type pairTask struct {
	symbol string
	tf     domrepo.TimeframeConfig
}

// pairResult carries a computed pair back to the aggregator. skipped names
// the skip reason; empty means the pair produced a snapshot.
type pairResult struct {
	task    pairTask
	snap    models.IndicatorSnapshot
	skipped string
}

// Run performs one full synthesis pass. Classification for every pair
// completes before any trend enrichment reads the trend table, so a pair's
// annotations never depend on processing order.
func (r *SynthesisRunner) Run(ctx context.Context) (*RunResult, error) {
	acquired, err := r.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := r.lock.Release(context.Background()); err != nil {
			r.l.Warn("release run lock", applogger.Error(err))
		}
	}()

	start := time.Now()
	result, err := r.run(ctx, start)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		r.metrics.RecordRun("error", elapsed)
		return nil, err
	}
	r.metrics.RecordRun("success", elapsed)
	return result, nil
}

func (r *SynthesisRunner) run(ctx context.Context, start time.Time) (*RunResult, error) {
	symbols, err := r.universe.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load symbol universe: %w", err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("symbol universe is empty")
	}

	prev, err := r.store.Read(ctx)
	if err != nil {
		// An unreadable store never blocks a run, but preserved notes and
		// prior signal history cannot survive it.
		r.l.Error("persisted tables unreadable, reconciling against empty history",
			applogger.Error(err))
		prev = map[string]models.SignalTable{}
	}

	r.l.Info("synthesis run started",
		applogger.Int("symbols", len(symbols)),
		applogger.Int("timeframes", len(r.tfs)))

	// Phase 1: fetch and compute every pair. Workers only compute; the
	// aggregation below is single threaded so the trend builder and the
	// per-timeframe slices need no locking.
	tasks := make(chan pairTask)
	results := make(chan pairResult)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				results <- r.computePair(ctx, task)
			}
		}()
	}

	go func() {
		defer close(tasks)
		for _, tf := range r.tfs {
			for _, symbol := range symbols {
				select {
				case tasks <- pairTask{symbol: symbol, tf: tf}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	builder := signal.NewTrendTableBuilder()
	fresh := make(map[string][]models.SignalRecord, len(r.tfs))
	skipped := 0
	pairs := 0

	for res := range results {
		pairs++
		if res.skipped != "" {
			skipped++
			r.metrics.RecordPairSkipped(res.skipped)
			continue
		}

		tfName := res.task.tf.Name
		builder.Observe(res.task.symbol, tfName, res.snap)
		r.metrics.RecordLastClose(res.task.symbol, res.snap.Close)

		if state, ok := signal.Classify(res.snap); ok {
			rec := signal.NewRecord(res.task.symbol, state, res.snap)
			fresh[tfName] = append(fresh[tfName], rec)
			r.metrics.RecordSignal(tfName, string(state))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("synthesis cancelled: %w", err)
	}

	// Phase 2: the trend table is complete, enrich and reconcile.
	trends := builder.Build()
	tables := make(map[string]models.SignalTable, len(r.tfs))
	emitted := make(map[string]int, len(r.tfs))

	for _, tf := range r.tfs {
		recs := fresh[tf.Name]
		signal.Enrich(recs, tf.Name, r.tfs, trends)

		merged := reconcile.Merge(recs, prev[tf.Name].Records)
		tables[tf.Name] = models.SignalTable{
			Timeframe: tf.Name,
			Columns:   reconcile.Columns(tf.Name, r.tfs),
			Records:   merged,
		}
		emitted[tf.Name] = len(recs)
	}

	if err := r.store.Write(ctx, tables); err != nil {
		return nil, fmt.Errorf("persist tables: %w", err)
	}

	// Publishing happens after the write: downstream consumers must never
	// see a signal the store could still lose.
	for _, tf := range r.tfs {
		if err := r.publisher.PublishSignals(ctx, tf.Name, fresh[tf.Name]); err != nil {
			r.l.Error("publish signals failed",
				applogger.String("timeframe", tf.Name),
				applogger.Error(err))
		}
	}

	result := &RunResult{
		StartedAt: start.UTC(),
		Duration:  time.Since(start),
		Symbols:   len(symbols),
		Pairs:     pairs,
		Skipped:   skipped,
		Emitted:   emitted,
	}

	r.l.Info("synthesis run finished",
		applogger.Int("pairs", pairs),
		applogger.Int("skipped", skipped),
		applogger.Any("emitted", emitted),
		applogger.Duration("duration_ms", result.Duration))

	return result, nil
}

// computePair fetches history and derives the last valid snapshot for one
// pair. All failures degrade to a skip so one bad symbol cannot fail the run.
func (r *SynthesisRunner) computePair(ctx context.Context, task pairTask) pairResult {
	out := pairResult{task: task}

	bars, err := r.bars.History(ctx, task.symbol, task.tf)
	if err != nil {
		r.l.Warn("bar fetch failed",
			applogger.String("symbol", task.symbol),
			applogger.String("timeframe", task.tf.Name),
			applogger.Error(err))
		out.skipped = "fetch_error"
		return out
	}
	if len(bars) == 0 {
		r.l.Warn("no bars returned",
			applogger.String("symbol", task.symbol),
			applogger.String("timeframe", task.tf.Name))
		out.skipped = "no_data"
		return out
	}

	computed := indicator.Compute(bars, r.params)
	snap, ok := indicator.LastValid(bars, computed, r.params)
	if !ok {
		out.skipped = "insufficient_history"
		return out
	}

	out.snap = snap
	return out
}
