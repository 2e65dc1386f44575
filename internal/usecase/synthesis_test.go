package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/services/indicator"
	"SignalSynth/internal/services/reconcile"
	applogger "SignalSynth/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testTimeframes() []domrepo.TimeframeConfig {
	return domrepo.DefaultTimeframes()
}

// testParams keeps windows tiny so 40 bars produce valid snapshots.
func testParams() indicator.Params {
	return indicator.Params{
		StochWindow: 5,
		KSmooth:     3,
		DSmooth:     3,
		CCIPeriod:   5,
		DMIPeriod:   5,
		SlopeWindow: 3,
	}
}

func genBars(n int) []models.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		// Decline then bounce, enough movement for defined indicators.
		c := 100.0 - float64(i)
		if i >= n-3 {
			c = 100.0 - float64(n) + 3*float64(i-(n-3)+1)
		}
		bars[i] = models.Bar{
			Time:   base.AddDate(0, 0, i),
			Open:   c + 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

type fakeBars struct {
	fail map[string]bool
}

func (f *fakeBars) History(_ context.Context, symbol string, _ domrepo.TimeframeConfig) ([]models.Bar, error) {
	if f.fail[symbol] {
		return nil, errors.New("feed unavailable")
	}
	return genBars(40), nil
}

type fakeUniverse struct {
	symbols []string
}

func (f *fakeUniverse) Symbols(context.Context) ([]string, error) {
	return f.symbols, nil
}

type fakeStore struct {
	seeded  map[string]models.SignalTable
	readErr error
	written map[string]models.SignalTable
	writes  int
}

func (f *fakeStore) Read(context.Context) (map[string]models.SignalTable, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.seeded == nil {
		return map[string]models.SignalTable{}, nil
	}
	return f.seeded, nil
}

func (f *fakeStore) Write(_ context.Context, tables map[string]models.SignalTable) error {
	f.written = tables
	f.writes++
	return nil
}

type fakePublisher struct {
	published map[string]int
}

func (f *fakePublisher) PublishSignals(_ context.Context, tf string, recs []models.SignalRecord) error {
	if f.published == nil {
		f.published = make(map[string]int)
	}
	f.published[tf] += len(recs)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type testLock struct {
	held bool
}

func (l *testLock) Acquire(context.Context) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *testLock) Release(context.Context) error {
	l.held = false
	return nil
}

type nopMetrics struct {
	skips map[string]int
}

func (m *nopMetrics) RecordRun(string, float64) {}
func (m *nopMetrics) RecordSignal(string, string) {}
func (m *nopMetrics) RecordPairSkipped(reason string) {
	if m.skips == nil {
		m.skips = make(map[string]int)
	}
	m.skips[reason]++
}
func (m *nopMetrics) RecordLastClose(string, float64) {}

func newTestRunner(t *testing.T, bars domrepo.BarProvider, store *fakeStore, pub *fakePublisher, lock domrepo.RunLock) *SynthesisRunner {
	t.Helper()
	return NewSynthesisRunner(
		bars,
		&fakeUniverse{symbols: []string{"BTC", "ETH"}},
		store,
		pub,
		lock,
		&nopMetrics{},
		testTimeframes(),
		testParams(),
		2,
		testLogger(t),
	)
}

func TestRunProcessesEveryPair(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	runner := newTestRunner(t, &fakeBars{}, store, pub, &testLock{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Pairs != 6 {
		t.Fatalf("expected 6 pairs, got %d", result.Pairs)
	}
	if result.Skipped != 0 {
		t.Fatalf("expected no skips, got %d", result.Skipped)
	}
	if store.writes != 1 {
		t.Fatalf("expected one write, got %d", store.writes)
	}
	if len(store.written) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(store.written))
	}

	for _, tf := range testTimeframes() {
		table, ok := store.written[tf.Name]
		if !ok {
			t.Fatalf("table %s missing", tf.Name)
		}
		want := reconcile.Columns(tf.Name, testTimeframes())
		if len(table.Columns) != len(want) {
			t.Fatalf("table %s: expected %d columns, got %d", tf.Name, len(want), len(table.Columns))
		}
		for i, col := range want {
			if table.Columns[i] != col {
				t.Fatalf("table %s column %d: expected %q, got %q", tf.Name, i, col, table.Columns[i])
			}
		}
	}
}

func TestRunSkipsFailingSymbol(t *testing.T) {
	store := &fakeStore{}
	runner := newTestRunner(t, &fakeBars{fail: map[string]bool{"ETH": true}}, store, &fakePublisher{}, &testLock{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run should survive a failing symbol: %v", err)
	}

	// ETH fails on all three timeframes; BTC still completes.
	if result.Skipped != 3 {
		t.Fatalf("expected 3 skipped pairs, got %d", result.Skipped)
	}
	if store.writes != 1 {
		t.Fatalf("expected the run to persist despite skips")
	}
}

func TestRunRetainsPersistedHistory(t *testing.T) {
	old := models.SignalRecord{
		Time:   time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Signal: models.SignalBuy,
		Token:  "OLD",
		Close:  42,
		Notes:  "kept",
		CCI:    math.NaN(),
	}
	store := &fakeStore{
		seeded: map[string]models.SignalTable{
			"daily": {Timeframe: "daily", Records: []models.SignalRecord{old}},
		},
	}
	runner := newTestRunner(t, &fakeBars{}, store, &fakePublisher{}, &testLock{})

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	found := false
	for _, rec := range store.written["daily"].Records {
		if rec.Token == "OLD" {
			found = true
			if rec.Notes != "kept" {
				t.Fatalf("notes lost on retained record: %q", rec.Notes)
			}
		}
	}
	if !found {
		t.Fatalf("previously persisted record dropped by the run")
	}
}

func TestRunSurvivesUnreadableStore(t *testing.T) {
	store := &fakeStore{readErr: errors.New("zip: not a valid zip file")}
	runner := newTestRunner(t, &fakeBars{}, store, &fakePublisher{}, &testLock{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run should treat an unreadable store as empty history: %v", err)
	}
	if result.Pairs != 6 {
		t.Fatalf("expected 6 pairs, got %d", result.Pairs)
	}
	if store.writes != 1 {
		t.Fatalf("expected the run to persist, got %d writes", store.writes)
	}
	if len(store.written) != 3 {
		t.Fatalf("expected 3 tables, got %d", len(store.written))
	}
}

func TestRunPublishesWhatItEmits(t *testing.T) {
	pub := &fakePublisher{}
	runner := newTestRunner(t, &fakeBars{}, &fakeStore{}, pub, &testLock{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for tf, n := range result.Emitted {
		if pub.published[tf] != n {
			t.Fatalf("timeframe %s: emitted %d but published %d", tf, n, pub.published[tf])
		}
	}
}

func TestRunRefusesWhenLockHeld(t *testing.T) {
	lock := &testLock{held: true}
	runner := newTestRunner(t, &fakeBars{}, &fakeStore{}, &fakePublisher{}, lock)

	if _, err := runner.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}
}

func TestRunReleasesLock(t *testing.T) {
	lock := &testLock{}
	runner := newTestRunner(t, &fakeBars{}, &fakeStore{}, &fakePublisher{}, lock)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("second run should reacquire the lock: %v", err)
	}
}
