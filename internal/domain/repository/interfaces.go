package repository

import (
	"context"

	"SignalSynth/internal/domain/models"
)

// BarProvider returns the ordered (ascending) bar series for one
// (symbol, timeframe) pair. Implementations normalize timestamps to
// timezone-naive UTC before returning. An empty series is not an error.
type BarProvider interface {
	History(ctx context.Context, symbol string, tf TimeframeConfig) ([]models.Bar, error)
}

// UniverseProvider returns the list of symbols to process. Order only
// affects log ordering, never table contents.
type UniverseProvider interface {
	Symbols(ctx context.Context) ([]string, error)
}

// TableStore reads and writes the persisted signal tables.
//
// Read returns the previously persisted table per timeframe name; a missing
// store yields an empty map, not an error. Write persists every given table
// atomically in one replace-on-success operation, preserving any other named
// tables (the symbol universe among them) unchanged. Nothing is considered
// persisted until Write returns nil.
type TableStore interface {
	Read(ctx context.Context) (map[string]models.SignalTable, error)
	Write(ctx context.Context, tables map[string]models.SignalTable) error
}

// Publisher pushes freshly emitted signal records to downstream consumers.
type Publisher interface {
	PublishSignals(ctx context.Context, timeframe string, records []models.SignalRecord) error
	Close() error
}

// RunLock guards the synthesis run so only one is active at a time; the
// reconciliation merge assumes exclusive access to the store snapshot it read.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Metrics records operational metrics for synthesis runs.
type Metrics interface {
	RecordRun(outcome string, seconds float64)
	RecordSignal(timeframe, signal string)
	RecordPairSkipped(reason string)
	RecordLastClose(symbol string, price float64)
}
