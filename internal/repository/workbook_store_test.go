package repository

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/services/reconcile"
	applogger "SignalSynth/pkg/logger"

	"github.com/xuri/excelize/v2"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testStore(t *testing.T) *WorkbookStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synthesis.xlsx")
	return NewWorkbookStore(path, domrepo.DefaultTimeframes(), testLogger(t))
}

func sampleRecord() models.SignalRecord {
	rec := models.SignalRecord{
		Time:    time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		Signal:  models.SignalBuy,
		Token:   "BTC-USD",
		Notes:   "watching support",
		Close:   61250.25,
		CCI:     -132.57,
		K:       38.12,
		D:       35.44,
		SlopeK:  0.52,
		SlopeD:  0.48,
		ADX:     24.1,
		PlusDI:  27.3,
		MinusDI: 14.2,

		TradeType:  "Buy",
		EntryPrice: "61000",
	}
	rec.SetTrend("weekly", "up")
	rec.SetTrend("4h", "down")
	return rec
}

func TestReadMissingFileYieldsEmpty(t *testing.T) {
	store := testStore(t)
	tables, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tables) != 0 {
		t.Fatalf("expected empty map, got %d tables", len(tables))
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := testStore(t)
	tfs := domrepo.DefaultTimeframes()
	rec := sampleRecord()

	err := store.Write(context.Background(), map[string]models.SignalTable{
		"daily": {
			Timeframe: "daily",
			Columns:   reconcile.Columns("daily", tfs),
			Records:   []models.SignalRecord{rec},
		},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	tables, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	table, ok := tables["daily"]
	if !ok {
		t.Fatalf("daily table missing")
	}
	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}

	got := table.Records[0]
	if !got.Time.Equal(rec.Time) {
		t.Errorf("time: got %v, want %v", got.Time, rec.Time)
	}
	if got.Signal != rec.Signal || got.Token != rec.Token {
		t.Errorf("identity mismatch: %v %v", got.Signal, got.Token)
	}
	if got.Notes != "watching support" {
		t.Errorf("notes: got %q", got.Notes)
	}
	if got.Close != rec.Close || got.CCI != rec.CCI {
		t.Errorf("values mismatch: close %v cci %v", got.Close, got.CCI)
	}
	if got.Trend("weekly") != "up" || got.Trend("4h") != "down" {
		t.Errorf("trends lost: %v", got.TrendBy)
	}
	if got.TradeType != "Buy" || got.EntryPrice != "61000" {
		t.Errorf("journal fields lost: %v %v", got.TradeType, got.EntryPrice)
	}
}

func TestNaNRoundTripsAsEmptyCell(t *testing.T) {
	store := testStore(t)
	tfs := domrepo.DefaultTimeframes()
	rec := sampleRecord()
	rec.ADX = math.NaN()
	rec.PlusDI = math.NaN()

	err := store.Write(context.Background(), map[string]models.SignalTable{
		"weekly": {
			Timeframe: "weekly",
			Columns:   reconcile.Columns("weekly", tfs),
			Records:   []models.SignalRecord{rec},
		},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	tables, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := tables["weekly"].Records[0]
	if !math.IsNaN(got.ADX) || !math.IsNaN(got.PlusDI) {
		t.Fatalf("expected NaN back, got adx=%v plus_di=%v", got.ADX, got.PlusDI)
	}
	if got.Close != rec.Close {
		t.Fatalf("defined value damaged: %v", got.Close)
	}
}

func TestWritePreservesUnmanagedSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synthesis.xlsx")

	// Seed a workbook with a user-maintained symbols sheet and a scratch
	// sheet the generator knows nothing about.
	f := excelize.NewFile()
	if _, err := f.NewSheet(symbolsSheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetSheetRow(symbolsSheet, "A1", &[]interface{}{"token"})
	_ = f.SetSheetRow(symbolsSheet, "A2", &[]interface{}{"BTC-USD"})
	_ = f.SetSheetRow(symbolsSheet, "A3", &[]interface{}{"ETH-USD"})
	if _, err := f.NewSheet("scratch"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetCellValue("scratch", "A1", "user data")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save seed: %v", err)
	}

	store := NewWorkbookStore(path, domrepo.DefaultTimeframes(), testLogger(t))
	err := store.Write(context.Background(), map[string]models.SignalTable{
		"daily": {
			Timeframe: "daily",
			Columns:   reconcile.Columns("daily", domrepo.DefaultTimeframes()),
			Records:   []models.SignalRecord{sampleRecord()},
		},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	reopened, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	v, err := reopened.GetCellValue("scratch", "A1")
	if err != nil || v != "user data" {
		t.Fatalf("scratch sheet damaged: %q %v", v, err)
	}

	symbols, err := store.Symbols(context.Background())
	if err != nil {
		t.Fatalf("symbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "BTC-USD" || symbols[1] != "ETH-USD" {
		t.Fatalf("unexpected universe: %v", symbols)
	}
}

func TestReadSkipsCorruptSheet(t *testing.T) {
	store := testStore(t)
	tfs := domrepo.DefaultTimeframes()

	err := store.Write(context.Background(), map[string]models.SignalTable{
		"daily": {
			Timeframe: "daily",
			Columns:   reconcile.Columns("daily", tfs),
			Records:   []models.SignalRecord{sampleRecord()},
		},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	// Mangle the weekly sheet the way a hand edit can: a row whose
	// datetime no layout recognizes.
	f, err := excelize.OpenFile(store.path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := f.NewSheet("weekly"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetSheetRow("weekly", "A1", &[]interface{}{reconcile.ColDatetime, reconcile.ColToken})
	_ = f.SetSheetRow("weekly", "A2", &[]interface{}{"not a timestamp", "BTC-USD"})
	if err := f.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	tables, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("a corrupt sheet must not fail the read: %v", err)
	}
	if _, ok := tables["weekly"]; ok {
		t.Fatalf("corrupt weekly sheet should be treated as empty")
	}
	daily, ok := tables["daily"]
	if !ok || len(daily.Records) != 1 {
		t.Fatalf("intact daily sheet lost: %v", tables)
	}
}

func TestWriteFailureKeepsPreviousWorkbook(t *testing.T) {
	store := testStore(t)
	tfs := domrepo.DefaultTimeframes()
	table := models.SignalTable{
		Timeframe: "daily",
		Columns:   reconcile.Columns("daily", tfs),
		Records:   []models.SignalRecord{sampleRecord()},
	}

	if err := store.Write(context.Background(), map[string]models.SignalTable{"daily": table}); err != nil {
		t.Fatalf("first write: %v", err)
	}

	// Block the temp file slot so the save step fails before the rename.
	if err := os.Mkdir(store.path+".tmp", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	updated := table
	updated.Records = nil
	if err := store.Write(context.Background(), map[string]models.SignalTable{"daily": updated}); err == nil {
		t.Fatalf("expected write failure")
	}

	tables, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read after failed write: %v", err)
	}
	if len(tables["daily"].Records) != 1 {
		t.Fatalf("previous workbook clobbered by failed write: %v", tables["daily"].Records)
	}
}

func TestSymbolsMissingWorkbook(t *testing.T) {
	store := testStore(t)
	if _, err := store.Symbols(context.Background()); err == nil {
		t.Fatalf("expected error for missing workbook")
	}
}
