package repository

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/services/reconcile"
	applogger "SignalSynth/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// Cell timestamps are stored timezone naive; the store never carries zone
// information.
const cellTimeLayout = "2006-01-02 15:04:05"

// symbolsSheet holds the token universe, one symbol per row under a "token"
// header. It is user maintained and must survive every Write untouched.
const symbolsSheet = "symbols"

// WorkbookStore persists signal tables as one xlsx workbook, one sheet per
// timeframe. Sheets it does not manage are carried through writes unchanged.
type WorkbookStore struct {
	path string
	tfs  []domrepo.TimeframeConfig
	l    *applogger.Logger
}

// NewWorkbookStore creates a store at path for the given timeframe set.
func NewWorkbookStore(path string, tfs []domrepo.TimeframeConfig, l *applogger.Logger) *WorkbookStore {
	return &WorkbookStore{path: path, tfs: tfs, l: l}
}

// Read loads every managed sheet present in the workbook. A missing file
// yields an empty map. A sheet that fails to parse is treated as empty for
// its timeframe so a corrupt table never blocks a run; the loss of its
// preserved annotations is logged.
func (s *WorkbookStore) Read(_ context.Context) (map[string]models.SignalTable, error) {
	out := make(map[string]models.SignalTable, len(s.tfs))

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, tf := range s.tfs {
		rows, err := f.GetRows(tf.Name)
		if err != nil {
			// Sheet absent: first run for this timeframe.
			continue
		}
		table, err := s.parseSheet(tf.Name, rows)
		if err != nil {
			if s.l != nil {
				s.l.Error("sheet unreadable, treating as empty; its notes will not survive this run",
					applogger.String("sheet", tf.Name),
					applogger.Error(err))
			}
			continue
		}
		out[tf.Name] = table
	}

	return out, nil
}

// Write replaces every managed sheet and persists the workbook atomically:
// the new content is saved to a sibling temp file and renamed over the
// target, so a crash mid-write leaves the previous version intact.
func (s *WorkbookStore) Write(_ context.Context, tables map[string]models.SignalTable) error {
	f, created, err := s.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	for _, tf := range s.tfs {
		table, ok := tables[tf.Name]
		if !ok {
			continue
		}
		if err := s.writeSheet(f, table); err != nil {
			return fmt.Errorf("sheet %s: %w", tf.Name, err)
		}
	}

	if created {
		// Drop the default sheet excelize seeds new workbooks with.
		if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 {
			_ = f.DeleteSheet("Sheet1")
		}
	}

	// SaveAs refuses file names without a workbook extension, so serialize
	// into the temp file directly.
	tmp := s.path + ".tmp"
	tmpFile, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	if _, err := f.WriteTo(tmpFile); err != nil {
		tmpFile.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save workbook: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace workbook: %w", err)
	}

	if s.l != nil {
		s.l.Info("workbook persisted",
			applogger.String("path", s.path),
			applogger.Int("tables", len(tables)))
	}
	return nil
}

// Symbols implements UniverseProvider from the symbols sheet.
func (s *WorkbookStore) Symbols(_ context.Context) ([]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workbook %s not found, no symbol universe", s.path)
		}
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(symbolsSheet)
	if err != nil {
		return nil, fmt.Errorf("symbols sheet missing in %s", s.path)
	}

	out := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		if i == 0 && strings.EqualFold(cell, "token") {
			continue
		}
		out = append(out, cell)
	}
	return out, nil
}

func (s *WorkbookStore) openOrCreate() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, false, nil
	}
	if os.IsNotExist(err) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("open workbook: %w", err)
}

func (s *WorkbookStore) writeSheet(f *excelize.File, table models.SignalTable) error {
	name := table.Timeframe
	if idx, err := f.GetSheetIndex(name); err == nil && idx >= 0 {
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("clear sheet: %w", err)
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	cols := table.Columns
	if len(cols) == 0 {
		cols = reconcile.Columns(name, s.tfs)
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range table.Records {
		row := recordToRow(rec, cols)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return nil
}

func recordToRow(rec models.SignalRecord, cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, col := range cols {
		switch col {
		case reconcile.ColDatetime:
			row[i] = rec.Time.Format(cellTimeLayout)
		case reconcile.ColSignal:
			row[i] = string(rec.Signal)
		case reconcile.ColNotes:
			row[i] = rec.Notes
		case reconcile.ColToken:
			row[i] = rec.Token
		case reconcile.ColClose:
			row[i] = floatCell(rec.Close)
		case reconcile.ColCCI:
			row[i] = floatCell(rec.CCI)
		case reconcile.ColStochK:
			row[i] = floatCell(rec.K)
		case reconcile.ColStochD:
			row[i] = floatCell(rec.D)
		case reconcile.ColSlopeK:
			row[i] = floatCell(rec.SlopeK)
		case reconcile.ColSlopeD:
			row[i] = floatCell(rec.SlopeD)
		case reconcile.ColADX:
			row[i] = floatCell(rec.ADX)
		case reconcile.ColPlusDI:
			row[i] = floatCell(rec.PlusDI)
		case reconcile.ColMinusDI:
			row[i] = floatCell(rec.MinusDI)
		case reconcile.ColTradeType:
			row[i] = rec.TradeType
		case reconcile.ColEntryPrice:
			row[i] = rec.EntryPrice
		case reconcile.ColTargetPrice:
			row[i] = rec.TargetPrice
		case reconcile.ColExitPrice:
			row[i] = rec.ExitPrice
		case reconcile.ColPNL:
			row[i] = rec.PNL
		case reconcile.ColPNLPct:
			row[i] = rec.PNLPct
		default:
			if tf, ok := trendColumnName(col); ok {
				row[i] = rec.Trend(tf)
			}
		}
	}
	return row
}

// floatCell maps NaN to an empty cell so missing values round trip.
func floatCell(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func (s *WorkbookStore) parseSheet(name string, rows [][]string) (models.SignalTable, error) {
	table := models.SignalTable{Timeframe: name}
	if len(rows) == 0 {
		return table, nil
	}

	header := rows[0]
	table.Columns = append([]string(nil), header...)
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}

	table.Records = make([]models.SignalRecord, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		rec, ok, err := parseRecord(row, header, colIdx)
		if err != nil {
			return table, fmt.Errorf("row %d: %w", rowNum+2, err)
		}
		if ok {
			table.Records = append(table.Records, rec)
		}
	}
	return table, nil
}

func parseRecord(row []string, header []string, colIdx map[string]int) (models.SignalRecord, bool, error) {
	get := func(col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ts := get(reconcile.ColDatetime)
	token := get(reconcile.ColToken)
	if ts == "" && token == "" {
		return models.SignalRecord{}, false, nil
	}

	t, err := parseCellTime(ts)
	if err != nil {
		return models.SignalRecord{}, false, fmt.Errorf("datetime %q: %w", ts, err)
	}

	rec := models.SignalRecord{
		Time:    t,
		Signal:  models.SignalState(get(reconcile.ColSignal)),
		Notes:   get(reconcile.ColNotes),
		Token:   token,
		Close:   parseCellFloat(get(reconcile.ColClose)),
		CCI:     parseCellFloat(get(reconcile.ColCCI)),
		K:       parseCellFloat(get(reconcile.ColStochK)),
		D:       parseCellFloat(get(reconcile.ColStochD)),
		SlopeK:  parseCellFloat(get(reconcile.ColSlopeK)),
		SlopeD:  parseCellFloat(get(reconcile.ColSlopeD)),
		ADX:     parseCellFloat(get(reconcile.ColADX)),
		PlusDI:  parseCellFloat(get(reconcile.ColPlusDI)),
		MinusDI: parseCellFloat(get(reconcile.ColMinusDI)),

		TradeType:   get(reconcile.ColTradeType),
		EntryPrice:  get(reconcile.ColEntryPrice),
		TargetPrice: get(reconcile.ColTargetPrice),
		ExitPrice:   get(reconcile.ColExitPrice),
		PNL:         get(reconcile.ColPNL),
		PNLPct:      get(reconcile.ColPNLPct),
	}

	for _, col := range header {
		if tf, ok := trendColumnName(col); ok {
			if dir := get(col); dir != "" {
				rec.SetTrend(tf, dir)
			}
		}
	}

	return rec, true, nil
}

func trendColumnName(col string) (string, bool) {
	const suffix = "_trend"
	if strings.HasSuffix(col, suffix) && len(col) > len(suffix) {
		return strings.TrimSuffix(col, suffix), true
	}
	return "", false
}

func parseCellTime(s string) (time.Time, error) {
	layouts := []string{
		cellTimeLayout,
		"2006-01-02T15:04:05",
		"2006-01-02",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NaiveUTC(t), nil
		}
	}
	// Excel may rewrite edited cells as serial date numbers.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return models.NaiveUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp")
}

func parseCellFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
