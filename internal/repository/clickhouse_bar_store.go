package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	pkgch "SignalSynth/pkg/clickhouse"
	applogger "SignalSynth/pkg/logger"
	"SignalSynth/pkg/util"
)

// CHBarStore implements BarProvider backed by a ClickHouse bars table with
// one row per (symbol, interval, bucket).
type CHBarStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHBarStore {
	if table == "" {
		table = "bars"
	}
	return &CHBarStore{db: ch.DB(), table: table, l: l}
}

func (s *CHBarStore) History(ctx context.Context, symbol string, tf domrepo.TimeframeConfig) ([]models.Bar, error) {
	start := time.Now()

	lookback, err := parseLookback(tf.Period)
	if err != nil {
		return nil, fmt.Errorf("timeframe %s: %w", tf.Name, err)
	}
	now := time.Now().UTC()
	from, _ := util.AlignRange(now.Add(-lookback), now, tf.Interval)

	const qtpl = `
        SELECT bucket, open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND interval = ? AND bucket >= ?
        ORDER BY bucket ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, tf.Interval, from)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("symbol", symbol),
				applogger.String("interval", tf.Interval),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("bar history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, 1024)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = models.NaiveUTC(b.Time)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse history ok",
			applogger.String("symbol", symbol),
			applogger.String("interval", tf.Interval),
			applogger.Int("bars", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// parseLookback converts a period token like "3y", "90d" or "12h" into a
// duration. Years use 365 days; bar alignment tolerates the drift.
func parseLookback(period string) (time.Duration, error) {
	if len(period) < 2 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	unit := period[len(period)-1]
	n, err := strconv.Atoi(strings.TrimSpace(period[:len(period)-1]))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid period %q", period)
	}
	switch unit {
	case 'y':
		return time.Duration(n) * 365 * 24 * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid period unit %q", period)
	}
}
