// Package api exposes the synthesis over HTTP: trigger a run, read the
// reconciled tables, and inspect recent warnings and errors.
package api

import (
	"errors"
	"math"

	models "SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	"SignalSynth/internal/service/ratelimit"
	"SignalSynth/internal/usecase"
	xhttp "SignalSynth/pkg/http"
	xlogger "SignalSynth/pkg/logger"
	"SignalSynth/pkg/util"

	"github.com/labstack/echo/v4"
)

// SynthesisHandler implements the Echo HTTP surface.
type SynthesisHandler struct {
	logger    *xlogger.Logger
	runner    *usecase.SynthesisRunner
	scheduler usecase.Scheduler
	store     domrepo.TableStore
	tfs       []domrepo.TimeframeConfig
	logBuf    *xlogger.Buffer
	rl        *ratelimit.Limiter
}

func NewSynthesisHandler(
	logger *xlogger.Logger,
	runner *usecase.SynthesisRunner,
	scheduler usecase.Scheduler,
	store domrepo.TableStore,
	tfs []domrepo.TimeframeConfig,
	logBuf *xlogger.Buffer,
) *SynthesisHandler {
	return &SynthesisHandler{
		logger:    logger,
		runner:    runner,
		scheduler: scheduler,
		store:     store,
		tfs:       tfs,
		logBuf:    logBuf,
		rl:        ratelimit.New(),
	}
}

func (h *SynthesisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/run", h.Run)
	g.GET("/signals", h.Signals)
	g.GET("/logs", h.Logs)
	g.GET("/health", h.Health)
}

// Run triggers a synthesis run. With async=true the request returns as soon
// as the run is scheduled; otherwise it blocks until the run completes.
func (h *SynthesisHandler) Run(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":run", 3, 0.2) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many run requests"))
	}

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async {
		if err := h.scheduler.Schedule(c.Request().Context(), "api"); err != nil {
			h.logger.Error("schedule run failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.AcceptedResponse(c, map[string]string{"status": "scheduled"})
	}

	result, err := h.runner.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a synthesis run is already in progress"))
		}
		h.logger.Error("run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("synthesis run failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

// signalRow is the JSON form of one persisted record. Indicator values use
// pointers so NaN serializes as null instead of breaking the encoder.
type signalRow struct {
	Datetime string            `json:"datetime"`
	Signal   string            `json:"signal"`
	Notes    string            `json:"notes,omitempty"`
	Token    string            `json:"token"`
	Close    *float64          `json:"close"`
	CCI      *float64          `json:"cci"`
	StochK   *float64          `json:"stoch_k"`
	StochD   *float64          `json:"stoch_d"`
	SlopeK   *float64          `json:"slope_k"`
	SlopeD   *float64          `json:"slope_d"`
	ADX      *float64          `json:"adx"`
	PlusDI   *float64          `json:"plus_di"`
	MinusDI  *float64          `json:"minus_di"`
	Trends   map[string]string `json:"trends,omitempty"`

	TradeType   string `json:"trade_type,omitempty"`
	EntryPrice  string `json:"entry_price,omitempty"`
	TargetPrice string `json:"target_exit_price,omitempty"`
	ExitPrice   string `json:"exit_price,omitempty"`
	PNL         string `json:"pnl,omitempty"`
	PNLPct      string `json:"pnl_pct,omitempty"`
}

// Signals returns the persisted table for one timeframe. Optional `since`
// (RFC3339 or unix seconds) and `limit` query parameters narrow the result.
func (h *SynthesisHandler) Signals(c echo.Context) error {
	req := &models.TableRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if _, ok := domrepo.FindTimeframe(h.tfs, req.TF); !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown timeframe %q", req.TF))
	}

	tables, err := h.store.Read(c.Request().Context())
	if err != nil {
		h.logger.Error("store read failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not read signal store").WithError(err))
	}

	since, hasSince := util.ParseTime(c.QueryParam("since"))
	limit := util.ParseIntDefault(c.QueryParam("limit"), 0)

	table := tables[req.TF]
	rows := make([]signalRow, 0, len(table.Records))
	for _, rec := range table.Records {
		if hasSince && rec.Time.Before(since) {
			continue
		}
		rows = append(rows, toRow(rec))
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Logs returns recent warn/error entries from the in-memory buffer.
func (h *SynthesisHandler) Logs(c echo.Context) error {
	req := &models.LogsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.logBuf == nil {
		return xhttp.ListResponse(c, []struct{}{}, 0)
	}
	entries := h.logBuf.Recent(req.Limit)
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// Health reports liveness.
func (h *SynthesisHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func toRow(rec models.SignalRecord) signalRow {
	return signalRow{
		Datetime: rec.Time.Format("2006-01-02 15:04:05"),
		Signal:   string(rec.Signal),
		Notes:    rec.Notes,
		Token:    rec.Token,
		Close:    fptr(rec.Close),
		CCI:      fptr(rec.CCI),
		StochK:   fptr(rec.K),
		StochD:   fptr(rec.D),
		SlopeK:   fptr(rec.SlopeK),
		SlopeD:   fptr(rec.SlopeD),
		ADX:      fptr(rec.ADX),
		PlusDI:   fptr(rec.PlusDI),
		MinusDI:  fptr(rec.MinusDI),
		Trends:   rec.TrendBy,

		TradeType:   rec.TradeType,
		EntryPrice:  rec.EntryPrice,
		TargetPrice: rec.TargetPrice,
		ExitPrice:   rec.ExitPrice,
		PNL:         rec.PNL,
		PNLPct:      rec.PNLPct,
	}
}

func fptr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
