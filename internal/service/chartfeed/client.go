// Package chartfeed fetches historical bar series from a chart data service
// over WebSocket. The feed speaks a simple request/response protocol: one
// history request per dial, bars streamed back in chunks, then an eof frame.
package chartfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalSynth/internal/domain/models"
	domrepo "SignalSynth/internal/domain/repository"
	pkghttp "SignalSynth/pkg/http"
	applogger "SignalSynth/pkg/logger"

	"github.com/gorilla/websocket"
)

// Client implements BarProvider against the chartfeed service. A fresh
// connection is dialed per request; history pulls are infrequent enough
// that holding a connection open buys nothing.
type Client struct {
	wsURL       string
	restURL     string
	apiKey      string
	readTimeout time.Duration
	http        *pkghttp.Client
	l           *applogger.Logger
}

// Option configures Client.
type Option func(*Client)

// WithRESTURL enables symbol listing against the feed's REST endpoint.
func WithRESTURL(url string) Option {
	return func(c *Client) { c.restURL = url }
}

// WithReadTimeout bounds each WebSocket read.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) { c.readTimeout = d }
}

// New creates a chartfeed client.
func New(wsURL, apiKey string, l *applogger.Logger, opts ...Option) *Client {
	c := &Client{
		wsURL:       wsURL,
		apiKey:      apiKey,
		readTimeout: 30 * time.Second,
		l:           l,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = pkghttp.NewClient(pkghttp.WithTimeout(c.readTimeout))
	return c
}

type historyRequest struct {
	Type     string `json:"type"`
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Period   string `json:"period"`
}

type feedBar struct {
	T int64   `json:"t"` // unix seconds
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type feedFrame struct {
	Type    string    `json:"type"` // "bars", "eof", "error"
	Data    []feedBar `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
}

// History fetches the full lookback series for one (symbol, timeframe) pair.
func (c *Client) History(ctx context.Context, symbol string, tf domrepo.TimeframeConfig) ([]models.Bar, error) {
	start := time.Now()

	u := fmt.Sprintf("%s?token=%s", c.wsURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("chartfeed connect: %w", err)
	}
	defer conn.Close()

	req := historyRequest{
		Type:     "history",
		Symbol:   symbol,
		Interval: tf.Interval,
		Period:   tf.Period,
	}
	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("chartfeed request %s: %w", symbol, err)
	}

	var bars []models.Bar
	for {
		if deadline, ok := ctx.Deadline(); ok {
			_ = conn.SetReadDeadline(deadline)
		} else {
			_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}

		_, b, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("chartfeed read %s: %w", symbol, err)
		}

		var frame feedFrame
		if err := json.Unmarshal(b, &frame); err != nil {
			// ignore non-protocol frames
			continue
		}

		switch frame.Type {
		case "bars":
			for _, fb := range frame.Data {
				bars = append(bars, models.Bar{
					Time:   models.NaiveUTC(time.Unix(fb.T, 0)),
					Open:   fb.O,
					High:   fb.H,
					Low:    fb.L,
					Close:  fb.C,
					Volume: fb.V,
				})
			}
		case "eof":
			if c.l != nil {
				c.l.Info("chartfeed history ok",
					applogger.String("symbol", symbol),
					applogger.String("interval", tf.Interval),
					applogger.Int("bars", len(bars)),
					applogger.Duration("duration_ms", time.Since(start)))
			}
			return bars, nil
		case "error":
			return nil, fmt.Errorf("chartfeed %s: %s", symbol, frame.Message)
		}
	}
}

type symbolsResponse struct {
	Symbols []string `json:"symbols"`
}

// Symbols implements UniverseProvider against the feed's REST endpoint.
// Requires WithRESTURL.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	if c.restURL == "" {
		return nil, fmt.Errorf("chartfeed rest url not configured")
	}

	var resp symbolsResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: "GET",
		URL:    c.restURL + "/symbols",
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("chartfeed symbols: %w", err)
	}
	return resp.Symbols, nil
}
