package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: test
marketdata:
  provider: chartfeed
  websocket_url: wss://feed.example.com/ws
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Path != "trading_synthesis.xlsx" {
		t.Errorf("store path default: %q", cfg.Store.Path)
	}
	if len(cfg.Timeframes) != 3 {
		t.Fatalf("expected 3 default timeframes, got %d", len(cfg.Timeframes))
	}
	if cfg.Timeframes[0].Name != "weekly" || cfg.Timeframes[0].Interval != "1wk" || cfg.Timeframes[0].Period != "3y" {
		t.Errorf("weekly default wrong: %+v", cfg.Timeframes[0])
	}
	if cfg.Indicators.StochWindow != 55 || cfg.Indicators.DSmooth != 36 {
		t.Errorf("indicator defaults wrong: %+v", cfg.Indicators)
	}
}

func TestLoadRejectsDuplicateTimeframes(t *testing.T) {
	path := writeConfig(t, `
environment: test
marketdata:
  provider: chartfeed
  websocket_url: wss://feed.example.com/ws
timeframes:
  - {name: daily, interval: 1d, period: 1y}
  - {name: daily, interval: 4h, period: 90d}
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected duplicate timeframe error")
	}
}

func TestLoadRequiresProviderBackend(t *testing.T) {
	path := writeConfig(t, `
environment: test
marketdata:
  provider: clickhouse
`)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected missing clickhouse host error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: test
marketdata:
  provider: chartfeed
  websocket_url: wss://feed.example.com/ws
`)

	t.Setenv("SIGNALSYNTH_STORE", "/tmp/other.xlsx")
	t.Setenv("MARKETDATA_API_KEY", "secret")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Path != "/tmp/other.xlsx" {
		t.Errorf("store override missed: %q", cfg.Store.Path)
	}
	if cfg.MarketData.APIKey != "secret" {
		t.Errorf("api key override missed")
	}
}
