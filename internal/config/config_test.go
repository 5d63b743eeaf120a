package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Datasource.Provider != "yfinance" {
		t.Errorf("provider = %q, want yfinance", cfg.Datasource.Provider)
	}
	if cfg.Analysis.BenchmarkTicker != "SPY" {
		t.Errorf("benchmark = %q, want SPY", cfg.Analysis.BenchmarkTicker)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Scan.Concurrency != 4 {
		t.Errorf("concurrency = %d, want 4", cfg.Scan.Concurrency)
	}
	if len(cfg.Scan.Watchlist) == 0 {
		t.Error("default watchlist is empty")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("STOCKPULSE_API_PORT", "9191")
	t.Setenv("STOCKPULSE_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("port = %d, want env override 9191", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
datasource:
  provider: yfinance
  history_days: 400
analysis:
  benchmark_ticker: QQQ
scan:
  concurrency: 8
  watchlist: ["AAPL", "NVDA"]
api:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.BenchmarkTicker != "QQQ" {
		t.Errorf("benchmark = %q, want QQQ", cfg.Analysis.BenchmarkTicker)
	}
	if cfg.Datasource.HistoryDays != 400 {
		t.Errorf("history days = %d, want 400", cfg.Datasource.HistoryDays)
	}
	if cfg.Scan.Concurrency != 8 || len(cfg.Scan.Watchlist) != 2 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	// Untouched sections keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
