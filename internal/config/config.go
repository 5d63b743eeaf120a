// Package config handles configuration loading for StockPulse.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Datasource DatasourceConfig `mapstructure:"datasource" yaml:"datasource"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"   yaml:"analysis"`
	Scan       ScanConfig       `mapstructure:"scan"       yaml:"scan"`
	Portfolio  PortfolioConfig  `mapstructure:"portfolio"  yaml:"portfolio"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// DatasourceConfig holds market-data provider settings.
type DatasourceConfig struct {
	Provider     string   `mapstructure:"provider" yaml:"provider"`             // "yfinance"
	CacheTTL     int      `mapstructure:"cache_ttl" yaml:"cache_ttl"`           // seconds
	RateLimit    int      `mapstructure:"rate_limit" yaml:"rate_limit"`         // requests per second
	HistoryDays  int      `mapstructure:"history_days" yaml:"history_days"`
	NewsFeedURLs []string `mapstructure:"news_feed_urls" yaml:"news_feed_urls"`
}

// AnalysisConfig holds analysis engine settings.
type AnalysisConfig struct {
	BenchmarkTicker string `mapstructure:"benchmark_ticker" yaml:"benchmark_ticker"`
	SkipBacktest    bool   `mapstructure:"skip_backtest"    yaml:"skip_backtest"`
}

// ScanConfig holds multi-ticker scan settings.
type ScanConfig struct {
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	Watchlist   []string `mapstructure:"watchlist"   yaml:"watchlist"`
}

// PortfolioConfig holds position store settings.
type PortfolioConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // JSON file holding positions
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.stockpulse/config.yaml (home directory)
//  3. /etc/stockpulse/config.yaml (system)
//
// Environment variables override config file values.
// Format: STOCKPULSE_<SECTION>_<KEY>, e.g., STOCKPULSE_API_PORT
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".stockpulse"))
	v.AddConfigPath("/etc/stockpulse")

	v.SetEnvPrefix("STOCKPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found: defaults + env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("STOCKPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Datasource defaults
	v.SetDefault("datasource.provider", "yfinance")
	v.SetDefault("datasource.cache_ttl", 300) // 5 minutes
	v.SetDefault("datasource.rate_limit", 5)
	v.SetDefault("datasource.history_days", 800)

	// Analysis defaults
	v.SetDefault("analysis.benchmark_ticker", "SPY")
	v.SetDefault("analysis.skip_backtest", false)

	// Scan defaults
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.watchlist", []string{
		"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA",
	})

	// Portfolio defaults
	v.SetDefault("portfolio.path", filepath.Join(homeDir(), ".stockpulse", "positions.json"))

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
