package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/stratrun/internal/domain/bars"
)

// Config is the explicit configuration record threaded into every
// component. No process-wide mutable state; defaults are overlaid by the
// YAML file and then by environment variables.
type Config struct {
	DataDir string `yaml:"data_dir"`

	DevMode         bool `yaml:"dev_mode"`
	DevTickersLimit int  `yaml:"dev_tickers_limit"`

	MinMarketCap      float64  `yaml:"min_market_cap"`
	PriorityTopStocks int      `yaml:"priority_top_stocks"`
	MaxTickersPerRun  int      `yaml:"max_tickers_per_run"`
	PriorityPerRun    int      `yaml:"priority_per_run"`
	RotationPerRun    int      `yaml:"rotation_per_run"`
	CoreETFs          []string `yaml:"core_etfs"`

	CacheTTLSec         map[string]int `yaml:"cache_ttl"` // interval -> seconds
	RequestTimeoutSec   int            `yaml:"request_timeout_sec"`
	UniverseCacheTTLSec int            `yaml:"universe_cache_ttl_sec"`
	IntradayMaxPeriod   string         `yaml:"intraday_max_period"`

	ScanWorkers         int    `yaml:"scan_workers"`
	EnableContinuations bool   `yaml:"enable_continuation_setups"`
	GateEnabled         bool   `yaml:"gate_enabled"`
	ReferenceSymbol     string `yaml:"reference_symbol"`

	VendorBaseURL string  `yaml:"vendor_base_url"`
	VendorRPS     float64 `yaml:"vendor_rps"`
	VendorBurst   int     `yaml:"vendor_burst"`

	RedisAddr string `yaml:"redis_addr"` // empty disables the hot tier
	RedisDB   int    `yaml:"redis_db"`

	MetricsAddr string `yaml:"metrics_addr"` // empty disables the ops server

	CronSpec string `yaml:"cron_spec"`
}

// Default returns production defaults.
func Default() Config {
	return Config{
		DataDir:           "data",
		DevTickersLimit:   200,
		MinMarketCap:      10_000_000,
		PriorityTopStocks: 500,
		MaxTickersPerRun:  900,
		PriorityPerRun:    500,
		RotationPerRun:    300,
		CoreETFs: []string{
			"SPY", "QQQ", "IWM", "DIA",
			"XLK", "XLF", "XLE", "XLV",
			"SMH", "ARKK",
		},
		CacheTTLSec: map[string]int{
			"1d":  12 * 3600,
			"60m": 2 * 3600,
		},
		RequestTimeoutSec:   20,
		UniverseCacheTTLSec: 24 * 3600,
		IntradayMaxPeriod:   "60d",
		ScanWorkers:         8,
		GateEnabled:         true,
		ReferenceSymbol:     "SPY",
		VendorRPS:           4,
		VendorBurst:         8,
		CronSpec:            "*/30 9-17 * * 1-5",
	}
}

// Load overlays the YAML file at path (optional when path is empty) and
// environment variables onto the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STRATRUN_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("STRATRUN_VENDOR_URL"); v != "" {
		c.VendorBaseURL = v
	}
	if v := os.Getenv("STRATRUN_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("STRATRUN_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

func (c *Config) validate() error {
	if c.MaxTickersPerRun <= 0 {
		return fmt.Errorf("max_tickers_per_run must be positive")
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request_timeout_sec must be positive")
	}
	if c.ScanWorkers <= 0 {
		return fmt.Errorf("scan_workers must be positive")
	}
	return nil
}

// CacheTTL converts the per-interval TTL table to durations.
func (c *Config) CacheTTL() map[bars.Interval]time.Duration {
	out := make(map[bars.Interval]time.Duration, len(c.CacheTTLSec))
	for iv, sec := range c.CacheTTLSec {
		out[bars.Interval(iv)] = time.Duration(sec) * time.Second
	}
	return out
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

func (c *Config) UniverseCacheTTL() time.Duration {
	return time.Duration(c.UniverseCacheTTLSec) * time.Second
}

// Derived paths. Everything lives under DataDir.
func (c *Config) OHLCCacheDir() string    { return filepath.Join(c.DataDir, "cache", "ohlc") }
func (c *Config) ResultsCSVPath() string  { return filepath.Join(c.DataDir, "results", "results.csv") }
func (c *Config) ResultsJSONPath() string { return filepath.Join(c.DataDir, "results", "results.json") }
func (c *Config) ContextCSVPath() string  { return filepath.Join(c.DataDir, "results", "context.csv") }
func (c *Config) LastRunPath() string     { return filepath.Join(c.DataDir, "meta", "last_run.json") }
func (c *Config) RotationStatePath() string {
	return filepath.Join(c.DataDir, "meta", "state.json")
}
func (c *Config) UniverseDir() string { return filepath.Join(c.DataDir, "universe") }
func (c *Config) StocksPath() string  { return filepath.Join(c.UniverseDir(), "symbols.csv") }
func (c *Config) ETFsPath() string    { return filepath.Join(c.UniverseDir(), "etfs.csv") }
func (c *Config) SectorsPath() string { return filepath.Join(c.UniverseDir(), "sectors.csv") }
func (c *Config) HoldingsPath() string {
	return filepath.Join(c.UniverseDir(), "etf_holdings.csv")
}
