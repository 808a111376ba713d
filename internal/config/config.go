// Package config loads service configuration from a YAML file with .env /
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Storage   StorageConfig   `yaml:"storage"`
	Collector CollectorConfig `yaml:"collector"`
	Report    ReportConfig    `yaml:"report"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ProviderConfig holds the market data gateway endpoints.
type ProviderConfig struct {
	BaseURL    string `yaml:"base_url"`
	WSEndpoint string `yaml:"ws_endpoint"`
	APIKey     string `yaml:"api_key"` // usually set via PROVIDER_API_KEY
	TimeoutSec int    `yaml:"timeout_seconds"`
	MaxRetries int    `yaml:"max_retries"`
}

// StorageConfig holds database connection strings.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// WatchEntry is one stock's collection target.
type WatchEntry struct {
	StockCode string   `yaml:"stock_code"`
	Expiries  []string `yaml:"expiries"` // "YYYY-MM-DD"
}

// CollectorConfig controls the scheduled snapshot collector.
type CollectorConfig struct {
	IntervalMinutes int          `yaml:"interval_minutes"`
	RetentionDays   int          `yaml:"retention_days"` // 0 disables cleanup
	WatchList       []WatchEntry `yaml:"watch_list"`
}

// ReportConfig controls report output.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // listen address, empty disables the endpoint
}

// Load reads configuration from the YAML file at path. Values from a .env
// file (if present) and the environment override the file for the keys that
// map to them.
func Load(path string) (*Config, error) {
	// .env is optional; a missing file is not an error
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// CollectInterval returns the collection interval as a time.Duration.
func (c *Config) CollectInterval() time.Duration {
	return time.Duration(c.Collector.IntervalMinutes) * time.Minute
}

// ProviderTimeout returns the gateway request timeout as a time.Duration.
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSec) * time.Second
}

// applyEnvOverrides overrides values with environment variables if present.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_WS_ENDPOINT"); v != "" {
		cfg.Provider.WSEndpoint = v
	}
	if v := os.Getenv("PROVIDER_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// setDefaults ensures required values have sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Provider.TimeoutSec <= 0 {
		cfg.Provider.TimeoutSec = 30
	}
	if cfg.Provider.MaxRetries <= 0 {
		cfg.Provider.MaxRetries = 3
	}
	if cfg.Collector.IntervalMinutes <= 0 {
		cfg.Collector.IntervalMinutes = 15
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "reports"
	}
}

// validate rejects configurations that cannot work at all.
func (c *Config) validate() error {
	for i, w := range c.Collector.WatchList {
		if w.StockCode == "" {
			return fmt.Errorf("watch_list[%d]: stock_code is required", i)
		}
		if len(w.Expiries) == 0 {
			return fmt.Errorf("watch_list[%d] (%s): at least one expiry is required", i, w.StockCode)
		}
	}
	return nil
}
