// Package config loads the scanner configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kulucloud/kulu/types"
)

// Defaults applied by Validate when fields are zero.
const (
	DefaultWindowDays         = 14
	DefaultMetricsConcurrency = 20
	DefaultStageTimeout       = 5 * time.Minute
	DefaultScanInterval       = time.Hour
	DefaultKeepReports        = 30
)

// Config is the main configuration.
type Config struct {
	Version  string               `yaml:"version"`
	Accounts []types.CloudAccount `yaml:"accounts"`

	// WindowDays is the metric lookback window.
	WindowDays int `yaml:"window_days,omitempty"`

	// MetricsConcurrency bounds in-flight metric fetches per scan.
	MetricsConcurrency int `yaml:"metrics_concurrency,omitempty"`

	// StageTimeout applies to each pipeline stage.
	StageTimeout time.Duration `yaml:"stage_timeout,omitempty"`

	// ScanTimeout bounds a whole scan; zero means unlimited.
	ScanTimeout time.Duration `yaml:"scan_timeout,omitempty"`

	// Regions narrows discovery; empty scans each account's configured regions.
	Regions []string `yaml:"regions,omitempty"`

	// StorageDir holds the local report database.
	StorageDir string `yaml:"storage_dir,omitempty"`

	// KeepReports is how many scan reports Prune retains in daemon mode.
	KeepReports int `yaml:"keep_reports,omitempty"`

	Daemon    DaemonConfig    `yaml:"daemon,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// DaemonConfig tunes the periodic scan loop.
type DaemonConfig struct {
	ScanInterval time.Duration `yaml:"scan_interval,omitempty"`
	// MetricsAddr serves the Prometheus endpoint, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// TelemetryConfig points at an optional OTLP collector.
type TelemetryConfig struct {
	OTELEndpoint string `yaml:"otel_endpoint,omitempty"`
	Insecure     bool   `yaml:"insecure,omitempty"`
	Environment  string `yaml:"environment,omitempty"`
}

// LoadConfig loads configuration from file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	for i, account := range c.Accounts {
		if !account.Provider.Valid() {
			return fmt.Errorf("account %d: unknown provider %q", i, account.Provider)
		}
		if account.AccountID == "" {
			return fmt.Errorf("account %d: account_id is required", i)
		}
	}
	if c.WindowDays < 0 || c.MetricsConcurrency < 0 || c.KeepReports < 0 {
		return fmt.Errorf("window_days, metrics_concurrency and keep_reports must not be negative")
	}
	if c.WindowDays == 0 {
		c.WindowDays = DefaultWindowDays
	}
	if c.MetricsConcurrency == 0 {
		c.MetricsConcurrency = DefaultMetricsConcurrency
	}
	if c.StageTimeout == 0 {
		c.StageTimeout = DefaultStageTimeout
	}
	if c.KeepReports == 0 {
		c.KeepReports = DefaultKeepReports
	}
	if c.StorageDir == "" {
		c.StorageDir = "."
	}
	if c.Daemon.ScanInterval == 0 {
		c.Daemon.ScanInterval = DefaultScanInterval
	}
	return nil
}

// ScanRequest builds the pipeline request this config describes.
func (c *Config) ScanRequest() types.ScanRequest {
	return types.ScanRequest{
		Accounts: c.Accounts,
		Window:   types.LastDays(c.WindowDays),
		Options: types.ScanOptions{
			MetricsConcurrency: c.MetricsConcurrency,
			StageTimeout:       c.StageTimeout,
			ScanTimeout:        c.ScanTimeout,
			Regions:            c.Regions,
		},
	}
}
