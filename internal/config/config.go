package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/spendburn/internal/model"
)

// Config holds all spendburn configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Budget     model.Budgets    `toml:"budget"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Oracle     OracleConfig     `toml:"oracle"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Logging    LoggingConfig    `toml:"logging"`
	Telemetry  TelemetryConfig  `toml:"telemetry"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	UserID         string `toml:"user_id,omitempty"`
	AccountID      string `toml:"account_id,omitempty"`
	DefaultPeriod  string `toml:"default_period"`
	GraphMode      string `toml:"graph_mode"`
	SignConvention string `toml:"sign_convention"`
	ImportDir      string `toml:"import_dir,omitempty"`
	Timezone       string `toml:"timezone,omitempty"`
}

// ForecastConfig selects the prediction source.
type ForecastConfig struct {
	Provider string `toml:"provider"` // synthetic | remote
	Seed     int64  `toml:"seed,omitempty"`
	Days     int    `toml:"days,omitempty"`
}

// OracleConfig holds settings for the external prediction/anomaly service.
type OracleConfig struct {
	BaseURL    string `toml:"base_url,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
	MaxRetries int    `toml:"max_retries"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// TelemetryConfig holds error reporting settings.
type TelemetryConfig struct {
	SentryDSN   string `toml:"sentry_dsn,omitempty"`
	Environment string `toml:"environment,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultPeriod:  string(model.Weekly),
			GraphMode:      string(model.Cumulative),
			SignConvention: string(model.PositiveSpend),
		},
		Forecast: ForecastConfig{
			Provider: "synthetic",
		},
		Oracle: OracleConfig{
			TimeoutSec: 30,
			MaxRetries: 3,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSec:  15,
			EventsBuffer: 200,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 60,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "spendburn")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "spendburn")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// OracleURL returns the oracle base URL from env var or config, in that order.
func OracleURL(cfg Config) string {
	if v := os.Getenv("SPENDBURN_ORACLE_URL"); v != "" {
		return v
	}
	return cfg.Oracle.BaseURL
}

// OracleKey returns the oracle API key from env var or config, in that order.
func OracleKey(cfg Config) string {
	if v := os.Getenv("SPENDBURN_ORACLE_KEY"); v != "" {
		return v
	}
	return cfg.Oracle.APIKey
}

// SentryDSN returns the error reporting DSN from env var or config, in that order.
func SentryDSN(cfg Config) string {
	if v := os.Getenv("SPENDBURN_SENTRY_DSN"); v != "" {
		return v
	}
	return cfg.Telemetry.SentryDSN
}

// Location resolves [general] timezone. Empty means the local zone.
func (c Config) Location() (*time.Location, error) {
	if c.General.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.General.Timezone, err)
	}
	return loc, nil
}

// Period returns the default period, falling back to weekly.
func (c Config) Period() model.Period {
	p, err := model.ParsePeriod(c.General.DefaultPeriod)
	if err != nil {
		return model.Weekly
	}
	return p
}

// GraphMode returns the default graph mode, falling back to cumulative.
func (c Config) GraphMode() model.GraphMode {
	m, err := model.ParseGraphMode(c.General.GraphMode)
	if err != nil {
		return model.Cumulative
	}
	return m
}

// Sign returns the configured sign convention.
func (c Config) Sign() (model.SignConvention, error) {
	if c.General.SignConvention == "" {
		return model.PositiveSpend, nil
	}
	return model.ParseSignConvention(c.General.SignConvention)
}
