// Package config provides configuration management for the breakout
// monitor.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Session SessionConfig `mapstructure:"session"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds the breakout parameters.
type EngineConfig struct {
	EntryPct    float64 `mapstructure:"entry_pct"`    // breakout threshold above open
	StoplossPct float64 `mapstructure:"stoploss_pct"` // drawdown threshold below open
	RiskReward  float64 `mapstructure:"risk_reward"`  // risk:reward multiplier
}

// SessionConfig holds the live session tunables.
type SessionConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MarginFactor float64       `mapstructure:"margin_factor"`
}

// FeedConfig holds the remote endpoint configuration. Candle shards
// are numbered 1..ShardCount and substituted into ShardURLTemplate.
type FeedConfig struct {
	SignalsURL       string        `mapstructure:"signals_url"`
	ShardURLTemplate string        `mapstructure:"shard_url_template"`
	ShardCount       int           `mapstructure:"shard_count"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// ShardURLs expands the template into the full shard URL list.
func (f FeedConfig) ShardURLs() []string {
	urls := make([]string, 0, f.ShardCount)
	for i := 1; i <= f.ShardCount; i++ {
		urls = append(urls, fmt.Sprintf(f.ShardURLTemplate, i))
	}
	return urls
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig holds the metrics endpoint configuration. Empty
// ListenAddr disables the endpoint.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/breakout-monitor"
	}
	return filepath.Join(home, ".config", "breakout-monitor")
}

// Load loads configuration from the specified directory. If configDir
// is empty, the default config directory is used; a missing config
// file is created from the template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("creating config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("engine.entry_pct", 0.03)
	v.SetDefault("engine.stoploss_pct", 0.01)
	v.SetDefault("engine.risk_reward", 1.0)

	v.SetDefault("session.poll_interval", "3s")
	v.SetDefault("session.margin_factor", 5.0)

	v.SetDefault("feed.signals_url", "https://project-get-entry.vercel.app/api/signals")
	v.SetDefault("feed.shard_url_template", "https://project-g-stock-%d.vercel.app/api/live-candles")
	v.SetDefault("feed.shard_count", 10)
	v.SetDefault("feed.timeout", "10s")

	v.SetDefault("store.path", filepath.Join(configDir, "monitor.db"))

	v.SetDefault("metrics.listen_addr", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "monitor.log"))
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BREAKOUT_SIGNALS_URL"); v != "" {
		cfg.Feed.SignalsURL = v
	}
	if v := os.Getenv("BREAKOUT_SHARD_URL_TEMPLATE"); v != "" {
		cfg.Feed.ShardURLTemplate = v
	}
	if v := os.Getenv("BREAKOUT_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("BREAKOUT_METRICS_ADDR"); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	if v := os.Getenv("BREAKOUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.EntryPct < 0 {
		return fmt.Errorf("engine.entry_pct must be non-negative")
	}
	if c.Engine.StoplossPct < 0 || c.Engine.StoplossPct >= 1 {
		return fmt.Errorf("engine.stoploss_pct must be in [0, 1)")
	}
	if c.Engine.RiskReward < 0 {
		return fmt.Errorf("engine.risk_reward must be non-negative")
	}
	if c.Session.PollInterval < time.Second {
		return fmt.Errorf("session.poll_interval must be at least 1s")
	}
	if c.Session.MarginFactor <= 0 {
		return fmt.Errorf("session.margin_factor must be positive")
	}
	if c.Feed.ShardCount < 1 {
		return fmt.Errorf("feed.shard_count must be at least 1")
	}
	if c.Feed.SignalsURL == "" || c.Feed.ShardURLTemplate == "" {
		return fmt.Errorf("feed endpoints must be configured")
	}
	return nil
}
