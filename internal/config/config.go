// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Extractor ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser driver. Navigation
// and settle timeouts live here, not in the semantic core: the driver bounds
// how long a page may take to become observable.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleWait        time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// ExtractorConfig tunes snapshot extraction.
type ExtractorConfig struct {
	// MaxContentLength caps visible text captured per element. Longer text is
	// truncated with an ellipsis marker.
	MaxContentLength int `mapstructure:"max_content_length" yaml:"max_content_length"`
	// HeaderLabel is the header text used to locate the working root when
	// grouping result blocks (e.g. "Search Results").
	HeaderLabel string `mapstructure:"header_label" yaml:"header_label"`
}

// CacheConfig tunes the per-session page cache.
type CacheConfig struct {
	// ObserveInterval is the minimum spacing between repeated observations of
	// the same page in watch mode.
	ObserveInterval time.Duration `mapstructure:"observe_interval" yaml:"observe_interval"`
}

// DatabaseConfig holds the snapshot archive connection details. An empty URL
// disables archiving; the tracker runs fully in memory.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// setDefaults registers default values on the provided viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "pagescope-cli")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.settle_wait", 500*time.Millisecond)

	v.SetDefault("extractor.max_content_length", 200)
	v.SetDefault("extractor.header_label", "Search Results")

	v.SetDefault("cache.observe_interval", time.Second)
}

// Load unmarshals the full configuration from the given viper instance,
// applying defaults for anything unset.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the subsystem cannot run with.
func (c *Config) Validate() error {
	if c.Extractor.MaxContentLength < 4 {
		return fmt.Errorf("extractor.max_content_length must be at least 4, got %d", c.Extractor.MaxContentLength)
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive")
	}
	return nil
}
