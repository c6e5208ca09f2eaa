// Package config loads viewer configuration from TOML files with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DOCVIEW_"

// Config holds the viewer defaults.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Viewer   ViewerConfig   `toml:"viewer"`
	Download DownloadConfig `toml:"download"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
}

// ViewerConfig configures viewer behavior.
type ViewerConfig struct {
	// Origin is the host origin used for cross-origin advisories.
	Origin string `toml:"origin"`

	// Palette is the editing color configuration. Empty means the built-in
	// five-entry default.
	Palette []string `toml:"palette"`

	// PageChangeDebounceMS is the scroll quiescence window in milliseconds
	// before current-page tracking runs.
	PageChangeDebounceMS int `toml:"page_change_debounce_ms"`

	// WatchSource enables re-resolution when a local file source changes.
	WatchSource bool `toml:"watch_source"`
}

// DownloadConfig configures the download path.
type DownloadConfig struct {
	// DefaultName is the filename used when the caller supplies none.
	DefaultName string `toml:"default_name"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Viewer: ViewerConfig{
			PageChangeDebounceMS: 1000,
		},
		Download: DownloadConfig{
			DefaultName: "document.pdf",
		},
	}
}

// PageChangeDebounce returns the debounce window as a duration.
func (c *ViewerConfig) PageChangeDebounce() time.Duration {
	return time.Duration(c.PageChangeDebounceMS) * time.Millisecond
}

// Load reads configuration from path, starting from defaults. A missing
// file is not an error; the defaults are returned. Environment variables
// with the DOCVIEW_ prefix override file values.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv applies DOCVIEW_-prefixed environment overrides.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "ORIGIN"); ok {
		c.Viewer.Origin = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "WATCH_SOURCE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Viewer.WatchSource = b
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "PAGE_CHANGE_DEBOUNCE_MS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Viewer.PageChangeDebounceMS = n
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DOWNLOAD_NAME"); ok {
		c.Download.DefaultName = v
	}
}
