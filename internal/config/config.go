// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreRemote   = "remote"
	StorePostgres = "postgres"
)

// Defaults used when neither the config file, the environment nor a flag sets a value.
const (
	DefaultAPIURL           = "https://resumexpert-dev.onrender.com/"
	DefaultHealthIntervalMS = 2000
	DefaultProbeTimeoutMS   = 10000
	DefaultRequestTimeoutMS = 120000
	DefaultMaxConcurrency   = 4
	DefaultSessionFileName  = "session.json"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIURL        = "RESUMEXPERT_API_URL"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvSessionFile   = "RESUMEXPERT_SESSION_FILE"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChat  = "TELEGRAM_CHAT_ID"
	EnvPassword      = "RESUMEXPERT_PASSWORD"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Backend
	APIURL      string `json:"api_url,omitempty"`      // Base URL of the ResumeXpert backend
	Store       string `json:"store,omitempty"`        // "remote" or "postgres"
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	SessionFile string `json:"session_file,omitempty"` // Where session cookies are persisted

	// Timing
	HealthIntervalMS int `json:"health_interval_ms,omitempty"` // Delay between failed health probes
	ProbeTimeoutMS   int `json:"probe_timeout_ms,omitempty"`   // Per-probe timeout
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty"` // Timeout for every other request

	// Behavior
	JobLocation    string `json:"job_location,omitempty"`    // Location passed to job matching
	MaxConcurrency int    `json:"max_concurrency,omitempty"` // Ranking count fan-out limit
	UseBrowser     bool   `json:"use_browser,omitempty"`     // Use headless browser for job URLs
	Verbose        bool   `json:"verbose,omitempty"`         // Print detailed debug information

	// Notifications
	TelegramToken  string `json:"telegram_token,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`  // logrus level name
	LogFormat string `json:"log_format,omitempty"` // "text" or "json"
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:           DefaultAPIURL,
		Store:            StoreRemote,
		SessionFile:      defaultSessionFile(),
		HealthIntervalMS: DefaultHealthIntervalMS,
		ProbeTimeoutMS:   DefaultProbeTimeoutMS,
		RequestTimeoutMS: DefaultRequestTimeoutMS,
		MaxConcurrency:   DefaultMaxConcurrency,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultSessionFileName
	}
	return filepath.Join(dir, "resumexpert", DefaultSessionFileName)
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set and non-empty.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv(EnvSessionFile); v != "" {
		c.SessionFile = v
	}
	if v := getenv(EnvTelegramToken); v != "" {
		c.TelegramToken = v
	}
	if v := getenv(EnvTelegramChat); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config error: %s must be a numeric chat id: %w", EnvTelegramChat, err)
		}
		c.TelegramChatID = id
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_url' must be an absolute URL: %q", c.APIURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config error: 'api_url' scheme must be http or https")
		}
	}

	switch c.Store {
	case "", StoreRemote:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	default:
		return fmt.Errorf("config error: unknown store %q (want %q or %q)", c.Store, StoreRemote, StorePostgres)
	}

	// Validate numeric ranges
	if c.HealthIntervalMS < 0 {
		return fmt.Errorf("config error: 'health_interval_ms' must be non-negative")
	}
	if c.ProbeTimeoutMS < 0 {
		return fmt.Errorf("config error: 'probe_timeout_ms' must be non-negative")
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("config error: 'request_timeout_ms' must be non-negative")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("config error: 'max_concurrency' must be non-negative")
	}

	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: 'log_format' must be text or json")
	}

	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("config error: 'telegram_chat_id' is required when 'telegram_token' is set")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SessionFile == "" {
		result.SessionFile = defaults.SessionFile
	}
	if result.JobLocation == "" {
		result.JobLocation = defaults.JobLocation
	}
	if result.TelegramToken == "" {
		result.TelegramToken = defaults.TelegramToken
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Int fields: use default if zero
	if result.HealthIntervalMS == 0 {
		result.HealthIntervalMS = defaults.HealthIntervalMS
	}
	if result.ProbeTimeoutMS == 0 {
		result.ProbeTimeoutMS = defaults.ProbeTimeoutMS
	}
	if result.RequestTimeoutMS == 0 {
		result.RequestTimeoutMS = defaults.RequestTimeoutMS
	}
	if result.MaxConcurrency == 0 {
		result.MaxConcurrency = defaults.MaxConcurrency
	}
	if result.TelegramChatID == 0 {
		result.TelegramChatID = defaults.TelegramChatID
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// HealthInterval is the delay between a failed probe and the next one.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalMS) * time.Millisecond
}

// ProbeTimeout bounds a single health probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

// RequestTimeout bounds every non-probe request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
