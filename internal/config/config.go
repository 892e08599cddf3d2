// ABOUTME: Configuration loading and parsing for bako-api
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bako-api configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Permissions PermissionsConfig `yaml:"permissions"`
	Notify      NotifyConfig      `yaml:"notify"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication and session timing configuration
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	SessionTTL    time.Duration `yaml:"-"`
	MaxClockSkew  time.Duration `yaml:"-"`
	ReplayWindow  time.Duration `yaml:"-"`
	SweepInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	SessionTTLRaw    string `yaml:"session_ttl"`
	MaxClockSkewRaw  string `yaml:"max_clock_skew"`
	ReplayWindowRaw  string `yaml:"replay_window"`
	SweepIntervalRaw string `yaml:"sweep_interval"`
}

// PermissionsConfig points at an optional TOML file overriding the built-in
// role capability defaults
type PermissionsConfig struct {
	DefaultsPath string `yaml:"defaults_path"`
}

// NotifyConfig holds member notification configuration
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Session timing defaults applied when the config file leaves them unset.
const (
	DefaultSessionTTL    = 15 * time.Minute
	DefaultMaxClockSkew  = 5 * time.Minute
	DefaultReplayWindow  = 10 * time.Minute
	DefaultSweepInterval = time.Hour
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	if c.Auth.MaxClockSkew <= 0 {
		return fmt.Errorf("auth.max_clock_skew must be positive")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.SessionTTLRaw != "" {
		cfg.Auth.SessionTTL, err = time.ParseDuration(cfg.Auth.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session_ttl %q: %w", cfg.Auth.SessionTTLRaw, err)
		}
	}

	if cfg.Auth.MaxClockSkewRaw != "" {
		cfg.Auth.MaxClockSkew, err = time.ParseDuration(cfg.Auth.MaxClockSkewRaw)
		if err != nil {
			return fmt.Errorf("parsing max_clock_skew %q: %w", cfg.Auth.MaxClockSkewRaw, err)
		}
	}

	if cfg.Auth.ReplayWindowRaw != "" {
		cfg.Auth.ReplayWindow, err = time.ParseDuration(cfg.Auth.ReplayWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing replay_window %q: %w", cfg.Auth.ReplayWindowRaw, err)
		}
	}

	if cfg.Auth.SweepIntervalRaw != "" {
		cfg.Auth.SweepInterval, err = time.ParseDuration(cfg.Auth.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sweep_interval %q: %w", cfg.Auth.SweepIntervalRaw, err)
		}
	}

	return nil
}

// applyDefaults fills unset session timing fields
func applyDefaults(cfg *Config) {
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = DefaultSessionTTL
	}
	if cfg.Auth.MaxClockSkew == 0 {
		cfg.Auth.MaxClockSkew = DefaultMaxClockSkew
	}
	if cfg.Auth.ReplayWindow == 0 {
		cfg.Auth.ReplayWindow = DefaultReplayWindow
	}
	if cfg.Auth.SweepInterval == 0 {
		cfg.Auth.SweepInterval = DefaultSweepInterval
	}
}
