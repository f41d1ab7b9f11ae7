// Package config loads the car listing client's settings from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sakif/car-listing/internal/repository/httpapi"
)

// DefaultPath is read when neither the caller nor CONFIG_PATH names a file.
// It may be absent.
const DefaultPath = "config.yaml"

// Config represents the overall application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds the web front end settings.
type ServerConfig struct {
	Port              int           `yaml:"port"`
	RateLimitPerSec   float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst    int           `yaml:"rate_limit_burst"`
	SessionSecret     string        `yaml:"session_secret"`
	SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
	SessionTTL        time.Duration `yaml:"-"`
}

// APIConfig points the client at the cars REST API.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"` // 0 means no client-imposed timeout
	Timeout        time.Duration `yaml:"-"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration.
//
// An empty path means CONFIG_PATH, or DefaultPath when that is unset too. A
// missing DefaultPath is not an error, but a file the caller or CONFIG_PATH
// named explicitly must exist. Environment overrides are applied after the
// file: PORT, CARS_API_URL, SESSION_SECRET, LOG_LEVEL and LOG_FORMAT.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("CONFIG_PATH"); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultPath
		}
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// No file: run on defaults and environment.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CARS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 20
	}
	if c.Server.SessionTTLMinutes <= 0 {
		c.Server.SessionTTLMinutes = 30
	}
	c.Server.SessionTTL = time.Duration(c.Server.SessionTTLMinutes) * time.Minute

	if c.API.BaseURL == "" {
		c.API.BaseURL = httpapi.DefaultBaseURL
	}
	if c.API.TimeoutSeconds < 0 {
		c.API.TimeoutSeconds = 0
	}
	c.API.Timeout = time.Duration(c.API.TimeoutSeconds) * time.Second

	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	return nil
}
