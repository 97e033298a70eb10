// Package config loads pongstats settings from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the commands read.
type Config struct {
	DB        string          `yaml:"db"`
	API       APIConfig       `yaml:"api"`
	Server    ServerConfig    `yaml:"server"`
	Carousel  CarouselConfig  `yaml:"carousel"`
	Log       LogConfig       `yaml:"log"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// APIConfig points the carousel at a remote `pongstats serve`. Empty means
// read the local database.
type APIConfig struct {
	URL string `yaml:"url"`
}

type ServerConfig struct {
	Listen    string  `yaml:"listen"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per IP
	Burst     int     `yaml:"burst"`
}

type CarouselConfig struct {
	Refresh time.Duration `yaml:"refresh"`
	LogFile string        `yaml:"log_file"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
	File   string `yaml:"file"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Dir is the per-user state directory, ~/.pongstats.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pongstats"
	}
	return filepath.Join(home, ".pongstats")
}

// DefaultPath is the config file read when --config is not given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in settings.
func Default() *Config {
	dir := Dir()
	return &Config{
		DB:       filepath.Join(dir, "pongstats.db"),
		Server:   ServerConfig{Listen: ":8080", RateLimit: 20, Burst: 40},
		Carousel: CarouselConfig{Refresh: 8 * time.Second, LogFile: filepath.Join(dir, "carousel.log")},
		Log:      LogConfig{Level: "info", Format: "text"},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-6",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PONGSTATS_DB"); v != "" {
		c.DB = v
	}
	if v := getenv("PONGSTATS_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := getenv("PONGSTATS_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := getenv("PONGSTATS_REFRESH"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PONGSTATS_REFRESH value: %w", err)
		}
		c.Carousel.Refresh = d
	}
	if v := getenv("PONGSTATS_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PONGSTATS_RATE_LIMIT value: %w", err)
		}
		c.Server.RateLimit = f
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	}
	return nil
}

// Validate rejects settings the commands cannot run with.
func (c *Config) Validate() error {
	if c.Carousel.Refresh <= 0 {
		return fmt.Errorf("carousel.refresh must be positive, got %s", c.Carousel.Refresh)
	}
	if c.Server.RateLimit <= 0 || c.Server.Burst <= 0 {
		return fmt.Errorf("server.rate_limit and server.burst must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// NewLogger builds the slog logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// OpenLogFile opens path for appending, creating its directory.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
