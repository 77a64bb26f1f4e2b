// Package config defines service configuration and loading.
//
// Configuration is layered, lowest precedence first: built-in defaults, an
// optional YAML file named by FRCSTATS_CONFIG, then FRCSTATS_-prefixed
// environment variables. Nested keys use double underscores in env form,
// e.g. FRCSTATS_SERVER__PORT maps to server.port.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION STRUCTURES
// ══════════════════════════════════════════════════════════════════════════════

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `koanf:"app"`
	Server        ServerConfig        `koanf:"server"`
	TBA           TBAConfig           `koanf:"tba"`
	Statbotics    StatboticsConfig    `koanf:"statbotics"`
	Storage       StorageConfig       `koanf:"storage"`
	Leaderboard   LeaderboardConfig   `koanf:"leaderboard"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name  string `koanf:"name"`
	Debug bool   `koanf:"debug"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string        `koanf:"host"`
	Port               int           `koanf:"port"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	EnableCORS         bool          `koanf:"enable_cors"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
}

// TBAConfig holds The Blue Alliance API settings.
type TBAConfig struct {
	// AuthKey is the X-TBA-Auth-Key read key. Required.
	AuthKey string `koanf:"auth_key"`

	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// CachePath enables the sqlite ETag cache when non-empty.
	CachePath string `koanf:"cache_path"`
}

// StatboticsConfig holds Statbotics API settings.
type StatboticsConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// StorageConfig selects and configures the snapshot store backend.
type StorageConfig struct {
	// Backend is one of "file", "redis", "postgres".
	Backend string `koanf:"backend"`

	// FilePath is the snapshot path for the file backend.
	FilePath string `koanf:"file_path"`

	// RedisAddr is "host:port" for the redis backend.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// PostgresURL is the connection URL for the postgres backend.
	PostgresURL string `koanf:"postgres_url"`
}

// LeaderboardConfig holds batch pass settings.
type LeaderboardConfig struct {
	// Season to rank. Zero means the current year.
	Season int `koanf:"season"`

	// PacingDelay between successive upstream fetches.
	PacingDelay time.Duration `koanf:"pacing_delay"`

	// TopN is how many entries the snapshot keeps.
	TopN int `koanf:"top_n"`

	// RunHour and RunMinute set the daily UTC run time.
	RunHour   int `koanf:"run_hour"`
	RunMinute int `koanf:"run_minute"`

	// RunAtStart triggers an eager pass on process start.
	RunAtStart bool `koanf:"run_at_start"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// EnableMetrics exposes /metrics on the HTTP server.
	EnableMetrics bool `koanf:"enable_metrics"`
}

// ══════════════════════════════════════════════════════════════════════════════
// DEFAULTS AND LOADING
// ══════════════════════════════════════════════════════════════════════════════

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:            "frcstats",
			Debug:           false,
			ShutdownTimeout: 15 * time.Second,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			EnableCORS:         true,
			RateLimitPerMinute: 60,
		},
		TBA: TBAConfig{
			BaseURL: "https://www.thebluealliance.com/api/v3",
			Timeout: 30 * time.Second,
		},
		Statbotics: StatboticsConfig{
			BaseURL: "https://api.statbotics.io/v3",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:  "file",
			FilePath: "data/leaderboard.json",
		},
		Leaderboard: LeaderboardConfig{
			PacingDelay: 2 * time.Second,
			TopN:        250,
			RunHour:     6,
			RunMinute:   0,
			RunAtStart:  true,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogFormat:     "json",
			EnableMetrics: true,
		},
	}
}

// Load builds a Config by layering defaults, an optional file, and env vars.
func Load() (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path := os.Getenv("FRCSTATS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// FRCSTATS_SERVER__PORT -> server.port
	envProvider := env.Provider("FRCSTATS_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "FRCSTATS_"))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
		if c.Storage.FilePath == "" {
			return errors.New("config: storage.file_path is required for the file backend")
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			return errors.New("config: storage.redis_addr is required for the redis backend")
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return errors.New("config: storage.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}

	if c.Leaderboard.TopN <= 0 {
		return errors.New("config: leaderboard.top_n must be positive")
	}
	if c.Leaderboard.RunHour < 0 || c.Leaderboard.RunHour > 23 {
		return fmt.Errorf("config: invalid leaderboard run hour %d", c.Leaderboard.RunHour)
	}
	if c.Leaderboard.RunMinute < 0 || c.Leaderboard.RunMinute > 59 {
		return fmt.Errorf("config: invalid leaderboard run minute %d", c.Leaderboard.RunMinute)
	}

	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Observability.LogLevel)
	}

	return nil
}

// ServerAddress returns the HTTP listen address.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
