// Package config loads process settings from the environment and query
// tuning from an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration.
type Config struct {
	Port         int      `env:"WAYSTONE_PORT" envDefault:"8080"`
	DBPath       string   `env:"WAYSTONE_DB_PATH" envDefault:"data/waystone.db"`
	AdminKey     string   `env:"WAYSTONE_ADMIN_KEY"`
	TuningPath   string   `env:"WAYSTONE_TUNING_PATH"`
	LogLevel     string   `env:"WAYSTONE_LOG_LEVEL" envDefault:"info"`
	OTELEndpoint string   `env:"WAYSTONE_OTEL_ENDPOINT"`
	CORSOrigins  []string `env:"WAYSTONE_CORS_ORIGINS" envSeparator:","`
}

// Load reads Config from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("WAYSTONE_PORT out of range: %d", cfg.Port)
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level. Unknown names mean info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
