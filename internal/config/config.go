// Package config reads process settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// #region config
// Config holds the daemon and CLI settings.
type Config struct {
	DBPath       string `env:"HRI_DB" envDefault:"h2ready.db"`
	GRPCAddr     string `env:"HRI_GRPC_ADDR" envDefault:"localhost:50061"`
	MetricsAddr  string `env:"HRI_METRICS_ADDR" envDefault:":9461"`
	RulesPath    string `env:"HRI_RULES"` // empty uses the embedded table
	LogLevel     string `env:"HRI_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"HRI_LOG_FORMAT" envDefault:"text"`
	StrictInputs bool   `env:"HRI_STRICT_INPUTS" envDefault:"false"`
	Workers      int    `env:"HRI_WORKERS" envDefault:"4"`
}

// #endregion config

// #region load
// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom parses an explicit environment map.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("HRI_WORKERS must be >= 1, got %d", c.Workers)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("HRI_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// #endregion load
