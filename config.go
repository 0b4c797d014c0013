package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server's runtime settings. Values come from the
// environment; command-line flags override them in main.
type Config struct {
	Addr      string `env:"SKYRAID_ADDR" envDefault:":3000"`
	ClientDir string `env:"SKYRAID_CLIENT_DIR" envDefault:""`
	DBPath    string `env:"SKYRAID_DB" envDefault:"skyraid.db"`
}

// LoadConfig parses configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
