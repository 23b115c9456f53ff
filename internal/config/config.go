// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	Dev         bool   `env:"DEV" envDefault:"false"`
}

// Load reads .env if present (missing is fine), then the process
// environment. With no DATABASE_URL the server runs on the in-memory store.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
