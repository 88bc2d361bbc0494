package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds process configuration read from the environment. Every
// field has a default so a bare `veramon-battles` starts a playable
// server against a local database.
type Server struct {
	Address        string        `env:"VERAMON_ADDR" envDefault:":8080"`
	DatabasePath   string        `env:"VERAMON_DB" envDefault:"veramon.db"`
	TablesPath     string        `env:"VERAMON_CONFIG" envDefault:"veramon_config.json"`
	ActionTimeout  time.Duration `env:"VERAMON_ACTION_TIMEOUT" envDefault:"60s"`
	IdleLimit      int           `env:"VERAMON_IDLE_LIMIT" envDefault:"3"`
	PersistRetries int           `env:"VERAMON_PERSIST_RETRIES" envDefault:"3"`
	SweepInterval  time.Duration `env:"VERAMON_SWEEP_INTERVAL" envDefault:"1s"`
}

// LoadServer parses the VERAMON_* environment variables.
func LoadServer() (Server, error) {
	var s Server
	if err := env.Parse(&s); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if s.ActionTimeout <= 0 {
		return Server{}, fmt.Errorf("VERAMON_ACTION_TIMEOUT must be positive, got %s", s.ActionTimeout)
	}
	if s.IdleLimit <= 0 {
		return Server{}, fmt.Errorf("VERAMON_IDLE_LIMIT must be positive, got %d", s.IdleLimit)
	}
	if s.PersistRetries < 0 {
		return Server{}, fmt.Errorf("VERAMON_PERSIST_RETRIES must not be negative, got %d", s.PersistRetries)
	}
	if s.SweepInterval <= 0 {
		return Server{}, fmt.Errorf("VERAMON_SWEEP_INTERVAL must be positive, got %s", s.SweepInterval)
	}
	return s, nil
}
