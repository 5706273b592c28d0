package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// MockBackendConfig configures the development fake of the course backend.
type MockBackendConfig struct {
	Port         int           `env:"MOCKBACKEND_PORT"          envDefault:"8000"`
	JWTSecret    string        `env:"MOCKBACKEND_JWT_SECRET"`
	TokenTTL     time.Duration `env:"MOCKBACKEND_TOKEN_TTL"     envDefault:"24h"`
	SummarySteps int           `env:"MOCKBACKEND_SUMMARY_STEPS" envDefault:"3"`
	StepDelay    time.Duration `env:"MOCKBACKEND_STEP_DELAY"    envDefault:"2s"`
	Log          LogConfig
}

// LoadMockBackend reads and validates the mock backend configuration.
func LoadMockBackend() (*MockBackendConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &MockBackendConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("MOCKBACKEND_JWT_SECRET is required and must be at least 16 bytes")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MOCKBACKEND_PORT must be a valid port, got %d", cfg.Port)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("MOCKBACKEND_TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.SummarySteps < 1 {
		return nil, fmt.Errorf("MOCKBACKEND_SUMMARY_STEPS must be at least 1, got %d", cfg.SummarySteps)
	}
	return cfg, nil
}
