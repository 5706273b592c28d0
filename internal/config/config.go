package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the lecturepilot client.
type Config struct {
	API     APIConfig
	Store   StoreConfig
	Polling PollingConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string        `env:"LECTUREPILOT_API_BASE_URL" envDefault:"http://localhost:8000/api"`
	Timeout time.Duration `env:"LECTUREPILOT_HTTP_TIMEOUT" envDefault:"30s"`
}

type StoreConfig struct {
	Backend  string `env:"LECTUREPILOT_STORE"      envDefault:"sqlite"`
	Path     string `env:"LECTUREPILOT_STORE_PATH"`
	RedisURL string `env:"REDIS_URL"`
}

type PollingConfig struct {
	LectureInterval   time.Duration `env:"LECTUREPILOT_LECTURE_POLL_INTERVAL"     envDefault:"4s"`
	CourseInterval    time.Duration `env:"LECTUREPILOT_COURSE_POLL_INTERVAL"      envDefault:"1s"`
	CourseMaxAttempts int           `env:"LECTUREPILOT_COURSE_POLL_MAX_ATTEMPTS"  envDefault:"180"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"warn"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

var validBackends = map[string]bool{
	"sqlite": true,
	"redis":  true,
	"memory": true,
}

// Load reads an optional .env file, then environment variables, and returns a
// validated Config. Returns a descriptive error if any value is missing or invalid.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath()
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("LECTUREPILOT_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("LECTUREPILOT_API_BASE_URL must start with http:// or https://, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("LECTUREPILOT_HTTP_TIMEOUT must be positive, got %s", c.API.Timeout)
	}

	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("LECTUREPILOT_STORE must be one of sqlite, redis, memory; got %q", c.Store.Backend)
	}
	if c.Store.Backend == "redis" && c.Store.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when LECTUREPILOT_STORE is redis")
	}

	if c.Polling.LectureInterval <= 0 {
		return fmt.Errorf("LECTUREPILOT_LECTURE_POLL_INTERVAL must be positive, got %s", c.Polling.LectureInterval)
	}
	if c.Polling.CourseInterval <= 0 {
		return fmt.Errorf("LECTUREPILOT_COURSE_POLL_INTERVAL must be positive, got %s", c.Polling.CourseInterval)
	}
	if c.Polling.CourseMaxAttempts < 1 {
		return fmt.Errorf("LECTUREPILOT_COURSE_POLL_MAX_ATTEMPTS must be at least 1, got %d", c.Polling.CourseMaxAttempts)
	}

	return nil
}

// loadDotEnv loads key=value pairs from path without overriding variables
// already set in the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lecturepilot", "state.db")
	}
	return filepath.Join(home, ".lecturepilot", "state.db")
}
