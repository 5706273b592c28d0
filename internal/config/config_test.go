package config_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/kiranshivaraju/lecturepilot/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv is a helper that sets environment variables for a test and restores them after.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

// validEnv returns the minimum set of valid environment variables.
func validEnv() map[string]string {
	return map[string]string{
		"LECTUREPILOT_API_BASE_URL": "http://localhost:8000/api",
		"LECTUREPILOT_STORE":        "memory",
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, 4*time.Second, cfg.Polling.LectureInterval)
	assert.Equal(t, time.Second, cfg.Polling.CourseInterval)
	assert.Equal(t, 180, cfg.Polling.CourseMaxAttempts)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_TrimsTrailingSlash(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_API_BASE_URL", "https://example.ngrok-free.dev/api/")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://example.ngrok-free.dev/api", cfg.API.BaseURL)
}

func TestLoad_CustomPolling(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_LECTURE_POLL_INTERVAL", "250ms")
	t.Setenv("LECTUREPILOT_COURSE_POLL_INTERVAL", "2s")
	t.Setenv("LECTUREPILOT_COURSE_POLL_MAX_ATTEMPTS", "10")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Polling.LectureInterval)
	assert.Equal(t, 2*time.Second, cfg.Polling.CourseInterval)
	assert.Equal(t, 10, cfg.Polling.CourseMaxAttempts)
}

func TestLoad_InvalidBaseURLScheme(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_API_BASE_URL", "ftp://localhost/api")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LECTUREPILOT_API_BASE_URL")
}

func TestLoad_InvalidStoreBackend(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_STORE", "mongo")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LECTUREPILOT_STORE")
}

func TestLoad_RedisRequiresURL(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_STORE", "redis")
	t.Setenv("REDIS_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_RedisWithURL(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379", cfg.Store.RedisURL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_LECTURE_POLL_INTERVAL", "soon")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_ZeroMaxAttempts(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("LECTUREPILOT_COURSE_POLL_MAX_ATTEMPTS", "0")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ATTEMPTS")
}

func TestLoadMockBackend_RequiresSecret(t *testing.T) {
	t.Setenv("MOCKBACKEND_JWT_SECRET", "short")

	_, err := config.LoadMockBackend()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MOCKBACKEND_JWT_SECRET")
}

func TestLoadMockBackend_Defaults(t *testing.T) {
	t.Setenv("MOCKBACKEND_JWT_SECRET", "0123456789abcdef0123")

	cfg, err := config.LoadMockBackend()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.SummarySteps)
	assert.Equal(t, 2*time.Second, cfg.StepDelay)
}

func TestInitLogger_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := config.InitLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug("hello", "k", "v")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestInitLogger_LevelFilters(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := config.InitLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}
