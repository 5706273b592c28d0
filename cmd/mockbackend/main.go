// Package main runs the in-memory fake of the course platform backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/lecturepilot/internal/config"
	"github.com/kiranshivaraju/lecturepilot/internal/mockbackend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("mock backend failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadMockBackend()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.InitLogger(cfg.Log, os.Stdout)
	slog.Info("config loaded", "port", cfg.Port, "summary_steps", cfg.SummarySteps, "step_delay", cfg.StepDelay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := mockbackend.NewState()
	jobs := mockbackend.NewJobs(state, mockbackend.ExtractiveSummarizer{}, cfg.SummarySteps, cfg.StepDelay)
	defer jobs.Close()

	server := mockbackend.NewServer(state, mockbackend.NewTokens(cfg.JWTSecret, cfg.TokenTTL), jobs)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mockbackend.NewRouter(server),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mock backend listening", "addr", addr, "base_url", fmt.Sprintf("http://localhost:%d/api", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("mock backend stopped")
	return nil
}
