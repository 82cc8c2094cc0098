package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ligustah/pageslurp/internal/config"
	"github.com/ligustah/pageslurp/internal/progress"
)

// loadConfig builds the configuration from defaults, an optional YAML file
// and the environment. A .env file in the working directory is loaded
// first; variables already set win over it.
func loadConfig(path string) (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr at the configured level.
func newLogger(cfg config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newReporter returns the progress reporter for the configured style.
func newReporter(cfg config.Config) progress.Reporter {
	switch cfg.Progress {
	case config.ProgressBar:
		return progress.NewBar(progress.Options{Output: os.Stderr})
	case config.ProgressSpinner:
		return progress.NewSpinner(os.Stderr)
	case config.ProgressLog:
		level, err := cfg.SlogLevel()
		if err != nil {
			level = slog.LevelInfo
		}
		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: min(level, slog.LevelInfo)})
		return progress.NewLog(slog.New(handler))
	default:
		return progress.Nop{}
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(name string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintf(os.Stderr, "\n[pageslurp] Received interrupt, stopping %s...\n", name)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
