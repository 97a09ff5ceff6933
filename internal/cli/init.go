// Package cli holds the start-up steps shared by the accountbook binaries.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"accountbook/internal/config"
	"accountbook/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger at level and makes it the default.
func SetupLogger(level string) (*log.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, lvl)
	log.SetDefault(logger)
	return logger, nil
}

// Bootstrap loads the environment, configuration and logger, in that order.
func Bootstrap() (*config.Config, *log.Logger, error) {
	LoadEnvFile()
	cfg := config.Load()
	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
