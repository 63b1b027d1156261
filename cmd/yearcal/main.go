// Package main is the entry point for the yearcal command.
package main

import (
	"log/slog"
	"os"

	"github.com/zapponejosh/yearcal/internal/config"
	"github.com/zapponejosh/yearcal/internal/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Error("yearcal failed", slog.Any("error", err))
		os.Exit(1)
	}
}
