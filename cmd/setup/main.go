// Command setup provisions a test environment on the betting contracts: it
// stakes, creates and funds bettor accounts, populates the match board,
// places randomized bets, settles a subset of matches, and claims winnings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vex-labs/setup-contract-script/internal/app"
	"github.com/vex-labs/setup-contract-script/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	matchesPath := flag.String("matches", "matches.json", "path to the match fixture")
	flag.Parse()

	// Setup structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Set log level from config.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("setup script starting",
		slog.String("config", *configPath),
		slog.String("matches", *matchesPath),
	)

	// Setup signal handling so Ctrl-C stops the run cleanly mid-phase.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	if err := application.Run(ctx, *matchesPath); err != nil {
		// The driver wraps the context error with its phase, so match by Is.
		if errors.Is(err, context.Canceled) {
			logger.Info("setup run interrupted")
		} else {
			logger.Error("setup run failed", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		}
		os.Exit(1)
	}

	logger.Info("setup run finished")
}
