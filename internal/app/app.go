// Package app provides the top-level lifecycle for the setup script. It
// wires together all dependencies (credential pool, RPC gateway, metrics,
// and the driver) and runs the one-shot setup sequence.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vex-labs/setup-contract-script/internal/config"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/driver"
	"github.com/vex-labs/setup-contract-script/internal/fixture"
)

// App is the root application object. It owns the configuration and logger;
// everything else is wired per run.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It loads the match fixture, wires all
// dependencies, and executes the setup sequence to completion.
func (a *App) Run(ctx context.Context, matchesPath string) error {
	a.logger.InfoContext(ctx, "starting setup run",
		slog.String("rpc_url", a.cfg.Network.RPCURL),
		slog.String("betting_contract", a.cfg.Contracts.Betting),
		slog.String("matches", matchesPath),
		slog.Int("accounts", a.cfg.Betting.Accounts),
	)

	matches, err := fixture.Load(matchesPath)
	if err != nil {
		return fmt.Errorf("app: load matches: %w", err)
	}
	a.logger.Info("fixture loaded", slog.Int("matches", len(matches)))

	drv, err := Wire(a.cfg, matches, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	if err := drv.Run(ctx); err != nil {
		return err
	}

	a.report(drv)
	return nil
}

// report logs the final state of the board after a successful run.
func (a *App) report(drv *driver.Driver) {
	tr := drv.Tracker()
	a.logger.Info("final board",
		slog.Int("open", len(tr.MatchesInState(domain.MatchCreated))),
		slog.Int("betting_ended", len(tr.MatchesInState(domain.MatchBettingEnded))),
		slog.Int("finished", len(tr.MatchesInState(domain.MatchFinished))),
		slog.Int("cancelled", len(tr.MatchesInState(domain.MatchCancelled))),
	)
}
