package app

import (
	"fmt"
	"log/slog"

	"github.com/vex-labs/setup-contract-script/internal/config"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/driver"
	"github.com/vex-labs/setup-contract-script/internal/metrics"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
	"github.com/vex-labs/setup-contract-script/internal/signer"
)

// Wire constructs the full dependency graph for one setup run: the credential
// pool from the configured principals, the rate-limited RPC client, the
// gateway binding the two, the metrics registry, and the driver on top.
func Wire(cfg *config.Config, matches []domain.MatchDef, logger *slog.Logger) (*driver.Driver, error) {
	pool, mainAccount, err := buildPool(cfg.Principals)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	client := nearrpc.New(cfg.Network.RPCURL, cfg.Network.RequestsPerSecond, m)
	gateway := nearrpc.NewGateway(client, pool)

	return driver.New(gateway, cfg, matches, mainAccount, m, logger), nil
}

// buildPool parses every principal's credentials into a signing pool and
// returns the account that fronts the run's funds: the first credential of
// the "main" principal.
func buildPool(principals []config.PrincipalConfig) (*signer.Pool, string, error) {
	var (
		parsed      []signer.Principal
		mainAccount string
	)
	for _, p := range principals {
		creds := make([]domain.Credential, 0, len(p.Credentials))
		for _, c := range p.Credentials {
			cred, err := domain.ParseCredential(c.AccountID, c.SecretKey)
			if err != nil {
				return nil, "", fmt.Errorf("wire: principal %s: %w", p.Name, err)
			}
			creds = append(creds, cred)
		}
		parsed = append(parsed, signer.Principal{Name: p.Name, Credentials: creds})
		if p.Name == "main" && len(creds) > 0 {
			mainAccount = creds[0].AccountID
		}
	}

	pool, err := signer.NewPool(parsed)
	if err != nil {
		return nil, "", fmt.Errorf("wire: %w", err)
	}
	if mainAccount == "" {
		return nil, "", fmt.Errorf("wire: principal \"main\" has no credentials: %w", domain.ErrConfiguration)
	}
	return pool, mainAccount, nil
}
