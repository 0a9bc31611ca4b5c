package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/vex-labs/setup-contract-script/internal/batch"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
)

// createAccounts generates fresh keypairs and registers each account on the
// root registrar. Account IDs embed a UUID so reruns never collide. Any
// failure here aborts the run: later phases assume the full roster exists.
func (d *Driver) createAccounts(ctx context.Context) error {
	n := d.cfg.Betting.Accounts
	d.accounts = make([]domain.Account, 0, n)

	specs := make([]domain.Account, n)
	for i := range specs {
		id := fmt.Sprintf("user-%s.%s",
			strings.ReplaceAll(uuid.NewString(), "-", "")[:12], d.cfg.Network.RootAccount)
		cred, err := domain.GenerateCredential(id)
		if err != nil {
			return fmt.Errorf("generate credential for %s: %w", id, err)
		}
		specs[i] = domain.Account{ID: id, Credential: cred}
	}

	results := batch.Run(ctx, specs, d.cfg.Betting.AccountConcurrency,
		func(ctx context.Context, acct domain.Account) (domain.Account, error) {
			_, err := d.invoke(ctx, "main", d.cfg.Network.RootAccount, "create_account", map[string]any{
				"new_account_id": acct.ID,
				"new_public_key": acct.Credential.PublicKeyString(),
			}, nearrpc.CallResources{Gas: defaultGas, Deposit: d.cfg.Funding.AccountDeposit})
			d.metrics.RecordOutcome("create_accounts", err)
			return acct, err
		})

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		d.accounts = append(d.accounts, r.Value)
		d.credByID[r.Value.ID] = r.Value.Credential
	}
	if err := batch.FirstError(results); err != nil {
		return err
	}
	d.logger.Info("accounts created", slog.Int("count", len(d.accounts)))
	return nil
}

// fundNative tops up each fresh account with native currency to cover its own
// gas during bets and claims.
func (d *Driver) fundNative(ctx context.Context) error {
	results := batch.Run(ctx, d.accounts, d.cfg.Betting.AccountConcurrency,
		func(ctx context.Context, acct domain.Account) (struct{}, error) {
			_, err := d.transfer(ctx, "main", acct.ID, d.cfg.Funding.NativeTopUp)
			d.metrics.RecordOutcome("fund_native", err)
			return struct{}{}, err
		})
	return batch.FirstError(results)
}

// registerAccounts pays the storage deposit for every account on both token
// contracts. The two registrations run sequentially per account with a pause
// between them; the remote service throttles bursts.
func (d *Driver) registerAccounts(ctx context.Context) error {
	tokens := []string{d.cfg.Contracts.USDC, d.cfg.Contracts.Token}

	results := batch.Run(ctx, d.accounts, d.cfg.Betting.AccountConcurrency,
		func(ctx context.Context, acct domain.Account) (struct{}, error) {
			for i, token := range tokens {
				if i > 0 {
					if err := pause(ctx, d.cfg.Pacing.RegistrationDelay.Duration); err != nil {
						return struct{}{}, err
					}
				}
				_, err := d.invoke(ctx, "main", token, "storage_deposit", map[string]any{
					"account_id": acct.ID,
				}, nearrpc.CallResources{Gas: defaultGas, Deposit: d.cfg.Funding.StorageDeposit})
				d.metrics.RecordOutcome("register", err)
				if err != nil {
					return struct{}{}, fmt.Errorf("storage_deposit %s on %s: %w", acct.ID, token, err)
				}
			}
			return struct{}{}, nil
		})
	return batch.FirstError(results)
}

// fundToken transfers the betting balance to each account.
func (d *Driver) fundToken(ctx context.Context) error {
	results := batch.Run(ctx, d.accounts, d.cfg.Betting.AccountConcurrency,
		func(ctx context.Context, acct domain.Account) (struct{}, error) {
			_, err := d.invoke(ctx, "main", d.cfg.Contracts.USDC, "ft_transfer", map[string]any{
				"receiver_id": acct.ID,
				"amount":      d.cfg.Funding.TokenAmount.String(),
			}, nearrpc.CallResources{Gas: defaultGas, Deposit: oneYocto})
			d.metrics.RecordOutcome("fund_token", err)
			return struct{}{}, err
		})
	return batch.FirstError(results)
}
