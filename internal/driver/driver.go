// Package driver runs the end-to-end setup sequence against the deployed
// contracts: balance preflight, staking, account provisioning, match
// creation, bet placement, lifecycle transitions, and claims. Each phase
// gates on the previous one; provisioning failures abort the run while
// betting, lifecycle, and claim failures are logged and skipped per item.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/config"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/metrics"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
	"github.com/vex-labs/setup-contract-script/internal/retry"
	"github.com/vex-labs/setup-contract-script/internal/tracker"
)

// defaultGas bounds every function call; the contracts never come close.
const defaultGas = 300_000_000_000_000

// oneYocto is the minimal deposit unit the token contract requires on
// transfer methods.
var oneYocto = decimal.NewFromInt(1)

// Gateway is the remote-call surface the driver needs. Implemented by
// nearrpc.Gateway; faked in tests.
type Gateway interface {
	Invoke(ctx context.Context, principal, receiver, method string, args any, res nearrpc.CallResources) (nearrpc.CallOutcome, error)
	InvokeAs(ctx context.Context, cred domain.Credential, receiver, method string, args any, res nearrpc.CallResources) (nearrpc.CallOutcome, error)
	Transfer(ctx context.Context, principal, receiver string, amount decimal.Decimal) (nearrpc.CallOutcome, error)
	View(ctx context.Context, receiver, method string, args, out any) error
	ViewAccount(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// Driver owns one setup run. It is the only writer of the tracker and the
// only component issuing lifecycle transitions, so transitions for a single
// match are always sequential.
type Driver struct {
	gw      Gateway
	tracker *tracker.Tracker
	metrics *metrics.Metrics
	cfg     *config.Config
	matches []domain.MatchDef
	logger  *slog.Logger
	rng     *rand.Rand

	// mainAccount is the funding account whose balances gate the run.
	mainAccount string

	accounts []domain.Account
	credByID map[string]domain.Credential
	plan     lifecyclePlan
}

// New creates a Driver. mainAccount is the primary credential of the "main"
// principal; seed 0 selects a time-based seed.
func New(gw Gateway, cfg *config.Config, matches []domain.MatchDef, mainAccount string, m *metrics.Metrics, logger *slog.Logger) *Driver {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Driver{
		gw:          gw,
		tracker:     tracker.New(),
		metrics:     m,
		cfg:         cfg,
		matches:     matches,
		logger:      logger.With(slog.String("component", "driver")),
		rng:         rand.New(rand.NewSource(seed)),
		mainAccount: mainAccount,
		credByID:    make(map[string]domain.Credential),
	}
}

// Tracker exposes the run's match ledger, mainly for inspection after Run.
func (d *Driver) Tracker() *tracker.Tracker {
	return d.tracker
}

// Run executes the full sequence. The first fatal phase error aborts the
// run; the caller maps a non-nil return to a nonzero exit.
func (d *Driver) Run(ctx context.Context) error {
	start := time.Now()

	phases := []struct {
		name string
		run  func(context.Context) error
	}{
		{"preflight", d.preflight},
		{"stake", d.stake},
		{"create_accounts", d.createAccounts},
		{"fund_native", d.fundNative},
		{"register", d.registerAccounts},
		{"fund_token", d.fundToken},
		{"create_matches", d.createMatches},
		{"bets", d.placeBets},
		{"lifecycle", d.runLifecycle},
		{"claims", d.processClaims},
	}

	for _, phase := range phases {
		d.logger.Info("phase starting", slog.String("phase", phase.name))
		if err := phase.run(ctx); err != nil {
			d.logger.Error("phase failed",
				slog.String("phase", phase.name),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("driver: phase %s: %w", phase.name, err)
		}
		d.logger.Info("phase complete", slog.String("phase", phase.name))
	}

	d.logSummary(time.Since(start))
	return nil
}

// preflight verifies the funding account holds enough of both fungible
// tokens and the native currency before anything is spent.
func (d *Driver) preflight(ctx context.Context) error {
	usdc, err := d.ftBalance(ctx, d.cfg.Contracts.USDC, d.mainAccount)
	if err != nil {
		return err
	}
	token, err := d.ftBalance(ctx, d.cfg.Contracts.Token, d.mainAccount)
	if err != nil {
		return err
	}
	native, err := d.viewAccount(ctx, d.mainAccount)
	if err != nil {
		return err
	}

	d.logger.Info("preflight balances",
		slog.String("account", d.mainAccount),
		slog.String("usdc", usdc.String()),
		slog.String("usdc_min", d.cfg.Funding.MinUSDCBalance.String()),
		slog.String("token", token.String()),
		slog.String("token_min", d.cfg.Funding.MinTokenBalance.String()),
		slog.String("native", native.String()),
		slog.String("native_min", d.cfg.Funding.MinNativeBalance.String()),
	)

	var short []string
	if usdc.LessThan(d.cfg.Funding.MinUSDCBalance) {
		short = append(short, "usdc")
	}
	if token.LessThan(d.cfg.Funding.MinTokenBalance) {
		short = append(short, "token")
	}
	if native.LessThan(d.cfg.Funding.MinNativeBalance) {
		short = append(short, "native")
	}
	if len(short) > 0 {
		return fmt.Errorf("balances below threshold (%v) on %s: %w", short, d.mainAccount, domain.ErrPrecondition)
	}
	return nil
}

// stake locks tokens on the betting contract before any account is created.
// Staking success is a hard precondition; a zero stake amount skips it.
func (d *Driver) stake(ctx context.Context) error {
	amount := d.cfg.Funding.StakeAmount
	if amount.Sign() == 0 {
		d.logger.Info("stake amount is zero, skipping")
		return nil
	}

	_, err := d.invoke(ctx, "main", d.cfg.Contracts.Token, "ft_transfer_call", map[string]any{
		"receiver_id": d.cfg.Contracts.Betting,
		"amount":      amount.String(),
		"msg":         jsonMsg("Stake"),
	}, nearrpc.CallResources{Gas: defaultGas, Deposit: oneYocto})
	d.metrics.RecordOutcome("stake", err)
	if err != nil {
		return fmt.Errorf("stake %s: %w", amount, err)
	}
	d.logger.Info("staked", slog.String("amount", amount.String()))
	return nil
}

// ftBalance queries ft_balance_of on a token contract.
func (d *Driver) ftBalance(ctx context.Context, token, accountID string) (decimal.Decimal, error) {
	var raw string
	err := d.view(ctx, token, "ft_balance_of", map[string]string{"account_id": accountID}, &raw)
	if err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse ft_balance_of %s on %s: %q: %w", accountID, token, raw, err)
	}
	return balance, nil
}

// invoke wraps a gateway call with the configured retry policy. The rotated
// credential is re-drawn on every attempt.
func (d *Driver) invoke(ctx context.Context, principal, receiver, method string, args any, res nearrpc.CallResources) (nearrpc.CallOutcome, error) {
	return retry.Do(ctx, d.cfg.Retry.Attempts, d.cfg.Retry.Delay.Duration,
		func(ctx context.Context) (nearrpc.CallOutcome, error) {
			return d.gw.Invoke(ctx, principal, receiver, method, args, res)
		})
}

// invokeAs is invoke for an explicit run-owned credential.
func (d *Driver) invokeAs(ctx context.Context, cred domain.Credential, receiver, method string, args any, res nearrpc.CallResources) (nearrpc.CallOutcome, error) {
	return retry.Do(ctx, d.cfg.Retry.Attempts, d.cfg.Retry.Delay.Duration,
		func(ctx context.Context) (nearrpc.CallOutcome, error) {
			return d.gw.InvokeAs(ctx, cred, receiver, method, args, res)
		})
}

// transfer wraps a native-currency transfer with the configured retry policy.
func (d *Driver) transfer(ctx context.Context, principal, receiver string, amount decimal.Decimal) (nearrpc.CallOutcome, error) {
	return retry.Do(ctx, d.cfg.Retry.Attempts, d.cfg.Retry.Delay.Duration,
		func(ctx context.Context) (nearrpc.CallOutcome, error) {
			return d.gw.Transfer(ctx, principal, receiver, amount)
		})
}

// view wraps a read-only query with the configured retry policy.
func (d *Driver) view(ctx context.Context, receiver, method string, args, out any) error {
	_, err := retry.Do(ctx, d.cfg.Retry.Attempts, d.cfg.Retry.Delay.Duration,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, d.gw.View(ctx, receiver, method, args, out)
		})
	return err
}

// viewAccount is view for native balances.
func (d *Driver) viewAccount(ctx context.Context, accountID string) (decimal.Decimal, error) {
	return retry.Do(ctx, d.cfg.Retry.Attempts, d.cfg.Retry.Delay.Duration,
		func(ctx context.Context) (decimal.Decimal, error) {
			return d.gw.ViewAccount(ctx, accountID)
		})
}

// pause sleeps for one of the pacing delays, honoring cancellation.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// jsonMsg JSON-encodes the ft_transfer_call msg payload.
func jsonMsg(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// The msg payloads are fixed shapes; marshalling cannot fail.
		panic(err)
	}
	return string(raw)
}

// logSummary gathers the metrics registry and emits the end-of-run report.
func (d *Driver) logSummary(elapsed time.Duration) {
	attrs := []any{slog.Duration("elapsed", elapsed)}
	for _, row := range d.metrics.Summary() {
		attrs = append(attrs, slog.Float64(row.Phase+"_"+row.Outcome, row.Count))
	}
	d.logger.Info("run complete", attrs...)
}
