// Package config defines the top-level configuration for the setup script
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SETUP_* environment variables.
type Config struct {
	Network    NetworkConfig     `toml:"network"`
	Contracts  ContractsConfig   `toml:"contracts"`
	Principals []PrincipalConfig `toml:"principal"`
	Funding    FundingConfig     `toml:"funding"`
	Betting    BettingConfig     `toml:"betting"`
	Pacing     PacingConfig      `toml:"pacing"`
	Retry      RetryConfig       `toml:"retry"`
	Seed       int64             `toml:"seed"`
	LogLevel   string            `toml:"log_level"`
}

// NetworkConfig holds the RPC endpoint and network parameters.
type NetworkConfig struct {
	RPCURL            string  `toml:"rpc_url"`
	RootAccount       string  `toml:"root_account"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ContractsConfig names the deployed contracts the run talks to.
type ContractsConfig struct {
	Betting string `toml:"betting"`
	USDC    string `toml:"usdc"`
	Token   string `toml:"token"`
}

// PrincipalConfig is one named identity with its credential list. Secret keys
// are base64; operators typically inject them through the environment rather
// than the TOML file.
type PrincipalConfig struct {
	Name        string             `toml:"name"`
	Credentials []CredentialConfig `toml:"credentials"`
}

// CredentialConfig is one account/key pair.
type CredentialConfig struct {
	AccountID string `toml:"account_id"`
	SecretKey string `toml:"secret_key"`
}

// FundingConfig holds balance thresholds and transfer amounts, all in minor
// units of the respective asset.
type FundingConfig struct {
	MinUSDCBalance   decimal.Decimal `toml:"min_usdc_balance"`
	MinTokenBalance  decimal.Decimal `toml:"min_token_balance"`
	MinNativeBalance decimal.Decimal `toml:"min_native_balance"`
	AccountDeposit   decimal.Decimal `toml:"account_deposit"`
	NativeTopUp      decimal.Decimal `toml:"native_top_up"`
	TokenAmount      decimal.Decimal `toml:"token_amount"`
	StorageDeposit   decimal.Decimal `toml:"storage_deposit"`
	StakeAmount      decimal.Decimal `toml:"stake_amount"`
}

// BettingConfig controls account provisioning, bet placement, and the
// lifecycle selection policy.
type BettingConfig struct {
	Accounts           int             `toml:"accounts"`
	MinBetsPerAccount  int             `toml:"min_bets_per_account"`
	MaxBetsPerAccount  int             `toml:"max_bets_per_account"`
	MaxBet             decimal.Decimal `toml:"max_bet"`
	AccountCeiling     decimal.Decimal `toml:"account_ceiling"`
	EndBettingCount    int             `toml:"end_betting_count"`
	FinishCount        int             `toml:"finish_count"`
	CancelCount        int             `toml:"cancel_count"`
	BatchSize          int             `toml:"match_batch_size"`
	FinishBiasPct      int             `toml:"finish_bias_pct"`
	WinnerBiasPct      int             `toml:"winner_bias_pct"`
	AccountConcurrency int             `toml:"account_concurrency"`
}

// PacingConfig holds the literal delays that throttle the rate-limited
// remote service. These are design constants, not derived from load.
type PacingConfig struct {
	MatchBatchDelay   duration `toml:"match_batch_delay"`
	BetDelay          duration `toml:"bet_delay"`
	RegistrationDelay duration `toml:"registration_delay"`
}

// RetryConfig bounds the retry supervisor.
type RetryConfig struct {
	Attempts int      `toml:"attempts"`
	Delay    duration `toml:"delay"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "2s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Network: NetworkConfig{
			RPCURL:            "http://localhost:3030",
			RootAccount:       "testnet",
			RequestsPerSecond: 10,
		},
		Contracts: ContractsConfig{
			Betting: "sexyvexycontract.testnet",
			USDC:    "usdc.betvex.testnet",
			Token:   "token.betvex.testnet",
		},
		Funding: FundingConfig{
			MinUSDCBalance:   decimal.RequireFromString("100000000"),                 // 100 USDC
			MinTokenBalance:  decimal.RequireFromString("100000000000000000000"),     // 100 VEX
			MinNativeBalance: decimal.RequireFromString("5000000000000000000000000"), // 5 NEAR
			AccountDeposit:   decimal.RequireFromString("100000000000000000000000"),  // 0.1 NEAR
			NativeTopUp:      decimal.RequireFromString("50000000000000000000000"),   // 0.05 NEAR
			TokenAmount:      decimal.RequireFromString("10000000"),                  // 10 USDC
			StorageDeposit:   decimal.RequireFromString("1250000000000000000000"),
			StakeAmount:      decimal.RequireFromString("50000000000000000000"), // 50 VEX
		},
		Betting: BettingConfig{
			Accounts:           10,
			MinBetsPerAccount:  8,
			MaxBetsPerAccount:  12,
			MaxBet:             decimal.RequireFromString("1000000"), // 1 USDC
			AccountCeiling:     decimal.RequireFromString("8000000"), // 8 USDC
			EndBettingCount:    10,
			FinishCount:        4,
			CancelCount:        2,
			BatchSize:          10,
			FinishBiasPct:      70,
			WinnerBiasPct:      65,
			AccountConcurrency: 5,
		},
		Pacing: PacingConfig{
			MatchBatchDelay:   duration{2000 * time.Millisecond},
			BetDelay:          duration{500 * time.Millisecond},
			RegistrationDelay: duration{1000 * time.Millisecond},
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    duration{time.Second},
		},
		Seed:     0,
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Network
	if c.Network.RPCURL == "" {
		errs = append(errs, "network: rpc_url must not be empty")
	}
	if c.Network.RootAccount == "" {
		errs = append(errs, "network: root_account must not be empty")
	}
	if c.Network.RequestsPerSecond <= 0 {
		errs = append(errs, "network: requests_per_second must be > 0")
	}

	// Contracts
	if c.Contracts.Betting == "" {
		errs = append(errs, "contracts: betting must not be empty")
	}
	if c.Contracts.USDC == "" {
		errs = append(errs, "contracts: usdc must not be empty")
	}
	if c.Contracts.Token == "" {
		errs = append(errs, "contracts: token must not be empty")
	}

	// Principals — "main" and "admin" must both exist with credentials.
	found := map[string]int{}
	for _, p := range c.Principals {
		if p.Name == "" {
			errs = append(errs, "principal: name must not be empty")
			continue
		}
		found[p.Name] = len(p.Credentials)
		for i, cred := range p.Credentials {
			if cred.AccountID == "" {
				errs = append(errs, fmt.Sprintf("principal %s: credential %d: account_id must not be empty", p.Name, i))
			}
			if cred.SecretKey == "" {
				errs = append(errs, fmt.Sprintf("principal %s: credential %d (%s): secret_key must not be empty", p.Name, i, cred.AccountID))
			}
		}
	}
	for _, required := range []string{"main", "admin"} {
		n, ok := found[required]
		if !ok {
			errs = append(errs, fmt.Sprintf("principal %q is required", required))
		} else if n == 0 {
			errs = append(errs, fmt.Sprintf("principal %q must have at least one credential", required))
		}
	}

	// Funding
	if c.Funding.NativeTopUp.Sign() <= 0 {
		errs = append(errs, "funding: native_top_up must be > 0")
	}
	if c.Funding.TokenAmount.Sign() <= 0 {
		errs = append(errs, "funding: token_amount must be > 0")
	}
	if c.Funding.StorageDeposit.Sign() <= 0 {
		errs = append(errs, "funding: storage_deposit must be > 0")
	}
	if c.Funding.StakeAmount.Sign() < 0 {
		errs = append(errs, "funding: stake_amount must be >= 0 (0 skips staking)")
	}

	// Betting
	if c.Betting.Accounts < 1 {
		errs = append(errs, "betting: accounts must be >= 1")
	}
	if c.Betting.MinBetsPerAccount < 1 || c.Betting.MaxBetsPerAccount < c.Betting.MinBetsPerAccount {
		errs = append(errs, fmt.Sprintf("betting: bets per account range %d-%d is invalid",
			c.Betting.MinBetsPerAccount, c.Betting.MaxBetsPerAccount))
	}
	if c.Betting.MaxBet.Sign() <= 0 {
		errs = append(errs, "betting: max_bet must be > 0")
	}
	if c.Betting.AccountCeiling.LessThan(c.Betting.MaxBet) {
		errs = append(errs, "betting: account_ceiling must be >= max_bet")
	}
	if c.Betting.EndBettingCount < 0 || c.Betting.FinishCount < 0 || c.Betting.CancelCount < 0 {
		errs = append(errs, "betting: selection counts must be >= 0")
	}
	if c.Betting.FinishCount > c.Betting.EndBettingCount {
		errs = append(errs, "betting: finish_count must not exceed end_betting_count")
	}
	if c.Betting.BatchSize < 1 {
		errs = append(errs, "betting: match_batch_size must be >= 1")
	}
	if c.Betting.FinishBiasPct < 0 || c.Betting.FinishBiasPct > 100 {
		errs = append(errs, "betting: finish_bias_pct must be 0-100")
	}
	if c.Betting.WinnerBiasPct < 0 || c.Betting.WinnerBiasPct > 100 {
		errs = append(errs, "betting: winner_bias_pct must be 0-100")
	}
	if c.Betting.AccountConcurrency < 0 {
		errs = append(errs, "betting: account_concurrency must be >= 0")
	}

	// Pacing and retry
	if c.Pacing.MatchBatchDelay.Duration < 0 || c.Pacing.BetDelay.Duration < 0 || c.Pacing.RegistrationDelay.Duration < 0 {
		errs = append(errs, "pacing: delays must be >= 0")
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, "retry: attempts must be >= 1")
	}
	if c.Retry.Delay.Duration < 0 {
		errs = append(errs, "retry: delay must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
