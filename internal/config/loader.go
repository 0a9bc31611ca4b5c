package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SETUP_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SETUP_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Network ──
	setStr(&cfg.Network.RPCURL, "SETUP_NETWORK_RPC_URL")
	setStr(&cfg.Network.RootAccount, "SETUP_NETWORK_ROOT_ACCOUNT")
	setFloat64(&cfg.Network.RequestsPerSecond, "SETUP_NETWORK_REQUESTS_PER_SECOND")

	// ── Contracts ──
	setStr(&cfg.Contracts.Betting, "SETUP_CONTRACTS_BETTING")
	setStr(&cfg.Contracts.USDC, "SETUP_CONTRACTS_USDC")
	setStr(&cfg.Contracts.Token, "SETUP_CONTRACTS_TOKEN")

	// ── Principal secrets: SETUP_<NAME>_SECRET_KEYS is a comma-separated
	// list applied positionally to that principal's credentials. ──
	for i := range cfg.Principals {
		p := &cfg.Principals[i]
		key := "SETUP_" + strings.ToUpper(p.Name) + "_SECRET_KEYS"
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		secrets := strings.Split(raw, ",")
		for j := range p.Credentials {
			if j >= len(secrets) {
				break
			}
			if s := strings.TrimSpace(secrets[j]); s != "" {
				p.Credentials[j].SecretKey = s
			}
		}
	}

	// ── Funding ──
	setDecimal(&cfg.Funding.MinUSDCBalance, "SETUP_FUNDING_MIN_USDC_BALANCE")
	setDecimal(&cfg.Funding.MinTokenBalance, "SETUP_FUNDING_MIN_TOKEN_BALANCE")
	setDecimal(&cfg.Funding.MinNativeBalance, "SETUP_FUNDING_MIN_NATIVE_BALANCE")
	setDecimal(&cfg.Funding.StakeAmount, "SETUP_FUNDING_STAKE_AMOUNT")

	// ── Betting ──
	setInt(&cfg.Betting.Accounts, "SETUP_BETTING_ACCOUNTS")
	setInt(&cfg.Betting.EndBettingCount, "SETUP_BETTING_END_BETTING_COUNT")
	setInt(&cfg.Betting.FinishCount, "SETUP_BETTING_FINISH_COUNT")
	setInt(&cfg.Betting.CancelCount, "SETUP_BETTING_CANCEL_COUNT")

	// ── Pacing ──
	setDuration(&cfg.Pacing.MatchBatchDelay, "SETUP_PACING_MATCH_BATCH_DELAY")
	setDuration(&cfg.Pacing.BetDelay, "SETUP_PACING_BET_DELAY")
	setDuration(&cfg.Pacing.RegistrationDelay, "SETUP_PACING_REGISTRATION_DELAY")

	// ── Retry ──
	setInt(&cfg.Retry.Attempts, "SETUP_RETRY_ATTEMPTS")
	setDuration(&cfg.Retry.Delay, "SETUP_RETRY_DELAY")

	// ── Top-level ──
	setInt64(&cfg.Seed, "SETUP_SEED")
	setStr(&cfg.LogLevel, "SETUP_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDecimal(dst *decimal.Decimal, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			*dst = d
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
