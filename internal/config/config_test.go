package config

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testSecretKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(priv)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func minimalConfig(t *testing.T) string {
	return `
log_level = "debug"
seed = 42

[network]
rpc_url = "http://localhost:3030"

[[principal]]
name = "main"
credentials = [{ account_id = "main.test", secret_key = "` + testSecretKey(t) + `" }]

[[principal]]
name = "admin"
credentials = [{ account_id = "admin.test", secret_key = "` + testSecretKey(t) + `" }]

[pacing]
match_batch_delay = "2s"
bet_delay = "500ms"
registration_delay = "1s"
`
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %s", cfg.LogLevel)
	}
	if cfg.Seed != 42 {
		t.Fatalf("seed = %d", cfg.Seed)
	}
	// Defaults survive a partial file.
	if cfg.Contracts.Betting != "sexyvexycontract.testnet" {
		t.Fatalf("betting contract = %s", cfg.Contracts.Betting)
	}
	if cfg.Retry.Attempts != 3 || cfg.Retry.Delay.Duration != time.Second {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
	// Duration strings parse.
	if cfg.Pacing.MatchBatchDelay.Duration != 2*time.Second {
		t.Fatalf("match_batch_delay = %s", cfg.Pacing.MatchBatchDelay)
	}
	if cfg.Pacing.BetDelay.Duration != 500*time.Millisecond {
		t.Fatalf("bet_delay = %s", cfg.Pacing.BetDelay)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SETUP_NETWORK_RPC_URL", "http://rpc.override:3030")
	t.Setenv("SETUP_MAIN_SECRET_KEYS", "b3ZlcnJpZGRlbg==")
	t.Setenv("SETUP_BETTING_ACCOUNTS", "3")
	t.Setenv("SETUP_PACING_BET_DELAY", "250ms")

	cfg, err := Load(writeConfig(t, minimalConfig(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network.RPCURL != "http://rpc.override:3030" {
		t.Fatalf("rpc_url = %s", cfg.Network.RPCURL)
	}
	if cfg.Principals[0].Credentials[0].SecretKey != "b3ZlcnJpZGRlbg==" {
		t.Fatalf("main secret not overridden")
	}
	if cfg.Betting.Accounts != 3 {
		t.Fatalf("accounts = %d", cfg.Betting.Accounts)
	}
	if cfg.Pacing.BetDelay.Duration != 250*time.Millisecond {
		t.Fatalf("bet_delay = %s", cfg.Pacing.BetDelay)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Network.RPCURL = ""
	cfg.Betting.MinBetsPerAccount = 12
	cfg.Betting.MaxBetsPerAccount = 8
	// No principals at all.

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"log_level", "rpc_url", "bets per account", `principal "main"`, `principal "admin"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error missing %q: %v", want, err)
		}
	}
}

func TestValidateFinishCountBound(t *testing.T) {
	cfg := Defaults()
	cfg.Principals = []PrincipalConfig{
		{Name: "main", Credentials: []CredentialConfig{{AccountID: "main.test", SecretKey: testSecretKey(t)}}},
		{Name: "admin", Credentials: []CredentialConfig{{AccountID: "admin.test", SecretKey: testSecretKey(t)}}},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with principals should validate: %v", err)
	}

	cfg.Betting.FinishCount = cfg.Betting.EndBettingCount + 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "finish_count") {
		t.Fatalf("expected finish_count error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
