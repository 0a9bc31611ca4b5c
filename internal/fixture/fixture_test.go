package fixture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matches.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadValidFixture(t *testing.T) {
	path := writeFixture(t, `[
		{"game":"csgo","team_1":"NaVi","team_2":"Faze","in_odds_1":1.5,"in_odds_2":2.5,"date":"2026-09-01"},
		{"game":"lol","team_1":"T1","team_2":"G2","in_odds_1":1.2,"in_odds_2":3.8,"date":"2026-09-02"}
	]`)

	matches, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	// Order preserved.
	if matches[0].Key() != "NaVi-Faze-2026-09-01" {
		t.Fatalf("first key = %s", matches[0].Key())
	}
	if matches[1].Key() != "T1-G2-2026-09-02" {
		t.Fatalf("second key = %s", matches[1].Key())
	}
	if matches[0].Odds2 != 2.5 {
		t.Fatalf("odds_2 = %v", matches[0].Odds2)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"not":"an array"`},
		{"empty array", `[]`},
		{"missing team", `[{"game":"csgo","team_1":"NaVi","in_odds_1":1.5,"in_odds_2":2.5,"date":"2026-09-01"}]`},
		{"identical teams", `[{"game":"csgo","team_1":"NaVi","team_2":"NaVi","in_odds_1":1.5,"in_odds_2":2.5,"date":"2026-09-01"}]`},
		{"odds below one", `[{"game":"csgo","team_1":"NaVi","team_2":"Faze","in_odds_1":0.5,"in_odds_2":2.5,"date":"2026-09-01"}]`},
		{"missing date", `[{"game":"csgo","team_1":"NaVi","team_2":"Faze","in_odds_1":1.5,"in_odds_2":2.5}]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFixture(t, tc.content))
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
