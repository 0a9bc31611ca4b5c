// Package fixture loads the ordered match definitions the run creates on the
// betting contract.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

// Load reads a JSON array of match definitions from path, preserving order.
// A missing file, malformed JSON, or an invalid definition all wrap
// domain.ErrConfiguration: the fixture is an input, not a runtime dependency.
func Load(path string) ([]domain.MatchDef, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %v: %w", path, err, domain.ErrConfiguration)
	}

	var matches []domain.MatchDef
	if err := json.Unmarshal(raw, &matches); err != nil {
		return nil, fmt.Errorf("fixture: parse %s: %v: %w", path, err, domain.ErrConfiguration)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("fixture: %s contains no matches: %w", path, domain.ErrConfiguration)
	}

	for i, m := range matches {
		if err := validate(m); err != nil {
			return nil, fmt.Errorf("fixture: %s: match %d: %v: %w", path, i, err, domain.ErrConfiguration)
		}
	}
	return matches, nil
}

func validate(m domain.MatchDef) error {
	switch {
	case m.Game == "":
		return fmt.Errorf("game must not be empty")
	case m.Team1 == "" || m.Team2 == "":
		return fmt.Errorf("both teams must be set")
	case m.Team1 == m.Team2:
		return fmt.Errorf("teams must differ")
	case m.Date == "":
		return fmt.Errorf("date must not be empty")
	case m.Odds1 < 1 || m.Odds2 < 1:
		return fmt.Errorf("odds must be >= 1.0, got %.2f and %.2f", m.Odds1, m.Odds2)
	}
	return nil
}
