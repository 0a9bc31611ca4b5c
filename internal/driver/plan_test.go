package driver

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/config"
	"github.com/vex-labs/setup-contract-script/internal/domain"
)

func testMatches(n int) []domain.MatchDef {
	out := make([]domain.MatchDef, n)
	for i := range out {
		out[i] = domain.MatchDef{
			Game:  "csgo",
			Team1: fmt.Sprintf("alpha%d", i),
			Team2: fmt.Sprintf("beta%d", i),
			Odds1: 1.5,
			Odds2: 2.5,
			Date:  "2026-09-01",
		}
	}
	return out
}

func TestBuildLifecyclePlanSelections(t *testing.T) {
	matches := testMatches(20)
	cfg := config.Defaults().Betting
	cfg.EndBettingCount = 10
	cfg.FinishCount = 4
	cfg.CancelCount = 2

	plan := buildLifecyclePlan(matches, cfg, rand.New(rand.NewSource(7)))

	if len(plan.endBetting) != 10 {
		t.Fatalf("endBetting count = %d, want 10", len(plan.endBetting))
	}
	for i, key := range plan.endBetting {
		if key != matches[i].Key() {
			t.Fatalf("endBetting[%d] = %s, want fixture order %s", i, key, matches[i].Key())
		}
	}

	if len(plan.cancel) != 2 {
		t.Fatalf("cancel count = %d, want 2", len(plan.cancel))
	}
	wantCancel := []string{matches[18].Key(), matches[19].Key()}
	for i, key := range plan.cancel {
		if key != wantCancel[i] {
			t.Fatalf("cancel[%d] = %s, want %s", i, key, wantCancel[i])
		}
	}

	if len(plan.finishOrder) != 4 {
		t.Fatalf("finish count = %d, want 4", len(plan.finishOrder))
	}
	ended := make(map[string]bool)
	for _, key := range plan.endBetting {
		ended[key] = true
	}
	cancelled := make(map[string]bool)
	for _, key := range plan.cancel {
		cancelled[key] = true
	}
	for _, key := range plan.finishOrder {
		if !ended[key] {
			t.Fatalf("finished match %s never ended betting", key)
		}
		if cancelled[key] {
			t.Fatalf("finished match %s is also slated for cancellation", key)
		}
		if _, ok := plan.winners[key]; !ok {
			t.Fatalf("finished match %s has no winner", key)
		}
	}
}

func TestBuildLifecyclePlanDeterministic(t *testing.T) {
	matches := testMatches(15)
	cfg := config.Defaults().Betting

	a := buildLifecyclePlan(matches, cfg, rand.New(rand.NewSource(42)))
	b := buildLifecyclePlan(matches, cfg, rand.New(rand.NewSource(42)))

	if len(a.finishOrder) != len(b.finishOrder) {
		t.Fatalf("finish counts differ: %d vs %d", len(a.finishOrder), len(b.finishOrder))
	}
	for i := range a.finishOrder {
		if a.finishOrder[i] != b.finishOrder[i] {
			t.Fatalf("finish[%d] differs: %s vs %s", i, a.finishOrder[i], b.finishOrder[i])
		}
		if a.winners[a.finishOrder[i]] != b.winners[b.finishOrder[i]] {
			t.Fatalf("winner for %s differs", a.finishOrder[i])
		}
	}
}

func TestBuildLifecyclePlanClampsToFixture(t *testing.T) {
	matches := testMatches(3)
	cfg := config.Defaults().Betting
	cfg.EndBettingCount = 10
	cfg.FinishCount = 8
	cfg.CancelCount = 5

	plan := buildLifecyclePlan(matches, cfg, rand.New(rand.NewSource(1)))

	if len(plan.endBetting) != 3 {
		t.Fatalf("endBetting count = %d, want 3", len(plan.endBetting))
	}
	if len(plan.cancel) != 3 {
		t.Fatalf("cancel count = %d, want 3", len(plan.cancel))
	}
	// Every match is cancelled, so nothing is left to finish.
	if len(plan.finishOrder) != 0 {
		t.Fatalf("finish count = %d, want 0", len(plan.finishOrder))
	}
}

func TestDrawWinnerFavorsShorterOdds(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	m := domain.MatchDef{Team1: "fav", Team2: "dog", Odds1: 1.2, Odds2: 4.8}

	team1Wins := 0
	const draws = 10_000
	for i := 0; i < draws; i++ {
		if drawWinner(m, rng) == domain.Team1 {
			team1Wins++
		}
	}
	// Expected share is 4.8/6.0 = 80%; allow generous slack.
	if team1Wins < draws*70/100 || team1Wins > draws*90/100 {
		t.Fatalf("favorite won %d of %d draws, expected about 80%%", team1Wins, draws)
	}
}

func TestBuildBetPlansBounds(t *testing.T) {
	matches := testMatches(12)
	cfg := config.Defaults().Betting
	cfg.MinBetsPerAccount = 4
	cfg.MaxBetsPerAccount = 6
	cfg.MaxBet = decimal.NewFromInt(100)
	cfg.AccountCeiling = decimal.NewFromInt(10_000)

	rng := rand.New(rand.NewSource(5))
	plan := buildLifecyclePlan(matches, cfg, rng)
	plans := buildBetPlans(matches, plan, cfg, 8, rng)

	if len(plans) != 8 {
		t.Fatalf("got plans for %d accounts, want 8", len(plans))
	}

	valid := make(map[string]bool)
	for _, m := range matches {
		valid[m.Key()] = true
	}
	for a, bets := range plans {
		if len(bets) < 4 || len(bets) > 6 {
			t.Fatalf("account %d has %d bets, want 4-6", a, len(bets))
		}
		for _, bet := range bets {
			if !valid[bet.matchKey] {
				t.Fatalf("account %d bets on unknown match %s", a, bet.matchKey)
			}
			if bet.team != domain.Team1 && bet.team != domain.Team2 {
				t.Fatalf("account %d bet has team %q", a, bet.team)
			}
			if bet.amount.Sign() <= 0 || bet.amount.GreaterThan(cfg.MaxBet) {
				t.Fatalf("account %d bet amount %s outside (0, %s]", a, bet.amount, cfg.MaxBet)
			}
		}
	}
}

func TestBuildBetPlansRespectsCeiling(t *testing.T) {
	matches := testMatches(10)
	cfg := config.Defaults().Betting
	cfg.MinBetsPerAccount = 10
	cfg.MaxBetsPerAccount = 10
	cfg.MaxBet = decimal.NewFromInt(100)
	// Ceiling allows at most a few max bets.
	cfg.AccountCeiling = decimal.NewFromInt(250)

	rng := rand.New(rand.NewSource(3))
	plan := buildLifecyclePlan(matches, cfg, rng)
	plans := buildBetPlans(matches, plan, cfg, 5, rng)

	for a, bets := range plans {
		total := decimal.Zero
		for _, bet := range bets {
			total = total.Add(bet.amount)
		}
		if total.GreaterThan(cfg.AccountCeiling) {
			t.Fatalf("account %d spent %s, ceiling is %s", a, total, cfg.AccountCeiling)
		}
	}
}

func TestBuildBetPlansFinishBias(t *testing.T) {
	matches := testMatches(20)
	cfg := config.Defaults().Betting
	cfg.MinBetsPerAccount = 10
	cfg.MaxBetsPerAccount = 10
	cfg.FinishBiasPct = 100
	cfg.MaxBet = decimal.NewFromInt(10)
	cfg.AccountCeiling = decimal.NewFromInt(1_000)

	rng := rand.New(rand.NewSource(11))
	plan := buildLifecyclePlan(matches, cfg, rng)
	if len(plan.finishOrder) == 0 {
		t.Fatal("plan has no finished matches")
	}
	finishing := make(map[string]bool)
	for _, key := range plan.finishOrder {
		finishing[key] = true
	}

	plans := buildBetPlans(matches, plan, cfg, 4, rng)
	for a, bets := range plans {
		for _, bet := range bets {
			if !finishing[bet.matchKey] {
				t.Fatalf("account %d bet on %s despite 100%% finish bias", a, bet.matchKey)
			}
		}
	}
}
