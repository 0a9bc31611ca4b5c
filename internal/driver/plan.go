package driver

import (
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/config"
	"github.com/vex-labs/setup-contract-script/internal/domain"
)

// lifecyclePlan fixes, up front, which matches end betting, which of those
// finish (and with which winner), and which get cancelled. Deciding the whole
// run before any bet is placed keeps the rng usage sequential and lets the
// bet biases point at the matches that will actually settle.
type lifecyclePlan struct {
	// endBetting preserves fixture order.
	endBetting []string
	// finishOrder is the settle order; winners maps key -> winning side.
	finishOrder []string
	winners     map[string]domain.Team
	cancel      []string
}

// plannedBet is one bet an account will place: the match it targets, the
// side, and the amount in token minor units.
type plannedBet struct {
	matchKey string
	team     domain.Team
	amount   decimal.Decimal
}

// willFinish reports whether the plan settles the given match.
func (p lifecyclePlan) willFinish(key string) (domain.Team, bool) {
	winner, ok := p.winners[key]
	return winner, ok
}

// buildLifecyclePlan derives the run's lifecycle selections from the fixture
// order and the configured counts. Betting ends for the first EndBettingCount
// matches; the last CancelCount matches of the whole fixture are cancelled;
// finished matches are a random subset of the ended-not-cancelled ones.
func buildLifecyclePlan(matches []domain.MatchDef, cfg config.BettingConfig, rng *rand.Rand) lifecyclePlan {
	plan := lifecyclePlan{winners: make(map[string]domain.Team)}

	endCount := cfg.EndBettingCount
	if endCount > len(matches) {
		endCount = len(matches)
	}
	for _, m := range matches[:endCount] {
		plan.endBetting = append(plan.endBetting, m.Key())
	}

	cancelCount := cfg.CancelCount
	if cancelCount > len(matches) {
		cancelCount = len(matches)
	}
	cancelled := make(map[string]bool, cancelCount)
	for _, m := range matches[len(matches)-cancelCount:] {
		plan.cancel = append(plan.cancel, m.Key())
		cancelled[m.Key()] = true
	}

	// Finish candidates: ended betting and not slated for cancellation.
	byKey := make(map[string]domain.MatchDef, len(matches))
	for _, m := range matches {
		byKey[m.Key()] = m
	}
	var candidates []string
	for _, key := range plan.endBetting {
		if !cancelled[key] {
			candidates = append(candidates, key)
		}
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	finishCount := cfg.FinishCount
	if finishCount > len(candidates) {
		finishCount = len(candidates)
	}
	plan.finishOrder = candidates[:finishCount]
	sort.Strings(plan.finishOrder)

	for _, key := range plan.finishOrder {
		plan.winners[key] = drawWinner(byKey[key], rng)
	}
	return plan
}

// drawWinner picks the winning side weighted by the posted odds: the shorter
// a side's odds, the likelier it wins.
func drawWinner(m domain.MatchDef, rng *rand.Rand) domain.Team {
	total := m.Odds1 + m.Odds2
	if total <= 0 {
		if rng.Intn(2) == 0 {
			return domain.Team1
		}
		return domain.Team2
	}
	if rng.Float64() < m.Odds2/total {
		return domain.Team1
	}
	return domain.Team2
}

// buildBetPlans precomputes every account's bets before the concurrent
// betting phase starts, so a single seeded rng drives all randomness
// sequentially. Each account places between MinBetsPerAccount and
// MaxBetsPerAccount bets, biased toward matches that will settle and toward
// their planned winner, stopping early if the per-account spend ceiling is
// reached.
func buildBetPlans(matches []domain.MatchDef, plan lifecyclePlan, cfg config.BettingConfig, accounts int, rng *rand.Rand) [][]plannedBet {
	keys := make([]string, len(matches))
	for i, m := range matches {
		keys[i] = m.Key()
	}

	maxBet := cfg.MaxBet.IntPart()
	if maxBet < 1 {
		maxBet = 1
	}

	plans := make([][]plannedBet, accounts)
	for a := 0; a < accounts; a++ {
		count := cfg.MinBetsPerAccount
		if spread := cfg.MaxBetsPerAccount - cfg.MinBetsPerAccount; spread > 0 {
			count += rng.Intn(spread + 1)
		}

		remaining := cfg.AccountCeiling
		var bets []plannedBet
		for i := 0; i < count; i++ {
			if remaining.Sign() <= 0 {
				break
			}

			key := keys[rng.Intn(len(keys))]
			if len(plan.finishOrder) > 0 && rng.Intn(100) < cfg.FinishBiasPct {
				key = plan.finishOrder[rng.Intn(len(plan.finishOrder))]
			}

			team := domain.Team1
			if winner, ok := plan.willFinish(key); ok {
				team = winner
				if rng.Intn(100) >= cfg.WinnerBiasPct {
					team = otherTeam(winner)
				}
			} else if rng.Intn(2) == 1 {
				team = domain.Team2
			}

			amount := decimal.NewFromInt(1 + rng.Int63n(maxBet))
			if amount.GreaterThan(remaining) {
				amount = remaining
			}
			remaining = remaining.Sub(amount)

			bets = append(bets, plannedBet{matchKey: key, team: team, amount: amount})
		}
		plans[a] = bets
	}
	return plans
}

func otherTeam(t domain.Team) domain.Team {
	if t == domain.Team1 {
		return domain.Team2
	}
	return domain.Team1
}
