// Package tracker keeps the in-memory ledger of match and bet state for one
// run. It is the sole mutator of match records; the driver reads it to decide
// which transitions to issue remotely and which bets are claimable. Nothing
// here survives the process.
package tracker

import (
	"fmt"
	"sync"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

// Tracker is the per-run match ledger. Safe for concurrent use: bets for
// different matches are recorded from concurrent batches, while transitions
// for any one match are issued sequentially by the driver.
type Tracker struct {
	mu      sync.Mutex
	matches map[string]*record
}

type record struct {
	state  domain.MatchState
	winner domain.Team
	bets   []domain.Bet
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{matches: make(map[string]*record)}
}

// RecordCreated registers a match after a successful create_match call.
func (t *Tracker) RecordCreated(matchKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.matches[matchKey]; exists {
		return fmt.Errorf("tracker: match %s already created: %w", matchKey, domain.ErrInvalidTransition)
	}
	t.matches[matchKey] = &record{state: domain.MatchCreated}
	return nil
}

// RecordBettingEnded transitions a match from Created to BettingEnded.
func (t *Tracker) RecordBettingEnded(matchKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return err
	}
	if rec.state != domain.MatchCreated {
		return fmt.Errorf("tracker: match %s is %s, cannot end betting: %w", matchKey, rec.state, domain.ErrInvalidTransition)
	}
	rec.state = domain.MatchBettingEnded
	return nil
}

// RecordFinished transitions a match from BettingEnded to Finished with the
// given winner. It is idempotent: finishing an already-finished match is a
// no-op and reports applied=false, so the caller can skip the duplicate
// remote finish_match call.
func (t *Tracker) RecordFinished(matchKey string, winner domain.Team) (applied bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return false, err
	}
	if rec.state == domain.MatchFinished {
		return false, nil
	}
	if rec.state != domain.MatchBettingEnded {
		return false, fmt.Errorf("tracker: match %s is %s, cannot finish: %w", matchKey, rec.state, domain.ErrInvalidTransition)
	}
	rec.state = domain.MatchFinished
	rec.winner = winner
	return true, nil
}

// RecordCancelled transitions a match from Created or BettingEnded to
// Cancelled.
func (t *Tracker) RecordCancelled(matchKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return err
	}
	if rec.state.Terminal() {
		return fmt.Errorf("tracker: match %s is %s, cannot cancel: %w", matchKey, rec.state, domain.ErrInvalidTransition)
	}
	rec.state = domain.MatchCancelled
	return nil
}

// RecordBet appends a bet to its match's list. No ordering is guaranteed
// between bets of the same match.
func (t *Tracker) RecordBet(matchKey string, bet domain.Bet) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return err
	}
	rec.bets = append(rec.bets, bet)
	return nil
}

// ClaimableBets returns the bets eligible for claiming given the match's
// terminal state: the winning side's bets when Finished, every bet when
// Cancelled, nothing otherwise.
func (t *Tracker) ClaimableBets(matchKey string) ([]domain.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return nil, err
	}

	switch rec.state {
	case domain.MatchFinished:
		winners := make([]domain.Bet, 0, len(rec.bets))
		for _, b := range rec.bets {
			if b.Team == rec.winner {
				winners = append(winners, b)
			}
		}
		return winners, nil
	case domain.MatchCancelled:
		all := make([]domain.Bet, len(rec.bets))
		copy(all, rec.bets)
		return all, nil
	default:
		return nil, nil
	}
}

// State reports a match's current state.
func (t *Tracker) State(matchKey string) (domain.MatchState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return "", err
	}
	return rec.state, nil
}

// Winner reports the recorded winner of a Finished match; ok is false
// otherwise.
func (t *Tracker) Winner(matchKey string) (winner domain.Team, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, exists := t.matches[matchKey]
	if !exists || rec.state != domain.MatchFinished {
		return "", false
	}
	return rec.winner, true
}

// Bets returns a copy of all bets recorded against a match.
func (t *Tracker) Bets(matchKey string) ([]domain.Bet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, err := t.get(matchKey)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Bet, len(rec.bets))
	copy(out, rec.bets)
	return out, nil
}

// MatchesInState returns the keys of all matches currently in the given
// state, in no particular order.
func (t *Tracker) MatchesInState(state domain.MatchState) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var keys []string
	for key, rec := range t.matches {
		if rec.state == state {
			keys = append(keys, key)
		}
	}
	return keys
}

func (t *Tracker) get(matchKey string) (*record, error) {
	rec, ok := t.matches[matchKey]
	if !ok {
		return nil, fmt.Errorf("tracker: match %s: %w", matchKey, domain.ErrUnknownMatch)
	}
	return rec, nil
}
