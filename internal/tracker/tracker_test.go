package tracker

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

func bet(id uint64, team domain.Team) domain.Bet {
	return domain.Bet{
		ID:     id,
		Bettor: "bettor.test",
		Team:   team,
		Amount: decimal.NewFromInt(100),
	}
}

func TestRecordCreatedDuplicate(t *testing.T) {
	tr := New()
	if err := tr.RecordCreated("a-b-2026"); err != nil {
		t.Fatalf("RecordCreated: %v", err)
	}
	if err := tr.RecordCreated("a-b-2026"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUnknownMatch(t *testing.T) {
	tr := New()
	if err := tr.RecordBettingEnded("nope"); !errors.Is(err, domain.ErrUnknownMatch) {
		t.Fatalf("expected ErrUnknownMatch, got %v", err)
	}
	if _, err := tr.ClaimableBets("nope"); !errors.Is(err, domain.ErrUnknownMatch) {
		t.Fatalf("expected ErrUnknownMatch, got %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	tr := New()
	key := "a-b-2026"
	if err := tr.RecordCreated(key); err != nil {
		t.Fatalf("RecordCreated: %v", err)
	}
	if err := tr.RecordBettingEnded(key); err != nil {
		t.Fatalf("RecordBettingEnded: %v", err)
	}
	applied, err := tr.RecordFinished(key, domain.Team1)
	if err != nil {
		t.Fatalf("RecordFinished: %v", err)
	}
	if !applied {
		t.Fatal("expected first finish to apply")
	}
	if st, _ := tr.State(key); st != domain.MatchFinished {
		t.Fatalf("state = %s, want finished", st)
	}
	if w, ok := tr.Winner(key); !ok || w != domain.Team1 {
		t.Fatalf("winner = %q/%v, want Team1/true", w, ok)
	}
}

func TestRecordFinishedIdempotent(t *testing.T) {
	tr := New()
	key := "a-b-2026"
	_ = tr.RecordCreated(key)
	_ = tr.RecordBettingEnded(key)

	applied, err := tr.RecordFinished(key, domain.Team2)
	if err != nil || !applied {
		t.Fatalf("first finish: applied=%v err=%v", applied, err)
	}
	applied, err = tr.RecordFinished(key, domain.Team1)
	if err != nil {
		t.Fatalf("second finish: %v", err)
	}
	if applied {
		t.Fatal("second finish must not apply")
	}
	// Observable state unchanged, including the original winner.
	if w, _ := tr.Winner(key); w != domain.Team2 {
		t.Fatalf("winner = %q, want Team2", w)
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(tr *Tracker, key string) error
	}{
		{"finish without ending betting", func(tr *Tracker, key string) error {
			_, err := tr.RecordFinished(key, domain.Team1)
			return err
		}},
		{"end betting twice", func(tr *Tracker, key string) error {
			if err := tr.RecordBettingEnded(key); err != nil {
				return err
			}
			return tr.RecordBettingEnded(key)
		}},
		{"cancel after finish", func(tr *Tracker, key string) error {
			_ = tr.RecordBettingEnded(key)
			_, _ = tr.RecordFinished(key, domain.Team1)
			return tr.RecordCancelled(key)
		}},
		{"end betting after cancel", func(tr *Tracker, key string) error {
			if err := tr.RecordCancelled(key); err != nil {
				return err
			}
			return tr.RecordBettingEnded(key)
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New()
			key := "a-b-2026"
			_ = tr.RecordCreated(key)
			if err := tc.run(tr, key); !errors.Is(err, domain.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestCancelFromCreatedAndBettingEnded(t *testing.T) {
	tr := New()
	_ = tr.RecordCreated("direct")
	if err := tr.RecordCancelled("direct"); err != nil {
		t.Fatalf("cancel from created: %v", err)
	}

	_ = tr.RecordCreated("ended")
	_ = tr.RecordBettingEnded("ended")
	if err := tr.RecordCancelled("ended"); err != nil {
		t.Fatalf("cancel from betting_ended: %v", err)
	}
}

func TestClaimableBetsAnyInsertionOrder(t *testing.T) {
	bets := []domain.Bet{
		bet(1, domain.Team1),
		bet(2, domain.Team2),
		bet(3, domain.Team1),
		bet(4, domain.Team2),
		bet(5, domain.Team1),
	}

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		order := rng.Perm(len(bets))

		tr := New()
		key := "a-b-2026"
		_ = tr.RecordCreated(key)
		for _, i := range order {
			if err := tr.RecordBet(key, bets[i]); err != nil {
				t.Fatalf("RecordBet: %v", err)
			}
		}

		// Not terminal yet: nothing claimable.
		claimable, err := tr.ClaimableBets(key)
		if err != nil {
			t.Fatalf("ClaimableBets: %v", err)
		}
		if len(claimable) != 0 {
			t.Fatalf("pre-terminal claimable = %d, want 0", len(claimable))
		}

		_ = tr.RecordBettingEnded(key)
		if _, err := tr.RecordFinished(key, domain.Team1); err != nil {
			t.Fatalf("RecordFinished: %v", err)
		}

		claimable, _ = tr.ClaimableBets(key)
		ids := map[uint64]bool{}
		for _, b := range claimable {
			if b.Team != domain.Team1 {
				t.Fatalf("claimable bet %d on losing team", b.ID)
			}
			ids[b.ID] = true
		}
		if len(ids) != 3 || !ids[1] || !ids[3] || !ids[5] {
			t.Fatalf("claimable ids = %v, want {1,3,5}", ids)
		}
	}
}

func TestClaimableBetsCancelledReturnsAll(t *testing.T) {
	tr := New()
	key := "a-b-2026"
	_ = tr.RecordCreated(key)
	for i := uint64(1); i <= 4; i++ {
		team := domain.Team1
		if i%2 == 0 {
			team = domain.Team2
		}
		_ = tr.RecordBet(key, bet(i, team))
	}
	_ = tr.RecordCancelled(key)

	claimable, err := tr.ClaimableBets(key)
	if err != nil {
		t.Fatalf("ClaimableBets: %v", err)
	}
	if len(claimable) != 4 {
		t.Fatalf("claimable = %d, want 4", len(claimable))
	}
}

func TestMatchesInState(t *testing.T) {
	tr := New()
	_ = tr.RecordCreated("a")
	_ = tr.RecordCreated("b")
	_ = tr.RecordCreated("c")
	_ = tr.RecordBettingEnded("b")
	_ = tr.RecordCancelled("c")

	if got := tr.MatchesInState(domain.MatchCreated); len(got) != 1 || got[0] != "a" {
		t.Fatalf("created = %v, want [a]", got)
	}
	if got := tr.MatchesInState(domain.MatchBettingEnded); len(got) != 1 || got[0] != "b" {
		t.Fatalf("betting_ended = %v, want [b]", got)
	}
	if got := tr.MatchesInState(domain.MatchCancelled); len(got) != 1 || got[0] != "c" {
		t.Fatalf("cancelled = %v, want [c]", got)
	}
}
