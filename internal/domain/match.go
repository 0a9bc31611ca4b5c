// Package domain holds the core types shared across the setup script: match
// and bet records, team sides, accounts, and the error taxonomy. It has no
// dependencies on the RPC or orchestration layers.
package domain

import "fmt"

// Team identifies one side of a match. The string values are the contract's
// enum representation and go on the wire verbatim.
type Team string

const (
	Team1 Team = "Team1"
	Team2 Team = "Team2"
)

// MatchState is the lifecycle state of a match as tracked locally.
// Transitions are one-way: Created -> BettingEnded -> {Finished | Cancelled},
// with Created -> Cancelled also permitted. Finished and Cancelled are
// terminal.
type MatchState string

const (
	MatchCreated      MatchState = "created"
	MatchBettingEnded MatchState = "betting_ended"
	MatchFinished     MatchState = "finished"
	MatchCancelled    MatchState = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s MatchState) Terminal() bool {
	return s == MatchFinished || s == MatchCancelled
}

// MatchDef is one match definition from the input fixture. Field names mirror
// the contract's create_match arguments.
type MatchDef struct {
	Game  string  `json:"game"`
	Team1 string  `json:"team_1"`
	Team2 string  `json:"team_2"`
	Odds1 float64 `json:"in_odds_1"`
	Odds2 float64 `json:"in_odds_2"`
	Date  string  `json:"date"`
}

// Key derives the match identifier used by the contract and the tracker.
// Uniqueness is assumed from the fixture, not enforced.
func (d MatchDef) Key() string {
	return fmt.Sprintf("%s-%s-%s", d.Team1, d.Team2, d.Date)
}

// TeamName returns the display name for a side of this match.
func (d MatchDef) TeamName(t Team) string {
	if t == Team2 {
		return d.Team2
	}
	return d.Team1
}
