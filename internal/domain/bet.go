package domain

import "github.com/shopspring/decimal"

// Bet is a wager recorded after a successful ft_transfer_call. The ID is
// assigned by the contract and read back via get_users_bets; settlement state
// is derived from the owning match, never stored remotely by this tool.
type Bet struct {
	ID       uint64
	MatchKey string
	Bettor   string
	Team     Team
	Amount   decimal.Decimal
}

// Account is a freshly generated test account owned by this run. Accounts are
// never reused across runs.
type Account struct {
	ID         string
	Credential Credential
}
