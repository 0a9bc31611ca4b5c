package driver

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vex-labs/setup-contract-script/internal/batch"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
)

// betMsg is the ft_transfer_call msg payload that routes a token transfer
// into a wager on the betting contract.
type betMsg struct {
	Bet struct {
		MatchID string      `json:"match_id"`
		Team    domain.Team `json:"team"`
	} `json:"Bet"`
}

// userBet is one row of the contract's get_users_bets view. Numeric fields
// arrive as JSON strings.
type userBet struct {
	BetID   string      `json:"bet_id"`
	MatchID string      `json:"match_id"`
	Team    domain.Team `json:"team"`
	Amount  string      `json:"bet_amount"`
}

// betsPageSize bounds one get_users_bets call.
const betsPageSize = 50

// placeBets precomputes every account's bets, then runs accounts
// concurrently. Within an account, bets go out sequentially with a pause
// between them. A failed bet is logged and skipped; the authoritative record
// is read back from the contract afterwards, so the tracker only ever holds
// bets the contract accepted.
func (d *Driver) placeBets(ctx context.Context) error {
	plans := buildBetPlans(d.matches, d.plan, d.cfg.Betting, len(d.accounts), d.rng)

	type job struct {
		acct domain.Account
		bets []plannedBet
	}
	jobs := make([]job, len(d.accounts))
	for i, acct := range d.accounts {
		jobs[i] = job{acct: acct, bets: plans[i]}
	}

	results := batch.Run(ctx, jobs, d.cfg.Betting.AccountConcurrency,
		func(ctx context.Context, j job) (int, error) {
			placed := 0
			for i, bet := range j.bets {
				if i > 0 {
					if err := pause(ctx, d.cfg.Pacing.BetDelay.Duration); err != nil {
						return placed, err
					}
				}

				var msg betMsg
				msg.Bet.MatchID = bet.matchKey
				msg.Bet.Team = bet.team
				_, err := d.invokeAs(ctx, j.acct.Credential, d.cfg.Contracts.USDC, "ft_transfer_call", map[string]any{
					"receiver_id": d.cfg.Contracts.Betting,
					"amount":      bet.amount.String(),
					"msg":         jsonMsg(msg),
				}, nearrpc.CallResources{Gas: defaultGas, Deposit: oneYocto})
				d.metrics.RecordOutcome("bets", err)
				if err != nil {
					d.logger.Warn("bet failed, skipping",
						slog.String("account", j.acct.ID),
						slog.String("match", bet.matchKey),
						slog.String("error", err.Error()),
					)
					continue
				}
				placed++
			}

			if err := d.readBackBets(ctx, j.acct.ID); err != nil {
				// The account's bets stay unrecorded and thus unclaimed, but
				// one bettor's readback never takes down the run.
				d.logger.Warn("bet readback failed, skipping account",
					slog.String("account", j.acct.ID),
					slog.String("error", err.Error()),
				)
			}
			return placed, nil
		})

	total := 0
	for _, r := range results {
		total += r.Value
	}
	d.logger.Info("bets placed", slog.Int("count", total))
	return batch.FirstError(results)
}

// readBackBets pages through get_users_bets for one bettor and records each
// accepted bet in the tracker. Accounts are fresh per run, so every row
// belongs to this run.
func (d *Driver) readBackBets(ctx context.Context, bettor string) error {
	for from := 0; ; from += betsPageSize {
		var page []userBet
		err := d.view(ctx, d.cfg.Contracts.Betting, "get_users_bets", map[string]string{
			"bettor":     bettor,
			"from_index": strconv.Itoa(from),
			"limit":      strconv.Itoa(betsPageSize),
		}, &page)
		if err != nil {
			return err
		}

		for _, row := range page {
			id, err := strconv.ParseUint(row.BetID, 10, 64)
			if err != nil {
				d.logger.Warn("unparseable bet id in readback",
					slog.String("bettor", bettor), slog.String("bet_id", row.BetID))
				continue
			}
			amount, err := decimal.NewFromString(row.Amount)
			if err != nil {
				d.logger.Warn("unparseable bet amount in readback",
					slog.String("bettor", bettor), slog.String("amount", row.Amount))
				continue
			}
			if err := d.tracker.RecordBet(row.MatchID, domain.Bet{
				ID:       id,
				MatchKey: row.MatchID,
				Bettor:   bettor,
				Team:     row.Team,
				Amount:   amount,
			}); err != nil {
				d.logger.Warn("bet readback references unknown match",
					slog.String("bettor", bettor), slog.String("match", row.MatchID))
			}
		}

		if len(page) < betsPageSize {
			return nil
		}
	}
}
