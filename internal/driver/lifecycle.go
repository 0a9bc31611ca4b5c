package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
)

// runLifecycle drives the planned transitions in order: end betting, cancel,
// finish. Transitions are issued sequentially by the admin principal; a
// failed transition is logged and the match is left in its prior state, so a
// partially settled board is still consistent with the tracker.
func (d *Driver) runLifecycle(ctx context.Context) error {
	for _, key := range d.plan.endBetting {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.endBetting(ctx, key)
	}
	for _, key := range d.plan.cancel {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.cancelMatch(ctx, key)
	}
	for _, key := range d.plan.finishOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.finishMatch(ctx, key, d.plan.winners[key])
	}
	return nil
}

// endBetting closes the betting window for one match. The local state is
// checked first so a match that already moved on is never touched remotely.
func (d *Driver) endBetting(ctx context.Context, key string) {
	state, err := d.tracker.State(key)
	if err != nil || state != domain.MatchCreated {
		d.logger.Warn("skipping end_betting",
			slog.String("match", key), slog.String("state", string(state)))
		return
	}

	_, err = d.invoke(ctx, "admin", d.cfg.Contracts.Betting, "end_betting",
		map[string]string{"match_id": key}, nearrpc.CallResources{Gas: defaultGas})
	d.metrics.RecordOutcome("lifecycle", err)
	if err != nil {
		d.logger.Warn("end_betting failed",
			slog.String("match", key), slog.String("error", err.Error()))
		return
	}
	if err := d.tracker.RecordBettingEnded(key); err != nil {
		d.logger.Warn("tracker rejected betting end",
			slog.String("match", key), slog.String("error", err.Error()))
	}
}

// cancelMatch voids one match. Allowed from Created or BettingEnded.
func (d *Driver) cancelMatch(ctx context.Context, key string) {
	state, err := d.tracker.State(key)
	if err != nil || state.Terminal() {
		d.logger.Warn("skipping cancel_match",
			slog.String("match", key), slog.String("state", string(state)))
		return
	}

	_, err = d.invoke(ctx, "admin", d.cfg.Contracts.Betting, "cancel_match",
		map[string]string{"match_id": key}, nearrpc.CallResources{Gas: defaultGas})
	d.metrics.RecordOutcome("lifecycle", err)
	if err != nil {
		d.logger.Warn("cancel_match failed",
			slog.String("match", key), slog.String("error", err.Error()))
		return
	}
	if err := d.tracker.RecordCancelled(key); err != nil {
		d.logger.Warn("tracker rejected cancellation",
			slog.String("match", key), slog.String("error", err.Error()))
	}
}

// finishMatch settles one match with the planned winner. Already-finished
// matches are skipped before any remote call goes out, which keeps the
// original winner intact if the plan were ever replayed.
func (d *Driver) finishMatch(ctx context.Context, key string, winner domain.Team) {
	state, err := d.tracker.State(key)
	if err != nil {
		d.logger.Warn("skipping finish_match", slog.String("match", key), slog.String("error", err.Error()))
		return
	}
	if state == domain.MatchFinished {
		d.logger.Info("match already finished", slog.String("match", key))
		return
	}
	if state != domain.MatchBettingEnded {
		d.logger.Warn("skipping finish_match",
			slog.String("match", key), slog.String("state", string(state)))
		return
	}

	_, err = d.invoke(ctx, "admin", d.cfg.Contracts.Betting, "finish_match", map[string]any{
		"match_id": key,
		"winner":   winner,
	}, nearrpc.CallResources{Gas: defaultGas})
	d.metrics.RecordOutcome("lifecycle", err)
	if err != nil {
		d.logger.Warn("finish_match failed",
			slog.String("match", key), slog.String("error", err.Error()))
		return
	}

	applied, err := d.tracker.RecordFinished(key, winner)
	if err != nil {
		d.logger.Warn("tracker rejected finish",
			slog.String("match", key), slog.String("error", err.Error()))
		return
	}
	if applied {
		d.logger.Info("match finished",
			slog.String("match", key), slog.String("winner", string(winner)))
	}
}

// processClaims walks every terminal match and claims each eligible bet as
// its bettor. Claims are best-effort: after the standard retry policy, one
// final attempt is made before the bet is given up on for this run.
func (d *Driver) processClaims(ctx context.Context) error {
	keys := append([]string{}, d.plan.finishOrder...)
	keys = append(keys, d.plan.cancel...)

	claimed, failed := 0, 0
	for _, key := range keys {
		bets, err := d.tracker.ClaimableBets(key)
		if err != nil {
			d.logger.Warn("cannot list claimable bets",
				slog.String("match", key), slog.String("error", err.Error()))
			continue
		}
		for _, bet := range bets {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.claimBet(ctx, bet); err != nil {
				failed++
				d.logger.Warn("claim failed",
					slog.String("match", key),
					slog.String("bettor", bet.Bettor),
					slog.Uint64("bet_id", bet.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			claimed++
		}
	}

	d.logger.Info("claims processed", slog.Int("claimed", claimed), slog.Int("failed", failed))
	return nil
}

// claimBet issues claim as the bet's owner, with one extra attempt beyond the
// standard retry policy.
func (d *Driver) claimBet(ctx context.Context, bet domain.Bet) error {
	cred, ok := d.credByID[bet.Bettor]
	if !ok {
		return fmt.Errorf("no credential for bettor %s: %w", bet.Bettor, domain.ErrPrecondition)
	}

	args := map[string]string{"bet_id": strconv.FormatUint(bet.ID, 10)}
	res := nearrpc.CallResources{Gas: defaultGas}

	_, err := d.invokeAs(ctx, cred, d.cfg.Contracts.Betting, "claim", args, res)
	if err != nil {
		_, err = d.gw.InvokeAs(ctx, cred, d.cfg.Contracts.Betting, "claim", args, res)
	}
	d.metrics.RecordOutcome("claims", err)
	return err
}
