package driver

import (
	"context"
	"log/slog"

	"github.com/vex-labs/setup-contract-script/internal/batch"
	"github.com/vex-labs/setup-contract-script/internal/domain"
	"github.com/vex-labs/setup-contract-script/internal/nearrpc"
)

// createMatches submits every fixture match in batches, pausing between
// batches. Creation is fail-fast: the betting phase assumes every match
// exists, so a partial board aborts the run. The lifecycle plan is derived
// here, once all matches are registered in the tracker.
func (d *Driver) createMatches(ctx context.Context) error {
	for start := 0; start < len(d.matches); start += d.cfg.Betting.BatchSize {
		end := start + d.cfg.Betting.BatchSize
		if end > len(d.matches) {
			end = len(d.matches)
		}
		if start > 0 {
			if err := pause(ctx, d.cfg.Pacing.MatchBatchDelay.Duration); err != nil {
				return err
			}
		}

		chunk := d.matches[start:end]
		results := batch.Run(ctx, chunk, d.cfg.Betting.AccountConcurrency,
			func(ctx context.Context, m domain.MatchDef) (struct{}, error) {
				_, err := d.invoke(ctx, "admin", d.cfg.Contracts.Betting, "create_match", map[string]any{
					"game":      m.Game,
					"team_1":    m.Team1,
					"team_2":    m.Team2,
					"in_odds_1": m.Odds1,
					"in_odds_2": m.Odds2,
					"date":      m.Date,
				}, nearrpc.CallResources{Gas: defaultGas})
				d.metrics.RecordOutcome("create_matches", err)
				return struct{}{}, err
			})

		for _, r := range results {
			if r.Err != nil {
				continue
			}
			if err := d.tracker.RecordCreated(r.Item.Key()); err != nil {
				return err
			}
		}
		if err := batch.FirstError(results); err != nil {
			return err
		}
		d.logger.Info("match batch created",
			slog.Int("from", start), slog.Int("to", end), slog.Int("total", len(d.matches)))
	}

	d.plan = buildLifecyclePlan(d.matches, d.cfg.Betting, d.rng)
	d.logger.Info("lifecycle plan",
		slog.Int("end_betting", len(d.plan.endBetting)),
		slog.Int("finish", len(d.plan.finishOrder)),
		slog.Int("cancel", len(d.plan.cancel)),
	)
	return nil
}
