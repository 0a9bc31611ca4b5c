// Package batch runs a set of independent operations with bounded
// concurrency and collects per-item outcomes. A single item's failure never
// cancels its siblings; the caller decides whether any failure is fatal.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vex-labs/setup-contract-script/internal/domain"
)

// Result pairs an input item with its outcome.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run launches op for every item, at most concurrency at a time
// (0 = unbounded), waits for all to settle, and returns outcomes in item
// order. Errors from op are captured per item, never propagated through the
// group, so no failure aborts the batch.
func Run[T, R any](ctx context.Context, items []T, concurrency int, op func(ctx context.Context, item T) (R, error)) []Result[T, R] {
	results := make([]Result[T, R], len(items))

	g := new(errgroup.Group)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, item := range items {
		i, item := i, item
		results[i].Item = item
		g.Go(func() error {
			results[i].Value, results[i].Err = op(ctx, item)
			return nil
		})
	}
	// Never returns an error: the group only joins the goroutines.
	_ = g.Wait()

	return results
}

// FirstError returns a phase error wrapping the first failed item's error,
// or nil when every item succeeded. Fail-fast phases use it to abort the run.
func FirstError[T, R any](results []Result[T, R]) error {
	failed := 0
	var first error
	for _, r := range results {
		if r.Err != nil {
			failed++
			if first == nil {
				first = r.Err
			}
		}
	}
	if first == nil {
		return nil
	}
	return fmt.Errorf("%w: %d of %d items failed, first: %v", domain.ErrPhase, failed, len(results), first)
}
