package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Group fans each reduction out to fresh goroutines, one per band, and joins
// them with an errgroup. It owns no long-lived goroutines. A band that finds
// the context cancelled skips its work and fails the whole reduction.
type Group struct {
	workers int
}

// NewGroup returns a Group splitting ranges into at most workers bands.
func NewGroup(workers int) *Group {
	return &Group{workers: DefaultWorkers(workers)}
}

// Name returns NameGroup.
func (g *Group) Name() string { return NameGroup }

// ReduceMax runs body over each band in its own goroutine. Cancellation seen
// before or after a band runs is returned; partial maxima are then discarded.
func (g *Group) ReduceMax(ctx context.Context, lo, hi int, body Body) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	bands := splitBands(lo, hi, g.workers)
	if len(bands) == 0 {
		return 0, nil
	}
	parts := make([]partial, len(bands))
	eg, gctx := errgroup.WithContext(ctx)
	for i, b := range bands {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i].v = body(b.lo, b.hi)
			return gctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return maxOf(parts), nil
}

// Close is a no-op.
func (g *Group) Close() error { return nil }
