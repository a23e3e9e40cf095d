package solver

import (
	"context"

	"relax/internal/grid"
	"relax/internal/parallel"
	"relax/internal/problem"
)

// Engine performs sweeps over a Pair it was bound to at construction.
//
// Sweep relaxes the buffer selected by sel into the other slot and returns the
// sweep residual. Engines that keep the field elsewhere (device memory) only
// guarantee the host Pair is current after Sync.
type Engine interface {
	Name() string
	Sweep(ctx context.Context, sel int) (float32, error)
	Sync(ctx context.Context) error
	Close() error
}

// CPUEngine runs a problem's stencil on the host through a parallel.Strategy.
type CPUEngine struct {
	prob     problem.Problem
	pair     *grid.Pair
	strategy parallel.Strategy
}

// NewCPUEngine binds prob and pair to strategy. The engine takes ownership of
// the strategy and closes it in Close.
func NewCPUEngine(prob problem.Problem, pair *grid.Pair, strategy parallel.Strategy) *CPUEngine {
	return &CPUEngine{prob: prob, pair: pair, strategy: strategy}
}

// Name reports the host strategy, e.g. "cpu/pool".
func (e *CPUEngine) Name() string { return "cpu/" + e.strategy.Name() }

// Sweep relaxes slot sel into slot 1-sel across the problem's interior
// columns and returns the largest change.
func (e *CPUEngine) Sweep(ctx context.Context, sel int) (float32, error) {
	src := e.pair.Read(sel).Data()
	dst := e.pair.Write(sel).Data()
	lo, hi := e.prob.Columns()
	return e.strategy.ReduceMax(ctx, lo, hi, func(a, b int) float32 {
		return e.prob.Relax(src, dst, a, b)
	})
}

// Sync is a no-op; host slots are always current.
func (e *CPUEngine) Sync(context.Context) error { return nil }

// Close releases the strategy's workers.
func (e *CPUEngine) Close() error { return e.strategy.Close() }
