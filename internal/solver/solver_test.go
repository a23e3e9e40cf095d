package solver_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relax/internal/grid"
	"relax/internal/parallel"
	"relax/internal/problem"
	"relax/internal/solver"
)

// recorder captures reporter callbacks.
type recorder struct {
	iterations []int
	residuals  []float32
	done       []solver.Result
	onProgress func(iteration int)
}

func (r *recorder) Progress(iteration int, residual float32) {
	r.iterations = append(r.iterations, iteration)
	r.residuals = append(r.residuals, residual)
	if r.onProgress != nil {
		r.onProgress(iteration)
	}
}

func (r *recorder) Done(res solver.Result) { r.done = append(r.done, res) }

func laplaceSolver(t *testing.T, n int, cfg solver.Config, strategy string, opts ...solver.Option) *solver.Solver {
	t.Helper()
	prob, err := problem.NewLaplace(n)
	require.NoError(t, err)
	s, err := parallel.New(strategy, 4)
	require.NoError(t, err)
	sv, err := solver.NewCPU(cfg, prob, s, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sv.Close() })
	return sv
}

//----------------------------------------------------------------------------//
// Config
//----------------------------------------------------------------------------//

func TestConfig_Validate(t *testing.T) {
	valid := solver.Config{Tolerance: 1e-5, MaxIterations: 10, ReportEvery: 1}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name string
		cfg  solver.Config
		err  error
	}{
		{"NegativeTolerance", solver.Config{Tolerance: -1, MaxIterations: 1, ReportEvery: 1}, solver.ErrInvalidTolerance},
		{"NaNTolerance", solver.Config{Tolerance: float32(math.NaN()), MaxIterations: 1, ReportEvery: 1}, solver.ErrInvalidTolerance},
		{"ZeroCap", solver.Config{Tolerance: 1, MaxIterations: 0, ReportEvery: 1}, solver.ErrInvalidIterationCap},
		{"ZeroInterval", solver.Config{Tolerance: 1, MaxIterations: 1, ReportEvery: 0}, solver.ErrInvalidReportInterval},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.cfg.Validate(), tc.err)
		})
	}
}

func TestNew_SizeMismatch(t *testing.T) {
	prob, _ := problem.NewLaplace(5)
	pair, _ := grid.NewPair(6)
	eng := solver.NewCPUEngine(prob, pair, parallel.Sequential{})
	_, err := solver.New(solver.Config{Tolerance: 1, MaxIterations: 1, ReportEvery: 1}, prob, pair, eng)
	require.ErrorIs(t, err, solver.ErrSizeMismatch)
}

//----------------------------------------------------------------------------//
// State machine
//----------------------------------------------------------------------------//

func TestSolver_IterationCap(t *testing.T) {
	rec := &recorder{}
	sv := laplaceSolver(t, 32, solver.Config{Tolerance: 0, MaxIterations: 5, ReportEvery: 1}, parallel.NameSequential, solver.WithReporter(rec))

	res, err := sv.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.CapReached, res.Status)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, 4, sv.Iteration())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, rec.iterations)
	require.Len(t, rec.done, 1)
	assert.Equal(t, res, rec.done[0])

	// Further steps are no-ops.
	st, err := sv.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, solver.CapReached, st)
	assert.Len(t, rec.done, 1)
}

func TestSolver_ReportCadence(t *testing.T) {
	rec := &recorder{}
	sv := laplaceSolver(t, 16, solver.Config{Tolerance: 0, MaxIterations: 10, ReportEvery: 3}, parallel.NameSequential, solver.WithReporter(rec))
	_, err := sv.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6, 9}, rec.iterations)
}

func TestSolver_IterationCounterIsMonotonic(t *testing.T) {
	rec := &recorder{}
	sv := laplaceSolver(t, 12, solver.Config{Tolerance: 1e-4, MaxIterations: 100000, ReportEvery: 1}, parallel.NamePool, solver.WithReporter(rec))
	res, err := sv.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Converged, res.Status)
	require.Len(t, rec.iterations, res.Iterations)
	for i, it := range rec.iterations {
		assert.Equal(t, i, it)
	}
	assert.LessOrEqual(t, rec.residuals[len(rec.residuals)-1], float32(1e-4))
}

func TestSolver_DegenerateGrid(t *testing.T) {
	for _, n := range []int{1, 2} {
		rec := &recorder{}
		sv := laplaceSolver(t, n, solver.Config{Tolerance: 1e-5, MaxIterations: 10, ReportEvery: 1}, parallel.NameSequential, solver.WithReporter(rec))
		res, err := sv.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, solver.Converged, res.Status)
		assert.Zero(t, res.Iterations)
		assert.Zero(t, res.Residual)
		assert.Empty(t, rec.iterations)
		assert.Len(t, rec.done, 1)
	}
}

func TestSolver_InitialResidualIsInfinite(t *testing.T) {
	sv := laplaceSolver(t, 8, solver.Config{Tolerance: 1e-5, MaxIterations: 10, ReportEvery: 1}, parallel.NameSequential)
	assert.True(t, math.IsInf(float64(sv.Residual()), 1))
	assert.Equal(t, solver.Running, sv.Status())
}

func TestSolver_AuthoritativeSlotAlternates(t *testing.T) {
	prob, _ := problem.NewLaplace(6)
	pair, _ := grid.NewPair(6)
	prob.Init(pair)
	sv, err := solver.New(solver.Config{Tolerance: 0, MaxIterations: 100, ReportEvery: 1}, prob, pair,
		solver.NewCPUEngine(prob, pair, parallel.Sequential{}))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := sv.Step(context.Background())
		require.NoError(t, err)
		want := pair.Slot((i + 1) % 2)
		assert.Same(t, want, sv.Field(), "after sweep %d", i)
	}
}

func TestSolver_FixedPointIsStable(t *testing.T) {
	prob, _ := problem.NewLaplace(3)
	pair, _ := grid.NewPair(3)
	prob.Init(pair)
	eng := solver.NewCPUEngine(prob, pair, parallel.Sequential{})
	sv, err := solver.New(solver.Config{Tolerance: 0, MaxIterations: 10, ReportEvery: 1}, prob, pair, eng)
	require.NoError(t, err)

	res, err := sv.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Converged, res.Status)
	require.Zero(t, res.Residual)
	assert.Equal(t, 2, res.Iterations)

	want := 0.25 * (prob.Profile(1)*prob.Decay() + prob.Profile(1) + 0 + 0)
	assert.Equal(t, want, sv.Field().At(1, 1))

	sel := res.Slot
	for i := 0; i < 2; i++ {
		r, err := eng.Sweep(context.Background(), sel)
		require.NoError(t, err)
		assert.Zero(t, r)
		sel = 1 - sel
	}
}

func TestSolver_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{onProgress: func(it int) {
		if it == 3 {
			cancel()
		}
	}}
	sv := laplaceSolver(t, 16, solver.Config{Tolerance: 0, MaxIterations: 1000, ReportEvery: 1}, parallel.NameGroup, solver.WithReporter(rec))

	res, err := sv.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, solver.Cancelled, res.Status)
	assert.Equal(t, 4, res.Iterations)
	assert.Len(t, rec.done, 1)
}

func TestSolver_CancelledStaysCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	sv := laplaceSolver(t, 12, solver.Config{Tolerance: 0, MaxIterations: 1000, ReportEvery: 1}, parallel.NameSequential, solver.WithReporter(rec))

	st, err := sv.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, solver.Running, st)

	cancel()
	st, err = sv.Step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, solver.Cancelled, st)

	// A fresh context does not revive the run, and the outcome is not success.
	st, err = sv.Step(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, solver.Cancelled, st)

	res, err := sv.Run(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, solver.Cancelled, res.Status)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, rec.done, 1)
}

//----------------------------------------------------------------------------//
// End to end
//----------------------------------------------------------------------------//

func TestLaplace_EndToEndDeterministic(t *testing.T) {
	cfg := solver.Config{Tolerance: 1e-5, MaxIterations: 100000, ReportEvery: 100}

	var reference *grid.Field
	var refIterations int
	for _, name := range append([]string{parallel.NameSequential}, parallel.Names()...) {
		sv := laplaceSolver(t, 50, cfg, name)
		res, err := sv.Run(context.Background())
		require.NoError(t, err, name)
		require.Equal(t, solver.Converged, res.Status, name)
		require.Greater(t, res.Iterations, 1)
		require.LessOrEqual(t, res.Residual, cfg.Tolerance)

		f := sv.Field()
		require.Equal(t, 50, f.N())
		prob := sv.Problem().(*problem.Laplace)
		for _, c := range grid.Perimeter(50) {
			require.Equal(t, prob.BoundaryValue(c.Row, c.Col), f.At(c.Row, c.Col), "boundary %v", c)
		}

		if reference == nil {
			reference, refIterations = f.Clone(), res.Iterations
			continue
		}
		assert.Equal(t, refIterations, res.Iterations, name)
		assert.True(t, reference.Equal(f), "%s field differs from sequential", name)
	}
}

func TestDisk_Converges(t *testing.T) {
	const n = 21
	prob, err := problem.NewDisk(n, problem.DefaultDomainMin, problem.DefaultDomainMax)
	require.NoError(t, err)
	sv, err := solver.NewCPU(solver.Config{Tolerance: 1e-5, MaxIterations: 100000, ReportEvery: 100}, prob, parallel.NewForkJoin(3))
	require.NoError(t, err)
	defer sv.Close()

	res, err := sv.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, solver.Converged, res.Status)

	f := sv.Field()
	for col := 0; col < n; col++ {
		for row := 0; row < n; row++ {
			if !prob.Exterior(row, col) {
				continue
			}
			x, y := prob.Coords().At(row, col)
			require.Equal(t, problem.ExteriorValue(float64(x), float64(y)), f.At(row, col))
		}
	}
	// Interior values are bounded by the boundary data.
	lo, hi := f.Range()
	assert.GreaterOrEqual(t, lo, float32(-1))
	assert.LessOrEqual(t, hi, float32(1))
}
