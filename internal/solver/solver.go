package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"relax/internal/grid"
	"relax/internal/parallel"
	"relax/internal/problem"
)

// Status is the state of the convergence state machine.
type Status int

const (
	Running Status = iota
	Converged
	CapReached
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case CapReached:
		return "iteration cap reached"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Terminal reports whether no further sweep will run.
func (s Status) Terminal() bool { return s != Running }

// Reporter receives progress between sweeps, on the solver's goroutine.
type Reporter interface {
	Progress(iteration int, residual float32)
	Done(r Result)
}

// Result summarizes a finished run.
type Result struct {
	Status     Status
	Iterations int // sweeps completed
	Residual   float32
	Elapsed    time.Duration
	Slot       int // slot of the pair holding the authoritative field
	Engine     string
}

// Option customizes a Solver.
type Option func(*Solver)

// WithReporter installs r for progress and completion callbacks.
func WithReporter(r Reporter) Option { return func(s *Solver) { s.reporter = r } }

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// Solver drives the iterate-until-converged loop. It exclusively owns the
// pair and the engine for the lifetime of the run; Field must only be read
// between Step calls.
type Solver struct {
	cfg      Config
	prob     problem.Problem
	pair     *grid.Pair
	engine   Engine
	reporter Reporter
	logger   *zap.Logger

	iteration int
	sweeps    int
	residual  float32
	slot      int
	status    Status
	started   time.Time
	elapsed   time.Duration
}

// New wires a solver around an engine already bound to pair. pair must have
// been seeded by prob.Init.
func New(cfg Config, prob problem.Problem, pair *grid.Pair, engine Engine, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prob.N() != pair.N() {
		return nil, fmt.Errorf("%w: problem %d, pair %d", ErrSizeMismatch, prob.N(), pair.N())
	}
	s := &Solver{
		cfg:      cfg,
		prob:     prob,
		pair:     pair,
		engine:   engine,
		logger:   zap.NewNop(),
		residual: float32(math.Inf(1)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewCPU allocates a packed pair for prob, seeds it, and builds a solver over
// a host engine using strategy.
func NewCPU(cfg Config, prob problem.Problem, strategy parallel.Strategy, opts ...Option) (*Solver, error) {
	pair, err := grid.NewPackedPair(prob.N())
	if err != nil {
		return nil, err
	}
	prob.Init(pair)
	return New(cfg, prob, pair, NewCPUEngine(prob, pair, strategy), opts...)
}

// Step runs at most one sweep and advances the state machine. Calling Step in
// a terminal state does no work; a cancelled solver keeps reporting
// context.Canceled so later callers cannot mistake it for a finished run.
func (s *Solver) Step(ctx context.Context) (Status, error) {
	if s.status == Cancelled {
		return s.status, context.Canceled
	}
	if s.status.Terminal() {
		return s.status, nil
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}
	if !grid.Interior(s.prob.N()) {
		s.residual = 0
		s.status = Converged
		return s.status, s.finish(ctx)
	}
	if err := ctx.Err(); err != nil {
		s.status = Cancelled
		return s.status, errors.Join(err, s.finish(ctx))
	}

	sel := s.iteration & 1
	residual, err := s.engine.Sweep(ctx, sel)
	if err != nil {
		if ctx.Err() != nil {
			s.status = Cancelled
			return s.status, errors.Join(err, s.finish(ctx))
		}
		return s.status, fmt.Errorf("sweep %d: %w", s.iteration, err)
	}
	s.residual = residual
	s.slot = 1 - sel
	s.sweeps = s.iteration + 1

	if s.iteration%s.cfg.ReportEvery == 0 && s.reporter != nil {
		s.reporter.Progress(s.iteration, residual)
	}

	switch {
	case residual <= s.cfg.Tolerance:
		s.status = Converged
	case s.iteration+1 >= s.cfg.MaxIterations:
		s.status = CapReached
	default:
		s.iteration++
		return s.status, nil
	}
	return s.status, s.finish(ctx)
}

// Run steps until a terminal state is reached or an error occurs. The result
// is valid in both cases.
func (s *Solver) Run(ctx context.Context) (Result, error) {
	for {
		st, err := s.Step(ctx)
		if err != nil {
			return s.Result(), err
		}
		if st.Terminal() {
			return s.Result(), nil
		}
	}
}

// finish makes the host buffers authoritative and emits the completion
// report. It runs exactly once per solver.
func (s *Solver) finish(ctx context.Context) error {
	s.elapsed = time.Since(s.started)
	err := s.engine.Sync(context.WithoutCancel(ctx))
	if err != nil {
		err = fmt.Errorf("sync %s: %w", s.engine.Name(), err)
	}
	res := s.Result()
	fields := []zap.Field{
		zap.String("problem", s.prob.Name()),
		zap.Int("n", s.prob.N()),
		zap.Stringer("status", res.Status),
		zap.Int("iterations", res.Iterations),
		zap.Float32("residual", res.Residual),
		zap.Duration("elapsed", res.Elapsed),
		zap.String("engine", res.Engine),
	}
	switch res.Status {
	case CapReached:
		s.logger.Warn("iteration cap reached before tolerance", fields...)
	case Cancelled:
		s.logger.Warn("relaxation cancelled", fields...)
	default:
		s.logger.Info("relaxation finished", fields...)
	}
	if s.reporter != nil {
		s.reporter.Done(res)
	}
	return err
}

// Result returns the current summary.
func (s *Solver) Result() Result {
	return Result{
		Status:     s.status,
		Iterations: s.sweeps,
		Residual:   s.residual,
		Elapsed:    s.elapsed,
		Slot:       s.slot,
		Engine:     s.engine.Name(),
	}
}

// Field returns the slot holding the most recently written field. Engines that
// keep state off-host only refresh it on Snapshot or at a terminal state.
func (s *Solver) Field() *grid.Field { return s.pair.Slot(s.slot) }

// Snapshot synchronizes the engine and returns the authoritative field.
func (s *Solver) Snapshot(ctx context.Context) (*grid.Field, error) {
	if err := s.engine.Sync(ctx); err != nil {
		return nil, err
	}
	return s.Field(), nil
}

// Iteration returns the current iteration index.
func (s *Solver) Iteration() int { return s.iteration }

// Residual returns the residual of the last sweep, +Inf before the first.
func (s *Solver) Residual() float32 { return s.residual }

// Status returns the current state.
func (s *Solver) Status() Status { return s.status }

// Config returns the immutable configuration.
func (s *Solver) Config() Config { return s.cfg }

// Problem returns the problem being relaxed.
func (s *Solver) Problem() problem.Problem { return s.prob }

// Close releases the engine.
func (s *Solver) Close() error { return s.engine.Close() }
