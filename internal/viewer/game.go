// Package viewer shows a grid as a heat map in an ebiten window, either a
// finished field loaded from disk or a solver relaxing live.
package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"relax/internal/colormap"
	"relax/internal/grid"
	"relax/internal/solver"
)

const (
	defaultSweepsPerFrame = 50
	sweepsStep            = 10
	minSweepsPerFrame     = 1
	maxSweepsPerFrame     = 5000
	targetWindowSize      = 768
)

// Options configures a viewer window.
type Options struct {
	Title          string
	Palette        *colormap.Palette
	SweepsPerFrame int
	ShowOverlay    bool
	Logger         *zap.Logger
}

// Game implements ebiten.Game over a field or a live solver.
type Game struct {
	ctx    context.Context
	sv     *solver.Solver
	field  *grid.Field
	logger *zap.Logger

	palette  *colormap.Palette
	scale    colormap.Scale
	symmetry bool
	pixels   []byte

	sweepsPerFrame  int
	lastSimDuration time.Duration
	showOverlay     bool
	dirty           bool
	reported        bool
	err             error
}

func newGame(ctx context.Context, f *grid.Field, sv *solver.Solver, opts Options) *Game {
	g := &Game{
		ctx:            ctx,
		sv:             sv,
		field:          f,
		logger:         opts.Logger,
		palette:        opts.Palette,
		pixels:         make([]byte, 4*f.N()*f.N()),
		sweepsPerFrame: opts.SweepsPerFrame,
		showOverlay:    opts.ShowOverlay,
		dirty:          true,
	}
	if g.palette == nil {
		g.palette = colormap.Viridis
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.sweepsPerFrame <= 0 {
		g.sweepsPerFrame = defaultSweepsPerFrame
	}
	g.scale = colormap.AutoScale(f)
	return g
}

// ShowField opens a window displaying f until it is closed.
func ShowField(f *grid.Field, opts Options) error {
	return run(newGame(context.Background(), f, nil, opts), opts.Title)
}

// Watch opens a window that advances sv a batch of sweeps per frame. The
// window stays open after the solver reaches a terminal state; closing it
// early leaves the solver in whatever state it reached.
func Watch(ctx context.Context, sv *solver.Solver, opts Options) error {
	f, err := sv.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := run(newGame(ctx, f, sv, opts), opts.Title); err != nil {
		return err
	}
	if sv.Status() == solver.Cancelled {
		return context.Canceled
	}
	return ctx.Err()
}

func run(g *Game, title string) error {
	n := g.field.N()
	scale := max(1, targetWindowSize/n)
	ebiten.SetWindowSize(n*scale, n*scale)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}
	if err == nil {
		err = g.err
	}
	return err
}

// Update advances a live solver and handles key input.
func (g *Game) Update() error {
	if quit := g.handleControls(); quit {
		return ebiten.Termination
	}
	if g.sv == nil || g.sv.Status().Terminal() {
		return nil
	}

	simStart := time.Now()
	for i := 0; i < g.sweepsPerFrame; i++ {
		st, err := g.sv.Step(g.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ebiten.Termination
			}
			g.err = err
			return err
		}
		if st.Terminal() {
			break
		}
	}
	g.lastSimDuration = time.Since(simStart)

	f, err := g.sv.Snapshot(g.ctx)
	if err != nil {
		g.err = err
		return err
	}
	g.field = f
	g.dirty = true

	if st := g.sv.Status(); st.Terminal() && !g.reported {
		g.reported = true
		g.logger.Info("relaxation finished in viewer",
			zap.Stringer("status", st),
			zap.Int("iteration", g.sv.Iteration()),
			zap.Float32("residual", g.sv.Residual()))
	}
	return nil
}

// Layout reports the logical screen size used by ebiten: one pixel per cell.
func (g *Game) Layout(_, _ int) (int, int) {
	n := g.field.N()
	return n, n
}
