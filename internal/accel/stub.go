//go:build !opencl

package accel

import (
	"context"

	"relax/internal/grid"
	"relax/internal/problem"
)

// Engine is a placeholder; rebuild with -tags opencl for the device engine.
type Engine struct{}

// Probe always fails without OpenCL support.
func Probe() (string, error) {
	return "", ErrUnavailable
}

// NewEngine always fails without OpenCL support.
func NewEngine(problem.Problem, *grid.Pair) (*Engine, error) {
	return nil, ErrUnavailable
}

// Name returns "opencl".
func (e *Engine) Name() string { return "opencl" }

func (e *Engine) Sweep(context.Context, int) (float32, error) { return 0, ErrUnavailable }

func (e *Engine) Sync(context.Context) error { return ErrUnavailable }

func (e *Engine) Close() error { return nil }
