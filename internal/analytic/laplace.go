// Package analytic evaluates the closed-form solution of the Laplace problem
// and measures how far a relaxed field is from it.
package analytic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"relax/internal/grid"
)

// Laplace returns u(x, y) = sin(πy)·[sinh(π(1−x)) + e^{−π}·sinh(πx)] / sinh(π)
// sampled on the n×n grid, with y = row/(n−1) and x = col/(n−1).
func Laplace(n int) (*grid.Field, error) {
	f, err := grid.NewField(n)
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return f, nil
	}
	h := 1 / float64(n-1)
	decay := math.Exp(-math.Pi)
	norm := math.Sinh(math.Pi)
	for col := 0; col < n; col++ {
		x := float64(col) * h
		shape := (math.Sinh(math.Pi*(1-x)) + decay*math.Sinh(math.Pi*x)) / norm
		strip := f.Column(col)
		for row := range strip {
			strip[row] = float32(math.Sin(math.Pi*float64(row)*h) * shape)
		}
	}
	return f, nil
}

// Errors summarises the pointwise difference between two fields.
type Errors struct {
	Max float64 // L∞ norm
	RMS float64 // L2 norm divided by sqrt(n²)
}

func (e Errors) String() string {
	return fmt.Sprintf("max %.3e rms %.3e", e.Max, e.RMS)
}

// Compare measures got against want.
func Compare(got, want *grid.Field) (Errors, error) {
	if got.N() != want.N() {
		return Errors{}, fmt.Errorf("%w: %d vs %d", grid.ErrSizeMismatch, got.N(), want.N())
	}
	a, b := widen(got.Data()), widen(want.Data())
	return Errors{
		Max: floats.Distance(a, b, math.Inf(1)),
		RMS: floats.Distance(a, b, 2) / math.Sqrt(float64(len(a))),
	}, nil
}

// CompareLaplace measures f against the closed-form solution of its size.
func CompareLaplace(f *grid.Field) (Errors, error) {
	exact, err := Laplace(f.N())
	if err != nil {
		return Errors{}, err
	}
	return Compare(f, exact)
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
