// Package config holds the run configuration of the relaxation solvers:
// per-problem defaults, an optional YAML file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"relax/internal/parallel"
	"relax/internal/problem"
	"relax/internal/solver"
)

var (
	ErrInvalidSize      = errors.New("config: grid size must be positive")
	ErrInvalidInterval  = errors.New("config: report interval must be positive")
	ErrInvalidTolerance = errors.New("config: tolerance must be finite and non-negative")
	ErrInvalidCap       = errors.New("config: iteration cap must be positive")
	ErrUnknownBackend   = errors.New("config: unknown backend")
	ErrUnknownProblem   = errors.New("config: unknown problem")
	ErrInvalidDomain    = errors.New("config: domain min must be below max")
)

// BackendOpenCL selects the device engine instead of a host strategy.
const BackendOpenCL = "opencl"

// Environment variables consulted by ApplyEnv.
const (
	EnvBackend = "RELAX_BACKEND"
	EnvWorkers = "RELAX_WORKERS"
)

// Domain is the square coordinate range of the disk problem.
type Domain struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Config is everything a run needs besides the command line.
type Config struct {
	Problem       problem.Kind `yaml:"problem"`
	N             int          `yaml:"n"`
	ReportEvery   int          `yaml:"report_every"`
	Tolerance     float32      `yaml:"tolerance"`
	MaxIterations int          `yaml:"max_iterations"`
	Backend       string       `yaml:"backend"`
	Workers       int          `yaml:"workers"`
	Output        string       `yaml:"output"`
	Precision     int          `yaml:"precision"`
	Domain        Domain       `yaml:"domain"`
}

// DefaultLaplace returns the settings of the square-plate problem.
func DefaultLaplace() Config {
	return Config{
		Problem:       problem.KindLaplace,
		N:             512,
		ReportEvery:   100,
		Tolerance:     1e-6,
		MaxIterations: 1_000_000,
		Backend:       parallel.NamePool,
		Output:        "a.csv",
		Precision:     -1,
		Domain:        Domain{Min: problem.DefaultDomainMin, Max: problem.DefaultDomainMax},
	}
}

// DefaultDisk returns the settings of the disk problem.
func DefaultDisk() Config {
	return Config{
		Problem:       problem.KindDisk,
		N:             1000,
		ReportEvery:   100,
		Tolerance:     1e-5,
		MaxIterations: 100_000,
		Backend:       parallel.NamePool,
		Output:        "output.csv",
		Precision:     -1,
		Domain:        Domain{Min: problem.DefaultDomainMin, Max: problem.DefaultDomainMax},
	}
}

// Default returns the defaults for kind.
func Default(kind problem.Kind) (Config, error) {
	switch kind {
	case problem.KindLaplace:
		return DefaultLaplace(), nil
	case problem.KindDisk:
		return DefaultDisk(), nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownProblem, kind)
	}
}

// Backends lists every accepted backend name.
func Backends() []string {
	return append(parallel.Names(), BackendOpenCL)
}

// Validate checks the configuration before anything is allocated.
func (c Config) Validate() error {
	if _, err := Default(c.Problem); err != nil {
		return err
	}
	if c.N < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, c.N)
	}
	if c.ReportEvery < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, c.ReportEvery)
	}
	tol := float64(c.Tolerance)
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidTolerance, tol)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidCap, c.MaxIterations)
	}
	if !slices.Contains(Backends(), c.Backend) {
		return fmt.Errorf("%w: %q (want one of %v)", ErrUnknownBackend, c.Backend, Backends())
	}
	if c.Problem == problem.KindDisk && !(c.Domain.Min < c.Domain.Max) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidDomain, c.Domain.Min, c.Domain.Max)
	}
	return nil
}

// SolverConfig extracts the termination settings.
func (c Config) SolverConfig() solver.Config {
	return solver.Config{
		Tolerance:     c.Tolerance,
		MaxIterations: c.MaxIterations,
		ReportEvery:   c.ReportEvery,
	}
}

// ProblemOptions extracts the problem construction settings.
func (c Config) ProblemOptions() problem.Options {
	return problem.Options{N: c.N, DomainMin: c.Domain.Min, DomainMax: c.Domain.Max}
}

// Load reads a YAML file. Keys absent from the file keep the defaults of the
// problem the file names, or of fallback when it names none.
func Load(path string, fallback problem.Kind) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var head struct {
		Problem problem.Kind `yaml:"problem"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	kind := fallback
	if head.Problem != "" {
		kind = head.Problem
	}
	cfg, err := Default(kind)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as YAML.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides the backend and worker count from the environment.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBackend); ok && v != "" {
		c.Backend = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvWorkers, v, err)
		}
		c.Workers = w
	}
	return nil
}
