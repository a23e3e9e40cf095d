package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relax/internal/accel"
	"relax/internal/analytic"
	"relax/internal/config"
	"relax/internal/export"
	"relax/internal/grid"
	"relax/internal/parallel"
	"relax/internal/problem"
	"relax/internal/report"
	"relax/internal/solver"
	"relax/internal/viewer"
)

var problemSummaries = map[problem.Kind]string{
	problem.KindLaplace: "Relax the 5-point Laplace problem on the unit square",
	problem.KindDisk:    "Relax the 9-point disk problem with a fixed exterior",
}

// solveCmd builds the laplace and disk subcommands. Flag defaults come from
// the problem's defaults; only flags the user set override the config file.
func (a *app) solveCmd(kind problem.Kind) *cobra.Command {
	def, _ := config.Default(kind)
	flagged := def
	var (
		cfg     config.Config
		compare bool
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   string(kind),
		Short: problemSummaries[kind],
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = a.resolveConfig(cmd, kind, flagged)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.solve(cmd, cfg, compare, watch)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flagged.N, "size", "n", def.N, "grid points per side")
	f.IntVarP(&flagged.ReportEvery, "report-every", "b", def.ReportEvery, "print the residual every this many iterations")
	f.Float32Var(&flagged.Tolerance, "tol", def.Tolerance, "stop once the largest change in a sweep is at or below this")
	f.IntVar(&flagged.MaxIterations, "max-iter", def.MaxIterations, "iteration cap")
	f.StringVar(&flagged.Backend, "backend", def.Backend, "execution backend: "+strings.Join(config.Backends(), ", "))
	f.IntVar(&flagged.Workers, "workers", def.Workers, "worker goroutines, 0 for GOMAXPROCS")
	f.StringVarP(&flagged.Output, "output", "o", def.Output, "CSV file for the final field")
	f.IntVar(&flagged.Precision, "precision", def.Precision, "decimals per CSV value, -1 for the shortest exact form")
	f.BoolVar(&watch, "watch", false, "show the relaxation live in a window; closing it resumes headless")
	switch kind {
	case problem.KindLaplace:
		f.BoolVar(&compare, "compare", false, "report the error against the closed-form solution")
	case problem.KindDisk:
		f.Float64Var(&flagged.Domain.Min, "domain-min", def.Domain.Min, "lower coordinate bound of the square domain")
		f.Float64Var(&flagged.Domain.Max, "domain-max", def.Domain.Max, "upper coordinate bound of the square domain")
	}
	return cmd
}

// resolveConfig layers defaults, the config file, the environment and the
// flags the user set, then validates the result.
func (a *app) resolveConfig(cmd *cobra.Command, kind problem.Kind, flagged config.Config) (config.Config, error) {
	cfg, err := config.Default(kind)
	if err != nil {
		return cfg, err
	}
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath, kind)
		if err != nil {
			return cfg, err
		}
		if loaded.Problem != kind {
			return cfg, fmt.Errorf("config: %s describes the %s problem, not %s", a.configPath, loaded.Problem, kind)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(a.lookupEnv); err != nil {
		return cfg, err
	}

	overrides := map[string]func(){
		"size":         func() { cfg.N = flagged.N },
		"report-every": func() { cfg.ReportEvery = flagged.ReportEvery },
		"tol":          func() { cfg.Tolerance = flagged.Tolerance },
		"max-iter":     func() { cfg.MaxIterations = flagged.MaxIterations },
		"backend":      func() { cfg.Backend = flagged.Backend },
		"workers":      func() { cfg.Workers = flagged.Workers },
		"output":       func() { cfg.Output = flagged.Output },
		"precision":    func() { cfg.Precision = flagged.Precision },
		"domain-min":   func() { cfg.Domain.Min = flagged.Domain.Min },
		"domain-max":   func() { cfg.Domain.Max = flagged.Domain.Max },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, cfg.Validate()
}

func (a *app) solve(cmd *cobra.Command, cfg config.Config, compare, watch bool) error {
	ctx := cmd.Context()
	logger := a.logger.With(zap.String("run_id", uuid.NewString()), zap.String("problem", string(cfg.Problem)))

	prob, err := problem.New(cfg.Problem, cfg.ProblemOptions())
	if err != nil {
		return err
	}

	reporters := report.Multi{report.NewLog(logger)}
	var console *report.Console
	if !a.quiet {
		console = report.NewConsole(cmd.OutOrStdout())
		reporters = append(reporters, console)
	}
	sv, err := newSolver(cfg, prob, solver.WithReporter(reporters), solver.WithLogger(logger))
	if err != nil {
		return err
	}
	defer sv.Close()

	logger.Info("relaxation started",
		zap.Int("n", cfg.N),
		zap.String("engine", sv.Result().Engine),
		zap.Float32("tolerance", cfg.Tolerance),
		zap.Int("max_iterations", cfg.MaxIterations),
		zap.Int("report_every", cfg.ReportEvery))

	var runErr error
	if watch {
		runErr = viewer.Watch(ctx, sv, viewer.Options{
			Title:       fmt.Sprintf("relax %s n=%d", cfg.Problem, cfg.N),
			ShowOverlay: true,
			Logger:      logger,
		})
	}
	if runErr == nil {
		_, runErr = sv.Run(ctx)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if err := writeOutputs(cfg, prob, sv.Field()); err != nil {
		return err
	}
	logger.Info("field written", zap.String("path", cfg.Output))

	if compare && cfg.Problem == problem.KindLaplace {
		e, err := analytic.CompareLaplace(sv.Field())
		if err != nil {
			return err
		}
		logger.Info("analytic comparison", zap.Float64("max_error", e.Max), zap.Float64("rms_error", e.RMS))
		if console != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Error vs analytic solution: %s\n", e)
		}
	}
	if console != nil && console.Err() != nil {
		return fmt.Errorf("writing progress: %w", console.Err())
	}
	return runErr
}

// newSolver picks the engine named by cfg.Backend.
func newSolver(cfg config.Config, prob problem.Problem, opts ...solver.Option) (*solver.Solver, error) {
	if cfg.Backend == config.BackendOpenCL {
		pair, err := grid.NewPackedPair(cfg.N)
		if err != nil {
			return nil, err
		}
		prob.Init(pair)
		eng, err := accel.NewEngine(prob, pair)
		if err != nil {
			return nil, err
		}
		sv, err := solver.New(cfg.SolverConfig(), prob, pair, eng, opts...)
		if err != nil {
			eng.Close()
			return nil, err
		}
		return sv, nil
	}

	strategy, err := parallel.New(cfg.Backend, cfg.Workers)
	if err != nil {
		return nil, err
	}
	sv, err := solver.NewCPU(cfg.SolverConfig(), prob, strategy, opts...)
	if err != nil {
		strategy.Close()
		return nil, err
	}
	return sv, nil
}

// writeOutputs stores the field and, for the disk problem, its coordinates.
func writeOutputs(cfg config.Config, prob problem.Problem, f *grid.Field) error {
	if err := export.WriteFile(cfg.Output, f, cfg.Precision); err != nil {
		return err
	}
	if d, ok := prob.(*problem.Disk); ok {
		return export.WriteCoords(cfg.Output, d.Coords(), cfg.Precision)
	}
	return nil
}
