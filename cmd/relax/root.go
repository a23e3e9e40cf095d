package main

import (
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relax/internal/logging"
	"relax/internal/problem"
	"relax/internal/profiling"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	// Global flags
	verbose    bool
	quiet      bool
	configPath string
	cpuProfile string
	memProfile string

	logger       *zap.Logger
	newLogger    func(verbose, quiet bool) (*zap.Logger, error)
	lookupEnv    func(string) (string, bool)
	stopProfile  func()
	shutdownOnce sync.Once
}

func newApp() *app {
	return &app{
		logger:    zap.NewNop(),
		newLogger: logging.New,
		lookupEnv: os.LookupEnv,
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relax",
		Short: "Jacobi relaxation solvers for Laplace-type boundary value problems",
		Long: `relax iterates a stencil over a square grid until the largest change in a
sweep drops below a tolerance, then writes the field as CSV.

Problems:
  laplace  5-point average on the unit square with a sine profile on the left
           edge and an exp(-pi) scaled copy on the right
  disk     8/2 blend of axis and diagonal neighbours inside the unit circle,
           with +1/-1 held on the exterior

Sweeps run on the host through a choice of parallel strategies, or on an
OpenCL device when built with -tags opencl.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.newLogger(a.verbose, a.quiet)
			if err != nil {
				return err
			}
			a.logger = logger
			if a.cpuProfile != "" {
				stop, err := profiling.StartCPU(a.cpuProfile)
				if err != nil {
					return err
				}
				a.stopProfile = stop
				a.logger.Debug("cpu profile started", zap.String("path", a.cpuProfile))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.shutdown()
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging, including every reported sweep")
	pf.BoolVar(&a.quiet, "quiet", false, "suppress console progress and info logs")
	pf.StringVar(&a.configPath, "config", "", "YAML file with run settings (flags take precedence)")
	pf.StringVar(&a.cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	pf.StringVar(&a.memProfile, "memprofile", "", "write a heap profile to this file on exit")

	root.AddCommand(
		a.solveCmd(problem.KindLaplace),
		a.solveCmd(problem.KindDisk),
		a.viewCmd(),
		a.renderCmd(),
		a.backendsCmd(),
	)
	return root
}

// shutdown flushes profiles and logs. It runs once whether the command
// succeeded or not.
func (a *app) shutdown() {
	a.shutdownOnce.Do(func() {
		if a.stopProfile != nil {
			a.stopProfile()
		}
		if a.memProfile != "" {
			if err := profiling.WriteHeap(a.memProfile); err != nil {
				a.logger.Error("heap profile failed", zap.Error(err))
			}
		}
		_ = a.logger.Sync()
	})
}
