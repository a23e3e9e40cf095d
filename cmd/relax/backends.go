package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/cpu"

	"relax/internal/accel"
	"relax/internal/config"
	"relax/internal/parallel"
)

func (a *app) backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List execution backends and what this host supports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "host strategies: %s\n", strings.Join(parallel.Names(), ", "))
			fmt.Fprintf(out, "default workers: %d (GOMAXPROCS)\n", parallel.DefaultWorkers(0))
			fmt.Fprintf(out, "cpu features: %s\n", cpuFeatures())
			if device, err := accel.Probe(); err != nil {
				fmt.Fprintf(out, "%s: unavailable (%v)\n", config.BackendOpenCL, err)
			} else {
				fmt.Fprintf(out, "%s: %s\n", config.BackendOpenCL, device)
			}
			return nil
		},
	}
}

func cpuFeatures() string {
	var have []string
	add := func(name string, ok bool) {
		if ok {
			have = append(have, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add("sse4.1", cpu.X86.HasSSE41)
		add("avx", cpu.X86.HasAVX)
		add("avx2", cpu.X86.HasAVX2)
		add("fma", cpu.X86.HasFMA)
		add("avx512f", cpu.X86.HasAVX512F)
	case "arm64":
		add("asimd", cpu.ARM64.HasASIMD)
		add("fphp", cpu.ARM64.HasFPHP)
		add("sve", cpu.ARM64.HasSVE)
	}
	if len(have) == 0 {
		return "none detected"
	}
	return runtime.GOARCH + " " + strings.Join(have, " ")
}
