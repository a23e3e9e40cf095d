package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relax/internal/colormap"
	"relax/internal/config"
	"relax/internal/export"
	"relax/internal/grid"
	"relax/internal/problem"
)

func execute(ctx context.Context, t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	a.newLogger = func(bool, bool) (*zap.Logger, error) { return zap.NewNop(), nil }
	a.lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	var out bytes.Buffer
	err := run(ctx, a, args, &out, &out)
	return out.String(), err
}

func TestLaplace_WritesField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	out, err := execute(context.Background(), t, nil,
		"laplace", "-n", "12", "-b", "10", "--tol", "1e-4", "--backend", "sequential", "-o", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "0, "), lines[0])
	assert.Contains(t, out, "Iteration Complete. Total Iterations: ")

	f, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 12, f.N())
	prob, _ := problem.NewLaplace(12)
	for _, c := range grid.Perimeter(12) {
		assert.Equal(t, prob.BoundaryValue(c.Row, c.Col), f.At(c.Row, c.Col), "cell %v", c)
	}
}

func TestLaplace_Precision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	_, err := execute(context.Background(), t, nil,
		"laplace", "-n", "5", "--precision", "6", "-o", path, "--quiet")
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	first := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "0.000000,0.000000,0.000000,0.000000,0.000000", first)
	assert.False(t, strings.HasSuffix(string(raw), "\n"))
}

func TestLaplace_Compare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.csv")
	out, err := execute(context.Background(), t, nil,
		"laplace", "-n", "20", "--tol", "1e-6", "-b", "1000", "--compare", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Error vs analytic solution: max ")
}

func TestDisk_WritesCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	out, err := execute(context.Background(), t, nil,
		"disk", "-n", "15", "--tol", "1e-4", "--backend", "forkjoin", "--workers", "2", "-o", path, "--quiet")
	require.NoError(t, err)
	assert.Empty(t, out)

	f, err := export.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 15, f.N())

	xPath, yPath := export.CompanionPaths(path)
	gx, err := export.ReadFile(xPath)
	require.NoError(t, err)
	gy, err := export.ReadFile(yPath)
	require.NoError(t, err)
	assert.Equal(t, float32(-1.2), gx.At(0, 0))
	assert.Equal(t, float32(1.2), gy.At(0, 14))

	// Corners lie outside the unit circle and keep their fixed potential.
	assert.Equal(t, float32(1), float32(math.Abs(float64(f.At(0, 0)))))
}

func TestValidationFailsBeforeOutput(t *testing.T) {
	cases := []struct {
		name string
		args []string
		err  error
	}{
		{"Size", []string{"-n", "0"}, config.ErrInvalidSize},
		{"Interval", []string{"-b", "0"}, config.ErrInvalidInterval},
		{"Tolerance", []string{"--tol", "-1"}, config.ErrInvalidTolerance},
		{"Cap", []string{"--max-iter", "0"}, config.ErrInvalidCap},
		{"Backend", []string{"--backend", "cuda"}, config.ErrUnknownBackend},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "a.csv")
			args := append([]string{"laplace", "-o", path}, tc.args...)
			_, err := execute(context.Background(), t, nil, args...)
			require.ErrorIs(t, err, tc.err)
			assert.NoFileExists(t, path)
		})
	}
}

func TestConfigFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "field.csv")
	cfgPath := filepath.Join(dir, "run.yaml")
	yaml := "problem: laplace\nn: 10\nmax_iterations: 3\ntolerance: 0\noutput: " + out + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	env := map[string]string{config.EnvBackend: "group", config.EnvWorkers: "2"}
	stdout, err := execute(context.Background(), t, env, "laplace", "--config", cfgPath, "-b", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0, ")
	assert.Contains(t, stdout, "\n2, ")
	assert.Contains(t, stdout, "Total Iterations: 3,")
	assert.Contains(t, stdout, "Status: iteration cap reached")

	f, err := export.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 10, f.N())

	env[config.EnvWorkers] = "lots"
	_, err = execute(context.Background(), t, env, "laplace", "--config", cfgPath)
	require.Error(t, err)

	_, err = execute(context.Background(), t, nil, "disk", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describes the laplace problem")
}

func TestCancelledRunStillExports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "a.csv")
	_, err := execute(ctx, t, nil, "laplace", "-n", "8", "-o", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.FileExists(t, path)
}

func TestExportErrorAfterSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "a.csv")
	out, err := execute(context.Background(), t, nil, "laplace", "-n", "6", "-o", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export:")
	assert.Contains(t, out, "Iteration Complete.")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	f, _ := grid.NewField(6)
	f.Set(2, 3, -1)
	f.Set(4, 1, 1)
	require.NoError(t, export.WriteFile(in, f, export.Shortest))

	pngPath := filepath.Join(dir, "out.png")
	_, err := execute(context.Background(), t, nil, "render", in, pngPath, "--palette", "coolwarm", "--symmetric")
	require.NoError(t, err)

	r, err := os.Open(pngPath)
	require.NoError(t, err)
	defer r.Close()
	img, err := png.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 6, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())

	_, err = execute(context.Background(), t, nil, "render", in, pngPath, "--palette", "jet")
	require.ErrorIs(t, err, colormap.ErrUnknownPalette)
}

func TestBackends(t *testing.T) {
	out, err := execute(context.Background(), t, nil, "backends")
	require.NoError(t, err)
	assert.Contains(t, out, "host strategies: forkjoin, group, pool, sequential\n")
	assert.Contains(t, out, "cpu features: ")
	assert.Contains(t, out, "opencl: ")
}

func TestProfiles(t *testing.T) {
	dir := t.TempDir()
	cpuPath := filepath.Join(dir, "cpu.pprof")
	memPath := filepath.Join(dir, "mem.pprof")
	_, err := execute(context.Background(), t, nil,
		"laplace", "-n", "8", "-o", filepath.Join(dir, "a.csv"), "--quiet",
		"--cpuprofile", cpuPath, "--memprofile", memPath)
	require.NoError(t, err)
	assert.FileExists(t, cpuPath)
	assert.FileExists(t, memPath)
}
