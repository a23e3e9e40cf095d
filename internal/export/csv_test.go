package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relax/internal/export"
	"relax/internal/grid"
	"relax/internal/problem"
)

func TestWrite_Layout(t *testing.T) {
	f, _ := grid.NewField(3)
	f.Set(0, 1, 0.5)
	f.Set(1, 0, -1)
	f.Set(2, 2, 2.25)

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, f, export.Shortest))
	assert.Equal(t, "0,0.5,0\n-1,0,0\n0,0,2.25", buf.String())

	buf.Reset()
	require.NoError(t, export.Write(&buf, f, 6))
	assert.Equal(t, "0.000000,0.500000,0.000000\n-1.000000,0.000000,0.000000\n0.000000,0.000000,2.250000", buf.String())
}

func TestRoundTrip_Exact(t *testing.T) {
	l, _ := problem.NewLaplace(7)
	p, _ := grid.NewPair(7)
	l.Init(p)

	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, export.WriteFile(path, p.Slot(0), export.Shortest))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(string(raw), "\n"))
	for _, line := range strings.Split(string(raw), "\n") {
		assert.False(t, strings.HasSuffix(line, ","))
		assert.Len(t, strings.Split(line, ","), 7)
	}

	got, err := export.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, p.Slot(0).Equal(got))
}

func TestRead_Malformed(t *testing.T) {
	cases := map[string]string{
		"Empty":      "",
		"Ragged":     "1,2\n3",
		"NotSquare":  "1,2,3\n4,5,6",
		"NotNumber":  "1,x\n3,4",
		"InnerBlank": "1,2\n\n3,4",
		"LeadBlank":  "\n1,2\n3,4",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := export.Read(strings.NewReader(in))
			require.ErrorIs(t, err, export.ErrMalformed)
		})
	}
}

func TestRead_TrailingNewlines(t *testing.T) {
	f, err := export.Read(strings.NewReader("1,2\r\n3,4\n\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.N())
	assert.Equal(t, float32(3), f.At(1, 0))
}

func TestCompanionPaths(t *testing.T) {
	x, y := export.CompanionPaths("out/output.csv")
	assert.Equal(t, "out/output_x.csv", x)
	assert.Equal(t, "out/output_y.csv", y)

	x, y = export.CompanionPaths("phi")
	assert.Equal(t, "phi_x.csv", x)
	assert.Equal(t, "phi_y.csv", y)
}

func TestWriteCoords(t *testing.T) {
	c, err := grid.NewCoords(4, -1.2, 1.2)
	require.NoError(t, err)
	base := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, export.WriteCoords(base, c, export.Shortest))

	xPath, yPath := export.CompanionPaths(base)
	gx, err := export.ReadFile(xPath)
	require.NoError(t, err)
	gy, err := export.ReadFile(yPath)
	require.NoError(t, err)
	assert.True(t, c.X.Equal(gx))
	assert.True(t, c.Y.Equal(gy))
}

func TestWriteFile_BadPath(t *testing.T) {
	f, _ := grid.NewField(2)
	err := export.WriteFile(filepath.Join(t.TempDir(), "missing", "a.csv"), f, export.Shortest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export:")
}
