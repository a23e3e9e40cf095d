// Package export reads and writes grids in the plain comma-separated form
// consumed by plotting tools: one line per grid row, no header, no trailing
// comma and no newline after the last row.
package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"relax/internal/grid"
)

// ErrMalformed is returned by Read for input that is not a square numeric grid.
var ErrMalformed = errors.New("export: malformed grid")

// Shortest formats every value with the fewest digits that round-trip
// exactly through float32.
const Shortest = -1

// Write encodes f to w. precision is the number of decimals ('f' format);
// Shortest keeps values exact.
func Write(w io.Writer, f *grid.Field, precision int) error {
	bw := bufio.NewWriter(w)
	n := f.N()
	buf := make([]byte, 0, 32)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			buf = strconv.AppendFloat(buf[:0], float64(f.At(row, col)), 'f', precision, 32)
			if col < n-1 {
				buf = append(buf, ',')
			}
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if row < n-1 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes f to path, creating or truncating it.
func WriteFile(path string, f *grid.Field, precision int) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: closing %s: %w", path, cerr)
		}
	}()
	if err := Write(out, f, precision); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	return nil
}

// CompanionPaths derives the x and y coordinate file names for base, e.g.
// output.csv -> output_x.csv, output_y.csv.
func CompanionPaths(base string) (xPath, yPath string) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".csv"
	}
	return stem + "_x" + ext, stem + "_y" + ext
}

// WriteCoords writes the coordinate companions of base.
func WriteCoords(base string, c *grid.Coords, precision int) error {
	xPath, yPath := CompanionPaths(base)
	if err := WriteFile(xPath, c.X, precision); err != nil {
		return err
	}
	return WriteFile(yPath, c.Y, precision)
}

// Read decodes a square grid written by Write. Blank lines are accepted only
// at the end of the input.
func Read(r io.Reader) (*grid.Field, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)
	var (
		rows  [][]float32
		blank int
	)
	for sc.Scan() {
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			blank++
			continue
		}
		if blank > 0 {
			return nil, fmt.Errorf("%w: blank line before row %d", ErrMalformed, len(rows))
		}
		parts := bytes.Split(line, []byte{','})
		vals := make([]float32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(string(bytes.TrimSpace(p)), 32)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d col %d: %v", ErrMalformed, len(rows), i, err)
			}
			vals[i] = float32(v)
		}
		rows = append(rows, vals)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("export: reading grid: %w", err)
	}
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	f, err := grid.NewField(n)
	if err != nil {
		return nil, err
	}
	for row, vals := range rows {
		if len(vals) != n {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformed, row, len(vals), n)
		}
		for col, v := range vals {
			f.Set(row, col, v)
		}
	}
	return f, nil
}

// ReadFile decodes the grid stored at path.
func ReadFile(path string) (*grid.Field, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer in.Close()
	return Read(in)
}
