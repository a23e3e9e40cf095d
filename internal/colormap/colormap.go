// Package colormap turns scalar grids into RGBA pixels.
//
// Images are laid out with row 0 at the bottom and column 0 on the left, the
// usual orientation for plotting a potential over the (x, y) plane.
package colormap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"relax/internal/grid"
)

// ErrUnknownPalette is returned by Lookup for unregistered names.
var ErrUnknownPalette = errors.New("colormap: unknown palette")

type stop struct {
	at  float64
	rgb [3]uint8
}

// Palette is a piecewise-linear ramp over [0, 1].
type Palette struct {
	name  string
	stops []stop
}

var (
	// Viridis is the perceptually uniform default.
	Viridis = &Palette{name: "viridis", stops: []stop{
		{0.000, [3]uint8{68, 1, 84}},
		{0.125, [3]uint8{71, 44, 122}},
		{0.250, [3]uint8{59, 81, 139}},
		{0.375, [3]uint8{44, 113, 142}},
		{0.500, [3]uint8{33, 144, 141}},
		{0.625, [3]uint8{39, 173, 129}},
		{0.750, [3]uint8{92, 200, 99}},
		{0.875, [3]uint8{170, 220, 50}},
		{1.000, [3]uint8{253, 231, 37}},
	}}
	// CoolWarm is diverging around the midpoint, suited to signed fields.
	CoolWarm = &Palette{name: "coolwarm", stops: []stop{
		{0.0, [3]uint8{59, 76, 192}},
		{0.5, [3]uint8{221, 221, 221}},
		{1.0, [3]uint8{180, 4, 38}},
	}}
)

var palettes = map[string]*Palette{
	Viridis.name:  Viridis,
	CoolWarm.name: CoolWarm,
}

// Lookup returns the palette registered under name.
func Lookup(name string) (*Palette, error) {
	p, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	return p, nil
}

func (p *Palette) Name() string { return p.name }

// At returns the colour at t, clamped to [0, 1]. NaN maps to the low end.
func (p *Palette) At(t float64) color.RGBA {
	if !(t > 0) {
		t = 0
	} else if t > 1 {
		t = 1
	}
	s := p.stops
	i := 1
	for i < len(s)-1 && t > s[i].at {
		i++
	}
	a, b := s[i-1], s[i]
	f := (t - a.at) / (b.at - a.at)
	var out color.RGBA
	out.R = mix(a.rgb[0], b.rgb[0], f)
	out.G = mix(a.rgb[1], b.rgb[1], f)
	out.B = mix(a.rgb[2], b.rgb[2], f)
	out.A = 255
	return out
}

func mix(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Scale maps values in [Lo, Hi] onto [0, 1].
type Scale struct {
	Lo, Hi float32
}

// AutoScale spans the field's own range.
func AutoScale(f *grid.Field) Scale {
	lo, hi := f.Range()
	return Scale{Lo: lo, Hi: hi}
}

// Symmetric widens s to [-m, m] with m the larger magnitude, so 0 lands on
// the middle of a diverging palette.
func (s Scale) Symmetric() Scale {
	m := max(float32(math.Abs(float64(s.Lo))), float32(math.Abs(float64(s.Hi))))
	return Scale{Lo: -m, Hi: m}
}

// Norm returns v's position in the scale. A flat scale maps everything to 0.5.
func (s Scale) Norm(v float32) float64 {
	span := float64(s.Hi) - float64(s.Lo)
	if span <= 0 {
		return 0.5
	}
	return (float64(v) - float64(s.Lo)) / span
}

// Paint writes f into pix as RGBA bytes, 4 per cell, image-row-major with
// row 0 of the grid on the last image row. pix must hold 4·n² bytes.
func Paint(pix []byte, f *grid.Field, p *Palette, s Scale) {
	n := f.N()
	for col := 0; col < n; col++ {
		strip := f.Column(col)
		for row, v := range strip {
			c := p.At(s.Norm(v))
			base := ((n-1-row)*n + col) * 4
			pix[base] = c.R
			pix[base+1] = c.G
			pix[base+2] = c.B
			pix[base+3] = c.A
		}
	}
}

// Image renders f into a new n×n image.
func Image(f *grid.Field, p *Palette, s Scale) *image.RGBA {
	n := f.N()
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	Paint(img.Pix, f, p, s)
	return img
}
