package viewer

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"relax/internal/colormap"
)

// Draw paints the field and the optional overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.dirty {
		g.scale = colormap.AutoScale(g.field)
		if g.symmetry {
			g.scale = g.scale.Symmetric()
		}
		colormap.Paint(g.pixels, g.field, g.palette, g.scale)
		g.dirty = false
	}
	screen.WritePixels(g.pixels)

	if !g.showOverlay {
		return
	}
	msg := fmt.Sprintf("FPS: %.1f\nPalette: %s (p)\nRange: [%.4g, %.4g]",
		ebiten.ActualFPS(), g.palette.Name(), g.scale.Lo, g.scale.Hi)
	if row, col, ok := g.cursorCell(); ok {
		msg += fmt.Sprintf("\nCell (%d, %d): %.6g", row, col, g.field.At(row, col))
	}
	if g.sv != nil {
		residual := float64(g.sv.Residual())
		msg += fmt.Sprintf("\nIteration: %d\nResidual: %.3e\nStatus: %s\nSweeps/frame: %d (+/-)\nSim: %.2f ms",
			g.sv.Iteration(), residual, g.sv.Status(), g.sweepsPerFrame,
			g.lastSimDuration.Seconds()*1000)
	}
	ebitenutil.DebugPrint(screen, msg)
}

// cursorCell maps the cursor to grid (row, col). Screen rows run top down
// while grid row 0 is drawn at the bottom.
func (g *Game) cursorCell() (row, col int, ok bool) {
	n := g.field.N()
	cx, cy := ebiten.CursorPosition()
	if cx < 0 || cy < 0 || cx >= n || cy >= n {
		return 0, 0, false
	}
	return n - 1 - cy, cx, true
}
