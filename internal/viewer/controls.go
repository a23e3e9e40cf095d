package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"relax/internal/colormap"
)

// handleControls processes hotkeys and reports whether the window should
// close.
func (g *Game) handleControls() bool {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.adjustSweepsPerFrame(-sweepsStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.adjustSweepsPerFrame(sweepsStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showOverlay = !g.showOverlay
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		if g.palette == colormap.Viridis {
			g.palette = colormap.CoolWarm
			g.symmetry = true
		} else {
			g.palette = colormap.Viridis
			g.symmetry = false
		}
		g.dirty = true
	}
	return false
}

// adjustSweepsPerFrame clamps the per-frame batch size within bounds.
func (g *Game) adjustSweepsPerFrame(delta int) {
	g.sweepsPerFrame = min(max(g.sweepsPerFrame+delta, minSweepsPerFrame), maxSweepsPerFrame)
}
