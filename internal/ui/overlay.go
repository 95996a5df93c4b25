//go:build ebiten

package ui

import (
	"image/color"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	cursorPaint = color.RGBA{R: 255, G: 255, B: 255, A: 48}
	cursorErase = color.RGBA{R: 255, G: 80, B: 80, A: 64}
)

// Overlay outlines the cells the next brush stamp will touch. Tab toggles it.
type Overlay struct {
	world core.Size
	show  bool
}

// NewOverlay builds a cursor overlay for a world of the given size.
func NewOverlay(world core.Size) *Overlay {
	return &Overlay{world: world, show: true}
}

// Update handles the toggle key.
func (o *Overlay) Update() {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		o.show = !o.show
	}
}

// Draw paints the footprint of sel at the cursor, if the cursor is over v.
func (o *Overlay) Draw(screen *ebiten.Image, v brush.Viewport, sel brush.Selection, erase bool) {
	if o == nil || !o.show {
		return
	}
	mx, my := ebiten.CursorPosition()
	size := sel.Size
	if sel.SingleClick && !erase {
		size = 0
	}
	clr := cursorPaint
	if erase {
		clr = cursorErase
	}
	for _, r := range Footprint(v, o.world, mx, my, sel.Shape, size) {
		vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), clr, false)
	}
}
