package engine

import (
	"image"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
)

// Layout reserves window space for the tool panel on the right and the
// bars above and below the world view.
type Layout struct {
	PanelWidth int
	TopBar     int
	BottomBar  int
}

// DefaultLayout is the windowed front-end's panel arrangement.
func DefaultLayout() Layout {
	return Layout{PanelWidth: 220, TopBar: 20, BottomBar: 20}
}

// WindowSize returns the window needed to show a world at scale pixels per
// cell plus the panels.
func (l Layout) WindowSize(world core.Size, scale int) (w, h int) {
	scale = max(scale, 1)
	return world.W*scale + l.PanelWidth, world.H*scale + l.TopBar + l.BottomBar
}

// Viewport returns the world view rectangle for a window of the given size.
func (l Layout) Viewport(winW, winH int) brush.Viewport {
	return brush.Viewport{
		X: 0,
		Y: l.TopBar,
		W: max(winW-l.PanelWidth, 0),
		H: max(winH-l.TopBar-l.BottomBar, 0),
	}
}

// Panel returns the tool panel rectangle for a window of the given size.
func (l Layout) Panel(winW, winH int) image.Rectangle {
	return image.Rect(max(winW-l.PanelWidth, 0), 0, winW, winH)
}

// Rect converts a viewport to an image rectangle.
func Rect(v brush.Viewport) image.Rectangle {
	return image.Rect(v.X, v.Y, v.X+v.W, v.Y+v.H)
}
