package ui

import (
	"image"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
)

// Footprint returns the window rectangles a brush stamp at pointer (px, py)
// would cover, one per world cell, clipped to the world. Single-click
// elements stamp one cell, which callers express as size 0.
func Footprint(v brush.Viewport, world core.Size, px, py int, shape brush.Shape, size int) []image.Rectangle {
	cx, cy, ok := v.ToWorld(px, py, world.W, world.H)
	if !ok {
		return nil
	}
	offsets := brush.Offsets(shape, size)
	out := make([]image.Rectangle, 0, len(offsets))
	for _, o := range offsets {
		x, y := cx+o.DX, cy+o.DY
		if !world.Contains(x, y) {
			continue
		}
		out = append(out, cellRect(v, world, x, y))
	}
	return out
}

// cellRect maps a world cell back to its window rectangle. World row 0 is
// the bottom of the viewport.
func cellRect(v brush.Viewport, world core.Size, x, y int) image.Rectangle {
	row := world.H - 1 - y
	x0 := v.X + x*v.W/world.W
	x1 := v.X + (x+1)*v.W/world.W
	y0 := v.Y + row*v.H/world.H
	y1 := v.Y + (row+1)*v.H/world.H
	return image.Rect(x0, y0, x1, y1)
}
