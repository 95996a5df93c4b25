package render

import (
	"image/color"

	"mad-sand/internal/registry"
)

// putRGBA writes c as the x-th RGBA pixel of buf.
func putRGBA(buf []byte, x int, c registry.Color) {
	base := x * 4
	buf[base+0], buf[base+1], buf[base+2], buf[base+3] = c.RGBA8()
}

// RGBA converts a registry color to an 8-bit color.
func RGBA(c registry.Color) color.RGBA {
	r, g, b, a := c.RGBA8()
	return color.RGBA{R: r, G: g, B: b, A: a}
}
