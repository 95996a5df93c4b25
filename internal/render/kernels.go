package render

import (
	"math"

	"mad-sand/internal/core"
	"mad-sand/internal/registry"
)

const grainSeed = 0x6a11

// Fixed key light direction, pointing up and to the left.
const (
	lightDirX = -0.6
	lightDirY = 0.8
)

func occupied(s *Surfaces, x, y int) float32 {
	if s.Cells.Element(x, y) != 0 {
		return 1
	}
	return 0
}

func deriveRow(s *Surfaces, y int, p Pass) {
	w := s.Size.W
	secs := float32(s.Time.Seconds())
	for x := range w {
		i := y*w + x
		c := s.Cells.At(x, y)
		if c.IsEmpty() {
			s.Color[i] = p.Settings.Background
			s.Surface[i] = Surface{}
			continue
		}
		a := s.Element(c.Element)
		col := a.Color
		k := 0.92 + 0.08*core.CellChance(grainSeed, 0, x, y)
		if a.MaxLife > 0 {
			k *= 0.5 + 0.5*(1-min(float32(c.Life)/float32(a.MaxLife), 1))
		}
		if a.Glow {
			k *= 0.9 + 0.1*float32(math.Sin(float64(secs*6+float32(x)*0.7+float32(y)*1.3)))
		}
		col = scale(col, k)
		col.A = a.Color.A
		s.Color[i] = col

		spec := a.IOR - 1
		if a.Gemstone {
			spec = 1
		}
		s.Surface[i] = Surface{
			Height:   min(a.Density/20, 1),
			NX:       0.5 * (occupied(s, x-1, y) - occupied(s, x+1, y)),
			NY:       0.5 * (occupied(s, x, y-1) - occupied(s, x, y+1)),
			Specular: max(spec, 0),
		}
	}
}

func seedRow(s *Surfaces, y int, p Pass) {
	w := s.Size.W
	dst := s.Light[p.Dst]
	for x := range w {
		i := y*w + x
		var e registry.Color
		if p.Settings.GlowEnabled {
			if id := s.Cells.Element(x, y); id != 0 {
				if a := s.Element(id); a.Glow {
					power := a.LightIntensity
					if power <= 0 {
						power = 1
					}
					e = scale(s.Color[i], power*p.Settings.GlowIntensity)
				}
			}
		}
		s.Emission[i] = e
		dst[i] = e
	}
}

// propagateRow spreads light one cell per bounce. Falloff shortens as the
// glow radius grows; non-glowing solid cells absorb half of what reaches them.
func propagateRow(s *Surfaces, y int, p Pass) {
	w, h := s.Size.W, s.Size.H
	src, dst := s.Light[p.Src], s.Light[p.Dst]
	falloff := 1 - 1/max(p.Settings.GlowRadius, MinGlowRadius)
	for x := range w {
		var sum registry.Color
		n := float32(0)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				l := src[ny*w+nx]
				sum.R += l.R
				sum.G += l.G
				sum.B += l.B
				n++
			}
		}
		v := scale(sum, falloff/n)
		if id := s.Cells.Element(x, y); id != 0 && !s.Element(id).Glow {
			v = scale(v, 0.5)
		}
		i := y*w + x
		e := s.Emission[i]
		dst[i] = registry.Color{R: max(v.R, e.R), G: max(v.G, e.G), B: max(v.B, e.B)}
	}
}

func compositeRow(s *Surfaces, y int, p Pass) {
	w, h := s.Size.W, s.Size.H
	light := s.Light[p.Src]
	row := h - 1 - y
	pix := s.Final.Pix[row*s.Final.Stride:]
	bg := p.Settings.Background
	for x := range w {
		i := y*w + x
		l := light[i]
		var out registry.Color
		if s.Cells.Element(x, y) == 0 {
			out = registry.Color{R: bg.R + l.R, G: bg.G + l.G, B: bg.B + l.B, A: bg.A}
		} else {
			base, sf := s.Color[i], s.Surface[i]
			diffuse := clampf(0.5+sf.NX*lightDirX+sf.NY*lightDirY, 0, 1)
			shade := p.Settings.Ambient + (1-p.Settings.Ambient)*diffuse
			d2 := diffuse * diffuse
			d4 := d2 * d2
			hl := p.Settings.Specular * sf.Specular * d4 * d4
			out = registry.Color{
				R: base.R*shade + hl + l.R,
				G: base.G*shade + hl + l.G,
				B: base.B*shade + hl + l.B,
				A: 1,
			}
		}
		putRGBA(pix, x, out)
	}
}

func scale(c registry.Color, k float32) registry.Color {
	return registry.Color{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A}
}
