//go:build ebiten

package render

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
)

// shaderElements is the size of the element uniform arrays. Ids past it
// render as magenta.
const shaderElements = 64

const kageCommon = `//kage:unit pixels

package main

var Colors [64]vec4
var Flags [64]vec4

func elementID(c vec4) int {
	return int(floor(c.r*255 + 0.5))
}

func lookup(id int) (vec4, vec4) {
	col := vec4(1, 0, 1, 1)
	fl := vec4(0)
	for i := 0; i < 64; i++ {
		if i == id {
			col = Colors[i]
			fl = Flags[i]
		}
	}
	return col, fl
}
`

// Flags layout: x glow, y max life, z specular, w light intensity.

const deriveColorKage = kageCommon + `
var Background vec4
var Time float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	cell := imageSrc0At(srcPos)
	id := elementID(cell)
	if id == 0 {
		return vec4(Background.rgb, 1)
	}
	col, fl := lookup(id)
	k := 1.0
	if fl.y > 0 {
		k *= 0.5 + 0.5*(1-min(cell.g*255/fl.y, 1))
	}
	if fl.x > 0 {
		p := srcPos - imageSrc0Origin()
		k *= 0.9 + 0.1*sin(Time*6+p.x*0.7+p.y*1.3)
	}
	return vec4(col.rgb*k, 1)
}
`

const deriveSurfaceKage = kageCommon + `
var Density [64]float

func occupied(p vec2) float {
	if elementID(imageSrc0At(p)) != 0 {
		return 1
	}
	return 0
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	id := elementID(imageSrc0At(srcPos))
	if id == 0 {
		return vec4(0, 0.5, 0.5, 1)
	}
	_, fl := lookup(id)
	h := 0.0
	for i := 0; i < 64; i++ {
		if i == id {
			h = min(Density[i]/20, 1)
		}
	}
	nx := 0.5 * (occupied(srcPos-vec2(1, 0)) - occupied(srcPos+vec2(1, 0)))
	ny := 0.5 * (occupied(srcPos-vec2(0, 1)) - occupied(srcPos+vec2(0, 1)))
	return vec4(h, nx*0.5+0.5, ny*0.5+0.5, clamp(fl.z/2, 0, 1))
}
`

const seedKage = kageCommon + `
var GlowEnabled float
var GlowIntensity float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	id := elementID(imageSrc0At(srcPos))
	if GlowEnabled == 0 || id == 0 {
		return vec4(0, 0, 0, 1)
	}
	_, fl := lookup(id)
	if fl.x == 0 {
		return vec4(0, 0, 0, 1)
	}
	power := fl.w
	if power <= 0 {
		power = 1
	}
	c := imageSrc1At(srcPos)
	return vec4(clamp(c.rgb*power*GlowIntensity, 0, 1), 1)
}
`

const propagateKage = kageCommon + `
var Falloff float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	sum := vec3(0)
	n := 0.0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			p := srcPos + vec2(float(dx), float(dy))
			q := p - origin
			if q.x >= 0 && q.y >= 0 && q.x < size.x && q.y < size.y {
				sum += imageSrc0At(p).rgb
				n += 1
			}
		}
	}
	v := sum * Falloff / n
	id := elementID(imageSrc1At(srcPos))
	if id != 0 {
		_, fl := lookup(id)
		if fl.x == 0 {
			v *= 0.5
		}
	}
	return vec4(max(v, imageSrc2At(srcPos).rgb), 1)
}
`

const compositeKage = kageCommon + `
var Background vec4
var Ambient float
var Specular float

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	origin := imageSrc0Origin()
	size := imageSrc0Size()
	q := srcPos - origin
	p := origin + vec2(q.x, size.y-q.y)

	l := imageSrc2At(p).rgb
	if elementID(imageSrc3At(p)) == 0 {
		return vec4(Background.rgb+l, 1) * Background.a
	}
	base := imageSrc0At(p).rgb
	sf := imageSrc1At(p)
	nx := (sf.g - 0.5) * 2
	ny := (sf.b - 0.5) * 2
	diffuse := clamp(0.5+nx*-0.6+ny*0.8, 0, 1)
	shade := Ambient + (1-Ambient)*diffuse
	hl := Specular * sf.a * 2 * pow(diffuse, 8)
	return vec4(clamp(base*shade+hl+l, 0, 1), 1)
}
`

// EbitenBackend runs the stage programs as Kage shaders on GPU images.
type EbitenBackend struct {
	size core.Size

	deriveColor   *ebiten.Shader
	deriveSurface *ebiten.Shader
	seed          *ebiten.Shader
	propagate     *ebiten.Shader
	composite     *ebiten.Shader

	cells    *ebiten.Image
	color    *ebiten.Image
	surface  *ebiten.Image
	emission *ebiten.Image
	light    [2]*ebiten.Image
	final    *ebiten.Image
	target   *ebiten.Image

	staging []byte

	mu       sync.Mutex
	gen      uint64
	colors   []float32
	flags    []float32
	density  []float32
	released bool
}

// NewEbitenBackend compiles every stage shader and allocates the GPU
// surfaces. A shader that fails to compile is returned as an error.
func NewEbitenBackend(size core.Size, elements []registry.Attributes) (*EbitenBackend, error) {
	b := &EbitenBackend{size: size, staging: make([]byte, size.Area()*4)}
	for _, s := range []struct {
		name string
		src  string
		dst  **ebiten.Shader
	}{
		{"derive color", deriveColorKage, &b.deriveColor},
		{"derive surface", deriveSurfaceKage, &b.deriveSurface},
		{"seed", seedKage, &b.seed},
		{"propagate", propagateKage, &b.propagate},
		{"composite", compositeKage, &b.composite},
	} {
		sh, err := ebiten.NewShader([]byte(s.src))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("render: compile %s shader: %w", s.name, err)
		}
		*s.dst = sh
	}
	newImage := func() *ebiten.Image { return ebiten.NewImage(size.W, size.H) }
	b.cells, b.color, b.surface, b.emission = newImage(), newImage(), newImage(), newImage()
	b.light = [2]*ebiten.Image{newImage(), newImage()}
	b.final = newImage()
	b.loadElements(elements)
	return b, nil
}

func (b *EbitenBackend) Name() string { return "ebiten" }

// SetTarget sets the screen image Present draws into.
func (b *EbitenBackend) SetTarget(dst *ebiten.Image) { b.target = dst }

// BindStorage accepts the element attribute table and refreshes the shader
// uniforms from it. Other slots are rejected.
func (b *EbitenBackend) BindStorage(slot int, data []byte) (gpu.Handle, error) {
	if slot != gpu.ElementTableSlot {
		return gpu.Handle{}, fmt.Errorf("render: ebiten backend has no binding %d", slot)
	}
	b.loadElements(registry.DecodeTable(data))
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	return gpu.Handle{Slot: slot, Generation: b.gen}, nil
}

func (b *EbitenBackend) loadElements(elements []registry.Attributes) {
	colors := make([]float32, shaderElements*4)
	flags := make([]float32, shaderElements*4)
	density := make([]float32, shaderElements)
	for id, a := range elements {
		if id >= shaderElements {
			core.Logger().Warn("element id beyond shader table", "id", id, "limit", shaderElements)
			break
		}
		colors[id*4+0], colors[id*4+1], colors[id*4+2], colors[id*4+3] = a.Color.R, a.Color.G, a.Color.B, a.Color.A
		spec := a.IOR - 1
		if a.Gemstone {
			spec = 1
		}
		flags[id*4+0] = boolf(a.Glow)
		flags[id*4+1] = float32(a.MaxLife)
		flags[id*4+2] = max(spec, 0)
		flags[id*4+3] = a.LightIntensity
		density[id] = a.Density
	}
	b.mu.Lock()
	b.colors, b.flags, b.density = colors, flags, density
	b.mu.Unlock()
}

func boolf(v bool) float32 {
	if v {
		return 1
	}
	return 0
}

func (b *EbitenBackend) uniforms(extra map[string]any) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := map[string]any{"Colors": b.colors, "Flags": b.flags}
	for k, v := range extra {
		u[k] = v
	}
	return u
}

func (b *EbitenBackend) draw(dst *ebiten.Image, sh *ebiten.Shader, u map[string]any, src ...*ebiten.Image) {
	op := &ebiten.DrawRectShaderOptions{Uniforms: b.uniforms(u), Blend: ebiten.BlendCopy}
	copy(op.Images[:], src)
	dst.DrawRectShader(b.size.W, b.size.H, sh, op)
}

func bg(s Settings) []float32 {
	c := s.Background
	return []float32{c.R, c.G, c.B, c.A}
}

// Derive uploads the grid and computes the color and surface images. Cell
// bytes are repacked with an opaque alpha so the texture is not treated as
// premultiplied transparent.
func (b *EbitenBackend) Derive(cells core.CellView, t time.Duration, s Settings) error {
	if !cells.Valid() || cells.Size() != b.size {
		return ErrSizeMismatch
	}
	src := cells.Bytes()
	for i := 0; i+3 < len(src); i += core.CellChannels {
		b.staging[i], b.staging[i+1], b.staging[i+2], b.staging[i+3] = src[i], src[i+1], src[i+2], 0xff
	}
	b.cells.WritePixels(b.staging)
	b.draw(b.color, b.deriveColor, map[string]any{"Background": bg(s), "Time": float32(t.Seconds())}, b.cells)
	b.draw(b.surface, b.deriveSurface, map[string]any{"Density": b.density}, b.cells)
	return nil
}

func (b *EbitenBackend) Seed(dst int, s Settings) error {
	b.draw(b.emission, b.seed, map[string]any{
		"GlowEnabled":   boolf(s.GlowEnabled),
		"GlowIntensity": s.GlowIntensity,
	}, b.cells, b.color)
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy}
	b.light[dst&1].DrawImage(b.emission, op)
	return nil
}

func (b *EbitenBackend) Propagate(src, dst int, s Settings) error {
	falloff := 1 - 1/max(s.GlowRadius, MinGlowRadius)
	b.draw(b.light[dst&1], b.propagate, map[string]any{"Falloff": falloff}, b.light[src&1], b.cells, b.emission)
	return nil
}

func (b *EbitenBackend) Composite(src int, s Settings) error {
	b.draw(b.final, b.composite, map[string]any{
		"Background": bg(s),
		"Ambient":    s.Ambient,
		"Specular":   s.Specular,
	}, b.color, b.surface, b.light[src&1], b.cells)
	return nil
}

// Present scales the final image into viewport with nearest filtering.
func (b *EbitenBackend) Present(viewport image.Rectangle) error {
	if b.target == nil {
		return ErrNoTarget
	}
	if viewport.Empty() {
		return nil
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterNearest}
	op.GeoM.Scale(float64(viewport.Dx())/float64(b.size.W), float64(viewport.Dy())/float64(b.size.H))
	op.GeoM.Translate(float64(viewport.Min.X), float64(viewport.Min.Y))
	b.target.DrawImage(b.final, op)
	return nil
}

// Close disposes images and shaders. It is safe to call more than once.
func (b *EbitenBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true
	for _, img := range []*ebiten.Image{b.cells, b.color, b.surface, b.emission, b.light[0], b.light[1], b.final} {
		if img != nil {
			img.Dispose()
		}
	}
	for _, sh := range []*ebiten.Shader{b.deriveColor, b.deriveSurface, b.seed, b.propagate, b.composite} {
		if sh != nil {
			sh.Dispose()
		}
	}
	b.target = nil
	return nil
}
