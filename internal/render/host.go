package render

import (
	"fmt"
	"image"
	"image/draw"
	"runtime"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
)

// Surface is the per-cell shading descriptor produced by Derive.
type Surface struct {
	Height   float32
	NX, NY   float32
	Specular float32
}

// Surfaces holds every intermediate buffer of the host pipeline, one entry
// per cell in row-major order with row 0 at the bottom of the world.
type Surfaces struct {
	Size     core.Size
	Elements []registry.Attributes
	Cells    core.CellView
	Time     time.Duration
	Color    []registry.Color
	Surface  []Surface
	Emission []registry.Color
	Light    [2][]registry.Color
	// Final is stored top-down, ready for display.
	Final *image.RGBA
}

// Element returns the attributes for id; unknown ids are inert magenta.
func (s *Surfaces) Element(id uint8) registry.Attributes {
	if int(id) < len(s.Elements) {
		return s.Elements[id]
	}
	return registry.Attributes{Color: registry.Magenta, IOR: 1}
}

// Pass carries the arguments of one stage dispatch.
type Pass struct {
	Src, Dst int
	Settings Settings
}

// RowKernel computes one row of one stage.
type RowKernel func(s *Surfaces, y int, p Pass)

// HostKernels are the stage programs of the host backend.
type HostKernels struct {
	Derive    RowKernel
	Seed      RowKernel
	Propagate RowKernel
	Composite RowKernel
}

// DefaultHostKernels returns the stock stage programs.
func DefaultHostKernels() HostKernels {
	return HostKernels{
		Derive:    deriveRow,
		Seed:      seedRow,
		Propagate: propagateRow,
		Composite: compositeRow,
	}
}

func (k HostKernels) validate() error {
	for name, fn := range map[string]RowKernel{
		"derive":    k.Derive,
		"seed":      k.Seed,
		"propagate": k.Propagate,
		"composite": k.Composite,
	} {
		if fn == nil {
			return fmt.Errorf("%w: %s", ErrMissingKernel, name)
		}
	}
	return nil
}

// HostBackend runs the stage programs on the CPU, splitting each stage by
// rows across goroutines.
type HostBackend struct {
	surf    Surfaces
	kernels HostKernels
	limit   int
	target  draw.Image
	gen     uint64
}

// NewHostBackend allocates the surfaces for a size grid. It fails if any
// stage program is missing. elements may be nil when the table is delivered
// later through BindStorage.
func NewHostBackend(size core.Size, elements []registry.Attributes, k HostKernels) (*HostBackend, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	n := size.Area()
	b := &HostBackend{
		surf: Surfaces{
			Size:     size,
			Elements: elements,
			Color:    make([]registry.Color, n),
			Surface:  make([]Surface, n),
			Emission: make([]registry.Color, n),
			Light:    [2][]registry.Color{make([]registry.Color, n), make([]registry.Color, n)},
			Final:    image.NewRGBA(image.Rect(0, 0, size.W, size.H)),
		},
		kernels: k,
		limit:   runtime.GOMAXPROCS(0),
	}
	return b, nil
}

func (b *HostBackend) Name() string { return "host" }

// BindStorage accepts the element attribute table. Other slots are rejected.
func (b *HostBackend) BindStorage(slot int, data []byte) (gpu.Handle, error) {
	if slot != gpu.ElementTableSlot {
		return gpu.Handle{}, fmt.Errorf("render: host backend has no binding %d", slot)
	}
	b.surf.Elements = registry.DecodeTable(data)
	b.gen++
	return gpu.Handle{Slot: slot, Generation: b.gen}, nil
}

// SetTarget sets the surface Present draws into.
func (b *HostBackend) SetTarget(dst draw.Image) { b.target = dst }

// Final returns the composited image, top row first.
func (b *HostBackend) Final() *image.RGBA { return b.surf.Final }

// Light returns light surface i, for inspection.
func (b *HostBackend) Light(i int) []registry.Color { return b.surf.Light[i&1] }

func (b *HostBackend) run(k RowKernel, p Pass) error {
	var g errgroup.Group
	g.SetLimit(b.limit)
	for y := range b.surf.Size.H {
		g.Go(func() error {
			k(&b.surf, y, p)
			return nil
		})
	}
	return g.Wait()
}

func (b *HostBackend) Derive(cells core.CellView, t time.Duration, s Settings) error {
	if !cells.Valid() || cells.Size() != b.surf.Size {
		return ErrSizeMismatch
	}
	b.surf.Cells = cells
	b.surf.Time = t
	return b.run(b.kernels.Derive, Pass{Settings: s})
}

func (b *HostBackend) Seed(dst int, s Settings) error {
	return b.run(b.kernels.Seed, Pass{Dst: dst & 1, Settings: s})
}

func (b *HostBackend) Propagate(src, dst int, s Settings) error {
	return b.run(b.kernels.Propagate, Pass{Src: src & 1, Dst: dst & 1, Settings: s})
}

func (b *HostBackend) Composite(src int, s Settings) error {
	return b.run(b.kernels.Composite, Pass{Src: src & 1, Settings: s})
}

// Present scales the final image into viewport with nearest-neighbor
// sampling. Pixels of the target outside viewport are left alone.
func (b *HostBackend) Present(viewport image.Rectangle) error {
	if b.target == nil {
		return ErrNoTarget
	}
	if viewport.Empty() {
		return nil
	}
	xdraw.NearestNeighbor.Scale(b.target, viewport, b.surf.Final, b.surf.Final.Bounds(), xdraw.Src, nil)
	return nil
}

func (b *HostBackend) Close() error {
	b.target = nil
	return nil
}
