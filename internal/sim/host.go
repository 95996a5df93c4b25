package sim

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"mad-sand/internal/core"
	"mad-sand/internal/registry"
	"mad-sand/internal/world"
)

// HostKernelName is the registry name of the CPU reference kernel.
const HostKernelName = "host"

func init() {
	RegisterKernel(HostKernelName, func(*registry.Registry) (Kernel, error) {
		return NewHostKernel(), nil
	})
}

// Noise streams. Direction and ignition draw from different seeds so a cell
// that burns is not biased towards one side.
const (
	noiseDirection = iota + 1
	noiseFlow
	noiseIgnite
)

// HostKernel runs the falling-sand rules on the CPU, one goroutine per row.
//
// Movement is gather based: every cell computes where it wants to go, and
// every empty cell picks at most one incoming mover in a fixed priority
// order. A mover only vacates when the target picked it, so each step
// conserves mass without locks and each goroutine writes only its own row.
type HostKernel struct {
	limit int
}

// NewHostKernel returns a kernel that uses up to GOMAXPROCS goroutines.
func NewHostKernel() *HostKernel {
	return &HostKernel{limit: runtime.GOMAXPROCS(0)}
}

func (k *HostKernel) Name() string { return HostKernelName }

func (k *HostKernel) Close() error { return nil }

// Step computes st.Write from st.Read. It returns after every row finished.
func (k *HostKernel) Step(st world.Step, p Params) error {
	r := rules{read: st.Read, p: p, size: st.Read.Size()}
	var g errgroup.Group
	g.SetLimit(k.limit)
	for y := range r.size.H {
		g.Go(func() error {
			for x := range r.size.W {
				st.Write.Set(x, y, r.next(x, y))
			}
			return nil
		})
	}
	return g.Wait()
}

type point struct{ x, y int }

var noMove = point{-1, -1}

type rules struct {
	read core.CellView
	p    Params
	size core.Size
}

func (r *rules) attrs(id uint8) registry.Attributes {
	if int(id) < len(r.p.Elements) {
		return r.p.Elements[id]
	}
	return registry.Attributes{Category: registry.Static}
}

func (r *rules) empty(x, y int) bool {
	return r.size.Contains(x, y) && r.read.Element(x, y) == 0
}

func (r *rules) noise(stream uint64, x, y int) uint64 {
	return core.CellNoise(r.p.Seed+stream, r.p.Frame, x, y)
}

func (r *rules) chance(stream uint64, x, y int) float32 {
	return core.CellChance(r.p.Seed+stream, r.p.Frame, x, y)
}

// intent returns the single target cell (x, y) would like to move into.
func (r *rules) intent(x, y int) point {
	c := r.read.At(x, y)
	if c.IsEmpty() {
		return noMove
	}
	a := r.attrs(c.Element)
	dir := 1
	if r.noise(noiseDirection, x, y)&1 == 1 {
		dir = -1
	}
	switch a.Category {
	case registry.Granular:
		return r.fall(x, y, -1, dir)
	case registry.Liquid:
		if t := r.fall(x, y, -1, dir); t != noMove {
			return t
		}
		return r.flow(x, y, dir, a)
	case registry.Gas:
		if t := r.fall(x, y, 1, dir); t != noMove {
			return t
		}
		return r.flow(x, y, dir, a)
	}
	return noMove
}

// fall tries straight then both diagonals in vertical direction vy.
func (r *rules) fall(x, y, vy, dir int) point {
	switch {
	case r.empty(x, y+vy):
		return point{x, y + vy}
	case r.empty(x+dir, y+vy):
		return point{x + dir, y + vy}
	case r.empty(x-dir, y+vy):
		return point{x - dir, y + vy}
	}
	return noMove
}

// flow moves sideways unless viscosity holds the cell in place this step.
func (r *rules) flow(x, y, dir int, a registry.Attributes) point {
	if r.chance(noiseFlow, x, y) < r.p.Settings.ViscosityOf(a) {
		return noMove
	}
	switch {
	case r.empty(x+dir, y):
		return point{x + dir, y}
	case r.empty(x-dir, y):
		return point{x - dir, y}
	}
	return noMove
}

// candidates lists, in priority order, the neighbors that may move into an
// empty cell: falling from above, rising from below, then sideways.
var candidates = [...]point{
	{0, 1}, {-1, 1}, {1, 1},
	{0, -1}, {-1, -1}, {1, -1},
	{-1, 0}, {1, 0},
}

// winner returns the neighbor that moves into the empty cell (x, y).
func (r *rules) winner(x, y int) (point, bool) {
	for _, d := range candidates {
		sx, sy := x+d.x, y+d.y
		if !r.size.Contains(sx, sy) {
			continue
		}
		if r.intent(sx, sy) == (point{x, y}) {
			return point{sx, sy}, true
		}
	}
	return noMove, false
}

func (r *rules) next(x, y int) core.Cell {
	c := r.read.At(x, y)
	if c.IsEmpty() {
		src, ok := r.winner(x, y)
		if !ok {
			return core.Empty
		}
		moved := r.read.At(src.x, src.y)
		if src.y > y && moved.Velocity < 255 {
			moved.Velocity++
		}
		return r.age(moved)
	}

	if t := r.intent(x, y); t != noMove {
		if w, ok := r.winner(t.x, t.y); ok && w == (point{x, y}) {
			return core.Empty
		}
	}
	c.Velocity = core.VelocityRest
	if r.ignites(x, y, c) {
		return core.Placed(uint8(r.p.Fire))
	}
	return r.age(c)
}

// age advances the life counter and expires cells that reached their cap.
func (r *rules) age(c core.Cell) core.Cell {
	a := r.attrs(c.Element)
	if a.MaxLife <= 0 {
		return c
	}
	if int32(c.Life)+1 >= a.MaxLife {
		return core.Empty
	}
	if c.Life < 255 {
		c.Life++
	}
	return c
}

func (r *rules) ignites(x, y int, c core.Cell) bool {
	if r.p.Fire <= 0 || r.p.Fire > registry.MaxID || int(c.Element) == r.p.Fire {
		return false
	}
	a := r.attrs(c.Element)
	if !a.Flammable || a.BurnChance <= 0 {
		return false
	}
	hot := false
	for dy := -1; dy <= 1 && !hot; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if n := r.read.Element(x+dx, y+dy); n != 0 && r.attrs(n).Glow {
				hot = true
				break
			}
		}
	}
	return hot && r.chance(noiseIgnite, x, y) < a.BurnChance
}
