package sim

import (
	"testing"

	"mad-sand/internal/core"
	"mad-sand/internal/registry"
	"mad-sand/internal/world"
)

type hostRig struct {
	grid *world.Grid
	reg  *registry.Registry
	k    *HostKernel
	set  Settings
}

func newHostRig(t *testing.T, w, h int) *hostRig {
	return &hostRig{grid: world.New(w, h), reg: testRegistry(t), k: NewHostKernel(), set: DefaultSettings()}
}

func (r *hostRig) place(t *testing.T, x, y int, name string) {
	t.Helper()
	id := r.reg.IDOf(name)
	if id == registry.NotFound {
		t.Fatalf("unknown element %q", name)
	}
	if err := r.grid.WriteCell(x, y, core.Placed(uint8(id))); err != nil {
		t.Fatal(err)
	}
}

func (r *hostRig) step(t *testing.T, n int) {
	t.Helper()
	for range n {
		st, err := r.grid.BeginStep()
		if err != nil {
			t.Fatal(err)
		}
		p := Params{
			Size:     r.grid.Size(),
			Frame:    st.Frame,
			Seed:     DefaultSeed,
			Settings: r.set,
			Elements: r.reg.Attributes(),
			Fire:     r.reg.IDOf("fire"),
		}
		if err := r.k.Step(st, p); err != nil {
			t.Fatal(err)
		}
		if err := r.grid.CommitStep(); err != nil {
			t.Fatal(err)
		}
	}
}

func (r *hostRig) at(x, y int) string {
	return r.reg.Name(int(r.grid.Current().Element(x, y)))
}

func (r *hostRig) count() map[uint8]int {
	out := map[uint8]int{}
	v := r.grid.Current()
	sz := v.Size()
	for y := range sz.H {
		for x := range sz.W {
			if e := v.Element(x, y); e != 0 {
				out[e]++
			}
		}
	}
	return out
}

func TestSandFalls(t *testing.T) {
	r := newHostRig(t, 3, 3)
	r.place(t, 1, 2, "sand")
	r.step(t, 1)
	if r.at(1, 1) != "sand" || r.at(1, 2) != "empty" {
		t.Fatalf("after 1 step sand not at (1,1)")
	}
	r.step(t, 1)
	if r.at(1, 0) != "sand" {
		t.Fatalf("sand did not reach the floor")
	}
	r.step(t, 3)
	if r.at(1, 0) != "sand" {
		t.Fatalf("resting sand moved")
	}
}

func TestSandSlidesOffPeak(t *testing.T) {
	r := newHostRig(t, 3, 2)
	r.place(t, 1, 0, "stone")
	r.place(t, 1, 1, "sand")
	r.step(t, 1)
	if r.at(0, 0) != "sand" && r.at(2, 0) != "sand" {
		t.Fatalf("sand on a peak did not slide diagonally")
	}
}

func TestStoneStays(t *testing.T) {
	r := newHostRig(t, 2, 3)
	r.place(t, 0, 2, "stone")
	r.step(t, 4)
	if r.at(0, 2) != "stone" {
		t.Fatal("static element moved")
	}
}

func TestGasRises(t *testing.T) {
	r := newHostRig(t, 1, 4)
	r.place(t, 0, 0, "steam")
	r.step(t, 3)
	if r.at(0, 3) != "steam" {
		t.Fatal("gas did not rise to the ceiling")
	}
}

func TestViscosityOverride(t *testing.T) {
	r := newHostRig(t, 3, 1)
	r.place(t, 1, 0, "water")
	r.set.Viscosity[registry.Liquid] = 1
	r.step(t, 5)
	if r.at(1, 0) != "water" {
		t.Fatal("fully viscous liquid flowed")
	}
	r.set.Viscosity[registry.Liquid] = 0
	r.step(t, 1)
	if r.at(1, 0) == "water" {
		t.Fatal("inviscid liquid stayed put")
	}
}

func TestMassConserved(t *testing.T) {
	r := newHostRig(t, 16, 16)
	names := []string{"sand", "water", "steam", "stone"}
	for y := 4; y < 12; y++ {
		for x := 2; x < 14; x += 2 {
			r.place(t, x, y, names[(x+y)%len(names)])
		}
	}
	before := r.count()
	r.step(t, 25)
	after := r.count()
	for id, n := range before {
		if after[id] != n {
			t.Fatalf("element %d: %d cells before, %d after", id, n, after[id])
		}
	}
}

func TestLifetimeExpires(t *testing.T) {
	r := newHostRig(t, 1, 1)
	r.place(t, 0, 0, "fire")
	r.step(t, 2)
	if r.at(0, 0) != "fire" {
		t.Fatal("fire expired early")
	}
	r.step(t, 1)
	if r.at(0, 0) != "empty" {
		t.Fatal("fire outlived its lifetime")
	}
}

func TestIgnition(t *testing.T) {
	r := newHostRig(t, 2, 1)
	r.place(t, 0, 0, "lava")
	r.place(t, 1, 0, "wood")
	r.step(t, 1)
	if r.at(1, 0) != "fire" {
		t.Fatalf("wood next to lava is %q, want fire", r.at(1, 0))
	}
	if r.at(0, 0) != "lava" {
		t.Fatal("lava changed")
	}
}
