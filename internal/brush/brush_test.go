package brush

import (
	"errors"
	"testing"

	"mad-sand/internal/core"
)

func TestOffsetCounts(t *testing.T) {
	tests := []struct {
		shape Shape
		size  int
		want  int
	}{
		{Square, 2, 25},
		{Circle, 2, 13},
		{Star, 2, 13},
		{Square, 0, 1},
		{Circle, 0, 1},
		{Star, 1, 5},
		{Circle, 1, 5},
		{Square, -4, 1},
	}
	for _, tt := range tests {
		if got := len(Offsets(tt.shape, tt.size)); got != tt.want {
			t.Errorf("len(Offsets(%v, %d)) = %d, want %d", tt.shape, tt.size, got, tt.want)
		}
	}
}

func TestCircleAndStarDiffer(t *testing.T) {
	// At size 3 the circle includes (2,2) and the star does not.
	has := func(offs []Offset, o Offset) bool {
		for _, v := range offs {
			if v == o {
				return true
			}
		}
		return false
	}
	if !has(Offsets(Circle, 3), Offset{2, 2}) {
		t.Fatal("circle r=3 misses (2,2)")
	}
	if has(Offsets(Star, 3), Offset{2, 2}) {
		t.Fatal("star r=3 includes (2,2)")
	}
}

type recorder struct {
	w, h   int
	writes map[[2]int]core.Cell
	err    error
}

func (r *recorder) WriteCell(x, y int, c core.Cell) error {
	if r.err != nil {
		return r.err
	}
	if x < 0 || y < 0 || x >= r.w || y >= r.h {
		return nil
	}
	if r.writes == nil {
		r.writes = map[[2]int]core.Cell{}
	}
	r.writes[[2]int{x, y}] = c
	return nil
}

func TestApplyWritesFootprint(t *testing.T) {
	rec := &recorder{w: 10, h: 10}
	if err := Apply(rec, Stroke{X: 5, Y: 5, Element: 3, Shape: Square, Size: 1}); err != nil {
		t.Fatal(err)
	}
	if len(rec.writes) != 9 {
		t.Fatalf("wrote %d cells, want 9", len(rec.writes))
	}
	want := core.Cell{Element: 3, Velocity: core.VelocityRest}
	if got := rec.writes[[2]int{4, 6}]; got != want {
		t.Fatalf("placed cell = %+v, want %+v", got, want)
	}
}

func TestApplyErase(t *testing.T) {
	rec := &recorder{w: 4, h: 4}
	if err := Apply(rec, Stroke{X: 0, Y: 0, Erase: true, Element: 9, Shape: Circle, Size: 1}); err != nil {
		t.Fatal(err)
	}
	// Corner stroke: only (0,0), (1,0) and (0,1) land.
	if len(rec.writes) != 3 {
		t.Fatalf("wrote %d cells, want 3", len(rec.writes))
	}
	for p, c := range rec.writes {
		if c != core.Empty {
			t.Fatalf("erase wrote %+v at %v", c, p)
		}
	}
}

func TestApplyPropagatesError(t *testing.T) {
	boom := errors.New("locked")
	err := Apply(&recorder{w: 4, h: 4, err: boom}, Stroke{Size: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("Apply() error = %v, want %v", err, boom)
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range Shapes() {
		got, ok := ParseShape(s.String())
		if !ok || got != s {
			t.Errorf("ParseShape(%q) = %v, %v", s.String(), got, ok)
		}
	}
	for name, want := range map[string]Shape{"circle": Circle, "SQUARE": Square, "sTaR": Star} {
		if got, ok := ParseShape(name); !ok || got != want {
			t.Errorf("ParseShape(%q) = %v, %v; want %v", name, got, ok, want)
		}
	}
	if _, ok := ParseShape("Hexagon"); ok {
		t.Error("ParseShape accepted an unknown shape")
	}
}
