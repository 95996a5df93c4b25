package brush

import "testing"

func TestViewportMapping(t *testing.T) {
	v := Viewport{X: 200, Y: 30, W: 400, H: 300}
	const gw, gh = 200, 150

	x, y, ok := v.ToWorld(200, 30, gw, gh)
	if !ok || x != 0 || y != gh-1 {
		t.Fatalf("top-left -> (%d,%d,%v), want (0,%d,true)", x, y, ok, gh-1)
	}
	x, y, ok = v.ToWorld(599, 329, gw, gh)
	if !ok || x != gw-1 || y != 0 {
		t.Fatalf("bottom-right -> (%d,%d,%v), want (%d,0,true)", x, y, ok, gw-1)
	}
	for _, p := range [][2]int{{600, 100}, {199, 100}, {300, 29}, {300, 330}} {
		if _, _, ok := v.ToWorld(p[0], p[1], gw, gh); ok {
			t.Fatalf("pixel %v outside viewport was accepted", p)
		}
	}
	if _, _, ok := (Viewport{}).ToWorld(0, 0, gw, gh); ok {
		t.Fatal("empty viewport accepted a pointer")
	}
}

func newTestTranslator() *Translator {
	return NewTranslator(Viewport{W: 100, H: 100}, 100, 100)
}

func TestSingleClickPlacesOncePerPress(t *testing.T) {
	tr := newTestTranslator()
	sel := Selection{Element: 4, SingleClick: true, Shape: Circle, Size: 5}

	placed := 0
	for frame := 1; frame <= 3; frame++ {
		s, ok := tr.Translate(Pointer{X: 50, Y: 50, Primary: true}, sel)
		if ok {
			placed++
			if frame != 1 {
				t.Fatalf("placement on frame %d", frame)
			}
			if s.Size != 0 || s.Erase || s.Element != 4 {
				t.Fatalf("stroke = %+v, want size 0 placement of 4", s)
			}
		}
	}
	if placed != 1 {
		t.Fatalf("placed %d times, want 1", placed)
	}

	tr.Translate(Pointer{X: 50, Y: 50}, sel)
	if _, ok := tr.Translate(Pointer{X: 50, Y: 50, Primary: true}, sel); !ok {
		t.Fatal("second press did not place")
	}
}

func TestContinuousPlacesEveryFrame(t *testing.T) {
	tr := newTestTranslator()
	sel := Selection{Element: 1, Shape: Square, Size: 2}
	for frame := 0; frame < 4; frame++ {
		s, ok := tr.Translate(Pointer{X: 10, Y: 10, Primary: true}, sel)
		if !ok || s.Size != 2 {
			t.Fatalf("frame %d: stroke = %+v, %v", frame, s, ok)
		}
		if !tr.Drawing() {
			t.Fatalf("frame %d: Drawing() = false", frame)
		}
	}
	if _, ok := tr.Translate(Pointer{X: 10, Y: 10}, sel); ok || tr.Drawing() {
		t.Fatal("released button still draws")
	}
}

func TestEraseWinsOverSingleClick(t *testing.T) {
	tr := newTestTranslator()
	sel := Selection{Element: 4, SingleClick: true, Shape: Circle, Size: 3}
	for frame := 0; frame < 3; frame++ {
		s, ok := tr.Translate(Pointer{X: 5, Y: 5, Secondary: true}, sel)
		if !ok || !s.Erase || s.Size != 3 {
			t.Fatalf("frame %d: stroke = %+v, %v; want continuous erase", frame, s, ok)
		}
	}
}

func TestEraserElement(t *testing.T) {
	tr := newTestTranslator()
	s, ok := tr.Translate(Pointer{X: 5, Y: 5, Primary: true}, Selection{Element: 0, Size: 1})
	if !ok || !s.Erase {
		t.Fatalf("element 0 stroke = %+v, %v; want erase", s, ok)
	}
	if _, ok := tr.Translate(Pointer{X: 5, Y: 5}, Selection{Element: 0, Size: 1}); ok {
		t.Fatal("eraser selected without a button erased")
	}
}

func TestPressEdgeTrackedOutsideViewport(t *testing.T) {
	tr := newTestTranslator()
	sel := Selection{Element: 4, SingleClick: true}
	// Press outside, drag in while held: no new edge, no placement.
	if _, ok := tr.Translate(Pointer{X: 500, Y: 50, Primary: true}, sel); ok {
		t.Fatal("placed outside the viewport")
	}
	if _, ok := tr.Translate(Pointer{X: 50, Y: 50, Primary: true}, sel); ok {
		t.Fatal("drag into the viewport counted as a press")
	}
}

func TestCapturedPointerLeavesEdgeState(t *testing.T) {
	tr := newTestTranslator()
	sel := Selection{Element: 4, SingleClick: true}
	if _, ok := tr.Translate(Pointer{X: 50, Y: 50, Primary: true, Captured: true}, sel); ok {
		t.Fatal("drew while the UI captured the pointer")
	}
	// The press was never observed, so the next uncaptured frame is an edge.
	if _, ok := tr.Translate(Pointer{X: 50, Y: 50, Primary: true}, sel); !ok {
		t.Fatal("press after capture did not place")
	}
}
