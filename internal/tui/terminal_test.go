package tui

import (
	"strings"
	"testing"

	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"

	"github.com/gdamore/tcell/v2"
)

const catalog = `{
	"empty": {"id": 0, "color": [0, 0, 0, 0]},
	"sand":  {"id": 1, "type": "Granular", "color": [0.9, 0.8, 0.5, 1]},
	"stone": {"id": 2}
}`

// newTerminal runs a 20x20 world on a 20x11 screen: one pixel per cell.
func newTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(20, 11)
	t.Cleanup(screen.Fini)

	reg, err := registry.Parse(strings.NewReader(catalog))
	if err != nil {
		t.Fatal(err)
	}
	term, err := New(screen, engine.Options{Registry: reg, Width: 20, Height: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { term.Close() })
	return term, screen
}

func count(v core.CellView, id uint8) int {
	n := 0
	sz := v.Size()
	for y := range sz.H {
		for x := range sz.W {
			if v.Element(x, y) == id {
				n++
			}
		}
	}
	return n
}

func TestMouseDrawsAtTopOfWorld(t *testing.T) {
	term, _ := newTerminal(t)
	term.Handle(tcell.NewEventMouse(5, 0, tcell.Button1, tcell.ModNone))
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	cur := term.Engine().Grid().Current()
	if cur.Element(5, 19) != 1 {
		t.Fatal("primary button did not place sand under the pointer")
	}
	placed := count(cur, 1)

	term.Handle(tcell.NewEventMouse(5, 0, tcell.ButtonNone, tcell.ModNone))
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	if got := count(term.Engine().Grid().Current(), 1); got != placed {
		t.Fatalf("released button still drew: %d cells, want %d", got, placed)
	}

	term.Handle(tcell.NewEventMouse(5, 0, tcell.Button2, tcell.ModNone))
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	if term.Engine().Grid().Current().Element(5, 19) != 0 {
		t.Fatal("secondary button did not erase")
	}
}

func TestKeys(t *testing.T) {
	term, _ := newTerminal(t)
	press := func(r rune) { term.Handle(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)) }

	press('2')
	if got := term.Engine().Settings().Selected; got != 2 {
		t.Fatalf("digit 2 selected %d", got)
	}
	size := term.Engine().Settings().Size
	press(']')
	if got := term.Engine().Settings().Size; got != size+1 {
		t.Fatalf("] gave size %d, want %d", got, size+1)
	}
	shape := term.Engine().Settings().Shape
	press('s')
	if term.Engine().Settings().Shape == shape {
		t.Fatal("s did not change the shape")
	}
	press('9')
	if got := term.Engine().Settings().Selected; got != 2 {
		t.Fatalf("out of range digit changed selection to %d", got)
	}
	if term.Quit() {
		t.Fatal("quit before q")
	}
	press('q')
	if !term.Quit() {
		t.Fatal("q did not quit")
	}
}

func TestClearShowsBackground(t *testing.T) {
	term, screen := newTerminal(t)
	term.Handle(tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone))
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	term.Handle(tcell.NewEventMouse(10, 5, tcell.ButtonNone, tcell.ModNone))
	term.Handle(tcell.NewEventKey(tcell.KeyRune, 'c', tcell.ModNone))
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	if got := count(term.Engine().Grid().Current(), 1); got != 0 {
		t.Fatalf("%d sand cells after clear", got)
	}

	want := rgb(render.RGBA(term.Engine().Settings().Render.Background))
	for _, pos := range [][2]int{{0, 0}, {10, 5}, {19, 9}} {
		r, _, style, _ := screen.GetContent(pos[0], pos[1])
		fg, bg, _ := style.Decompose()
		if r != halfBlock || fg != want || bg != want {
			t.Fatalf("cell %v = %q fg %v bg %v, want background %v", pos, r, fg, bg, want)
		}
	}
}

func TestStatusRow(t *testing.T) {
	term, screen := newTerminal(t)
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	for x := 0; x < 20; x++ {
		r, _, _, _ := screen.GetContent(x, 10)
		b.WriteRune(r)
	}
	if got := b.String(); !strings.HasPrefix(got, "Selected: sand") {
		t.Fatalf("status row = %q", got)
	}
}

func TestResize(t *testing.T) {
	term, screen := newTerminal(t)
	screen.SetSize(40, 21)
	term.Handle(tcell.NewEventResize(40, 21))
	if v := term.Engine().Viewport(); v.W != 40 || v.H != 40 {
		t.Fatalf("viewport after resize = %+v", v)
	}
	if err := term.Frame(0); err != nil {
		t.Fatal(err)
	}
}
