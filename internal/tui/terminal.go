// Package tui runs a session in a terminal. Every text cell shows two world
// pixels using the upper half block, with the bottom row kept for status.
package tui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"

	"github.com/gdamore/tcell/v2"
)

const (
	halfBlock = '▀'
	help      = "  [c]lear [s]hape [ ] size [g]low 0-9 element [q]uit"
)

// FrameRate is how often Run advances and redraws.
const FrameRate = 60

// Terminal drives an engine from a tcell screen.
type Terminal struct {
	screen  tcell.Screen
	eng     *engine.Engine
	host    *render.HostBackend
	frame   *image.RGBA
	palette []registry.PaletteEntry

	pointer brush.Pointer
	clear   bool
	quit    bool
}

// New builds an engine rendered by the host pipeline into screen. The screen
// must already be initialised; the caller keeps ownership of it.
func New(screen tcell.Screen, opts engine.Options) (*Terminal, error) {
	t := &Terminal{screen: screen}
	opts.Backend = func(size core.Size, reg *registry.Registry) (render.Backend, error) {
		b, err := render.NewHostBackend(size, nil, render.DefaultHostKernels())
		if err != nil {
			return nil, err
		}
		t.host = b
		return b, nil
	}
	opts.Viewport = viewport(screen.Size())
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	t.eng = eng
	t.palette = eng.Registry().Palette()
	t.resize()
	return t, nil
}

// viewport maps the screen above the status row onto pixel space, two
// pixels per text row.
func viewport(cols, rows int) brush.Viewport {
	return brush.Viewport{W: max(cols, 0), H: max(rows-1, 0) * 2}
}

// Engine returns the wrapped session.
func (t *Terminal) Engine() *engine.Engine { return t.eng }

// Quit reports whether the user asked to leave.
func (t *Terminal) Quit() bool { return t.quit }

// Close releases the engine. The screen is left to the caller.
func (t *Terminal) Close() error { return t.eng.Close() }

func (t *Terminal) resize() {
	v := viewport(t.screen.Size())
	t.eng.SetViewport(v)
	t.frame = image.NewRGBA(image.Rect(0, 0, v.W, v.H))
	t.host.SetTarget(t.frame)
}

// Handle applies one terminal event.
func (t *Terminal) Handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.resize()
		t.screen.Sync()
	case *tcell.EventMouse:
		x, y := ev.Position()
		btn := ev.Buttons()
		t.pointer = brush.Pointer{
			X:         x,
			Y:         y * 2,
			Primary:   btn&tcell.Button1 != 0,
			Secondary: btn&tcell.Button2 != 0,
		}
	case *tcell.EventKey:
		t.key(ev)
	}
}

func (t *Terminal) key(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.quit = true
		return
	case tcell.KeyRune:
	default:
		return
	}
	s := t.eng.Settings()
	switch r := ev.Rune(); {
	case r == 'q':
		t.quit = true
	case r == 'c':
		t.clear = true
	case r == 's':
		t.eng.SetIntParameter(engine.KeyBrushShape, (int(s.Shape)+1)%len(brush.Shapes()))
	case r == '[':
		t.eng.SetIntParameter(engine.KeyBrushSize, s.Size-1)
	case r == ']':
		t.eng.SetIntParameter(engine.KeyBrushSize, s.Size+1)
	case r == 'g':
		t.eng.SetBoolParameter(engine.KeyGlow, !s.Render.GlowEnabled)
	case r >= '0' && r <= '9':
		if i := int(r - '0'); i < len(t.palette) {
			t.eng.Select(t.palette[i].ID)
		}
	}
}

// Frame runs one engine frame and draws it to the screen.
func (t *Terminal) Frame(dt time.Duration) error {
	in := engine.Input{Pointer: t.pointer, Clear: t.clear}
	t.clear = false
	if err := t.eng.Frame(in, dt); err != nil {
		return err
	}
	t.draw()
	t.screen.Show()
	return nil
}

func (t *Terminal) draw() {
	b := t.frame.Bounds()
	for row := 0; row*2 < b.Dy(); row++ {
		for x := 0; x < b.Dx(); x++ {
			top := t.frame.RGBAAt(x, row*2)
			bottom := t.frame.RGBAAt(x, row*2+1)
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
			t.screen.SetContent(x, row, halfBlock, nil, style)
		}
	}
	cols, rows := t.screen.Size()
	if rows < 1 {
		return
	}
	sel := t.eng.Settings()
	status := fmt.Sprintf("%s  %s %d%s", t.eng.Status(), sel.Shape, sel.Size, help)
	drawText(t.screen, 0, rows-1, cols, status, tcell.StyleDefault.Reverse(true))
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= width {
			return
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		s.SetContent(col, y, ' ', nil, style)
	}
}

// Run polls screen events and advances the session at FrameRate until the
// user quits or ctx is done.
func (t *Terminal) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / FrameRate)
	defer ticker.Stop()
	clock := t.eng.Scheduler().Clock()
	for !t.quit {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			t.Handle(ev)
		case now := <-ticker.C:
			if err := t.Frame(clock.Elapsed(now)); err != nil {
				return err
			}
		}
	}
	return nil
}
