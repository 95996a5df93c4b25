//go:build ebiten

package app

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"
	"mad-sand/internal/ui"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Game adapts an engine session to the ebiten.Game interface.
type Game struct {
	eng     *engine.Engine
	layout  engine.Layout
	hud     *ui.HUD
	overlay *ui.Overlay

	gpu  *render.EbitenBackend
	host *hostSurface

	winW, winH int
	err        error
}

// hostSurface uploads the CPU pipeline's output to the screen each frame.
type hostSurface struct {
	backend *render.HostBackend
	rgba    *image.RGBA
	img     *ebiten.Image
}

// New builds the engine described by cfg and wraps it in a Game.
func New(cfg *Config) (*Game, error) {
	g := &Game{layout: engine.DefaultLayout()}
	g.winW, g.winH = g.layout.WindowSize(core.Size{W: cfg.Width, H: cfg.Height}, cfg.Scale)

	opts := engine.Options{
		ElementsPath: cfg.Elements,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Kernel:       cfg.Kernel,
		TPS:          cfg.TPS,
		Viewport:     g.layout.Viewport(g.winW, g.winH),
	}
	switch cfg.Backend {
	case "ebiten":
		opts.Backend = func(size core.Size, reg *registry.Registry) (render.Backend, error) {
			b, err := render.NewEbitenBackend(size, reg.Attributes())
			if err != nil {
				return nil, err
			}
			g.gpu = b
			return b, nil
		}
	case "host":
		opts.Backend = func(size core.Size, reg *registry.Registry) (render.Backend, error) {
			b, err := render.NewHostBackend(size, nil, render.DefaultHostKernels())
			if err != nil {
				return nil, err
			}
			g.host = &hostSurface{backend: b}
			return b, nil
		}
	default:
		return nil, fmt.Errorf("app: unknown backend %q", cfg.Backend)
	}

	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Apply(eng); err != nil {
		eng.Close()
		return nil, err
	}
	g.eng = eng
	g.hud = ui.NewHUD(eng, eng.Registry().Palette(), g.layout, "Elements")
	g.overlay = ui.NewOverlay(eng.Grid().Size())
	return g, nil
}

// WindowSize returns the initial window size.
func (g *Game) WindowSize() (int, int) { return g.winW, g.winH }

// Engine returns the wrapped session.
func (g *Game) Engine() *engine.Engine { return g.eng }

// Close releases the engine.
func (g *Game) Close() error {
	if g.host != nil && g.host.img != nil {
		g.host.img.Dispose()
	}
	return g.eng.Close()
}

// Update samples input and advances the simulation.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.overlay.Update()
	g.handleKeys()

	clear := inpututil.IsKeyJustPressed(ebiten.KeyC)
	if g.hud.Update(g.winW, g.winH) == ui.ActionClear {
		clear = true
	}
	mx, my := ebiten.CursorPosition()
	in := engine.Input{
		Pointer: brush.Pointer{
			X:         mx,
			Y:         my,
			Primary:   ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
			Secondary: ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
			Captured:  g.hud.Captures(mx, my, g.winW, g.winH),
		},
		Clear: clear,
	}
	dt := g.eng.Scheduler().Clock().Elapsed(time.Now())
	_, err := g.eng.Update(in, dt)
	return err
}

func (g *Game) handleKeys() {
	s := g.eng.Settings()
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		g.eng.SetIntParameter(engine.KeyBrushSize, s.Size-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		g.eng.SetIntParameter(engine.KeyBrushSize, s.Size+1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.eng.SetIntParameter(engine.KeyBrushShape, (int(s.Shape)+1)%len(brush.Shapes()))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		g.eng.SetBoolParameter(engine.KeyGlow, !s.Render.GlowEnabled)
	}
}

// Draw renders the world, the brush cursor and the HUD.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	var err error
	switch {
	case g.gpu != nil:
		g.gpu.SetTarget(screen)
		err = g.eng.Render()
	case g.host != nil:
		err = g.host.draw(screen, g.eng)
	}
	if err != nil {
		g.err = err
		return
	}
	sel := g.eng.Selection()
	erase := sel.Element == 0 || ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	g.overlay.Draw(screen, g.eng.Viewport(), sel, erase)
	g.hud.Draw(screen, g.info())
}

func (g *Game) info() string {
	size := g.eng.Grid().Size()
	return fmt.Sprintf("mad-sand  %dx%d  t=%.1fs  frame %d  %.0f fps",
		size.W, size.H, g.eng.Grid().Time().Seconds(), g.eng.Grid().Frame(), ebiten.ActualFPS())
}

// Layout follows the window size and recomputes the world viewport.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.winW || outsideHeight != g.winH {
		g.winW, g.winH = outsideWidth, outsideHeight
		g.eng.SetViewport(g.layout.Viewport(g.winW, g.winH))
	}
	return g.winW, g.winH
}

func (h *hostSurface) draw(screen *ebiten.Image, eng *engine.Engine) error {
	b := screen.Bounds()
	if h.rgba == nil || h.rgba.Bounds() != b {
		h.rgba = image.NewRGBA(b)
		if h.img != nil {
			h.img.Dispose()
		}
		h.img = ebiten.NewImage(b.Dx(), b.Dy())
		h.backend.SetTarget(h.rgba)
	}
	if err := eng.Render(); err != nil {
		return err
	}
	h.img.WritePixels(h.rgba.Pix)
	screen.DrawImage(h.img, nil)
	return nil
}
