// Package engine owns the registry, world, scheduler, render pipeline and
// brush, and runs them in the fixed per-frame order: input, steps, render.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"
	"mad-sand/internal/sim"
	"mad-sand/internal/world"
)

// ErrClosed is returned by frame operations after Close.
var ErrClosed = errors.New("engine: closed")

// BackendFactory builds the render backend for a world.
type BackendFactory func(size core.Size, reg *registry.Registry) (render.Backend, error)

// HostBackend is the default BackendFactory. The element table reaches it
// when New publishes to the backend.
func HostBackend(size core.Size, reg *registry.Registry) (render.Backend, error) {
	return render.NewHostBackend(size, nil, render.DefaultHostKernels())
}

// Options configure New.
type Options struct {
	// Registry is used as is when set; otherwise ElementsPath is loaded.
	Registry     *registry.Registry
	ElementsPath string

	Width, Height int
	Kernel        string
	TPS           int
	Backend       BackendFactory
	Viewport      brush.Viewport
}

// Settings are every user-adjustable tunable. They are only changed between
// frames.
type Settings struct {
	Sim      sim.Settings
	Render   render.Settings
	Selected int
	Shape    brush.Shape
	Size     int
}

// DefaultSettings selects the first placeable element with a size 3 circle.
func DefaultSettings() Settings {
	return Settings{
		Sim:    sim.DefaultSettings(),
		Render: render.DefaultSettings(),
		Shape:  brush.Circle,
		Size:   brush.DefaultSize,
	}
}

// Input is the per-frame user input.
type Input struct {
	Pointer brush.Pointer
	Clear   bool
}

// Engine is one running simulation session.
type Engine struct {
	reg        *registry.Registry
	device     *gpu.HostDevice
	table      gpu.Handle
	grid       *world.Grid
	kernel     sim.Kernel
	sched      *sim.Scheduler
	pipeline   *render.Pipeline
	translator *brush.Translator
	settings   Settings

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// New acquires resources in order: registry, device bindings, world, step
// kernel, render backend. A failure releases what was already acquired.
func New(opts Options) (*Engine, error) {
	reg := opts.Registry
	if reg == nil {
		var err error
		if reg, err = registry.Load(opts.ElementsPath); err != nil {
			return nil, err
		}
	}
	e := &Engine{reg: reg, device: gpu.NewHostDevice(), settings: DefaultSettings()}
	h, err := reg.Publish(e.device)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.table = h

	e.grid = world.New(opts.Width, opts.Height)
	size := e.grid.Size()

	name := opts.Kernel
	if name == "" {
		name = sim.HostKernelName
	}
	k, err := sim.NewKernel(name, reg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.kernel = k
	e.sched = sim.NewScheduler(e.grid, k, reg)
	if err := e.sched.BindTable(e.device, h); err != nil {
		e.Close()
		return nil, err
	}
	if opts.TPS > 0 {
		e.sched.SetTPS(opts.TPS)
	}

	factory := opts.Backend
	if factory == nil {
		factory = HostBackend
	}
	b, err := factory(size, reg)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("engine: render backend: %w", err)
	}
	if binder, ok := b.(gpu.Binder); ok {
		if _, err := reg.Publish(binder); err != nil {
			b.Close()
			e.Close()
			return nil, err
		}
	}
	if e.pipeline, err = render.NewPipeline(b); err != nil {
		b.Close()
		e.Close()
		return nil, err
	}

	e.translator = brush.NewTranslator(opts.Viewport, size.W, size.H)
	if p := reg.Palette(); len(p) > 1 {
		e.settings.Selected = p[1].ID
	}
	core.Logger().Info("engine ready", "world", fmt.Sprintf("%dx%d", size.W, size.H), "kernel", name, "backend", b.Name())
	return e, nil
}

// Registry returns the element catalog.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Grid returns the world.
func (e *Engine) Grid() *world.Grid { return e.grid }

// Pipeline returns the render pipeline.
func (e *Engine) Pipeline() *render.Pipeline { return e.pipeline }

// Scheduler returns the simulation scheduler.
func (e *Engine) Scheduler() *sim.Scheduler { return e.sched }

// Settings returns the live settings. Mutate only between frames.
func (e *Engine) Settings() *Settings { return &e.settings }

// TableHandle returns the handle of the published element table.
func (e *Engine) TableHandle() gpu.Handle { return e.table }

// Device returns the host binding table.
func (e *Engine) Device() *gpu.HostDevice { return e.device }

// Republish uploads the element table again, to the device and to a backend
// that takes bindings, and moves the scheduler to the new handle.
func (e *Engine) Republish() error {
	if e.closed {
		return ErrClosed
	}
	h, err := e.reg.Publish(e.device)
	if err != nil {
		return err
	}
	e.table = h
	if err := e.sched.BindTable(e.device, h); err != nil {
		return err
	}
	if binder, ok := e.pipeline.Backend().(gpu.Binder); ok {
		if _, err := e.reg.Publish(binder); err != nil {
			return err
		}
	}
	return nil
}

// SetViewport updates the pointer mapping, typically after a resize.
func (e *Engine) SetViewport(v brush.Viewport) { e.translator.SetViewport(v) }

// Viewport returns the current world view rectangle.
func (e *Engine) Viewport() brush.Viewport { return e.translator.Viewport() }

// Select changes the brush element. Unknown ids are rejected.
func (e *Engine) Select(id int) bool {
	if e.reg.Name(id) == "" {
		return false
	}
	e.settings.Selected = id
	return true
}

// Selection is the brush configuration strokes are built from.
func (e *Engine) Selection() brush.Selection {
	id := e.settings.Selected
	return brush.Selection{
		Element:     uint8(id),
		SingleClick: e.reg.IsSingleClick(id),
		Shape:       e.settings.Shape,
		Size:        min(max(e.settings.Size, brush.MinSize), brush.MaxSize),
	}
}

// Update applies input, then advances the simulation by dt. It returns the
// number of steps committed.
func (e *Engine) Update(in Input, dt time.Duration) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if in.Clear {
		if err := e.Clear(); err != nil {
			return 0, err
		}
	}
	if s, ok := e.translator.Translate(in.Pointer, e.Selection()); ok {
		if err := brush.Apply(e.grid, s); err != nil {
			return 0, err
		}
	}
	return e.sched.Update(dt, &e.settings.Sim)
}

// Render draws the current buffer into the viewport of the backend's output
// surface.
func (e *Engine) Render() error {
	if e.closed {
		return ErrClosed
	}
	return e.pipeline.Render(e.grid.Current(), e.grid.Time(), e.settings.Render, Rect(e.translator.Viewport()))
}

// Frame runs one full frame: input, zero or more steps, one render.
func (e *Engine) Frame(in Input, dt time.Duration) error {
	if _, err := e.Update(in, dt); err != nil {
		return err
	}
	return e.Render()
}

// Clear empties the world and drops pending simulation time.
func (e *Engine) Clear() error {
	if err := e.grid.Clear(); err != nil {
		return err
	}
	e.sched.Reset()
	core.Logger().Info("world cleared")
	return nil
}

// Drawing reports whether the last Update applied a stroke.
func (e *Engine) Drawing() bool { return e.translator.Drawing() }

// Status is the one-line brush status shown by front-ends.
func (e *Engine) Status() string {
	label := e.reg.Label(e.settings.Selected)
	if e.translator.Drawing() {
		return "Drawing: " + label
	}
	return "Selected: " + label
}

// Close releases resources in reverse acquisition order: render backend,
// step kernel, device bindings. Later calls return the first result.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed = true
		var errs []error
		if e.pipeline != nil {
			errs = append(errs, e.pipeline.Close())
		}
		if e.kernel != nil {
			errs = append(errs, e.kernel.Close())
		}
		if e.device != nil {
			errs = append(errs, e.device.Close())
		}
		e.closeErr = errors.Join(errs...)
		if e.closeErr != nil {
			core.Logger().Warn("engine shutdown", "err", e.closeErr)
		}
	})
	return e.closeErr
}
