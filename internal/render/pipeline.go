// Package render turns the current grid into an image through four ordered
// stages: derive, light propagation, composite and present.
package render

import (
	"errors"
	"fmt"
	"image"
	"time"

	"mad-sand/internal/core"
)

var (
	// ErrMissingKernel is returned when a backend lacks one of its stage
	// programs.
	ErrMissingKernel = errors.New("render: missing stage kernel")
	// ErrNoTarget is returned by Present when no output surface is set.
	ErrNoTarget = errors.New("render: no output surface")
	// ErrSizeMismatch is returned when the grid does not match the backend.
	ErrSizeMismatch = errors.New("render: grid size mismatch")
)

// Backend runs the stage programs. Every call returns only after its writes
// are visible to the next stage.
type Backend interface {
	Name() string
	// Derive computes display color and surface data for every cell.
	Derive(cells core.CellView, t time.Duration, s Settings) error
	// Seed writes emitted light (or zero) into light surface dst.
	Seed(dst int, s Settings) error
	// Propagate runs one bounce from light surface src into dst.
	Propagate(src, dst int, s Settings) error
	// Composite combines color, surface data and light surface src into the
	// final image.
	Composite(src int, s Settings) error
	// Present blits the final image into viewport on the output surface.
	Present(viewport image.Rectangle) error
	Close() error
}

// Pipeline sequences the stages of one rendered frame.
type Pipeline struct {
	backend   Backend
	lastLight int
	frames    uint64
}

// NewPipeline wraps a built backend.
func NewPipeline(b Backend) (*Pipeline, error) {
	if b == nil {
		return nil, fmt.Errorf("render: nil backend: %w", ErrMissingKernel)
	}
	return &Pipeline{backend: b}, nil
}

// Backend returns the stage implementation.
func (p *Pipeline) Backend() Backend { return p.backend }

// LastLightSource reports which light surface the last composite read.
func (p *Pipeline) LastLightSource() int { return p.lastLight }

// Frames returns how many frames were rendered.
func (p *Pipeline) Frames() uint64 { return p.frames }

// Render draws cells into viewport. Light surface 0 is seeded, bounce k reads
// surface k%2 and writes (k+1)%2, and composite reads surface N%2.
func (p *Pipeline) Render(cells core.CellView, t time.Duration, s Settings, viewport image.Rectangle) error {
	s = s.Clamped()
	if err := p.backend.Derive(cells, t, s); err != nil {
		return fmt.Errorf("render: derive: %w", err)
	}
	if err := p.backend.Seed(0, s); err != nil {
		return fmt.Errorf("render: seed light: %w", err)
	}
	for k := range s.LightBounces {
		if err := p.backend.Propagate(k%2, (k+1)%2, s); err != nil {
			return fmt.Errorf("render: bounce %d: %w", k, err)
		}
	}
	src := s.LightBounces % 2
	if err := p.backend.Composite(src, s); err != nil {
		return fmt.Errorf("render: composite: %w", err)
	}
	p.lastLight = src
	if err := p.backend.Present(viewport); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}
	p.frames++
	core.Logger().Debug("frame rendered", "backend", p.backend.Name(), "bounces", s.LightBounces, "light", src)
	return nil
}

// Close releases the backend.
func (p *Pipeline) Close() error { return p.backend.Close() }
