// Package world implements the double-buffered grid the simulation steps
// against.
package world

import (
	"errors"
	"sync"
	"time"

	"mad-sand/internal/core"
)

var (
	// ErrStepInFlight is returned when an operation needs both buffers
	// quiescent but a step has begun and not been committed.
	ErrStepInFlight = errors.New("world: step in flight")
	// ErrNoStepInFlight is returned by CommitStep and AbortStep without a
	// matching BeginStep.
	ErrNoStepInFlight = errors.New("world: no step in flight")
)

// Step is the pair of buffers handed to a step kernel.
type Step struct {
	Read  core.CellView
	Write *core.CellGrid
	Frame uint64
	Time  time.Duration
}

// Grid owns the two cell buffers, the frame counter and simulation time.
type Grid struct {
	size    core.Size
	buffers [2]*core.CellGrid
	current int
	frame   uint64
	simTime time.Duration

	mu       sync.Mutex
	inFlight bool
}

// New allocates a zeroed world. Non-positive dimensions clamp to 1.
func New(w, h int) *Grid {
	a := core.NewCellGrid(w, h)
	b := core.NewCellGrid(w, h)
	return &Grid{size: a.Size(), buffers: [2]*core.CellGrid{a, b}}
}

// Size returns the fixed world dimensions.
func (g *Grid) Size() core.Size { return g.size }

// Current returns a read view of the current buffer.
func (g *Grid) Current() core.CellView {
	return g.buffers[g.current].View()
}

// CurrentIndex returns which of the two buffers is current.
func (g *Grid) CurrentIndex() int { return g.current }

// Frame returns the number of committed steps since creation or Clear.
func (g *Grid) Frame() uint64 { return g.frame }

// Time returns the accumulated simulation time.
func (g *Grid) Time() time.Duration { return g.simTime }

// AdvanceTime adds dt to the simulation time. Negative values are ignored.
func (g *Grid) AdvanceTime(dt time.Duration) {
	if dt > 0 {
		g.simTime += dt
	}
}

// BeginStep reserves the buffers for one step. The write buffer starts as a
// copy of the current one so kernels that only touch moving cells still
// produce a complete next state.
func (g *Grid) BeginStep() (Step, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return Step{}, ErrStepInFlight
	}
	g.inFlight = true
	read := g.buffers[g.current]
	write := g.buffers[1-g.current]
	write.CopyFrom(read)
	return Step{Read: read.View(), Write: write, Frame: g.frame, Time: g.simTime}, nil
}

// CommitStep makes the written buffer current and advances the frame.
func (g *Grid) CommitStep() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight {
		return ErrNoStepInFlight
	}
	g.current = 1 - g.current
	g.frame++
	g.inFlight = false
	return nil
}

// AbortStep releases an in-flight step without swapping buffers.
func (g *Grid) AbortStep() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inFlight {
		return ErrNoStepInFlight
	}
	g.inFlight = false
	return nil
}

// Clear zeroes both buffers and resets frame, time and buffer index.
func (g *Grid) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrStepInFlight
	}
	g.buffers[0].Clear()
	g.buffers[1].Clear()
	g.current = 0
	g.frame = 0
	g.simTime = 0
	return nil
}

// WriteCell overwrites one cell of the current buffer. Out of range
// coordinates are ignored.
func (g *Grid) WriteCell(x, y int, c core.Cell) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return ErrStepInFlight
	}
	g.buffers[g.current].Set(x, y, c)
	return nil
}
