package sim

import (
	"fmt"
	"time"

	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
	"mad-sand/internal/world"
)

// DefaultSeed feeds the per-cell noise when no seed is configured.
const DefaultSeed = 0x5eed

// Scheduler converts real elapsed time into fixed simulation ticks.
type Scheduler struct {
	clock    *core.FixedStep
	grid     *world.Grid
	kernel   Kernel
	elements []registry.Attributes
	fire     int
	seed     uint64

	device gpu.StorageReader
	table  gpu.Handle
}

// NewScheduler wires a kernel to a grid at core.DefaultTPS.
func NewScheduler(grid *world.Grid, kernel Kernel, reg *registry.Registry) *Scheduler {
	return &Scheduler{
		clock:    core.NewFixedStep(core.DefaultTPS),
		grid:     grid,
		kernel:   kernel,
		elements: reg.Attributes(),
		fire:     reg.IDOf("fire"),
		seed:     DefaultSeed,
	}
}

// BindTable makes every following step read the element table published at
// h on dev. A later publish to the same slot stales h, and steps then fail
// with gpu.ErrStaleHandle until the new handle is bound.
func (s *Scheduler) BindTable(dev gpu.StorageReader, h gpu.Handle) error {
	data, err := dev.Storage(h)
	if err != nil {
		return fmt.Errorf("sim: bind element table: %w", err)
	}
	s.device, s.table = dev, h
	s.elements = registry.DecodeTable(data)
	return nil
}

// SetSeed changes the noise seed used by subsequent steps.
func (s *Scheduler) SetSeed(seed uint64) { s.seed = seed }

// SetTPS changes the tick rate.
func (s *Scheduler) SetTPS(tps int) { s.clock.SetTPS(tps) }

// Clock exposes the fixed-step accumulator.
func (s *Scheduler) Clock() *core.FixedStep { return s.clock }

// Kernel returns the step kernel in use.
func (s *Scheduler) Kernel() Kernel { return s.kernel }

// Reset drops accumulated time, used after the world is cleared.
func (s *Scheduler) Reset() { s.clock.Reset() }

// Update credits dt (clamped to the clock's max delta) and runs every tick
// that became due. StepsPerFrame is read once per tick. It returns the number
// of steps committed. A nil settings pointer means DefaultSettings.
func (s *Scheduler) Update(dt time.Duration, settings *Settings) (int, error) {
	if settings == nil {
		def := DefaultSettings()
		settings = &def
	}
	credited := s.clock.Add(dt)
	s.grid.AdvanceTime(credited)

	steps := 0
	for s.clock.Ready() {
		snap := *settings
		n := snap.Steps()
		for range n {
			if err := s.step(snap); err != nil {
				return steps, err
			}
			steps++
		}
		s.clock.Consume()
	}
	if steps > 0 {
		core.Logger().Debug("simulation advanced", "steps", steps, "frame", s.grid.Frame())
	}
	return steps, nil
}

func (s *Scheduler) step(settings Settings) error {
	if s.device != nil {
		// Bytes behind a live handle never change, so the decoded table stays valid.
		if _, err := s.device.Storage(s.table); err != nil {
			return fmt.Errorf("sim: element table: %w", err)
		}
	}
	st, err := s.grid.BeginStep()
	if err != nil {
		return fmt.Errorf("sim: begin step: %w", err)
	}
	p := Params{
		Size:     s.grid.Size(),
		Time:     st.Time,
		Frame:    st.Frame,
		Seed:     s.seed,
		Settings: settings,
		Elements: s.elements,
		Fire:     s.fire,
	}
	if err := s.kernel.Step(st, p); err != nil {
		if aerr := s.grid.AbortStep(); aerr != nil {
			core.Logger().Warn("abort step", "err", aerr)
		}
		return fmt.Errorf("sim: %s kernel: %w", s.kernel.Name(), err)
	}
	return s.grid.CommitStep()
}
