// Package sim advances the world at a fixed tick rate by dispatching step
// kernels against the double-buffered grid.
package sim

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"mad-sand/internal/core"
	"mad-sand/internal/registry"
	"mad-sand/internal/world"
)

// ErrUnknownKernel is returned by NewKernel for unregistered names.
var ErrUnknownKernel = errors.New("sim: unknown kernel")

// Params carries the uniforms of one step dispatch.
type Params struct {
	Size     core.Size
	Time     time.Duration
	Frame    uint64
	Seed     uint64
	Settings Settings
	Elements []registry.Attributes
	// Fire is the id burning cells turn into, or registry.NotFound.
	Fire int
}

// Kernel computes the next state from st.Read into st.Write. It must not
// return before every write has landed.
type Kernel interface {
	Name() string
	Step(st world.Step, p Params) error
	Close() error
}

// KernelFactory builds a kernel for a loaded element catalog.
type KernelFactory func(reg *registry.Registry) (Kernel, error)

var kernels = map[string]KernelFactory{}

// RegisterKernel adds a kernel factory under the provided name.
func RegisterKernel(name string, f KernelFactory) {
	if name == "" || f == nil {
		return
	}
	kernels[name] = f
}

// Kernels lists registered kernel names in sorted order.
func Kernels() []string {
	names := make([]string, 0, len(kernels))
	for name := range kernels {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewKernel builds the kernel registered under name.
func NewKernel(name string, reg *registry.Registry) (Kernel, error) {
	f, ok := kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknownKernel, name, Kernels())
	}
	k, err := f(reg)
	if err != nil {
		return nil, fmt.Errorf("sim: build kernel %q: %w", name, err)
	}
	core.Logger().Info("step kernel ready", "kernel", name)
	return k, nil
}
