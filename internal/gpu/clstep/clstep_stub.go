//go:build !opencl

// Package clstep runs the simulation step kernel on an OpenCL device.
package clstep

import (
	"errors"

	"mad-sand/internal/registry"
	"mad-sand/internal/sim"
)

// KernelName is the name the OpenCL step kernel registers under.
const KernelName = "opencl"

// ErrUnavailable is returned when the binary was built without OpenCL.
var ErrUnavailable = errors.New("OpenCL support is not enabled; rebuild with -tags opencl")

func init() {
	sim.RegisterKernel(KernelName, func(*registry.Registry) (sim.Kernel, error) {
		return nil, ErrUnavailable
	})
}
