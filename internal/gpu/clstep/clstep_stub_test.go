//go:build !opencl

package clstep

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"mad-sand/internal/registry"
	"mad-sand/internal/sim"
)

func TestStubRegistersUnavailableKernel(t *testing.T) {
	if !slices.Contains(sim.Kernels(), KernelName) {
		t.Fatalf("Kernels() = %v, missing %q", sim.Kernels(), KernelName)
	}
	reg, err := registry.Parse(strings.NewReader(`{"sand": {"id": 1}}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.NewKernel(KernelName, reg); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("NewKernel(opencl) error = %v, want %v", err, ErrUnavailable)
	}
}
