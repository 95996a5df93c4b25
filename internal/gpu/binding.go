// Package gpu holds the binding-slot table through which device-resident
// resources are shared with kernels, plus the host implementation used when
// kernels run on the CPU.
package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// ElementTableSlot is the storage binding kernels read the per-element
// attribute table from.
const ElementTableSlot = 2

var (
	// ErrStaleHandle is returned when a handle was superseded by a later bind
	// to the same slot.
	ErrStaleHandle = errors.New("gpu: stale binding handle")
	// ErrDeviceClosed is returned for operations on a closed device.
	ErrDeviceClosed = errors.New("gpu: device closed")
	// ErrUnbound is returned when nothing is bound at the requested slot.
	ErrUnbound = errors.New("gpu: slot not bound")
)

// Handle identifies one publication of a storage buffer. A later bind to the
// same slot invalidates it.
type Handle struct {
	Slot       int
	Generation uint64
}

// Binder publishes storage buffers into numbered binding slots.
type Binder interface {
	BindStorage(slot int, data []byte) (Handle, error)
}

// StorageReader reads back the bytes published under a handle. Reading a
// superseded handle fails with ErrStaleHandle.
type StorageReader interface {
	Storage(h Handle) ([]byte, error)
}

type hostSlot struct {
	gen  uint64
	data []byte
}

// HostDevice is an in-process binding table.
type HostDevice struct {
	mu     sync.RWMutex
	gen    uint64
	slots  map[int]hostSlot
	closed bool
}

// NewHostDevice returns an empty binding table.
func NewHostDevice() *HostDevice {
	return &HostDevice{slots: make(map[int]hostSlot)}
}

// BindStorage copies data into slot and returns a fresh handle.
func (d *HostDevice) BindStorage(slot int, data []byte) (Handle, error) {
	if slot < 0 {
		return Handle{}, fmt.Errorf("gpu: invalid slot %d", slot)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return Handle{}, ErrDeviceClosed
	}
	d.gen++
	d.slots[slot] = hostSlot{gen: d.gen, data: append([]byte(nil), data...)}
	return Handle{Slot: slot, Generation: d.gen}, nil
}

// Valid reports whether h is still the current binding of its slot.
func (d *HostDevice) Valid(h Handle) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	s, ok := d.slots[h.Slot]
	return ok && s.gen == h.Generation
}

// Storage returns the bytes bound for h.
func (d *HostDevice) Storage(h Handle) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	s, ok := d.slots[h.Slot]
	if !ok {
		return nil, ErrUnbound
	}
	if s.gen != h.Generation {
		return nil, ErrStaleHandle
	}
	return s.data, nil
}

// Close drops every binding. Calling Close more than once is harmless.
func (d *HostDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.slots = nil
	return nil
}
