package gpu

import (
	"errors"
	"testing"
)

func TestHostDeviceGenerations(t *testing.T) {
	d := NewHostDevice()

	h1, err := d.BindStorage(ElementTableSlot, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("BindStorage: %v", err)
	}
	other, err := d.BindStorage(5, []byte{9})
	if err != nil {
		t.Fatalf("BindStorage: %v", err)
	}
	h2, err := d.BindStorage(ElementTableSlot, []byte{4})
	if err != nil {
		t.Fatalf("BindStorage: %v", err)
	}

	if d.Valid(h1) {
		t.Fatal("superseded handle reported valid")
	}
	if !d.Valid(h2) || !d.Valid(other) {
		t.Fatal("current handles reported invalid")
	}
	if _, err := d.Storage(h1); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("Storage(stale) error = %v, want %v", err, ErrStaleHandle)
	}
	got, err := d.Storage(h2)
	if err != nil || len(got) != 1 || got[0] != 4 {
		t.Fatalf("Storage(h2) = %v, %v", got, err)
	}
	if _, err := d.Storage(Handle{Slot: 7, Generation: 1}); !errors.Is(err, ErrUnbound) {
		t.Fatalf("Storage(unbound) error = %v, want %v", err, ErrUnbound)
	}
}

func TestHostDeviceCopiesInput(t *testing.T) {
	d := NewHostDevice()
	src := []byte{1, 2}
	h, _ := d.BindStorage(0, src)
	src[0] = 42
	got, _ := d.Storage(h)
	if got[0] != 1 {
		t.Fatalf("bound data aliased caller slice: %v", got)
	}
}

func TestHostDeviceClose(t *testing.T) {
	d := NewHostDevice()
	h, _ := d.BindStorage(ElementTableSlot, nil)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if d.Valid(h) {
		t.Fatal("handle valid after Close")
	}
	if _, err := d.BindStorage(ElementTableSlot, nil); !errors.Is(err, ErrDeviceClosed) {
		t.Fatalf("BindStorage after Close error = %v, want %v", err, ErrDeviceClosed)
	}
}
