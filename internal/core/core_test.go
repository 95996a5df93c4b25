package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestCellGridBounds(t *testing.T) {
	g := NewCellGrid(4, 3)
	if g.Size() != (Size{W: 4, H: 3}) || len(g.Bytes()) != 4*3*CellChannels {
		t.Fatalf("grid %v with %d bytes", g.Size(), len(g.Bytes()))
	}
	if g.Set(-1, 0, Placed(1)) || g.Set(4, 0, Placed(1)) || g.Set(0, 3, Placed(1)) {
		t.Fatal("out of range Set reported success")
	}
	if !g.Set(3, 2, Cell{Element: 7, Life: 2, Velocity: 9, Flags: 1}) {
		t.Fatal("in range Set failed")
	}
	if got := g.At(3, 2); got != (Cell{Element: 7, Life: 2, Velocity: 9, Flags: 1}) {
		t.Fatalf("At(3,2) = %+v", got)
	}
	if g.At(9, 9) != Empty || g.Element(-1, 0) != 0 {
		t.Fatal("out of range reads are not empty")
	}
	g.Clear()
	if !g.At(3, 2).IsEmpty() {
		t.Fatal("Clear left a cell behind")
	}
}

func TestCellGridCopyAndView(t *testing.T) {
	src := NewCellGrid(2, 2)
	src.Set(1, 1, Placed(3))
	dst := NewCellGrid(2, 2)
	dst.CopyFrom(src)
	v := dst.View()
	if !v.Valid() || v.Element(1, 1) != 3 || v.At(1, 1).Velocity != VelocityRest {
		t.Fatalf("view after copy = %+v", v.At(1, 1))
	}
	if (CellView{}).Valid() {
		t.Fatal("zero view reports valid")
	}
	if g := NewCellGrid(0, -2); g.Size() != (Size{W: 1, H: 1}) {
		t.Fatalf("degenerate grid size %v", g.Size())
	}
}

func TestFixedStepAccumulates(t *testing.T) {
	f := NewFixedStep(100)
	if f.Step() != 10*time.Millisecond {
		t.Fatalf("Step() = %v", f.Step())
	}
	if got := f.Add(25 * time.Millisecond); got != 25*time.Millisecond {
		t.Fatalf("Add() credited %v", got)
	}
	ticks := 0
	for f.Ready() {
		f.Consume()
		ticks++
	}
	if ticks != 2 || f.Pending() != 5*time.Millisecond {
		t.Fatalf("ticks %d pending %v", ticks, f.Pending())
	}
	if got := f.Add(time.Second); got != DefaultMaxDelta {
		t.Fatalf("Add(1s) credited %v, want %v", got, DefaultMaxDelta)
	}
	if got := f.Add(-time.Second); got != 0 {
		t.Fatalf("Add(negative) credited %v", got)
	}
	f.SetMaxDelta(20 * time.Millisecond)
	if got := f.Add(time.Second); got != 20*time.Millisecond {
		t.Fatalf("Add(1s) after SetMaxDelta credited %v", got)
	}
	f.Reset()
	if f.Pending() != 0 {
		t.Fatal("Reset kept pending time")
	}
}

func TestFixedStepElapsed(t *testing.T) {
	f := NewFixedStep(0)
	if f.Step() != time.Second/DefaultTPS {
		t.Fatalf("default step %v", f.Step())
	}
	now := time.Unix(100, 0)
	if f.Elapsed(now) != 0 {
		t.Fatal("first sample is not zero")
	}
	if got := f.Elapsed(now.Add(30 * time.Millisecond)); got != 30*time.Millisecond {
		t.Fatalf("Elapsed() = %v", got)
	}
}

func TestCellNoiseDeterministic(t *testing.T) {
	a := CellNoise(1, 2, 3, 4)
	if a != CellNoise(1, 2, 3, 4) {
		t.Fatal("noise is not deterministic")
	}
	if a == CellNoise(1, 3, 3, 4) && a == CellNoise(1, 2, 4, 4) {
		t.Fatal("noise ignores frame and position")
	}
	for x := range 64 {
		if c := CellChance(7, 1, x, 0); c < 0 || c >= 1 {
			t.Fatalf("CellChance = %v", c)
		}
	}
}

func TestLoggerSwap(t *testing.T) {
	defer SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("default logger is enabled")
	}
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	Logger().Info("registry loaded", "elements", 3)
	if !strings.Contains(buf.String(), "registry loaded") {
		t.Fatalf("log output %q", buf.String())
	}
	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("SetLogger(nil) did not restore the silent logger")
	}
}

func TestParameterLookup(t *testing.T) {
	s := ParameterSnapshot{Groups: []ParameterGroup{
		{Name: "a", Params: []Parameter{{Key: "x", Value: "1"}}},
		{Name: "b", Params: []Parameter{{Key: "y", Value: "2"}}},
	}}
	if p, ok := s.Lookup("y"); !ok || p.Value != "2" {
		t.Fatalf("Lookup(y) = %+v, %v", p, ok)
	}
	if _, ok := s.Lookup("z"); ok {
		t.Fatal("Lookup(z) found a parameter")
	}
}
