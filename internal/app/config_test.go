package app

import (
	"flag"
	"strings"
	"testing"

	"mad-sand/internal/brush"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
	"mad-sand/internal/sim"
)

func TestConfigDefaults(t *testing.T) {
	c := NewConfig()
	if c.Width <= 0 || c.Height <= 0 || c.Scale <= 0 {
		t.Fatalf("bad default size %+v", c)
	}
	if c.Kernel != sim.HostKernelName || c.Backend != "ebiten" {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestConfigBind(t *testing.T) {
	c := NewConfig()
	fs := flag.NewFlagSet("sand", flag.ContinueOnError)
	c.Bind(fs)
	args := []string{"-width", "64", "-height", "48", "-scale", "2", "-elements", "x.json", "-backend", "host", "-seed", "7", "-v"}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	if c.Width != 64 || c.Height != 48 || c.Scale != 2 || c.Elements != "x.json" || c.Backend != "host" || c.Seed != 7 || !c.Verbose {
		t.Fatalf("parsed config = %+v", c)
	}
	if usage := fs.Lookup("kernel").Usage; !strings.Contains(usage, sim.HostKernelName) {
		t.Fatalf("kernel usage %q does not list %q", usage, sim.HostKernelName)
	}
}

func TestConfigApply(t *testing.T) {
	reg, err := registry.Parse(strings.NewReader(`{"empty": {"id": 0}, "sand": {"id": 1, "type": "Granular"}}`))
	if err != nil {
		t.Fatal(err)
	}
	e, err := engine.New(engine.Options{Registry: reg, Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	c := NewConfig()
	c.Shape = "star"
	if err := c.Apply(e); err != nil {
		t.Fatal(err)
	}
	if e.Settings().Shape != brush.Star {
		t.Fatalf("shape = %v, want star", e.Settings().Shape)
	}
	c.Shape = "hexagon"
	if err := c.Apply(e); err == nil {
		t.Fatal("Apply accepted an unknown shape")
	}
}
