package app

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/sim"
)

// Config represents the command-line parameters shared by the front-ends.
type Config struct {
	Elements string
	Width    int
	Height   int
	Scale    int
	TPS      int
	Kernel   string
	Backend  string
	Seed     uint64
	Shape    string
	Verbose  bool
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Elements: "data/elements.json",
		Width:    200,
		Height:   150,
		Scale:    4,
		TPS:      core.DefaultTPS,
		Kernel:   sim.HostKernelName,
		Backend:  "ebiten",
		Seed:     sim.DefaultSeed,
		Shape:    brush.Circle.String(),
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Elements, "elements", c.Elements, "element catalog (JSON)")
	fs.IntVar(&c.Width, "width", c.Width, "world width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "world height in cells")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "simulation steps per second")
	fs.StringVar(&c.Kernel, "kernel", c.Kernel, "step kernel ("+kernelNames()+")")
	fs.StringVar(&c.Backend, "backend", c.Backend, "render backend (ebiten, host)")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "noise seed for the step kernel")
	fs.StringVar(&c.Shape, "shape", c.Shape, "initial brush shape (circle, square, star)")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "log lifecycle events to stderr")
}

// Apply copies the session-level options onto a running engine.
func (c *Config) Apply(e *engine.Engine) error {
	shape, ok := brush.ParseShape(c.Shape)
	if !ok {
		return fmt.Errorf("app: unknown brush shape %q", c.Shape)
	}
	e.Settings().Shape = shape
	e.Scheduler().SetSeed(c.Seed)
	return nil
}

// InstallLogger routes library logging to stderr when Verbose is set.
func (c *Config) InstallLogger() {
	if !c.Verbose {
		return
	}
	core.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func kernelNames() string { return strings.Join(sim.Kernels(), ", ") }
