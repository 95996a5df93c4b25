// Command sand-sweep drops a block of liquid onto the floor of a headless
// world for a grid of viscosity and speed settings, and reports how far it
// spreads and when it settles.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
	"mad-sand/internal/registry"
	"mad-sand/internal/sim"
	"mad-sand/internal/world"
)

type paramSet struct {
	viscosity float32
	steps     int
}

func (p paramSet) String() string {
	return fmt.Sprintf("viscosity=%.2f stepsPerFrame=%d", p.viscosity, p.steps)
}

type scenarioResult struct {
	params    paramSet
	spread    int
	settledAt int
	mass      int
	lost      int
	err       error
}

type scenario struct {
	reg     *registry.Registry
	liquid  uint8
	width   int
	height  int
	block   int
	frames  int
	seed    uint64
	elapsed time.Duration
}

func main() {
	elements := flag.String("elements", "data/elements.json", "element catalog (JSON)")
	liquid := flag.String("liquid", "water", "element to pour")
	frames := flag.Int("frames", 240, "frames to simulate per scenario")
	workers := flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	flag.Parse()

	reg, err := registry.Load(*elements)
	if err != nil {
		log.Fatalf("sand-sweep: %v", err)
	}
	id := reg.IDOf(*liquid)
	if id == registry.NotFound {
		log.Fatalf("sand-sweep: unknown element %q", *liquid)
	}
	sc := scenario{reg: reg, liquid: uint8(id), width: 160, height: 60, block: 6, frames: *frames, seed: sim.DefaultSeed}

	var sets []paramSet
	for _, v := range []float32{0, 0.2, 0.4, 0.6, 0.8} {
		for _, n := range []int{1, 2, 4} {
			sets = append(sets, paramSet{viscosity: v, steps: n})
		}
	}

	fmt.Printf("Sweeping %d parameter sets (%d workers, %d frames)\n", len(sets), *workers, *frames)

	jobs := make(chan paramSet)
	results := make(chan scenarioResult)
	var wg sync.WaitGroup

	for i := 0; i < max(*workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- sc.run(params)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	start := time.Now()
	var all []scenarioResult
	for res := range results {
		if res.err != nil {
			log.Fatalf("sand-sweep: %s: %v", res.params, res.err)
		}
		if res.lost != 0 {
			fmt.Printf("Mass changed by %d with %s\n", res.lost, res.params)
		}
		all = append(all, res)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].spread != all[j].spread {
			return all[i].spread > all[j].spread
		}
		return all[i].settledAt < all[j].settledAt
	})
	fmt.Printf("\nResults (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	for i, res := range all {
		settled := "never"
		if res.settledAt >= 0 {
			settled = fmt.Sprintf("frame %d", res.settledAt)
		}
		fmt.Printf("%2d) spread=%d settled=%s mass=%d %s\n", i+1, res.spread, settled, res.mass, res.params)
	}
}

// run pours a square block of liquid in the middle of the top of the world
// and advances it frames times.
func (s scenario) run(params paramSet) scenarioResult {
	res := scenarioResult{params: params, settledAt: -1}
	grid := world.New(s.width, s.height)
	kernel := sim.NewHostKernel()
	defer kernel.Close()
	sched := sim.NewScheduler(grid, kernel, s.reg)
	sched.SetSeed(s.seed)

	device := gpu.NewHostDevice()
	defer device.Close()
	table, err := s.reg.Publish(device)
	if err == nil {
		err = sched.BindTable(device, table)
	}
	if err != nil {
		res.err = err
		return res
	}

	stroke := brush.Stroke{X: s.width / 2, Y: s.height - 1 - s.block, Element: s.liquid, Shape: brush.Square, Size: s.block}
	if err := brush.Apply(grid, stroke); err != nil {
		res.err = err
		return res
	}
	res.mass = count(grid.Current(), s.liquid)

	settings := sim.DefaultSettings()
	settings.StepsPerFrame = params.steps
	settings.Viscosity[registry.Liquid] = params.viscosity

	frame := sched.Clock().Step()
	prev := append([]byte(nil), grid.Current().Bytes()...)
	for f := 0; f < s.frames; f++ {
		if _, err := sched.Update(frame, &settings); err != nil {
			res.err = err
			return res
		}
		cur := grid.Current().Bytes()
		if bytes.Equal(cur, prev) {
			if res.settledAt < 0 {
				res.settledAt = f
			}
		} else {
			res.settledAt = -1
		}
		prev = append(prev[:0], cur...)
	}
	res.spread = spread(grid.Current(), s.liquid)
	res.lost = res.mass - count(grid.Current(), s.liquid)
	return res
}

func count(v core.CellView, id uint8) int {
	total := 0
	size := v.Size()
	for y := range size.H {
		for x := range size.W {
			if v.Element(x, y) == id {
				total++
			}
		}
	}
	return total
}

// spread is the width of the liquid's footprint on the bottom row.
func spread(v core.CellView, id uint8) int {
	size := v.Size()
	lo, hi := size.W, -1
	for x := range size.W {
		if v.Element(x, 0) == id {
			lo = min(lo, x)
			hi = max(hi, x)
		}
	}
	if hi < 0 {
		return 0
	}
	return hi - lo + 1
}
