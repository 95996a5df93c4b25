package core

import "time"

// DefaultTPS is the fixed simulation tick rate.
const DefaultTPS = 60

// DefaultMaxDelta bounds the real time credited per update so a stall does not
// turn into an unbounded catch-up burst.
const DefaultMaxDelta = 100 * time.Millisecond

// FixedStep accumulates real elapsed time and releases it in fixed ticks.
type FixedStep struct {
	step        time.Duration
	maxDelta    time.Duration
	accumulator time.Duration
	last        time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{maxDelta: DefaultMaxDelta}
	fs.SetTPS(tps)
	return fs
}

// SetTPS changes the tick rate. It is safe to call from the main loop.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = DefaultTPS
	}
	f.step = time.Second / time.Duration(tps)
}

// SetMaxDelta changes the per-update clamp. Non-positive values restore the
// default.
func (f *FixedStep) SetMaxDelta(d time.Duration) {
	if d <= 0 {
		d = DefaultMaxDelta
	}
	f.maxDelta = d
}

// Step returns the fixed tick duration.
func (f *FixedStep) Step() time.Duration { return f.step }

// Clamp bounds dt to [0, maxDelta].
func (f *FixedStep) Clamp(dt time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if dt > f.maxDelta {
		return f.maxDelta
	}
	return dt
}

// Add credits clamped real time to the accumulator and returns the amount
// actually credited.
func (f *FixedStep) Add(dt time.Duration) time.Duration {
	dt = f.Clamp(dt)
	f.accumulator += dt
	return dt
}

// Ready reports whether at least one full tick is pending.
func (f *FixedStep) Ready() bool { return f.accumulator >= f.step }

// Consume removes one tick from the accumulator.
func (f *FixedStep) Consume() {
	f.accumulator -= f.step
	if f.accumulator < 0 {
		f.accumulator = 0
	}
}

// Pending returns the accumulated time not yet consumed.
func (f *FixedStep) Pending() time.Duration { return f.accumulator }

// Reset drops any accumulated time and forgets the last wall clock sample.
func (f *FixedStep) Reset() {
	f.accumulator = 0
	f.last = time.Time{}
}

// Elapsed samples the wall clock and returns the time since the previous
// sample; the first call returns zero.
func (f *FixedStep) Elapsed(now time.Time) time.Duration {
	if f.last.IsZero() {
		f.last = now
		return 0
	}
	delta := now.Sub(f.last)
	f.last = now
	return delta
}
