package render

import "mad-sand/internal/registry"

// Tunable ranges exposed to UIs.
const (
	MinGlowIntensity = 0.1
	MaxGlowIntensity = 2
	MinGlowRadius    = 2
	MaxGlowRadius    = 20
	MaxSpecular      = 2
	MaxLightBounces  = 6
)

// Settings are the per-frame render tunables. The pipeline snapshots them at
// the start of every frame.
type Settings struct {
	Background    registry.Color
	GlowEnabled   bool
	GlowIntensity float32
	GlowRadius    float32
	Ambient       float32
	Specular      float32
	LightBounces  int
}

// DefaultSettings mirrors the stock look: dark background, glow on, two
// bounces.
func DefaultSettings() Settings {
	return Settings{
		Background:    registry.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
		GlowEnabled:   true,
		GlowIntensity: 1,
		GlowRadius:    8,
		Ambient:       0.35,
		Specular:      0.5,
		LightBounces:  2,
	}
}

// Clamped returns s with every tunable forced into its valid range.
func (s Settings) Clamped() Settings {
	s.GlowIntensity = clampf(s.GlowIntensity, MinGlowIntensity, MaxGlowIntensity)
	s.GlowRadius = clampf(s.GlowRadius, MinGlowRadius, MaxGlowRadius)
	s.Ambient = clampf(s.Ambient, 0, 1)
	s.Specular = clampf(s.Specular, 0, MaxSpecular)
	s.LightBounces = min(max(s.LightBounces, 0), MaxLightBounces)
	return s
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
