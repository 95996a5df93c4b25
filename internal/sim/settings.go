package sim

import "mad-sand/internal/registry"

// Bounds for StepsPerFrame as exposed to UIs.
const (
	MinStepsPerFrame = 1
	MaxStepsPerFrame = 10
)

// UseElementViscosity marks a category override as unset.
const UseElementViscosity = -1

// Settings are the simulation tunables. The engine owns them and mutates
// them only between frames.
type Settings struct {
	StepsPerFrame int
	// Viscosity overrides the per-element value for a whole category when
	// not UseElementViscosity.
	Viscosity [registry.NumCategories]float32
}

// DefaultSettings returns one step per tick and no viscosity overrides.
func DefaultSettings() Settings {
	s := Settings{StepsPerFrame: 1}
	for i := range s.Viscosity {
		s.Viscosity[i] = UseElementViscosity
	}
	return s
}

// Steps returns StepsPerFrame clamped to its valid range.
func (s Settings) Steps() int {
	return min(max(s.StepsPerFrame, MinStepsPerFrame), MaxStepsPerFrame)
}

// ViscosityOf resolves the effective viscosity for an element.
func (s Settings) ViscosityOf(a registry.Attributes) float32 {
	if a.Category >= 0 && int(a.Category) < len(s.Viscosity) {
		if v := s.Viscosity[a.Category]; v >= 0 {
			return v
		}
	}
	return a.Viscosity
}
