package engine

import (
	"math"
	"strconv"

	"mad-sand/internal/brush"
	"mad-sand/internal/core"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"
	"mad-sand/internal/sim"
)

// Parameter keys understood by the setters.
const (
	KeyElement        = "element"
	KeyBrushSize      = "brush_size"
	KeyBrushShape     = "brush_shape"
	KeyStepsPerFrame  = "steps_per_frame"
	KeyViscosityLiq   = "viscosity_liquid"
	KeyViscosityGas   = "viscosity_gas"
	KeyGlow           = "glow"
	KeyGlowIntensity  = "glow_intensity"
	KeyGlowRadius     = "glow_radius"
	KeyAmbient        = "ambient"
	KeySpecular       = "specular"
	KeyLightBounces   = "light_bounces"
	KeyBackgroundGray = "background"
)

var _ core.ParameterProvider = (*Engine)(nil)
var _ core.ParameterControlsProvider = (*Engine)(nil)
var _ core.IntParameterSetter = (*Engine)(nil)
var _ core.FloatParameterSetter = (*Engine)(nil)
var _ core.BoolParameterSetter = (*Engine)(nil)

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float32) string { return strconv.FormatFloat(float64(v), 'f', 2, 32) }

// viscosityValue reports unset overrides as the control minimum so the HUD
// can step from there.
func viscosityValue(v float32) string {
	if v < 0 {
		return ftoa(viscosityUnset)
	}
	return ftoa(v)
}

func viscosityNote(v float32) string {
	if v < 0 {
		return "per element"
	}
	return "override"
}

const viscosityUnset = -0.1

// Parameters implements core.ParameterProvider.
func (e *Engine) Parameters() core.ParameterSnapshot {
	s := e.settings
	r := s.Render.Clamped()
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{
			Name: "Brush",
			Params: []core.Parameter{
				{Key: KeyElement, Label: "Element", Type: core.ParamTypeInt, Value: itoa(s.Selected), Description: e.reg.Label(s.Selected)},
				{Key: KeyBrushSize, Label: "Size", Type: core.ParamTypeInt, Value: itoa(s.Size)},
				{Key: KeyBrushShape, Label: "Shape", Type: core.ParamTypeInt, Value: itoa(int(s.Shape)), Description: s.Shape.String()},
			},
		},
		{
			Name: "Simulation",
			Params: []core.Parameter{
				{Key: KeyStepsPerFrame, Label: "Sim Speed", Type: core.ParamTypeInt, Value: itoa(s.Sim.Steps())},
				{Key: KeyViscosityLiq, Label: "Liquid Visc", Type: core.ParamTypeFloat, Value: viscosityValue(s.Sim.Viscosity[registry.Liquid]), Description: viscosityNote(s.Sim.Viscosity[registry.Liquid])},
				{Key: KeyViscosityGas, Label: "Gas Visc", Type: core.ParamTypeFloat, Value: viscosityValue(s.Sim.Viscosity[registry.Gas]), Description: viscosityNote(s.Sim.Viscosity[registry.Gas])},
			},
		},
		{
			Name: "Rendering",
			Params: []core.Parameter{
				{Key: KeyBackgroundGray, Label: "Background", Type: core.ParamTypeFloat, Value: ftoa(r.Background.Luminance())},
				{Key: KeyGlow, Label: "Glow", Type: core.ParamTypeBool, Value: strconv.FormatBool(r.GlowEnabled)},
				{Key: KeyGlowRadius, Label: "Glow Radius", Type: core.ParamTypeFloat, Value: ftoa(r.GlowRadius)},
				{Key: KeyGlowIntensity, Label: "Glow Power", Type: core.ParamTypeFloat, Value: ftoa(r.GlowIntensity)},
				{Key: KeyAmbient, Label: "Ambient", Type: core.ParamTypeFloat, Value: ftoa(r.Ambient)},
				{Key: KeySpecular, Label: "Specular", Type: core.ParamTypeFloat, Value: ftoa(r.Specular)},
				{Key: KeyLightBounces, Label: "Bounces", Type: core.ParamTypeInt, Value: itoa(r.LightBounces)},
			},
		},
	}}
}

// ParameterControls implements core.ParameterControlsProvider.
func (e *Engine) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: KeyBrushSize, Label: "Size", Type: core.ParamTypeInt, Step: 1, Min: brush.MinSize, Max: brush.MaxSize, HasMin: true, HasMax: true},
		{Key: KeyBrushShape, Label: "Shape", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: float64(len(brush.Shapes()) - 1), HasMin: true, HasMax: true},
		{Key: KeyStepsPerFrame, Label: "Sim Speed", Type: core.ParamTypeInt, Step: 1, Min: sim.MinStepsPerFrame, Max: sim.MaxStepsPerFrame, HasMin: true, HasMax: true},
		{Key: KeyViscosityLiq, Label: "Liquid Visc", Type: core.ParamTypeFloat, Step: 0.1, Min: viscosityUnset, Max: 1, HasMin: true, HasMax: true},
		{Key: KeyViscosityGas, Label: "Gas Visc", Type: core.ParamTypeFloat, Step: 0.1, Min: viscosityUnset, Max: 1, HasMin: true, HasMax: true},
		{Key: KeyBackgroundGray, Label: "Background", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: KeyGlow, Label: "Glow", Type: core.ParamTypeBool},
		{Key: KeyGlowRadius, Label: "Glow Radius", Type: core.ParamTypeFloat, Step: 1, Min: render.MinGlowRadius, Max: render.MaxGlowRadius, HasMin: true, HasMax: true},
		{Key: KeyGlowIntensity, Label: "Glow Power", Type: core.ParamTypeFloat, Step: 0.1, Min: render.MinGlowIntensity, Max: render.MaxGlowIntensity, HasMin: true, HasMax: true},
		{Key: KeyAmbient, Label: "Ambient", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
		{Key: KeySpecular, Label: "Specular", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, Max: render.MaxSpecular, HasMin: true, HasMax: true},
		{Key: KeyLightBounces, Label: "Bounces", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: render.MaxLightBounces, HasMin: true, HasMax: true},
	}
}

// SetIntParameter implements core.IntParameterSetter.
func (e *Engine) SetIntParameter(key string, value int) bool {
	s := &e.settings
	switch key {
	case KeyElement:
		return e.Select(value)
	case KeyBrushSize:
		s.Size = min(max(value, brush.MinSize), brush.MaxSize)
	case KeyBrushShape:
		shapes := brush.Shapes()
		s.Shape = shapes[min(max(value, 0), len(shapes)-1)]
	case KeyStepsPerFrame:
		s.Sim.StepsPerFrame = min(max(value, sim.MinStepsPerFrame), sim.MaxStepsPerFrame)
	case KeyLightBounces:
		s.Render.LightBounces = min(max(value, 0), render.MaxLightBounces)
	default:
		return false
	}
	return true
}

// SetFloatParameter implements core.FloatParameterSetter. Viscosity values
// below zero restore each element's own viscosity.
func (e *Engine) SetFloatParameter(key string, value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	v := float32(value)
	s := &e.settings
	switch key {
	case KeyViscosityLiq:
		s.Sim.Viscosity[registry.Liquid] = viscosityOverride(v)
	case KeyViscosityGas:
		s.Sim.Viscosity[registry.Gas] = viscosityOverride(v)
	case KeyBackgroundGray:
		g := min(max(v, 0), 1)
		s.Render.Background = registry.Color{R: g, G: g, B: g, A: 1}
	case KeyGlowRadius:
		s.Render.GlowRadius = v
	case KeyGlowIntensity:
		s.Render.GlowIntensity = v
	case KeyAmbient:
		s.Render.Ambient = v
	case KeySpecular:
		s.Render.Specular = v
	default:
		return false
	}
	s.Render = s.Render.Clamped()
	return true
}

func viscosityOverride(v float32) float32 {
	if v < 0 {
		return sim.UseElementViscosity
	}
	return min(v, 1)
}

// SetBoolParameter implements core.BoolParameterSetter.
func (e *Engine) SetBoolParameter(key string, value bool) bool {
	if key != KeyGlow {
		return false
	}
	e.settings.Render.GlowEnabled = value
	return true
}
