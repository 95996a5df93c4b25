package ui

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"mad-sand/internal/core"
	"mad-sand/internal/engine"
	"mad-sand/internal/registry"
	"mad-sand/internal/render"
)

// Target is the session the tool panel drives.
type Target interface {
	core.ParameterProvider
	core.ParameterControlsProvider
	Status() string
}

// Action reports what a click on the panel did.
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionAdjust
	ActionToggle
	ActionClear
)

// Panel holds the layout and click handling of the tool panel. Coordinates
// are panel-local pixels.
type Panel struct {
	target   Target
	width    int
	height   int
	snapshot core.ParameterSnapshot
	selected int

	swatches  []swatch
	controls  []controlState
	clearRect image.Rectangle

	intSetter   core.IntParameterSetter
	floatSetter core.FloatParameterSetter
	boolSetter  core.BoolParameterSetter
}

type swatch struct {
	entry registry.PaletteEntry
	rect  image.Rectangle
}

type controlState struct {
	control core.ParameterControl
	value   string

	intValue   int
	floatValue float64
	boolValue  bool
	hasValue   bool

	top        int
	minusRect  image.Rectangle
	plusRect   image.Rectangle
	toggleRect image.Rectangle
}

// NewPanel lays out one swatch per palette entry followed by the target's
// controls and a clear button.
func NewPanel(target Target, palette []registry.PaletteEntry, width int) *Panel {
	p := &Panel{target: target, width: max(width, 0), selected: registry.NotFound}
	p.swatches = make([]swatch, len(palette))
	for i, e := range palette {
		p.swatches[i].entry = e
	}
	for _, ctrl := range target.ParameterControls() {
		p.controls = append(p.controls, controlState{control: ctrl, value: "--"})
	}
	p.intSetter, _ = target.(core.IntParameterSetter)
	p.floatSetter, _ = target.(core.FloatParameterSetter)
	p.boolSetter, _ = target.(core.BoolParameterSetter)
	p.layout()
	p.Refresh()
	return p
}

// Width returns the panel width.
func (p *Panel) Width() int { return p.width }

// Height returns the height the panel content needs.
func (p *Panel) Height() int { return p.height }

// Selected returns the highlighted element id.
func (p *Panel) Selected() int { return p.selected }

func (p *Panel) layout() {
	inner := p.width - 2*panelPadding
	swW := max((inner-swatchGap*(swatchColumns-1))/swatchColumns, 0)
	top := panelPadding + headerBaseline + sectionGap
	for i := range p.swatches {
		col, row := i%swatchColumns, i/swatchColumns
		x := panelPadding + col*(swW+swatchGap)
		y := top + row*(swatchHeight+swatchGap)
		p.swatches[i].rect = image.Rect(x, y, x+swW, y+swatchHeight)
	}
	rows := (len(p.swatches) + swatchColumns - 1) / swatchColumns
	top += rows*(swatchHeight+swatchGap) + sectionGap

	for i := range p.controls {
		ctop := top + i*lineHeight
		buttonY := ctop + (lineHeight-buttonSize)/2
		plus := image.Rect(p.width-panelPadding-buttonSize, buttonY, p.width-panelPadding, buttonY+buttonSize)
		minus := image.Rect(plus.Min.X-buttonGap-buttonSize, buttonY, plus.Min.X-buttonGap, buttonY+buttonSize)
		c := &p.controls[i]
		c.top = ctop
		c.minusRect = minus
		c.plusRect = plus
		c.toggleRect = image.Rect(minus.Min.X, buttonY, plus.Max.X, buttonY+buttonSize)
	}
	top += len(p.controls)*lineHeight + sectionGap
	p.clearRect = image.Rect(panelPadding, top, p.width-panelPadding, top+buttonSize)
	p.height = p.clearRect.Max.Y + panelPadding
}

// Refresh re-reads every control value from the target.
func (p *Panel) Refresh() {
	p.snapshot = p.target.Parameters()
	if sel, ok := p.snapshot.Lookup(engine.KeyElement); ok {
		if id, err := strconv.Atoi(sel.Value); err == nil {
			p.selected = id
		}
	}
	for i := range p.controls {
		c := &p.controls[i]
		c.hasValue = false
		c.value = "--"
		param, ok := p.snapshot.Lookup(c.control.Key)
		if !ok {
			continue
		}
		switch c.control.Type {
		case core.ParamTypeInt:
			v, err := strconv.Atoi(param.Value)
			if err != nil {
				continue
			}
			c.intValue = v
			c.floatValue = float64(v)
			c.value = strconv.Itoa(v)
		case core.ParamTypeFloat:
			v, err := strconv.ParseFloat(param.Value, 64)
			if err != nil {
				continue
			}
			c.floatValue = v
			c.value = formatFloat(c.control, v)
		case core.ParamTypeBool:
			v, err := strconv.ParseBool(param.Value)
			if err != nil {
				continue
			}
			c.boolValue = v
			c.value = "off"
			if v {
				c.value = "on"
			}
		default:
			continue
		}
		if param.Description != "" && c.control.Type != core.ParamTypeBool {
			c.value = param.Description
		}
		c.hasValue = true
	}
}

// Click handles a primary press at panel-local (x, y). ActionClear is left
// to the caller so the clear happens in frame order.
func (p *Panel) Click(x, y int) Action {
	pt := image.Pt(x, y)
	for _, s := range p.swatches {
		if !pt.In(s.rect) {
			continue
		}
		if p.intSetter != nil && p.intSetter.SetIntParameter(engine.KeyElement, s.entry.ID) {
			p.selected = s.entry.ID
			return ActionSelect
		}
		return ActionNone
	}
	if pt.In(p.clearRect) {
		return ActionClear
	}
	for i := range p.controls {
		c := &p.controls[i]
		if !c.hasValue {
			continue
		}
		if c.control.Type == core.ParamTypeBool {
			if pt.In(c.toggleRect) && p.toggle(c) {
				return ActionToggle
			}
			continue
		}
		if pt.In(c.minusRect) && p.adjust(c, -1) {
			return ActionAdjust
		}
		if pt.In(c.plusRect) && p.adjust(c, 1) {
			return ActionAdjust
		}
	}
	return ActionNone
}

func (p *Panel) toggle(c *controlState) bool {
	if p.boolSetter == nil || !p.boolSetter.SetBoolParameter(c.control.Key, !c.boolValue) {
		return false
	}
	p.Refresh()
	return true
}

func (p *Panel) adjust(c *controlState, dir int) bool {
	target, ok := c.next(dir)
	if !ok {
		return false
	}
	switch c.control.Type {
	case core.ParamTypeInt:
		if p.intSetter == nil || !p.intSetter.SetIntParameter(c.control.Key, int(math.Round(target))) {
			return false
		}
	case core.ParamTypeFloat:
		if p.floatSetter == nil || !p.floatSetter.SetFloatParameter(c.control.Key, target) {
			return false
		}
	default:
		return false
	}
	p.Refresh()
	return true
}

func (p *Panel) canAdjust(c *controlState, dir int) bool {
	if !c.hasValue {
		return false
	}
	switch c.control.Type {
	case core.ParamTypeInt:
		if p.intSetter == nil {
			return false
		}
	case core.ParamTypeFloat:
		if p.floatSetter == nil {
			return false
		}
	default:
		return false
	}
	_, ok := c.next(dir)
	return ok
}

// next returns the value one step away in direction dir, clamped to the
// control bounds. It reports false when already at the bound.
func (c *controlState) next(dir int) (float64, bool) {
	step := c.control.Step
	if c.control.Type == core.ParamTypeInt {
		step = math.Round(step)
		if step <= 0 {
			step = 1
		}
	} else if step <= 0 {
		step = 0.05
	}
	cur := c.floatValue
	target := cur + float64(dir)*step
	if c.control.HasMin {
		target = math.Max(target, c.control.Min)
	}
	if c.control.HasMax {
		target = math.Min(target, c.control.Max)
	}
	if math.Abs(target-cur) < 1e-9 {
		return cur, false
	}
	return target, true
}

func formatFloat(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// swatchFill is the button colour for an element. Transparent elements
// such as the eraser get a neutral fill.
func swatchFill(c registry.Color) color.RGBA {
	if c.A <= 0 {
		return color.RGBA{R: 48, G: 48, B: 56, A: 255}
	}
	fill := render.RGBA(c)
	fill.A = 255
	return fill
}

// swatchText picks dark text on light swatches and light text otherwise.
func swatchText(c registry.Color) color.RGBA {
	if c.A > 0 && c.Luminance() > 0.5 {
		return color.RGBA{R: 16, G: 16, B: 20, A: 255}
	}
	return color.RGBA{R: 235, G: 235, B: 240, A: 255}
}

const (
	panelPadding   = 12
	lineHeight     = 28
	buttonSize     = 20
	buttonGap      = 6
	headerBaseline = 18
	labelBaseline  = 18
	sectionGap     = 10
	swatchColumns  = 2
	swatchHeight   = 20
	swatchGap      = 6
)
