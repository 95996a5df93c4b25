package brush

// Viewport is the on-screen rectangle the world is drawn into, in window
// pixels with the origin at the top left.
type Viewport struct {
	X, Y, W, H int
}

// Contains reports whether the window pixel (px, py) is inside the viewport.
func (v Viewport) Contains(px, py int) bool {
	return px >= v.X && px < v.X+v.W && py >= v.Y && py < v.Y+v.H
}

// ToWorld maps a window pixel to a world cell. Row 0 of the world is the
// bottom of the viewport. Pixels outside the viewport are rejected.
func (v Viewport) ToWorld(px, py, gridW, gridH int) (x, y int, ok bool) {
	if v.W <= 0 || v.H <= 0 || !v.Contains(px, py) {
		return 0, 0, false
	}
	lx, ly := px-v.X, py-v.Y
	x = lx * gridW / v.W
	y = gridH - 1 - ly*gridH/v.H
	return x, y, true
}

// Pointer is the raw pointer state sampled once per frame.
type Pointer struct {
	X, Y      int
	Primary   bool
	Secondary bool
	// Captured is set when the UI owns the pointer this frame.
	Captured bool
}

// Selection is the brush configuration chosen in the UI.
type Selection struct {
	Element     uint8
	SingleClick bool
	Shape       Shape
	Size        int
}

// Translator turns per-frame pointer samples into strokes. It remembers the
// previous primary button state to detect press edges.
type Translator struct {
	view        Viewport
	gridW       int
	gridH       int
	prevPrimary bool
	drawing     bool
}

// NewTranslator maps pointers over view onto a gridW×gridH world.
func NewTranslator(view Viewport, gridW, gridH int) *Translator {
	return &Translator{view: view, gridW: gridW, gridH: gridH}
}

// SetViewport updates the mapping after a resize.
func (t *Translator) SetViewport(v Viewport) { t.view = v }

// Viewport returns the current mapping rectangle.
func (t *Translator) Viewport() Viewport { return t.view }

// Drawing reports whether the last Translate produced a stroke.
func (t *Translator) Drawing() bool { return t.drawing }

// Translate returns the stroke for this frame, if any. Erasing (secondary
// button or element 0) is continuous and wins over the single-click gate.
// Single-click elements place once, at size 0, on the frame the primary
// button goes down. The press edge is tracked even when the pointer is
// outside the viewport, but not while the UI has captured it.
func (t *Translator) Translate(p Pointer, sel Selection) (Stroke, bool) {
	t.drawing = false
	if p.Captured {
		return Stroke{}, false
	}
	pressed := p.Primary && !t.prevPrimary
	t.prevPrimary = p.Primary

	x, y, ok := t.view.ToWorld(p.X, p.Y, t.gridW, t.gridH)
	if !ok {
		return Stroke{}, false
	}

	erase := p.Secondary || (p.Primary && sel.Element == 0)
	var s Stroke
	switch {
	case erase:
		s = Stroke{X: x, Y: y, Erase: true, Shape: sel.Shape, Size: sel.Size}
	case sel.SingleClick:
		if !pressed {
			return Stroke{}, false
		}
		s = Stroke{X: x, Y: y, Element: sel.Element, Shape: sel.Shape, Size: 0}
	case p.Primary:
		s = Stroke{X: x, Y: y, Element: sel.Element, Shape: sel.Shape, Size: sel.Size}
	default:
		return Stroke{}, false
	}
	t.drawing = true
	return s, true
}
