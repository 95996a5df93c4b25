package core

// CellGrid stores a 2D grid of 4-channel cells in row-major order, row 0 at
// the bottom of the world.
type CellGrid struct {
	W, H int
	data []uint8
}

// NewCellGrid allocates a zeroed grid with the given dimensions.
func NewCellGrid(w, h int) *CellGrid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &CellGrid{W: w, H: h, data: make([]uint8, w*h*CellChannels)}
}

// Size reports the grid dimensions.
func (g *CellGrid) Size() Size { return Size{W: g.W, H: g.H} }

// Bytes exposes the backing slice (4 bytes per cell) for bulk upload and
// kernel dispatch.
func (g *CellGrid) Bytes() []uint8 { return g.data }

// Index returns the byte offset of cell (x, y).
func (g *CellGrid) Index(x, y int) int { return (y*g.W + x) * CellChannels }

// In reports whether (x, y) is inside the grid.
func (g *CellGrid) In(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// At returns the cell at (x, y). Out of range coordinates read as Empty.
func (g *CellGrid) At(x, y int) Cell {
	if !g.In(x, y) {
		return Empty
	}
	i := g.Index(x, y)
	return Cell{Element: g.data[i], Life: g.data[i+1], Velocity: g.data[i+2], Flags: g.data[i+3]}
}

// Element returns only the element channel at (x, y), or 0 out of range.
func (g *CellGrid) Element(x, y int) uint8 {
	if !g.In(x, y) {
		return 0
	}
	return g.data[g.Index(x, y)]
}

// Set writes the cell at (x, y) and reports whether the coordinates were in
// range.
func (g *CellGrid) Set(x, y int, c Cell) bool {
	if !g.In(x, y) {
		return false
	}
	i := g.Index(x, y)
	g.data[i] = c.Element
	g.data[i+1] = c.Life
	g.data[i+2] = c.Velocity
	g.data[i+3] = c.Flags
	return true
}

// Clear fills the grid with zeros.
func (g *CellGrid) Clear() {
	clear(g.data)
}

// CopyFrom overwrites the grid with src. Both grids must share dimensions.
func (g *CellGrid) CopyFrom(src *CellGrid) {
	copy(g.data, src.data)
}

// View returns a read-only accessor over the grid.
func (g *CellGrid) View() CellView { return CellView{g: g} }

// CellView is a read-only window onto a CellGrid handed to kernels and
// renderers that must not mutate the current buffer.
type CellView struct {
	g *CellGrid
}

// Valid reports whether the view refers to a grid.
func (v CellView) Valid() bool { return v.g != nil }

// Size reports the grid dimensions.
func (v CellView) Size() Size { return v.g.Size() }

// At returns the cell at (x, y); out of range reads as Empty.
func (v CellView) At(x, y int) Cell { return v.g.At(x, y) }

// Element returns the element channel at (x, y); out of range reads as 0.
func (v CellView) Element(x, y int) uint8 { return v.g.Element(x, y) }

// Bytes returns the raw backing slice. Callers must treat it as read-only;
// it exists so backends can upload the buffer without a copy.
func (v CellView) Bytes() []uint8 { return v.g.data }
