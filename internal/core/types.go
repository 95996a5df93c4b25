package core

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Area returns the number of cells covered by the size.
func (s Size) Area() int { return s.W * s.H }

// Contains reports whether (x, y) lies inside [0,W)×[0,H).
func (s Size) Contains(x, y int) bool {
	return x >= 0 && x < s.W && y >= 0 && y < s.H
}

// CellChannels is the number of byte channels stored per cell.
const CellChannels = 4

// Neutral velocity byte written for freshly placed cells.
const VelocityRest = 128

// Cell is one grid coordinate's element id plus auxiliary state. The channel
// layout matches an RGBA8UI texel: R element, G life, B velocity, A flags.
type Cell struct {
	Element  uint8
	Life     uint8
	Velocity uint8
	Flags    uint8
}

// Empty is the zero cell: element 0 with no auxiliary state.
var Empty = Cell{}

// Placed returns the default cell written when an element is placed by hand.
func Placed(element uint8) Cell {
	return Cell{Element: element, Velocity: VelocityRest}
}

// IsEmpty reports whether the cell holds the empty element.
func (c Cell) IsEmpty() bool { return c.Element == 0 }
