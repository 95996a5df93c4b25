// Package brush turns pointer input into cell writes.
package brush

import (
	"fmt"
	"strings"

	"mad-sand/internal/core"
)

// Shape selects the footprint of a stroke.
type Shape int

const (
	Circle Shape = iota
	Square
	Star
)

// Brush size limits offered to UIs.
const (
	MinSize     = 1
	MaxSize     = 15
	DefaultSize = 3
)

var shapeNames = [...]string{"Circle", "Square", "Star"}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// Shapes lists every shape in UI order.
func Shapes() []Shape { return []Shape{Circle, Square, Star} }

// ParseShape maps a shape name to its value, ignoring case.
func ParseShape(name string) (Shape, bool) {
	for i, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return Shape(i), true
		}
	}
	return Circle, false
}

// Offset is a cell displacement from the stroke center.
type Offset struct{ DX, DY int }

// Offsets enumerates the footprint of shape at radius size, row by row.
// Negative sizes are treated as zero.
func Offsets(shape Shape, size int) []Offset {
	size = max(size, 0)
	out := make([]Offset, 0, (2*size+1)*(2*size+1))
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			if covers(shape, dx, dy, size) {
				out = append(out, Offset{dx, dy})
			}
		}
	}
	return out
}

func covers(shape Shape, dx, dy, size int) bool {
	switch shape {
	case Square:
		return true
	case Star:
		return abs(dx)+abs(dy) <= size
	default:
		return dx*dx+dy*dy <= size*size
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// CellWriter receives brush writes. Out of range coordinates must be ignored.
type CellWriter interface {
	WriteCell(x, y int, c core.Cell) error
}

// Stroke is one frame's worth of brush application in world coordinates.
type Stroke struct {
	X, Y    int
	Element uint8
	Erase   bool
	Shape   Shape
	Size    int
}

// Cell returns the value written at every covered coordinate.
func (s Stroke) Cell() core.Cell {
	if s.Erase {
		return core.Empty
	}
	return core.Placed(s.Element)
}

// Apply writes the stroke into w and stops at the first error.
func Apply(w CellWriter, s Stroke) error {
	c := s.Cell()
	for _, o := range Offsets(s.Shape, s.Size) {
		if err := w.WriteCell(s.X+o.DX, s.Y+o.DY, c); err != nil {
			return fmt.Errorf("brush: write (%d,%d): %w", s.X+o.DX, s.Y+o.DY, err)
		}
	}
	return nil
}
