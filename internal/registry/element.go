package registry

import (
	"encoding/binary"
	"math"
)

// Category is the coarse movement class of an element.
type Category int32

const (
	Static Category = iota
	Granular
	Liquid
	Gas
)

// NumCategories is the number of defined categories.
const NumCategories = 4

var categoryNames = [...]string{"Static", "Granular", "Liquid", "Gas"}

// ParseCategory maps a declared type string to a Category. Unknown strings
// fall back to Static.
func ParseCategory(s string) Category {
	for i, n := range categoryNames {
		if n == s {
			return Category(i)
		}
	}
	return Static
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Unknown"
	}
	return categoryNames[c]
}

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Magenta is the sentinel color for ids nobody declared.
var Magenta = Color{R: 1, G: 0, B: 1, A: 1}

// RGBA8 converts the color to 8-bit channels.
func (c Color) RGBA8() (r, g, b, a uint8) {
	return unit8(c.R), unit8(c.G), unit8(c.B), unit8(c.A)
}

// Luminance returns the perceived brightness used to pick readable label text.
func (c Color) Luminance() float32 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

func unit8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Attributes is one element's record in the attribute table shared with the
// kernels.
type Attributes struct {
	Color          Color
	Category       Category
	Density        float32
	Viscosity      float32
	BurnChance     float32
	Flammable      bool
	Glow           bool
	MaxLife        int32
	Gemstone       bool
	LightRadius    float32
	LightIntensity float32
	IOR            float32
}

// RecordSize is the std430 size of one encoded Attributes record.
//
//	offset  0 vec4  color
//	offset 16 int   category
//	offset 20 float density
//	offset 24 float viscosity
//	offset 28 float burn chance
//	offset 32 int   flammable
//	offset 36 int   glow
//	offset 40 int   max life
//	offset 44 int   gemstone
//	offset 48 float light radius
//	offset 52 float light intensity
//	offset 56 float ior
//	offset 60 int   padding
const RecordSize = 64

func sentinelAttributes() Attributes {
	return Attributes{Color: Magenta, Category: Static, IOR: 1}
}

// AppendBinary appends the std430 encoding of a to b.
func (a Attributes) AppendBinary(b []byte) []byte {
	le := binary.LittleEndian
	b = le.AppendUint32(b, math.Float32bits(a.Color.R))
	b = le.AppendUint32(b, math.Float32bits(a.Color.G))
	b = le.AppendUint32(b, math.Float32bits(a.Color.B))
	b = le.AppendUint32(b, math.Float32bits(a.Color.A))
	b = le.AppendUint32(b, uint32(a.Category))
	b = le.AppendUint32(b, math.Float32bits(a.Density))
	b = le.AppendUint32(b, math.Float32bits(a.Viscosity))
	b = le.AppendUint32(b, math.Float32bits(a.BurnChance))
	b = le.AppendUint32(b, boolWord(a.Flammable))
	b = le.AppendUint32(b, boolWord(a.Glow))
	b = le.AppendUint32(b, uint32(a.MaxLife))
	b = le.AppendUint32(b, boolWord(a.Gemstone))
	b = le.AppendUint32(b, math.Float32bits(a.LightRadius))
	b = le.AppendUint32(b, math.Float32bits(a.LightIntensity))
	b = le.AppendUint32(b, math.Float32bits(a.IOR))
	b = le.AppendUint32(b, 0)
	return b
}

// DecodeAttributes parses one std430 record. The slice must hold at least
// RecordSize bytes.
func DecodeAttributes(b []byte) Attributes {
	le := binary.LittleEndian
	f := func(off int) float32 { return math.Float32frombits(le.Uint32(b[off:])) }
	return Attributes{
		Color:          Color{R: f(0), G: f(4), B: f(8), A: f(12)},
		Category:       Category(le.Uint32(b[16:])),
		Density:        f(20),
		Viscosity:      f(24),
		BurnChance:     f(28),
		Flammable:      le.Uint32(b[32:]) != 0,
		Glow:           le.Uint32(b[36:]) != 0,
		MaxLife:        int32(le.Uint32(b[40:])),
		Gemstone:       le.Uint32(b[44:]) != 0,
		LightRadius:    f(48),
		LightIntensity: f(52),
		IOR:            f(56),
	}
}

// DecodeTable parses a full encoded table.
func DecodeTable(b []byte) []Attributes {
	out := make([]Attributes, 0, len(b)/RecordSize)
	for off := 0; off+RecordSize <= len(b); off += RecordSize {
		out = append(out, DecodeAttributes(b[off:off+RecordSize]))
	}
	return out
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
