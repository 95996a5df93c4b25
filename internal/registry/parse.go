package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// declaration mirrors one catalog entry. Fields absent from the source keep
// the values set by newDeclaration.
type declaration struct {
	ID             *int        `json:"id"`
	Color          *[4]float32 `json:"color"`
	Type           string      `json:"type"`
	Density        float32     `json:"density"`
	Viscosity      float32     `json:"viscosity"`
	Flammable      bool        `json:"flammable"`
	BurnChance     float32     `json:"burnChance"`
	Glow           bool        `json:"glow"`
	Life           int32       `json:"life"`
	Gemstone       bool        `json:"gemstone"`
	LightRadius    float32     `json:"lightRadius"`
	LightIntensity float32     `json:"lightIntensity"`
	IOR            float32     `json:"ior"`
	SingleClick    bool        `json:"singleClick"`
}

func newDeclaration() declaration {
	return declaration{
		Type:    Static.String(),
		Density: 10,
		IOR:     1.45,
	}
}

func (d declaration) attributes() Attributes {
	a := Attributes{
		Color:          Magenta,
		Category:       ParseCategory(d.Type),
		Density:        d.Density,
		Viscosity:      d.Viscosity,
		BurnChance:     d.BurnChance,
		Flammable:      d.Flammable,
		Glow:           d.Glow,
		MaxLife:        d.Life,
		Gemstone:       d.Gemstone,
		LightRadius:    d.LightRadius,
		LightIntensity: d.LightIntensity,
		IOR:            d.IOR,
	}
	if d.Color != nil {
		c := *d.Color
		a.Color = Color{R: c[0], G: c[1], B: c[2], A: c[3]}
	}
	return a
}

type namedDecl struct {
	name string
	decl declaration
}

// Parse builds a registry from a JSON catalog read from r.
func Parse(r io.Reader) (*Registry, error) {
	return parse(r, "<reader>")
}

func parse(r io.Reader, source string) (*Registry, error) {
	decls, err := decodeCatalog(r)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return build(source, decls)
}

// decodeCatalog walks the top-level object token by token so duplicate names
// are caught instead of silently overwritten.
func decodeCatalog(r io.Reader) ([]namedDecl, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	seen := make(map[string]bool)
	var out []namedDecl
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read element name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if seen[name] {
			return nil, fmt.Errorf("element %q: %w", name, ErrDuplicateName)
		}
		seen[name] = true

		d := newDeclaration()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("element %q: %w", name, err)
		}
		if d.ID == nil {
			return nil, fmt.Errorf("element %q: %w", name, ErrMissingID)
		}
		out = append(out, namedDecl{name: name, decl: d})
	}
	end, err := dec.Token()
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog end: %w", err)
	}
	if d, ok := end.(json.Delim); !ok || d != '}' {
		return nil, fmt.Errorf("unexpected token %v after last element", end)
	}
	return out, nil
}
