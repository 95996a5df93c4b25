// Package registry loads the element catalog and exposes it as a dense
// attribute table, a name lookup, and a generated kernel header.
package registry

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"mad-sand/internal/core"
	"mad-sand/internal/gpu"
)

// NotFound is returned by IDOf for names that were never declared.
const NotFound = -1

// MaxID is the largest id that fits in a cell's element channel.
const MaxID = 255

// MaxLife is the largest lifetime the one-byte life channel can count to.
const MaxLife = 255

// EmptyName is the name given to id 0 when the catalog does not declare it.
const EmptyName = "empty"

var (
	ErrMissingID     = errors.New("missing id")
	ErrDuplicateName = errors.New("duplicate element name")
	ErrDuplicateID   = errors.New("duplicate element id")
	ErrNegativeID    = errors.New("negative element id")
	ErrIDRange       = errors.New("element id out of range")
	ErrLifeRange     = errors.New("element life out of range")
	ErrEmptyCatalog  = errors.New("catalog declares no elements")
)

// LoadError reports why a catalog could not be turned into a registry.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("registry: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry is the immutable element catalog for one session.
type Registry struct {
	attrs       []Attributes
	names       []string
	singleClick []bool
	ids         map[string]int
	source      string
}

// Load reads and parses the catalog at path.
func Load(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	r, err := parse(f, path)
	if err != nil {
		return nil, err
	}
	core.Logger().Info("registry loaded", "source", path, "elements", len(r.ids), "slots", r.Len())
	return r, nil
}

func build(source string, decls []namedDecl) (*Registry, error) {
	if len(decls) == 0 {
		return nil, &LoadError{Source: source, Err: ErrEmptyCatalog}
	}
	maxID := 0
	for _, d := range decls {
		id := *d.decl.ID
		if id < 0 {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("element %q: %w", d.name, ErrNegativeID)}
		}
		if id > MaxID {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("element %q: id %d: %w", d.name, id, ErrIDRange)}
		}
		if life := d.decl.Life; life > MaxLife {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("element %q: life %d: %w", d.name, life, ErrLifeRange)}
		}
		maxID = max(maxID, id)
	}

	n := maxID + 1
	r := &Registry{
		attrs:       make([]Attributes, n),
		names:       make([]string, n),
		singleClick: make([]bool, n),
		ids:         make(map[string]int, len(decls)),
		source:      source,
	}
	for i := range r.attrs {
		r.attrs[i] = sentinelAttributes()
	}

	for _, d := range decls {
		id := *d.decl.ID
		if prev := r.names[id]; prev != "" {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("elements %q and %q share id %d: %w", prev, d.name, id, ErrDuplicateID)}
		}
		r.names[id] = d.name
		r.ids[d.name] = id
		r.attrs[id] = d.decl.attributes()
		r.singleClick[id] = d.decl.SingleClick
	}

	if r.names[0] == "" {
		if other, taken := r.ids[EmptyName]; taken {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("element %q declared at id %d but id 0 is undeclared: %w", EmptyName, other, ErrDuplicateName)}
		}
		r.names[0] = EmptyName
		r.ids[EmptyName] = 0
		r.attrs[0] = Attributes{Category: Static, IOR: 1}
	}

	macros := make(map[string]string, len(r.ids))
	for name := range r.ids {
		m := macroName(name)
		if prev, ok := macros[m]; ok {
			a, b := min(prev, name), max(prev, name)
			return nil, &LoadError{Source: source, Err: fmt.Errorf("elements %q and %q both define %s: %w", a, b, m, ErrDuplicateName)}
		}
		macros[m] = name
	}
	return r, nil
}

// Len returns the number of table slots, including gaps.
func (r *Registry) Len() int { return len(r.attrs) }

// Source returns where the catalog was read from.
func (r *Registry) Source() string { return r.source }

// IDOf returns the id declared for name, or NotFound.
func (r *Registry) IDOf(name string) int {
	id, ok := r.ids[name]
	if !ok {
		return NotFound
	}
	return id
}

// Name returns the declared name for id, or "" for gaps and unknown ids.
func (r *Registry) Name(id int) string {
	if id < 0 || id >= len(r.names) {
		return ""
	}
	return r.names[id]
}

// ColorOf returns the base color for id. Unknown ids get the magenta
// sentinel.
func (r *Registry) ColorOf(id int) Color {
	if id < 0 || id >= len(r.attrs) {
		return Magenta
	}
	return r.attrs[id].Color
}

// IsSingleClick reports whether id places once per press. Unknown ids are
// continuous.
func (r *Registry) IsSingleClick(id int) bool {
	if id < 0 || id >= len(r.singleClick) {
		return false
	}
	return r.singleClick[id]
}

// Attributes returns a copy of the dense attribute table.
func (r *Registry) Attributes() []Attributes {
	return slices.Clone(r.attrs)
}

// Lookup returns the attributes for id.
func (r *Registry) Lookup(id int) (Attributes, bool) {
	if id < 0 || id >= len(r.attrs) {
		return sentinelAttributes(), false
	}
	return r.attrs[id], true
}

// Encode returns the std430 attribute table, RecordSize bytes per id.
func (r *Registry) Encode() []byte {
	buf := make([]byte, 0, len(r.attrs)*RecordSize)
	for _, a := range r.attrs {
		buf = a.AppendBinary(buf)
	}
	return buf
}

// Publish uploads the attribute table to the element table binding slot.
func (r *Registry) Publish(b gpu.Binder) (gpu.Handle, error) {
	h, err := b.BindStorage(gpu.ElementTableSlot, r.Encode())
	if err != nil {
		return gpu.Handle{}, fmt.Errorf("registry: publish element table: %w", err)
	}
	return h, nil
}

// Header returns the kernel preamble: one #define per declared element,
// sorted by name, and MAX_ELEMENTS.
func (r *Registry) Header() string {
	names := make([]string, 0, len(r.ids))
	for name := range r.ids {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "#define %s %du\n", macroName(name), r.ids[name])
	}
	fmt.Fprintf(&sb, "#define MAX_ELEMENTS %du\n", len(r.attrs))
	return sb.String()
}

func macroName(name string) string {
	var sb strings.Builder
	for i, c := range strings.ToUpper(name) {
		switch {
		case c >= 'A' && c <= 'Z', c == '_':
			sb.WriteRune(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// PaletteEntry is one selectable element as shown in a UI.
type PaletteEntry struct {
	ID    int
	Name  string
	Label string
	Color Color
}

// Palette lists declared elements in id order. Id 0 is labelled "Eraser".
func (r *Registry) Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(r.ids))
	for id, name := range r.names {
		if name == "" {
			continue
		}
		out = append(out, PaletteEntry{ID: id, Name: name, Label: r.Label(id), Color: r.attrs[id].Color})
	}
	return out
}

// Label returns the display name for id: "Eraser" for 0, otherwise the
// declared name.
func (r *Registry) Label(id int) string {
	if id == 0 {
		return "Eraser"
	}
	if n := r.Name(id); n != "" {
		return n
	}
	return fmt.Sprintf("#%d", id)
}
