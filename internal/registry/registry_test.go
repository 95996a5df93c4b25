package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mad-sand/internal/gpu"
)

const sandStone = `{
	"sand":  {"id": 1, "color": [0.9, 0.8, 0.5, 1], "type": "Granular", "density": 15},
	"stone": {"id": 2, "color": [0.5, 0.5, 0.5, 1]}
}`

func mustParse(t *testing.T, src string) *Registry {
	t.Helper()
	r, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return r
}

func TestRoundTripSandStone(t *testing.T) {
	r := mustParse(t, sandStone)

	if got := r.IDOf("sand"); got != 1 {
		t.Fatalf("IDOf(sand) = %d, want 1", got)
	}
	if got := r.IDOf("stone"); got != 2 {
		t.Fatalf("IDOf(stone) = %d, want 2", got)
	}
	if got := r.IDOf("water"); got != NotFound {
		t.Fatalf("IDOf(water) = %d, want NotFound", got)
	}
	if got := r.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	h := r.Header()
	for _, want := range []string{"#define SAND 1u\n", "#define STONE 2u\n", "#define MAX_ELEMENTS 3u\n"} {
		if !strings.Contains(h, want) {
			t.Fatalf("header missing %q:\n%s", want, h)
		}
	}
	if strings.Index(h, "SAND") > strings.Index(h, "STONE") {
		t.Fatalf("header not sorted by name:\n%s", h)
	}
}

func TestDefaultsAndSentinel(t *testing.T) {
	r := mustParse(t, `{"sand": {"id": 1}, "fire": {"id": 4, "type": "Gas", "glow": true}}`)

	sand, _ := r.Lookup(1)
	if sand.Category != Static || sand.Density != 10 || sand.IOR != 1.45 {
		t.Fatalf("sand defaults = %+v", sand)
	}
	if sand.Color != Magenta {
		t.Fatalf("undeclared color = %+v, want magenta", sand.Color)
	}

	gap, _ := r.Lookup(2)
	if gap.Color != Magenta || gap.Density != 0 || gap.IOR != 1 {
		t.Fatalf("gap slot = %+v, want inert sentinel", gap)
	}
	if r.Name(2) != "" {
		t.Fatalf("gap has name %q", r.Name(2))
	}

	if got := r.ColorOf(99); got != Magenta {
		t.Fatalf("ColorOf(99) = %+v, want magenta", got)
	}
	if got := r.ColorOf(-1); got != Magenta {
		t.Fatalf("ColorOf(-1) = %+v, want magenta", got)
	}
	if r.IsSingleClick(99) {
		t.Fatal("unknown id reported single-click")
	}

	if got := r.Name(0); got != EmptyName {
		t.Fatalf("Name(0) = %q, want %q", got, EmptyName)
	}
	if got := r.ColorOf(0); got.A != 0 {
		t.Fatalf("empty color alpha = %v, want 0", got.A)
	}

	fire, _ := r.Lookup(4)
	if fire.Category != Gas || !fire.Glow {
		t.Fatalf("fire = %+v", fire)
	}
}

func TestSingleClickFlag(t *testing.T) {
	r := mustParse(t, `{"seed": {"id": 1, "singleClick": true}, "sand": {"id": 2}}`)
	if !r.IsSingleClick(1) {
		t.Fatal("seed should be single-click")
	}
	if r.IsSingleClick(2) {
		t.Fatal("sand should be continuous")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"missing id", `{"sand": {"color": [1, 1, 1, 1]}}`, ErrMissingID},
		{"duplicate name", `{"sand": {"id": 1}, "sand": {"id": 2}}`, ErrDuplicateName},
		{"duplicate id", `{"sand": {"id": 1}, "dirt": {"id": 1}}`, ErrDuplicateID},
		{"negative id", `{"sand": {"id": -3}}`, ErrNegativeID},
		{"id range", `{"sand": {"id": 300}}`, ErrIDRange},
		{"life range", `{"ember": {"id": 1, "life": 1000}}`, ErrLifeRange},
		{"empty taken", `{"empty": {"id": 3}, "sand": {"id": 1}}`, ErrDuplicateName},
		{"macro collision", `{"hot-sand": {"id": 1}, "hot_sand": {"id": 2}}`, ErrDuplicateName},
		{"macro collides with empty", `{"Empty": {"id": 1}}`, ErrDuplicateName},
		{"empty", `{}`, ErrEmptyCatalog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("error %T is not *LoadError", err)
			}
		})
	}
}

func TestMalformed(t *testing.T) {
	for _, src := range []string{``, `[]`, `{"sand": 5}`, `{"sand": {"id": 1}`} {
		if _, err := Parse(strings.NewReader(src)); err == nil {
			t.Fatalf("Parse(%q) succeeded", src)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load() error = %v, want not-exist", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elements.json")
	if err := os.WriteFile(path, []byte(sandStone), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Source() != path {
		t.Fatalf("Source() = %q, want %q", r.Source(), path)
	}
}

func TestEncodeLayout(t *testing.T) {
	r := mustParse(t, sandStone)
	buf := r.Encode()
	if len(buf) != 3*RecordSize {
		t.Fatalf("encoded %d bytes, want %d", len(buf), 3*RecordSize)
	}
	table := DecodeTable(buf)
	want := r.Attributes()
	for i := range want {
		if table[i] != want[i] {
			t.Fatalf("record %d = %+v, want %+v", i, table[i], want[i])
		}
	}
}

func TestPublish(t *testing.T) {
	r := mustParse(t, sandStone)
	dev := gpu.NewHostDevice()
	defer dev.Close()

	h1, err := r.Publish(dev)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if h1.Slot != gpu.ElementTableSlot {
		t.Fatalf("slot = %d, want %d", h1.Slot, gpu.ElementTableSlot)
	}
	h2, err := r.Publish(dev)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if dev.Valid(h1) {
		t.Fatal("first handle still valid after republish")
	}
	data, err := dev.Storage(h2)
	if err != nil {
		t.Fatalf("Storage: %v", err)
	}
	if len(data) != r.Len()*RecordSize {
		t.Fatalf("bound %d bytes", len(data))
	}
}

func TestPaletteAndLabels(t *testing.T) {
	r := mustParse(t, `{"eraser": {"id": 0}, "sand": {"id": 1}, "water": {"id": 3}}`)
	p := r.Palette()
	if len(p) != 3 {
		t.Fatalf("palette has %d entries, want 3", len(p))
	}
	if p[0].Label != "Eraser" || p[1].Label != "sand" || p[2].ID != 3 {
		t.Fatalf("palette = %+v", p)
	}
}

func TestNamesStayUnique(t *testing.T) {
	r := mustParse(t, `{"empty": {"id": 0}, "ember": {"id": 1, "life": 255}, "hot-sand": {"id": 2}}`)
	if got, _ := r.Lookup(1); got.MaxLife != MaxLife {
		t.Fatalf("ember life = %d, want %d", got.MaxLife, MaxLife)
	}
	for id := range r.Len() {
		name := r.Name(id)
		if got := r.IDOf(name); got != id {
			t.Errorf("IDOf(Name(%d)) = %d", id, got)
		}
	}
	h := r.Header()
	if strings.Count(h, "#define EMPTY ") != 1 || !strings.Contains(h, "#define HOT_SAND 2u\n") {
		t.Fatalf("header:\n%s", h)
	}
}

func TestMacroName(t *testing.T) {
	tests := map[string]string{
		"sand":         "SAND",
		"molten glass": "MOLTEN_GLASS",
		"2bit":         "_2BIT",
	}
	for in, want := range tests {
		if got := macroName(in); got != want {
			t.Errorf("macroName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShippedCatalog(t *testing.T) {
	r, err := Load(filepath.Join("..", "..", "data", "elements.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{EmptyName, "sand", "water", "fire", "lava"} {
		if r.IDOf(name) == NotFound {
			t.Fatalf("catalog lacks %q", name)
		}
	}
	if !r.IsSingleClick(r.IDOf("gem")) {
		t.Fatal("gem should be single-click")
	}
	if a, _ := r.Lookup(r.IDOf("lava")); !a.Glow || a.Category != Liquid {
		t.Fatalf("lava = %+v", a)
	}
}
