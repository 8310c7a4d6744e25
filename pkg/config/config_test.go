package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/layout/force"
	"github.com/matzehuels/stacklayout/pkg/layout/grid"
	"github.com/matzehuels/stacklayout/pkg/layout/layered"
	"github.com/matzehuels/stacklayout/pkg/layout/radial"
	"github.com/matzehuels/stacklayout/pkg/layout/spacetree"
	"github.com/matzehuels/stacklayout/pkg/layout/tree"
)

const layeredTOML = `
algorithm = "layered"

[layered]
orientation = "vertical"
width = 300
height = 200
provider = "dfs"
reducer = "greedy"
sweeps = 40

[layered.layers]
root = 0
leaf = 4
`

const forceYAML = `
algorithm: force
force:
  iterations: 250
  max_duration: 750ms
  random_start: true
  seed: 42
spacetree:
  direction: left-right
  leaf_gap: 5
`

func TestParseTOML(t *testing.T) {
	f, err := Parse([]byte(layeredTOML), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Algorithm != "layered" {
		t.Errorf("Algorithm = %q, want layered", f.Algorithm)
	}
	l := f.Layered
	if l.Orientation != "vertical" || l.Provider != "dfs" || l.Reducer != "greedy" {
		t.Errorf("layered section = %+v", l)
	}
	if l.Width != 300 || l.Height != 200 || l.Sweeps != 40 {
		t.Errorf("layered numbers = %v, %v, %v", l.Width, l.Height, l.Sweeps)
	}
	if l.Layers["root"] != 0 || l.Layers["leaf"] != 4 {
		t.Errorf("Layers = %v", l.Layers)
	}
}

func TestParseYAML(t *testing.T) {
	f, err := Parse([]byte(forceYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Force.Iterations != 250 || f.Force.MaxDuration != "750ms" || !f.Force.RandomStart || f.Force.Seed != 42 {
		t.Errorf("force section = %+v", f.Force)
	}
	if f.SpaceTree.Direction != "left-right" || f.SpaceTree.LeafGap != 5 {
		t.Errorf("spacetree section = %+v", f.SpaceTree)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		f, err := Parse(nil, format)
		if err != nil {
			t.Fatalf("Parse(empty, %d): %v", format, err)
		}
		if f.Algorithm != "" {
			t.Errorf("Algorithm = %q, want empty", f.Algorithm)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		want   string
	}{
		{"unknown toml key", FormatTOML, "algorithm = \"tree\"\ncolour = \"red\"", "colour"},
		{"unknown yaml key", FormatYAML, "algorithm: tree\ncolour: red", "colour"},
		{"malformed toml", FormatTOML, "algorithm = ", "decode toml"},
		{"unknown algorithm", FormatTOML, `algorithm = "spiral"`, "unknown algorithm"},
		{"bad orientation", FormatYAML, "layered:\n  orientation: diagonal", "must be one of"},
		{"bad direction", FormatYAML, "tree:\n  direction: sideways", "must be one of"},
		{"negative gap", FormatYAML, "spacetree:\n  leaf_gap: -1", "at least 0"},
		{"too many iterations", FormatYAML, "force:\n  iterations: 2000000", "must not exceed"},
		{"bad duration", FormatYAML, "force:\n  max_duration: soon", "max_duration"},
		{"nested composite", FormatYAML, "algorithm: composite\ncomposite: [tree, composite]", "not allowed"},
		{"empty composite", FormatYAML, "algorithm: composite", "at least one step"},
		{"unknown step", FormatYAML, "algorithm: composite\ncomposite: [tree, spiral]", "unknown algorithm"},
		{"negative pinned layer", FormatYAML, "layered:\n  provider: dfs\n  layers: {a: -1}", "at least 0"},
		{"pinned without dfs", FormatYAML, "layered:\n  layers: {a: 1}", "dfs provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG (%v)", errs.GetCode(err), err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"layout.toml", FormatTOML, false},
		{"layout.yaml", FormatYAML, false},
		{"conf/LAYOUT.YML", FormatYAML, false},
		{"layout.json", 0, true},
		{"layout", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("format = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	if err := os.WriteFile(path, []byte(layeredTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Algorithm != "layered" {
		t.Errorf("Algorithm = %q", f.Algorithm)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(""); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Load(\"\") = %v, want INVALID_INPUT", err)
	}
}

func TestBuildEveryAlgorithm(t *testing.T) {
	f := &File{Composite: []string{"tree", "shift"}}
	for _, e := range Algorithms() {
		t.Run(e.Name, func(t *testing.T) {
			a, err := Build(f, e.Name, nil)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if a.Name() != e.Name {
				t.Errorf("Name() = %q, want %q", a.Name(), e.Name)
			}
		})
	}
}

func TestBuildSelection(t *testing.T) {
	a, err := Build(nil, "", nil)
	if err != nil {
		t.Fatalf("Build(nil): %v", err)
	}
	if a.Name() != DefaultAlgorithm {
		t.Errorf("default = %q, want %q", a.Name(), DefaultAlgorithm)
	}

	a, err = Build(&File{Algorithm: "grid"}, "", nil)
	if err != nil || a.Name() != "grid" {
		t.Errorf("file algorithm: %v, %v", a, err)
	}

	a, err = Build(&File{Algorithm: "grid"}, "radial", nil)
	if err != nil || a.Name() != "radial" {
		t.Errorf("name overrides file: %v, %v", a, err)
	}

	if _, err := Build(nil, "spiral", nil); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("unknown algorithm: %v, want INVALID_INPUT", err)
	}
	if _, err := Build(nil, "Not A Name", nil); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("malformed name: %v, want INVALID_CONFIG", err)
	}
	if _, err := Build(nil, "composite", nil); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("empty composite: %v, want INVALID_CONFIG", err)
	}
}

func TestBuildLayered(t *testing.T) {
	f, err := Parse([]byte(layeredTOML), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	a, err := Build(f, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	l, ok := a.(*layered.Layered)
	if !ok {
		t.Fatalf("Build returned %T", a)
	}
	opts := l.Options()
	if opts.Orientation != layout.Vertical {
		t.Errorf("Orientation = %v", opts.Orientation)
	}
	if opts.Provider.Name() != "dfs" || opts.Reducer.Name() != "greedy" {
		t.Errorf("provider/reducer = %s/%s", opts.Provider.Name(), opts.Reducer.Name())
	}
	if g := opts.Reducer.(*layered.Greedy); g.MaxSweeps != 40 {
		t.Errorf("MaxSweeps = %d, want 40", g.MaxSweeps)
	}
	if opts.Dimension.X != 300 || opts.Dimension.Y != 200 {
		t.Errorf("Dimension = %v", opts.Dimension)
	}
}

func TestBuildForce(t *testing.T) {
	f, err := Parse([]byte(forceYAML), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	a, err := Build(f, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	opts := a.(*force.Force).Options()
	if opts.Iterations != 250 || opts.MaxDuration != 750*time.Millisecond {
		t.Errorf("iterations/duration = %d/%v", opts.Iterations, opts.MaxDuration)
	}
	if !opts.RandomStart || opts.Seed != 42 {
		t.Errorf("random start/seed = %v/%d", opts.RandomStart, opts.Seed)
	}
	if opts.Length != force.DefaultOptions().Length {
		t.Errorf("Length = %v, want default", opts.Length)
	}
}

func TestBuildSectionsReachStrategies(t *testing.T) {
	f := &File{
		Grid:      GridSection{AspectRatio: 2, Resize: true},
		Box:       BoxSection{Orientation: "vertical"},
		Tree:      TreeSection{Direction: "bottom-up", LeafSpacing: 30, LayerSpacing: 40},
		Radial:    RadialSection{StartAngle: 0, EndAngle: 180},
		SpaceTree: SpaceTreeSection{Direction: "right-left", LeafGap: 5},
	}

	a, _ := Build(f, "box", nil)
	if b := a.(*grid.Box); b.Orientation() != layout.Vertical || b.Options().AspectRatio != 2 {
		t.Errorf("box = %v, %+v", b.Orientation(), b.Options())
	}

	a, _ = Build(f, "tree", nil)
	if o := a.(*tree.Tree).Options(); o.Direction != layout.BottomUp || o.Spacing.X != 30 || o.Spacing.Y != 40 {
		t.Errorf("tree = %+v", o)
	}

	a, _ = Build(f, "radial", nil)
	if o := a.(*radial.Radial).Options(); math.Abs(o.EndAngle-math.Pi) > 1e-12 {
		t.Errorf("EndAngle = %v, want π", o.EndAngle)
	}

	a, _ = Build(f, "spacetree", nil)
	o := a.(*spacetree.SpaceTree).Options()
	if o.Direction != layout.RightLeft || o.LeafGap != 5 || o.BranchGap != spacetree.DefaultBranchGap {
		t.Errorf("spacetree = %+v", o)
	}
}

func TestBuildComposite(t *testing.T) {
	f := &File{Algorithm: "composite", Composite: []string{"tree", "shift"}}
	a, err := Build(f, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	c := a.(*layout.Composite)
	var names []string
	for _, s := range c.Steps() {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "tree,shift" {
		t.Errorf("steps = %v", names)
	}
}

func ExampleBuild() {
	f, err := Parse([]byte("algorithm: layered\nlayered:\n  reducer: split\n"), FormatYAML)
	if err != nil {
		panic(err)
	}
	a, err := Build(f, "", nil)
	if err != nil {
		panic(err)
	}
	fmt.Println(a.Name(), a.(*layered.Layered).Options().Reducer.Name())
	// Output: layered split
}
