package config

import (
	"math"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/layout/force"
	"github.com/matzehuels/stacklayout/pkg/layout/grid"
	"github.com/matzehuels/stacklayout/pkg/layout/layered"
	"github.com/matzehuels/stacklayout/pkg/layout/radial"
	"github.com/matzehuels/stacklayout/pkg/layout/shift"
	"github.com/matzehuels/stacklayout/pkg/layout/spacetree"
	"github.com/matzehuels/stacklayout/pkg/layout/tree"
)

// DefaultAlgorithm is used when neither the caller nor the file selects one.
const DefaultAlgorithm = "tree"

// Entry describes one algorithm known to [Build].
type Entry struct {
	Name    string
	Summary string
	build   func(f *File, logger *log.Logger) (layout.Algorithm, error)
}

// catalog is filled in init because buildComposite refers back to Build.
var catalog []Entry

func init() {
	catalog = []Entry{
		{"grid", "row-major cells sized to a common aspect ratio", buildGrid},
		{"box", "grid cells packed along one axis", buildBox},
		{"shift", "removes horizontal overlaps row by row", buildShift},
		{"tree", "layered tree along one of four directions", buildTree},
		{"radial", "tree bent around a circle", buildRadial},
		{"spacetree", "tree that collapses subtrees under space pressure", buildSpaceTree},
		{"force", "spring and repulsion simulation", buildForce},
		{"layered", "Sugiyama layers with crossing reduction", buildLayered},
		{"composite", "runs the steps listed under composite in order", buildComposite},
	}
}

// Algorithms lists the known algorithms in presentation order.
func Algorithms() []Entry { return slices.Clone(catalog) }

func lookup(name string) (Entry, bool) {
	for _, e := range catalog {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Build creates the named algorithm from the file's sections. An empty name
// selects the file's algorithm, then [DefaultAlgorithm]. A nil file builds
// every strategy with its defaults. Unknown names are INVALID_INPUT errors.
func Build(f *File, name string, logger *log.Logger) (layout.Algorithm, error) {
	if f == nil {
		f = &File{}
	}
	if name == "" {
		name = f.Algorithm
	}
	if name == "" {
		name = DefaultAlgorithm
	}
	if err := errs.ValidateAlgorithmName(name); err != nil {
		return nil, err
	}
	e, ok := lookup(name)
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown algorithm %q", name)
	}
	return e.build(f, logger)
}

// =============================================================================
// Builders
// =============================================================================

func gridOptions(f *File, logger *log.Logger) grid.Options {
	return grid.Options{
		AspectRatio: f.Grid.AspectRatio,
		RowPadding:  f.Grid.RowPadding,
		Resize:      f.Grid.Resize,
		Logger:      logger,
	}
}

func buildGrid(f *File, logger *log.Logger) (layout.Algorithm, error) {
	return grid.New(gridOptions(f, logger)), nil
}

func buildBox(f *File, logger *log.Logger) (layout.Algorithm, error) {
	o := layout.Horizontal
	if f.Box.Orientation != "" {
		var err error
		if o, err = layout.ParseOrientation(f.Box.Orientation); err != nil {
			return nil, err
		}
	}
	return grid.NewBox(o, gridOptions(f, logger)), nil
}

func buildShift(f *File, logger *log.Logger) (layout.Algorithm, error) {
	return shift.New(shift.Options{
		Tolerance:  f.Shift.Tolerance,
		Gap:        f.Shift.Gap,
		RowSpacing: f.Shift.RowSpacing,
		Logger:     logger,
	}), nil
}

func parseDirection(s string) (layout.Direction, error) {
	if s == "" {
		return layout.TopDown, nil
	}
	return layout.ParseDirection(s)
}

func buildTree(f *File, logger *log.Logger) (layout.Algorithm, error) {
	d, err := parseDirection(f.Tree.Direction)
	if err != nil {
		return nil, err
	}
	opts := tree.Options{Direction: d, Resize: f.Tree.Resize, Logger: logger}
	if f.Tree.LeafSpacing > 0 && f.Tree.LayerSpacing > 0 {
		opts.Spacing = r2.Vec{X: f.Tree.LeafSpacing, Y: f.Tree.LayerSpacing}
	}
	return tree.New(opts), nil
}

func buildRadial(f *File, logger *log.Logger) (layout.Algorithm, error) {
	return radial.New(radial.Options{
		StartAngle: f.Radial.StartAngle * math.Pi / 180,
		EndAngle:   f.Radial.EndAngle * math.Pi / 180,
		Resize:     f.Radial.Resize,
		SkipFit:    f.Radial.SkipFit,
		Logger:     logger,
	}), nil
}

func buildSpaceTree(f *File, logger *log.Logger) (layout.Algorithm, error) {
	d, err := parseDirection(f.SpaceTree.Direction)
	if err != nil {
		return nil, err
	}
	opts := spacetree.DefaultOptions()
	opts.Direction = d
	opts.Logger = logger
	if f.SpaceTree.LeafGap > 0 {
		opts.LeafGap = f.SpaceTree.LeafGap
	}
	if f.SpaceTree.BranchGap > 0 {
		opts.BranchGap = f.SpaceTree.BranchGap
	}
	if f.SpaceTree.LayerGap > 0 {
		opts.LayerGap = f.SpaceTree.LayerGap
	}
	return spacetree.New(opts), nil
}

func buildForce(f *File, logger *log.Logger) (layout.Algorithm, error) {
	s := f.Force
	opts := force.Options{
		Iterations:  s.Iterations,
		RandomStart: s.RandomStart,
		Move:        s.Move,
		Strain:      s.Strain,
		Length:      s.Length,
		Gravitation: s.Gravitation,
		MinDistance: s.MinDistance,
		Seed:        s.Seed,
		Logger:      logger,
	}
	if s.MaxDuration != "" {
		d, err := time.ParseDuration(s.MaxDuration)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "force.max_duration")
		}
		opts.MaxDuration = d
	}
	return force.New(opts), nil
}

func buildLayered(f *File, logger *log.Logger) (layout.Algorithm, error) {
	s := f.Layered
	opts := layered.DefaultOptions()
	opts.Logger = logger
	if s.Orientation != "" {
		o, err := layout.ParseOrientation(s.Orientation)
		if err != nil {
			return nil, err
		}
		opts.Orientation = o
	}

	switch s.Provider {
	case "", "simple":
		opts.Provider = &layered.Simple{MaxLayers: s.MaxLayers}
	case "dfs":
		p := &layered.DFS{MaxLayers: s.MaxLayers}
		ids := make([]string, 0, len(s.Layers))
		for id := range s.Layers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			if err := p.SetLayer(id, s.Layers[id]); err != nil {
				return nil, err
			}
		}
		opts.Provider = p
	default:
		return nil, errs.InvalidConfig("unknown layer provider %q", s.Provider)
	}

	switch s.Reducer {
	case "", "barycentric":
		opts.Reducer = &layered.Barycentric{Sweeps: s.Sweeps}
	case "split":
		opts.Reducer = layered.NewSplit(s.Seed)
	case "greedy":
		opts.Reducer = &layered.Greedy{MaxSweeps: s.Sweeps, Logger: logger}
	default:
		return nil, errs.InvalidConfig("unknown crossing reducer %q", s.Reducer)
	}

	l := layered.New(opts)
	if err := l.SetDimension(r2.Vec{X: s.Width, Y: s.Height}); err != nil {
		return nil, err
	}
	return l, nil
}

func buildComposite(f *File, logger *log.Logger) (layout.Algorithm, error) {
	if len(f.Composite) == 0 {
		return nil, errs.InvalidConfig("composite: at least one step is required")
	}
	steps := make([]layout.Algorithm, 0, len(f.Composite))
	for i, name := range f.Composite {
		if name == "composite" {
			return nil, errs.InvalidConfig("composite: step %d cannot be a composite", i)
		}
		step, err := Build(f, name, logger)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "composite step %d", i)
		}
		steps = append(steps, step)
	}
	return layout.NewComposite(steps...), nil
}
