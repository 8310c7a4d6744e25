// Package tree lays out the forest view of a graph in layers.
//
// Breadth is divided into equal slots per leaf and depth into equal layers.
// Every node is centered over the leaves of its subtree:
//
//	breadth = (firstLeaf + leaves/2) × leafSize
//	depth   = (depth + 0.5) × layerSize
//
// The [layout.Direction] maps breadth and depth onto x and y, mirroring the
// depth axis for bottom-up and right-left trees.
package tree

import (
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/forest"
	"github.com/matzehuels/stacklayout/pkg/geometry"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

// Options configures a Tree layout.
type Options struct {
	// Direction is the axis the tree grows along. Default: TopDown.
	Direction layout.Direction

	// Spacing fixes the leaf slot (X) and layer depth (Y). When both are
	// zero, slots are derived from the bounds and the result is fitted into
	// them; with explicit spacing no fit is performed.
	Spacing r2.Vec

	// Resize maximizes entity sizes before the final fit.
	Resize bool

	Logger *log.Logger
}

// DefaultOptions returns the default tree configuration.
func DefaultOptions() Options {
	return Options{Direction: layout.TopDown}
}

// Tree is a static layered tree layout.
type Tree struct {
	opts Options
}

// New creates a tree layout. An invalid direction falls back to TopDown and
// negative or non-finite spacing to fitting.
func New(opts Options) *Tree {
	if !opts.Direction.Valid() {
		opts.Direction = layout.TopDown
	}
	if errs.ValidateExtent("spacing", opts.Spacing.X, opts.Spacing.Y) != nil {
		opts.Spacing = r2.Vec{}
	}
	return &Tree{opts: opts}
}

// Name implements layout.Algorithm.
func (t *Tree) Name() string { return "tree" }

// Options returns the current configuration.
func (t *Tree) Options() Options { return t.opts }

// SetDirection changes the growth direction. Unknown directions are rejected
// and the previous direction stays in effect.
func (t *Tree) SetDirection(d layout.Direction) error {
	if err := d.Validate(); err != nil {
		return err
	}
	t.opts.Direction = d
	return nil
}

// SetSpacing sets explicit leaf and layer spacing. Zero restores fitting to
// the bounds. Negative or non-finite values are rejected with INVALID_CONFIG
// and the previous spacing stays in effect.
func (t *Tree) SetSpacing(leaf, layer float64) error {
	if err := errs.ValidateExtent("spacing", leaf, layer); err != nil {
		return errs.InvalidConfig("spacing must be finite and non-negative, got %v/%v", leaf, layer)
	}
	t.opts.Spacing = r2.Vec{X: leaf, Y: layer}
	return nil
}

// SetResize toggles size maximization.
func (t *Tree) SetResize(resize bool) { t.opts.Resize = resize }

// Apply implements layout.Algorithm. It does nothing when clean is false.
func (t *Tree) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(t.Name(), ctx, func() error {
		entities := ctx.Entities()
		if len(entities) == 0 {
			return nil
		}
		topo, err := graph.NewTopology(entities, ctx.Edges())
		if err != nil {
			return err
		}
		f := forest.Build(topo, nil)
		bounds := ctx.Bounds()

		pos := Coordinates(f, bounds, t.opts.Direction, t.opts.Spacing)
		for i, e := range entities {
			if e.Movable() {
				e.SetPosition(pos[i])
			}
		}

		layout.Logger(t.opts.Logger).Debug("tree", "entities", len(entities),
			"roots", len(f.Roots()), "layers", f.Height(forest.SuperRoot),
			"direction", t.opts.Direction)

		if t.opts.Spacing == (r2.Vec{}) {
			if t.opts.Resize {
				geometry.MaximizeUniformSize(entities)
			}
			geometry.FitWithinBounds(entities, bounds, t.opts.Resize)
		}
		return nil
	})
}

// Coordinates returns the tree position of every entity in f, indexed like
// the topology's entity slice. Positions fill area unless spacing is
// non-zero, in which case slots have the fixed size spacing.X (breadth) by
// spacing.Y (depth) starting at area's origin.
func Coordinates(f *forest.Forest, area graph.Rect, dir layout.Direction, spacing r2.Vec) []r2.Vec {
	out := make([]r2.Vec, f.Topology().Len())
	super := f.Node(forest.SuperRoot)
	if super.IsLeaf() {
		return out
	}

	breadthExtent, depthExtent := area.W, area.H
	if dir.Horizontal() {
		breadthExtent, depthExtent = area.H, area.W
	}
	leafSize := spacing.X
	layerSize := spacing.Y
	if spacing == (r2.Vec{}) {
		leafSize = breadthExtent / float64(super.Leaves)
		layerSize = depthExtent / float64(super.Height)
	} else {
		breadthExtent = leafSize * float64(super.Leaves)
		depthExtent = layerSize * float64(super.Height)
	}

	for h := forest.Handle(1); int(h) < f.Len(); h++ {
		n := f.Node(h)
		breadth := (float64(n.Order) + float64(n.Leaves)/2) * leafSize
		depth := (float64(n.Depth) + 0.5) * layerSize
		if dir.Reversed() {
			depth = depthExtent - depth
		}
		p := r2.Vec{X: breadth, Y: depth}
		if dir.Horizontal() {
			p = r2.Vec{X: depth, Y: breadth}
		}
		out[n.Entity] = r2.Add(area.Min(), p)
	}
	return out
}
