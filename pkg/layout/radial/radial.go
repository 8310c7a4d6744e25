// Package radial bends a tree layout around a circle.
//
// The tree is first placed top-down into a virtual rectangle the size of the
// bounds. Each entity's share of the breadth becomes an angle between
// StartAngle and EndAngle, and its distance from the root layer becomes the
// radius:
//
//	θ = start + (end − start) × x / width
//	r = y − y(root layer)
//
// The circle is centered on the bounds center, so a single root sits exactly
// there. Forests with several roots are pushed out by one layer so the roots
// do not collapse onto the center.
package radial

import (
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/forest"
	"github.com/matzehuels/stacklayout/pkg/geometry"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/layout/tree"
)

// Options configures a Radial layout.
type Options struct {
	// StartAngle and EndAngle bound the arc in radians. Equal values select
	// a full circle starting at StartAngle. Default: 0 and 2π.
	StartAngle float64
	EndAngle   float64

	// Resize maximizes entity sizes before the final fit.
	Resize bool

	// SkipFit keeps the raw circle instead of fitting it into the bounds.
	SkipFit bool

	Logger *log.Logger
}

// DefaultOptions returns the default radial configuration.
func DefaultOptions() Options {
	return Options{StartAngle: 0, EndAngle: 2 * math.Pi}
}

// Radial is a circular tree layout.
type Radial struct {
	opts Options
}

// New creates a radial layout.
func New(opts Options) *Radial {
	if opts.EndAngle == opts.StartAngle {
		opts.EndAngle = opts.StartAngle + 2*math.Pi
	}
	return &Radial{opts: opts}
}

// Name implements layout.Algorithm.
func (r *Radial) Name() string { return "radial" }

// Options returns the current configuration.
func (r *Radial) Options() Options { return r.opts }

// Apply implements layout.Algorithm. It does nothing when clean is false.
func (r *Radial) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(r.Name(), ctx, func() error {
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

		pos := r.place(f, bounds)
		for i, e := range entities {
			if e.Movable() {
				e.SetPosition(pos[i])
			}
		}
		layout.Logger(r.opts.Logger).Debug("radial", "entities", len(entities),
			"roots", len(f.Roots()))

		if !r.opts.SkipFit {
			if r.opts.Resize {
				geometry.MaximizeUniformSize(entities)
			}
			geometry.FitWithinBounds(entities, bounds, r.opts.Resize)
		}
		return nil
	})
}

func (r *Radial) place(f *forest.Forest, bounds graph.Rect) []r2.Vec {
	virtual := graph.Rect{W: bounds.W, H: bounds.H}
	if virtual.Empty() {
		virtual = graph.Rect{W: 1, H: 1}
	}
	linear := tree.Coordinates(f, virtual, layout.TopDown, r2.Vec{})

	layerSize := virtual.H / float64(max(f.Height(forest.SuperRoot), 1))
	rootY := 0.5 * layerSize
	if len(f.Roots()) > 1 {
		rootY -= layerSize
	}

	center := bounds.Center()
	span := r.opts.EndAngle - r.opts.StartAngle
	out := make([]r2.Vec, len(linear))
	for i, p := range linear {
		theta := r.opts.StartAngle + span*p.X/virtual.W
		radius := p.Y - rootY
		out[i] = r2.Add(center, r2.Vec{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)})
	}
	return out
}
