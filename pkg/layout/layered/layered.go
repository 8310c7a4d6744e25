// Package layered implements Sugiyama-style layered graph drawing.
//
// A pass runs three phases:
//
//  1. Layer assignment by a [LayerProvider] ([Simple] or [DFS]). Edges that
//     span several layers are split into chains of dummy wrappers; edges that
//     point backwards are reversed and edges within one layer are ignored.
//  2. Crossing reduction by a [Reducer] ([Barycentric], [Split] or [Greedy]).
//  3. Coordinate assignment. With the default Horizontal orientation layers
//     are rows: y = (layer + 0.5) × H / layers and
//     x = (index + 0.5) × W / (maxLayerSize + 1). Vertical swaps the axes.
//
// Only regular wrappers are written back; dummies exist for crossing
// reduction only.
package layered

import (
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

// Options configures a Layered layout.
type Options struct {
	// Orientation selects whether layers are rows (Horizontal) or columns
	// (Vertical). Default: Horizontal.
	Orientation layout.Orientation

	// Dimension overrides the bounds size used for coordinate assignment
	// per axis when positive.
	Dimension r2.Vec

	// Provider assigns layers. Default: Simple.
	Provider LayerProvider

	// Reducer reorders layers. Default: Barycentric.
	Reducer Reducer

	Logger *log.Logger
}

// DefaultOptions returns the default layered configuration.
func DefaultOptions() Options {
	return Options{
		Orientation: layout.Horizontal,
		Provider:    &Simple{},
		Reducer:     &Barycentric{},
	}
}

// Layered is a Sugiyama-style layout.
type Layered struct {
	opts Options
	last *Layering
}

// New creates a layered layout. Nil provider or reducer take the defaults;
// an unknown orientation falls back to Horizontal.
func New(opts Options) *Layered {
	if opts.Provider == nil {
		opts.Provider = &Simple{}
	}
	if opts.Reducer == nil {
		opts.Reducer = &Barycentric{}
	}
	l := &Layered{opts: opts}
	if err := l.SetOrientation(opts.Orientation); err != nil {
		l.opts.Orientation = layout.Horizontal
	}
	return l
}

// Name implements layout.Algorithm.
func (l *Layered) Name() string { return "layered" }

// Options returns the current configuration.
func (l *Layered) Options() Options { return l.opts }

// SetOrientation changes the orientation. Unknown values are rejected with
// INVALID_CONFIG.
func (l *Layered) SetOrientation(o layout.Orientation) error {
	if o != layout.Horizontal && o != layout.Vertical {
		return errs.InvalidConfig("unknown orientation %d", int(o))
	}
	l.opts.Orientation = o
	return nil
}

// SetDimension overrides the size used for coordinate assignment. Negative
// or non-finite components are rejected with INVALID_CONFIG.
func (l *Layered) SetDimension(d r2.Vec) error {
	if err := errs.ValidateExtent("dimension", d.X, d.Y); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "set dimension")
	}
	l.opts.Dimension = d
	return nil
}

// SetProvider replaces the layer provider. Nil is rejected.
func (l *Layered) SetProvider(p LayerProvider) error {
	if p == nil {
		return errs.InvalidConfig("layer provider must not be nil")
	}
	l.opts.Provider = p
	return nil
}

// SetReducer replaces the crossing reducer. Nil is rejected.
func (l *Layered) SetReducer(r Reducer) error {
	if r == nil {
		return errs.InvalidConfig("crossing reducer must not be nil")
	}
	l.opts.Reducer = r
	return nil
}

// Layering returns the layering of the last successful pass, or nil.
func (l *Layered) Layering() *Layering { return l.last }

// Apply implements layout.Algorithm. clean=false is a no-op.
func (l *Layered) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(l.Name(), ctx, func() error {
		topo, err := graph.NewTopology(ctx.Entities(), ctx.Edges())
		if err != nil {
			return err
		}
		layering, err := l.opts.Provider.Assign(topo)
		if err != nil {
			return err
		}
		l.opts.Reducer.Reduce(layering)
		if err := layering.check(); err != nil {
			return err
		}

		l.place(layering, ctx.Bounds())
		l.last = layering
		layout.Logger(l.opts.Logger).Debug("layered",
			"provider", l.opts.Provider.Name(), "reducer", l.opts.Reducer.Name(),
			"layers", layering.Layers(), "wrappers", layering.Len(),
			"crossings", layering.CountCrossings())
		return nil
	})
}

// place writes coordinates for every regular wrapper.
func (l *Layered) place(layering *Layering, bounds graph.Rect) {
	if layering.Layers() == 0 {
		return
	}
	w, h := bounds.W, bounds.H
	if l.opts.Dimension.X > 0 {
		w = l.opts.Dimension.X
	}
	if l.opts.Dimension.Y > 0 {
		h = l.opts.Dimension.Y
	}

	across := float64(layering.MaxLayerSize() + 1)
	layers := float64(layering.Layers())
	for i := range layering.Layers() {
		for k, handle := range layering.Layer(i) {
			wr := layering.Wrapper(handle)
			if wr.Kind != Regular || !wr.Entity.Movable() {
				continue
			}
			index, depth := float64(k)+0.5, float64(i)+0.5
			p := r2.Vec{X: bounds.X + index*w/across, Y: bounds.Y + depth*h/layers}
			if l.opts.Orientation == layout.Vertical {
				p = r2.Vec{X: bounds.X + depth*w/layers, Y: bounds.Y + index*h/across}
			}
			wr.Entity.SetPosition(p)
		}
	}
}
