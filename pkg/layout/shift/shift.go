// Package shift removes horizontal overlap between entities that share a row.
//
// Entities are grouped into rows by their current y coordinate, then every
// row is packed left to right around the horizontal midpoint of the bounds.
// The vertical order of rows and the left-to-right order within a row are
// kept, so the layout changes as little as possible.
//
// Members of a row are ordered by x, with y only breaking ties. Ordering
// them by y alone would let a small vertical offset swap two entities that
// sit side by side.
package shift

import (
	"cmp"
	"math"
	"slices"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

// Options configures a Shift layout. Zero values are replaced by defaults.
type Options struct {
	// Tolerance is the maximum y distance from a row's anchor for an entity
	// to join that row. Default: 10.
	Tolerance float64

	// Gap is the horizontal space between neighbors in a row. Default: 10.
	Gap float64

	// RowSpacing is the minimum vertical space between rows. Default: 16.
	RowSpacing float64

	Logger *log.Logger
}

// DefaultOptions returns the default shift configuration.
func DefaultOptions() Options {
	return Options{Tolerance: 10, Gap: 10, RowSpacing: 16}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.Gap <= 0 {
		o.Gap = d.Gap
	}
	if o.RowSpacing <= 0 {
		o.RowSpacing = d.RowSpacing
	}
	return o
}

// Shift packs rows of entities horizontally.
type Shift struct {
	opts Options
}

// New creates a shift layout.
func New(opts Options) *Shift {
	return &Shift{opts: opts.withDefaults()}
}

// Name implements layout.Algorithm.
func (s *Shift) Name() string { return "shift" }

// Options returns the effective configuration.
func (s *Shift) Options() Options { return s.opts }

// Apply implements layout.Algorithm. It does nothing when clean is false.
func (s *Shift) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(s.Name(), ctx, func() error {
		rows := s.rows(ctx.Entities())
		s.place(rows, ctx.Bounds().Center().X)
		layout.Logger(s.opts.Logger).Debug("shift", "rows", len(rows))
		return nil
	})
}

type row struct {
	anchor  float64
	members []graph.Entity
}

// rows groups movable entities first-fit against existing row anchors, then
// sorts rows top to bottom and members left to right.
func (s *Shift) rows(entities []graph.Entity) []*row {
	var rows []*row
	for _, e := range entities {
		if !e.Movable() {
			continue
		}
		y := e.Position().Y
		i := slices.IndexFunc(rows, func(r *row) bool { return math.Abs(y-r.anchor) <= s.opts.Tolerance })
		if i < 0 {
			rows = append(rows, &row{anchor: y})
			i = len(rows) - 1
		}
		rows[i].members = append(rows[i].members, e)
	}

	slices.SortStableFunc(rows, func(a, b *row) int { return cmp.Compare(a.anchor, b.anchor) })
	for _, r := range rows {
		slices.SortStableFunc(r.members, func(a, b graph.Entity) int {
			pa, pb := a.Position(), b.Position()
			if c := cmp.Compare(pa.X, pb.X); c != 0 {
				return c
			}
			return cmp.Compare(pa.Y, pb.Y)
		})
	}
	return rows
}

func (s *Shift) place(rows []*row, midX float64) {
	var prevY, prevH float64
	for i, r := range rows {
		width, height := 0.0, 0.0
		for _, e := range r.members {
			size := e.Size()
			width += size.X
			height = max(height, size.Y)
		}
		width += s.opts.Gap * float64(len(r.members)-1)

		y := r.anchor
		if i > 0 {
			y = max(y, prevY+(prevH+height)/2+s.opts.RowSpacing)
		}

		x := midX - width/2
		for _, e := range r.members {
			w := e.Size().X
			e.SetPosition(r2.Vec{X: x + w/2, Y: y})
			x += w + s.opts.Gap
		}
		prevY, prevH = y, height
	}
}
