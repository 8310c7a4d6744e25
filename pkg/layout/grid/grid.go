// Package grid places entities row-major in a grid of equal cells.
//
// [Grid] picks the grid shape from the entity count; [Box] forces a single
// row or a single column.
package grid

import (
	"math"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

const (
	// CellFill is the share of a cell an entity occupies.
	CellFill = 0.95

	// MinCellSide is the smallest entity side the grid produces.
	MinCellSide = 5.0
)

// Options configures a Grid.
type Options struct {
	// AspectRatio is the width/height ratio of every cell's entity. A ratio
	// of exactly 1 also selects the minimal near-square grid shape; any other
	// ratio uses a ceil(sqrt(n)) square grid. Default: 1.
	AspectRatio float64

	// RowPadding is the vertical gap between rows. Default: 0.
	RowPadding float64

	// Resize sets every resizable entity to its cell size.
	Resize bool

	// Logger receives per-pass debug output. Nil discards.
	Logger *log.Logger
}

// DefaultOptions returns the default grid configuration.
func DefaultOptions() Options {
	return Options{AspectRatio: 1}
}

// Grid places entities row-major into equal cells covering the bounds.
type Grid struct {
	opts Options

	// fixedRows/fixedCols force one grid dimension to 1 (Box).
	fixedRows bool
	fixedCols bool
	name      string
}

// New creates a grid layout. A non-positive AspectRatio is replaced by the
// default.
func New(opts Options) *Grid {
	if !(opts.AspectRatio > 0) || math.IsInf(opts.AspectRatio, 0) {
		opts.AspectRatio = 1
	}
	return &Grid{opts: opts, name: "grid"}
}

// Name implements layout.Algorithm.
func (g *Grid) Name() string { return g.name }

// Options returns the current configuration.
func (g *Grid) Options() Options { return g.opts }

// SetAspectRatio changes the cell aspect ratio. It rejects non-positive and
// non-finite values and keeps the previous ratio in that case.
func (g *Grid) SetAspectRatio(r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return errs.InvalidConfig("aspect ratio must be positive and finite, got %v", r)
	}
	g.opts.AspectRatio = r
	return nil
}

// SetRowPadding changes the gap between rows. Negative values are rejected.
func (g *Grid) SetRowPadding(p float64) error {
	if !(p >= 0) || math.IsInf(p, 0) {
		return errs.InvalidConfig("row padding must be non-negative and finite, got %v", p)
	}
	g.opts.RowPadding = p
	return nil
}

// SetResize toggles resizing entities to their cell.
func (g *Grid) SetResize(resize bool) { g.opts.Resize = resize }

// Apply implements layout.Algorithm. It does nothing when clean is false.
func (g *Grid) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(g.name, ctx, func() error {
		g.place(ctx.Entities(), ctx.Bounds())
		return nil
	})
}

func (g *Grid) place(entities []graph.Entity, bounds graph.Rect) {
	n := len(entities)
	if n == 0 {
		return
	}
	rows, cols := g.dimensions(n, bounds)

	cellW := bounds.W / float64(cols)
	cellH := max(bounds.H-g.opts.RowPadding*float64(rows-1), 0) / float64(rows)
	size := cellSize(cellW, cellH, g.opts.AspectRatio)

	layout.Logger(g.opts.Logger).Debug("grid", "entities", n, "rows", rows, "cols", cols,
		"cell", size)

	for i, e := range entities {
		row, col := i/cols, i%cols
		if g.opts.Resize && e.Resizable() {
			e.SetSize(size)
		}
		if !e.Movable() {
			continue
		}
		e.SetPosition(r2.Vec{
			X: bounds.X + (float64(col)+0.5)*cellW,
			Y: bounds.Y + float64(row)*(cellH+g.opts.RowPadding) + cellH/2,
		})
	}
}

func (g *Grid) dimensions(n int, bounds graph.Rect) (rows, cols int) {
	switch {
	case g.fixedRows:
		return 1, n
	case g.fixedCols:
		return n, 1
	case g.opts.AspectRatio == 1:
		ratio := 1.0
		if !bounds.Empty() {
			ratio = bounds.W / bounds.H
		}
		return Dimensions(n, ratio)
	default:
		s := int(math.Ceil(math.Sqrt(float64(n))))
		return s, s
	}
}

// Dimensions returns the smallest grid for n cells whose shape follows the
// width/height ratio of the area: rows*cols >= n while removing any row or
// any column would leave fewer than n cells.
func Dimensions(n int, ratio float64) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	cols = max(int(math.Round(math.Sqrt(float64(n)*ratio))), 1)
	cols = min(cols, n)
	rows = (n + cols - 1) / cols
	for cols > 1 && rows*(cols-1) >= n {
		cols--
	}
	return rows, cols
}

// cellSize returns the entity size for a cell, floored at MinCellSide and
// shrunk along one axis to match ratio.
func cellSize(cellW, cellH, ratio float64) r2.Vec {
	w := max(CellFill*cellW, MinCellSide)
	h := max(CellFill*cellH, MinCellSide)
	if w/h > ratio {
		w = max(h*ratio, MinCellSide)
	} else {
		h = max(w/ratio, MinCellSide)
	}
	return r2.Vec{X: w, Y: h}
}
