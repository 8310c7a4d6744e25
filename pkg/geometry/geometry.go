// Package geometry provides the bounds and sizing helpers shared by layout
// strategies.
//
// All helpers operate on [graph.Entity] values in place. Positions are entity
// centers; "extent" means the rectangle covered by an entity's full size.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/graph"
)

const (
	// UniformSizeFactor is the share of the closest-pair distance that
	// MaximizeUniformSize gives to every entity.
	UniformSizeFactor = 0.8

	// MinSide is the smallest side length MaximizeUniformSize produces when
	// adjusting for an aspect ratio.
	MinSide = 8.0
)

// Bounds returns the bounding rectangle of entity centers, or of their full
// extents when includeSize is set. It returns the zero Rect for no entities.
func Bounds(entities []graph.Entity, includeSize bool) graph.Rect {
	if len(entities) == 0 {
		return graph.Rect{}
	}
	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, e := range entities {
		p := e.Position()
		var half r2.Vec
		if includeSize {
			half = r2.Scale(0.5, e.Size())
		}
		box.Min.X = min(box.Min.X, p.X-half.X)
		box.Min.Y = min(box.Min.Y, p.Y-half.Y)
		box.Max.X = max(box.Max.X, p.X+half.X)
		box.Max.Y = max(box.Max.Y, p.Y+half.Y)
	}
	return graph.RectFromBox(box)
}

// MinimumPairDistance returns the absolute horizontal and vertical distance
// between the two entities whose centers are closest. On exact ties the first
// pair in index order wins. It returns (0, 0) for fewer than two entities.
//
// The scan is O(n²).
func MinimumPairDistance(entities []graph.Entity) (dx, dy float64) {
	best := math.Inf(1)
	for i := 0; i < len(entities); i++ {
		pi := entities[i].Position()
		for j := i + 1; j < len(entities); j++ {
			d := r2.Sub(entities[j].Position(), pi)
			if dist := r2.Norm2(d); dist < best {
				best = dist
				dx, dy = math.Abs(d.X), math.Abs(d.Y)
			}
		}
	}
	return dx, dy
}

// MaximizeUniformSize gives every resizable entity the same size, derived
// from the closest pair of entities so that neighbors do not overlap. Entities
// with a preferred aspect ratio keep it, with the shorter side floored at
// MinSide. It does nothing for fewer than two entities or when the closest
// pair coincides.
func MaximizeUniformSize(entities []graph.Entity) {
	if len(entities) < 2 {
		return
	}
	dx, dy := MinimumPairDistance(entities)
	side := UniformSizeFactor * max(dx, dy)
	if side <= 0 {
		return
	}
	for _, e := range entities {
		if !e.Resizable() {
			continue
		}
		e.SetSize(fitAspect(side, side, e.AspectRatio()))
	}
}

// fitAspect shrinks one side of a w×h box so it matches ratio (w/h). A ratio
// of zero or less leaves the box unchanged.
func fitAspect(w, h, ratio float64) r2.Vec {
	switch {
	case ratio <= 0:
	case ratio >= 1:
		h = max(w/ratio, MinSide)
	default:
		w = max(h*ratio, MinSide)
	}
	return r2.Vec{X: w, Y: h}
}

// FitWithinBounds maps the entities' current layout onto dest, preserving each
// entity's relative position. Centers are mapped into dest inset by the
// largest half extent so every entity stays fully inside dest. Applying it
// twice without resizing leaves positions unchanged.
//
// When allowResize is set, resizable entities are first scaled by
// min(dest.W/src.W, dest.H/src.H) where src is the extent bounds. A single
// entity is centered in dest and, when resizing, fills dest while keeping its
// aspect ratio. Entities that are not movable are never moved.
func FitWithinBounds(entities []graph.Entity, dest graph.Rect, allowResize bool) {
	switch len(entities) {
	case 0:
		return
	case 1:
		fitSingle(entities[0], dest, allowResize)
		return
	}

	if allowResize {
		src := Bounds(entities, true)
		scale := min(dest.W/src.W, dest.H/src.H)
		if scale > 0 && !math.IsInf(scale, 0) && !math.IsNaN(scale) {
			for _, e := range entities {
				if e.Resizable() {
					e.SetSize(r2.Scale(scale, e.Size()))
				}
			}
		}
	}

	var half r2.Vec
	for _, e := range entities {
		s := e.Size()
		half.X = max(half.X, s.X/2)
		half.Y = max(half.Y, s.Y/2)
	}
	inner := dest.Inset(half.X, half.Y)
	src := Bounds(entities, false)

	for _, e := range entities {
		if !e.Movable() {
			continue
		}
		p := e.Position()
		e.SetPosition(r2.Vec{
			X: inner.X + relative(p.X, src.X, src.W)*inner.W,
			Y: inner.Y + relative(p.Y, src.Y, src.H)*inner.H,
		})
	}
}

// relative returns v's fraction along [origin, origin+span], or 0.5 for a
// degenerate span.
func relative(v, origin, span float64) float64 {
	if span <= 0 {
		return 0.5
	}
	return (v - origin) / span
}

func fitSingle(e graph.Entity, dest graph.Rect, allowResize bool) {
	if allowResize && e.Resizable() {
		w, h := dest.W, dest.H
		if ratio := e.AspectRatio(); ratio > 0 {
			if w/ratio <= h {
				h = w / ratio
			} else {
				w = h * ratio
			}
		}
		e.SetSize(r2.Vec{X: w, Y: h})
	}
	if e.Movable() {
		e.SetPosition(dest.Center())
	}
}
