package graph

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectFromBox converts a min/max box into a Rect.
func RectFromBox(b r2.Box) Rect {
	b = b.Canon()
	return Rect{X: b.Min.X, Y: b.Min.Y, W: b.Max.X - b.Min.X, H: b.Max.Y - b.Min.Y}
}

// Box returns the rectangle as a min/max box.
func (r Rect) Box() r2.Box {
	return r2.Box{Min: r.Min(), Max: r.Max()}
}

// Min returns the top-left corner.
func (r Rect) Min() r2.Vec { return r2.Vec{X: r.X, Y: r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() r2.Vec { return r2.Vec{X: r.X + r.W, Y: r.Y + r.H} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() r2.Vec { return r2.Vec{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Size returns the width and height as a vector.
func (r Rect) Size() r2.Vec { return r2.Vec{X: r.W, Y: r.H} }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p r2.Vec) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inset shrinks the rectangle by dx on the left and right and dy on the top
// and bottom. Dimensions never go below zero; an over-inset rectangle
// collapses onto its center.
func (r Rect) Inset(dx, dy float64) Rect {
	c := r.Center()
	w := max(r.W-2*dx, 0)
	h := max(r.H-2*dy, 0)
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

// Entity is a node as seen by the layout engine. Implementations are owned by
// the caller; strategies only read and write attributes.
//
// Position is the entity center. Size is the full extent. An AspectRatio of
// zero or less means the entity has no preferred width/height ratio.
type Entity interface {
	ID() string
	Position() r2.Vec
	SetPosition(r2.Vec)
	Size() r2.Vec
	SetSize(r2.Vec)
	Movable() bool
	Resizable() bool
	AspectRatio() float64
}

// Edge is a directed, weighted connection between two entities. A Weight of
// zero or less is treated by strategies as a small positive default.
type Edge interface {
	Source() Entity
	Target() Entity
	Weight() float64
}

// Context is one layout session supplied by the caller. Entities and Edges
// must return the same slices for the duration of a pass; stateful strategies
// detect a new session by a change in the identity or length of the entity
// slice.
//
// PreLayout and PostLayout bracket incremental stepping so the caller can
// suspend its own bookkeeping (undo recording, change notifications) while a
// strategy mutates entities.
type Context interface {
	Entities() []Entity
	Edges() []Edge
	Bounds() Rect
	PreLayout()
	PostLayout()
}

// Extent returns the bounding rectangle of an entity's full size.
func Extent(e Entity) Rect {
	p, s := e.Position(), e.Size()
	return Rect{X: p.X - s.X/2, Y: p.Y - s.Y/2, W: s.X, H: s.Y}
}
