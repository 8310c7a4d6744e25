package spacetree

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/forest"
)

// flush re-snaps entities the caller moved since the last write, then writes
// every entity. Visible entities go to their breadth coordinate and their
// layer's center line; layers are as thick as their thickest entity plus
// LayerGap. Hidden entities go where their nearest visible ancestor is.
func (s *SpaceTree) flush() {
	s.snapMoved()

	centers := s.layerCenters()

	at := make([]r2.Vec, s.forest.Len())
	s.forest.PreOrder(func(h forest.Handle) bool {
		switch {
		case h == forest.SuperRoot:
		case s.index[h] >= 0:
			at[h] = s.point(s.pos[h], centers[s.forest.Depth(h)])
		default:
			at[h] = at[s.forest.Parent(h)]
		}
		return true
	})

	for h := forest.Handle(1); int(h) < s.forest.Len(); h++ {
		e := s.forest.Entity(h)
		if e.Movable() {
			e.SetPosition(at[h])
		}
		s.written[h] = e.Position()
		s.placed[h] = true
	}
}

// snapMoved moves every visible entity whose position changed since the
// last write to its new breadth coordinate, protecting only the super-root.
func (s *SpaceTree) snapMoved() {
	var moved []forest.Handle
	for _, layer := range s.layers {
		for _, h := range layer {
			e := s.forest.Entity(h)
			if s.placed[h] && e.Movable() && e.Position() != s.written[h] {
				moved = append(moved, h)
			}
		}
	}
	for _, h := range moved {
		if s.index[h] < 0 {
			continue
		}
		s.moveNode(h, s.breadthOf(s.forest.Entity(h).Position()), forest.SuperRoot)
	}
}

// layerCenters returns the depth coordinate of each layer's center line,
// measured from the bounds edge the tree grows away from.
func (s *SpaceTree) layerCenters() []float64 {
	out := make([]float64, len(s.layers))
	offset := 0.0
	for d, layer := range s.layers {
		thick := 0.0
		for _, h := range layer {
			thick = max(thick, s.thickness(h))
		}
		thick += s.opts.LayerGap
		out[d] = offset + thick/2
		offset += thick
	}
	return out
}

// point maps a breadth coordinate and a depth offset onto the bounds.
func (s *SpaceTree) point(breadth, depth float64) r2.Vec {
	b := s.bounds
	switch dir := s.opts.Direction; {
	case dir.Horizontal() && dir.Reversed():
		return r2.Vec{X: b.X + b.W - depth, Y: b.Y + breadth}
	case dir.Horizontal():
		return r2.Vec{X: b.X + depth, Y: b.Y + breadth}
	case dir.Reversed():
		return r2.Vec{X: b.X + breadth, Y: b.Y + b.H - depth}
	default:
		return r2.Vec{X: b.X + breadth, Y: b.Y + depth}
	}
}

// breadthOf projects a position onto the breadth axis.
func (s *SpaceTree) breadthOf(p r2.Vec) float64 {
	if s.opts.Direction.Horizontal() {
		return p.Y - s.bounds.Y
	}
	return p.X - s.bounds.X
}
