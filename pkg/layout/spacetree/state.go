package spacetree

import (
	"math"
	"slices"

	"github.com/matzehuels/stacklayout/pkg/forest"
)

// eps absorbs rounding when comparing breadth coordinates.
const eps = 1e-6

// snapshot is a full copy of the mutable per-handle state.
type snapshot struct {
	pos      []float64
	expanded []bool
}

func (s *SpaceTree) snapshot() snapshot {
	return snapshot{pos: slices.Clone(s.pos), expanded: slices.Clone(s.expanded)}
}

func (s *SpaceTree) restore(snap snapshot) {
	copy(s.pos, snap.pos)
	copy(s.expanded, snap.expanded)
	s.relayer()
}

// relayer recomputes the visible layers from the expansion flags. The
// super-root is always expanded and never part of a layer.
func (s *SpaceTree) relayer() {
	s.expanded[forest.SuperRoot] = true
	for h := range s.index {
		s.index[h] = -1
	}
	s.layers = s.layers[:0]
	s.forest.PreOrder(func(h forest.Handle) bool {
		if h != forest.SuperRoot {
			d := s.forest.Depth(h)
			for len(s.layers) <= d {
				s.layers = append(s.layers, nil)
			}
			s.index[h] = len(s.layers[d])
			s.layers[d] = append(s.layers[d], h)
		}
		return s.expanded[h]
	})
}

// breadth returns the extent of h along the breadth axis.
func (s *SpaceTree) breadth(h forest.Handle) float64 {
	size := s.forest.Entity(h).Size()
	if s.opts.Direction.Horizontal() {
		return size.Y
	}
	return size.X
}

// thickness returns the extent of h along the depth axis.
func (s *SpaceTree) thickness(h forest.Handle) float64 {
	size := s.forest.Entity(h).Size()
	if s.opts.Direction.Horizontal() {
		return size.X
	}
	return size.Y
}

// available returns the breadth of the bounds.
func (s *SpaceTree) available() float64 {
	if s.opts.Direction.Horizontal() {
		return s.bounds.H
	}
	return s.bounds.W
}

// gap is LeafGap between siblings and BranchGap otherwise.
func (s *SpaceTree) gap(a, b forest.Handle) float64 {
	if s.forest.Parent(a) == s.forest.Parent(b) {
		return s.opts.LeafGap
	}
	return s.opts.BranchGap
}

// sep is the minimum center distance between neighbors a (left) and b.
func (s *SpaceTree) sep(a, b forest.Handle) float64 {
	return (s.breadth(a)+s.breadth(b))/2 + s.gap(a, b)
}

// required is the breadth a run of neighbors needs.
func (s *SpaceTree) required(hs []forest.Handle) float64 {
	total := 0.0
	for i, h := range hs {
		total += s.breadth(h)
		if i > 0 {
			total += s.gap(hs[i-1], h)
		}
	}
	return total
}

// extent returns the leftmost and rightmost edge over all visible nodes.
func (s *SpaceTree) extent() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, layer := range s.layers {
		if len(layer) == 0 {
			continue
		}
		first, last := layer[0], layer[len(layer)-1]
		lo = min(lo, s.pos[first]-s.breadth(first)/2)
		hi = max(hi, s.pos[last]+s.breadth(last)/2)
	}
	return lo, hi
}

// window is the breadth interval nodes are kept within: the available
// breadth, widened to whatever the layout already occupies.
func (s *SpaceTree) window() (lo, hi float64) {
	lo, hi = 0, s.available()
	if l, r := s.extent(); l <= r {
		lo, hi = min(lo, l), max(hi, r)
	}
	return lo, hi
}

// visibleChildren returns h's children when h is expanded.
func (s *SpaceTree) visibleChildren(h forest.Handle) []forest.Handle {
	if !s.expanded[h] {
		return nil
	}
	return s.forest.Children(h)
}

// span returns the first and last visible child of h, or false when h shows
// no children.
func (s *SpaceTree) span(h forest.Handle) (first, last forest.Handle, ok bool) {
	children := s.visibleChildren(h)
	if len(children) == 0 {
		return forest.None, forest.None, false
	}
	return children[0], children[len(children)-1], true
}

// between reports whether h lies between its first and last visible child.
func (s *SpaceTree) between(h forest.Handle) bool {
	first, last, ok := s.span(h)
	if !ok || h == forest.SuperRoot {
		return true
	}
	return s.pos[h] >= s.pos[first]-eps && s.pos[h] <= s.pos[last]+eps
}

// violations lists the visible parents outside their children's span.
func (s *SpaceTree) violations() []forest.Handle {
	var out []forest.Handle
	for _, layer := range s.layers {
		for _, h := range layer {
			if !s.between(h) {
				out = append(out, h)
			}
		}
	}
	return out
}

// neighbors returns the visible nodes left and right of h in its layer.
func (s *SpaceTree) neighbors(h forest.Handle) (left, right forest.Handle) {
	layer := s.layers[s.forest.Depth(h)]
	i := s.index[h]
	left, right = forest.None, forest.None
	if i > 0 {
		left = layer[i-1]
	}
	if i+1 < len(layer) {
		right = layer[i+1]
	}
	return left, right
}

// room returns the interval h alone may occupy without crowding its
// neighbors or leaving the window.
func (s *SpaceTree) room(h forest.Handle) (lo, hi float64) {
	wlo, whi := s.window()
	lo, hi = wlo+s.breadth(h)/2, whi-s.breadth(h)/2
	left, right := s.neighbors(h)
	if left != forest.None {
		lo = max(lo, s.pos[left]+s.sep(left, h))
	}
	if right != forest.None {
		hi = min(hi, s.pos[right]-s.sep(h, right))
	}
	return lo, hi
}

// levels returns, per depth, the first and last layer index of the visible
// subtree of h. With self=false h itself is left out.
func (s *SpaceTree) levels(h forest.Handle, self bool) map[int][2]int {
	out := make(map[int][2]int)
	var walk func(n forest.Handle, include bool)
	walk = func(n forest.Handle, include bool) {
		if include && s.index[n] >= 0 {
			d, i := s.forest.Depth(n), s.index[n]
			if r, ok := out[d]; ok {
				out[d] = [2]int{min(r[0], i), max(r[1], i)}
			} else {
				out[d] = [2]int{i, i}
			}
		}
		for _, c := range s.visibleChildren(n) {
			walk(c, true)
		}
	}
	walk(h, self)
	return out
}

// shiftRoom returns the interval of deltas the visible subtree of h can be
// shifted by as a block. The interval always contains 0.
func (s *SpaceTree) shiftRoom(h forest.Handle, self bool) (lo, hi float64) {
	wlo, whi := s.window()
	lo, hi = math.Inf(-1), math.Inf(1)
	for d, r := range s.levels(h, self) {
		layer := s.layers[d]
		first, last := layer[r[0]], layer[r[1]]
		if r[0] > 0 {
			left := layer[r[0]-1]
			lo = max(lo, s.pos[left]+s.sep(left, first)-s.pos[first])
		} else {
			lo = max(lo, wlo+s.breadth(first)/2-s.pos[first])
		}
		if r[1]+1 < len(layer) {
			right := layer[r[1]+1]
			hi = min(hi, s.pos[right]-s.sep(last, right)-s.pos[last])
		} else {
			hi = min(hi, whi-s.breadth(last)/2-s.pos[last])
		}
	}
	return min(lo, 0), max(hi, 0)
}

// shift moves the visible subtree of h by delta.
func (s *SpaceTree) shift(h forest.Handle, self bool, delta float64) {
	var walk func(n forest.Handle, include bool)
	walk = func(n forest.Handle, include bool) {
		if include {
			s.pos[n] += delta
		}
		for _, c := range s.visibleChildren(n) {
			walk(c, true)
		}
	}
	walk(h, self)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
