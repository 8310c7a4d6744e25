package spacetree

import (
	"math"

	"github.com/matzehuels/stacklayout/pkg/forest"
)

// maximizeExpansion collapses everything, then expands breadth-first one
// layer at a time while each new layer fits. Children of roots are always
// shown. A layer that cannot be placed with every parent between its
// children is rolled back and expansion stops there.
func (s *SpaceTree) maximizeExpansion() {
	for h := range s.expanded {
		s.expanded[h] = false
	}
	s.relayer()
	if len(s.layers) == 0 {
		return
	}

	s.placeChildren(forest.SuperRoot, s.available()/2)
	if !s.fitNodesWithinBounds(s.layers[0], 0, s.available()) {
		s.fitted = false
	}

	for d := 0; d < len(s.layers); d++ {
		var parents, children []forest.Handle
		for _, h := range s.layers[d] {
			if c := s.forest.Children(h); len(c) > 0 {
				parents = append(parents, h)
				children = append(children, c...)
			}
		}
		if len(parents) == 0 {
			break
		}

		lo, hi := s.window()
		used := 0.0
		if el, eh := s.extent(); el <= eh {
			used = eh - el
		}
		if d > 0 && s.required(children) > max(used, s.available())+eps {
			break
		}

		snap := s.snapshot()
		for _, p := range parents {
			s.expanded[p] = true
		}
		s.relayer()
		for _, p := range parents {
			s.placeChildren(p, s.pos[p])
		}
		fits := s.fitNodesWithinBounds(s.layers[d+1], lo, hi)
		ok := s.childrenPositionsOK(d)
		if fits && ok {
			continue
		}
		if d == 0 {
			s.fitted = s.fitted && fits
			continue
		}
		s.restore(snap)
		break
	}

	s.centerParents()
}

// placeChildren lines the visible children of p up at minimum separation,
// centered on center.
func (s *SpaceTree) placeChildren(p forest.Handle, center float64) {
	children := s.visibleChildren(p)
	if len(children) == 0 {
		return
	}
	width := 0.0
	for i := 1; i < len(children); i++ {
		width += s.sep(children[i-1], children[i])
	}
	at := center - width/2
	for i, c := range children {
		if i > 0 {
			at += s.sep(children[i-1], c)
		}
		s.pos[c] = at
	}
}

// placeSubtree centers every visible descendant of h below its parent.
func (s *SpaceTree) placeSubtree(h forest.Handle) {
	s.placeChildren(h, s.pos[h])
	for _, c := range s.visibleChildren(h) {
		s.placeSubtree(c)
	}
}

// fitNodesWithinBounds pushes the run hs apart to minimum separation and
// into [lo, hi], keeping order and moving as little as possible. It
// alternates a left-to-right push with a right-to-left pull until nothing
// moves, bounded by len(hs)×100 rounds, and reports whether it settled.
// Separation holds on return even when the run does not fit.
func (s *SpaceTree) fitNodesWithinBounds(hs []forest.Handle, lo, hi float64) bool {
	n := len(hs)
	if n == 0 {
		return true
	}
	for round := 0; round < n*100; round++ {
		changed := false
		for i, h := range hs {
			floor := lo + s.breadth(h)/2
			if i > 0 {
				floor = s.pos[hs[i-1]] + s.sep(hs[i-1], h)
			}
			if s.pos[h] < floor-eps {
				s.pos[h] = floor
				changed = true
			}
		}
		for i := n - 1; i >= 0; i-- {
			h := hs[i]
			ceil := hi - s.breadth(h)/2
			if i < n-1 {
				ceil = s.pos[hs[i+1]] - s.sep(h, hs[i+1])
			}
			if s.pos[h] > ceil+eps {
				s.pos[h] = ceil
				changed = true
			}
		}
		if !changed {
			return true
		}
	}
	return false
}

// childrenPositionsOK checks that every parent in layer d lies between its
// first and last child, trying one corrective move per violation: first the
// parent alone, then its children as a block.
func (s *SpaceTree) childrenPositionsOK(d int) bool {
	for _, p := range s.layers[d] {
		if s.between(p) {
			continue
		}
		first, last, _ := s.span(p)
		target := clamp(s.pos[p], s.pos[first], s.pos[last])
		if lo, hi := s.room(p); target >= lo-eps && target <= hi+eps {
			s.pos[p] = target
			continue
		}

		delta := s.pos[p] - s.pos[first]
		if s.pos[p] > s.pos[last] {
			delta = s.pos[p] - s.pos[last]
		}
		if lo, hi := s.shiftRoom(p, false); delta >= lo-eps && delta <= hi+eps {
			s.shift(p, false, delta)
			continue
		}
		return false
	}
	return true
}

// centerParents moves every expanded parent over the midpoint of its first
// and last child (bottom-up), then moves child blocks under parents that
// could not move (top-down). Both passes respect neighbor room.
func (s *SpaceTree) centerParents() {
	for d := len(s.layers) - 1; d >= 0; d-- {
		for _, h := range s.layers[d] {
			first, last, ok := s.span(h)
			if !ok {
				continue
			}
			mid := (s.pos[first] + s.pos[last]) / 2
			lo, hi := s.room(h)
			if target := clamp(mid, lo, hi); math.Abs(target-mid) < math.Abs(s.pos[h]-mid) {
				s.pos[h] = target
			}
		}
	}
	for d := range s.layers {
		for _, h := range s.layers[d] {
			first, last, ok := s.span(h)
			if !ok {
				continue
			}
			delta := s.pos[h] - (s.pos[first]+s.pos[last])/2
			if math.Abs(delta) < eps {
				continue
			}
			lo, hi := s.shiftRoom(h, false)
			s.shift(h, false, clamp(delta, lo, hi))
		}
	}
}

// expand shows the children of h, collapsing other subtrees when a newly
// filled layer does not fit. Ancestors of h and h itself are never
// collapsed for it.
func (s *SpaceTree) expand(h forest.Handle) {
	if s.expanded[h] || len(s.forest.Children(h)) == 0 {
		s.expanded[h] = true
		return
	}
	lo, hi := s.window()
	s.expanded[h] = true
	s.relayer()
	if s.index[h] < 0 {
		return
	}
	s.placeSubtree(h)

	for d := s.forest.Depth(h) + 1; d < len(s.layers); d++ {
		for d < len(s.layers) && s.required(s.layers[d]) > hi-lo+eps {
			c := s.pressureCandidate(d, h)
			if c == forest.None {
				break
			}
			s.expanded[c] = false
			s.relayer()
			s.report.Collapses++
		}
		if d >= len(s.layers) {
			break
		}
		if !s.fitNodesWithinBounds(s.layers[d], lo, hi) {
			s.fitted = false
		}
	}
}

// pressureCandidate picks the expanded node in layer d-1 nearest to the
// subtree of h that may be collapsed to thin out layer d.
func (s *SpaceTree) pressureCandidate(d int, h forest.Handle) forest.Handle {
	layer := s.layers[d-1]
	at := s.index[h]
	if r, ok := s.levels(h, true)[d-1]; ok {
		at = r[0]
	}

	best, bestDist := forest.None, math.MaxInt
	for i, c := range layer {
		if dist := abs(i - at); dist < bestDist && s.collapsible(c, h, h) && len(s.visibleChildren(c)) > 0 {
			best, bestDist = c, dist
		}
	}
	return best
}

// collapse hides the children of h.
func (s *SpaceTree) collapse(h forest.Handle) {
	if h == forest.SuperRoot || !s.expanded[h] {
		return
	}
	s.expanded[h] = false
	s.relayer()
}

// collapsible reports whether q may be collapsed while moving or expanding h
// with protected as the protected node.
func (s *SpaceTree) collapsible(q, h, protected forest.Handle) bool {
	switch {
	case q == forest.SuperRoot || q == forest.None || !s.expanded[q]:
		return false
	case q == h || s.forest.IsAncestor(q, h):
		return false
	case q == protected || s.forest.IsAncestor(q, protected):
		return false
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
