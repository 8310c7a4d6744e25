package spacetree

import (
	"math"
	"slices"

	"github.com/matzehuels/stacklayout/pkg/forest"
)

// moveNode moves the visible subtree of h so that h lands on target. Each
// attempt starts from a fresh snapshot; when the subtree has no room, or
// re-centering the ancestors fails, the nearest blocking subtree that is
// neither an ancestor of h nor on the path to protected is collapsed and the
// move retried. Without a candidate the move is clamped to the room left.
func (s *SpaceTree) moveNode(h forest.Handle, target float64, protected forest.Handle) {
	for attempt := 0; attempt < s.forest.Len(); attempt++ {
		delta := target - s.pos[h]
		if math.Abs(delta) < eps {
			return
		}
		snap := s.snapshot()
		if lo, hi := s.shiftRoom(h, true); delta >= lo-eps && delta <= hi+eps {
			s.shift(h, true, delta)
			if s.repairAncestors(h) {
				return
			}
			s.restore(snap)
		}

		c := s.blockingCandidate(h, delta, protected)
		if c == forest.None {
			break
		}
		s.expanded[c] = false
		s.relayer()
		s.report.Collapses++
	}

	lo, hi := s.shiftRoom(h, true)
	delta := s.clampToParent(h, clamp(target-s.pos[h], lo, hi), lo, hi)
	s.shift(h, true, delta)
}

// repairAncestors moves each ancestor of h, alone, back between its first
// and last child. It stops at the first ancestor that already is, and fails
// when an ancestor has no room to move.
func (s *SpaceTree) repairAncestors(h forest.Handle) bool {
	for p := s.forest.Parent(h); p != forest.SuperRoot && p != forest.None; p = s.forest.Parent(p) {
		if s.between(p) {
			return true
		}
		first, last, _ := s.span(p)
		target := clamp(s.pos[p], s.pos[first], s.pos[last])
		lo, hi := s.room(p)
		if target < lo-eps || target > hi+eps {
			return false
		}
		s.pos[p] = target
	}
	return true
}

// clampToParent limits delta so h does not pass its parent when h is the
// parent's first or last visible child. Falls back to 0 when that bound and
// the room [lo, hi] do not overlap.
func (s *SpaceTree) clampToParent(h forest.Handle, delta, lo, hi float64) float64 {
	p := s.forest.Parent(h)
	if p == forest.SuperRoot || p == forest.None {
		return delta
	}
	first, last, _ := s.span(p)
	lower, upper := math.Inf(-1), math.Inf(1)
	if h == first {
		upper = s.pos[p] - s.pos[h]
	}
	if h == last {
		lower = s.pos[p] - s.pos[h]
	}
	d := clamp(delta, lower, upper)
	if d < lo-eps || d > hi+eps {
		return 0
	}
	return d
}

// blockingCandidate finds the parent of the nearest neighbor blocking a shift
// of h's subtree by delta, deepest level first.
func (s *SpaceTree) blockingCandidate(h forest.Handle, delta float64, protected forest.Handle) forest.Handle {
	levels := s.levels(h, true)
	depths := make([]int, 0, len(levels))
	for d := range levels {
		depths = append(depths, d)
	}
	slices.Sort(depths)
	slices.Reverse(depths)

	for _, d := range depths {
		r, layer := levels[d], s.layers[d]
		blocker := forest.None
		switch {
		case delta > 0 && r[1]+1 < len(layer):
			last, next := layer[r[1]], layer[r[1]+1]
			if s.pos[last]+delta > s.pos[next]-s.sep(last, next)+eps {
				blocker = next
			}
		case delta < 0 && r[0] > 0:
			first, prev := layer[r[0]], layer[r[0]-1]
			if s.pos[first]+delta < s.pos[prev]+s.sep(prev, first)-eps {
				blocker = prev
			}
		}
		if blocker == forest.None {
			continue
		}
		if q := s.forest.Parent(blocker); s.collapsible(q, h, protected) {
			return q
		}
	}
	return forest.None
}
