package layered

import "slices"

// CountCrossings returns the number of edge crossings between all pairs of
// adjacent layers.
func (l *Layering) CountCrossings() int {
	total := 0
	for i := 0; i+1 < len(l.layers); i++ {
		total += l.LayerCrossings(i)
	}
	return total
}

// LayerCrossings counts crossings between layer i and layer i+1.
//
// Two edges (u1,v1) and (u2,v2) cross iff index(u1) < index(u2) and
// index(v1) > index(v2). Sorting edges by source index turns this into an
// inversion count over target indices, done with a Fenwick tree in
// O(E log V).
func (l *Layering) LayerCrossings(i int) int {
	if i < 0 || i+1 >= len(l.layers) {
		return 0
	}
	lower := len(l.layers[i+1])
	if len(l.layers[i]) == 0 || lower == 0 {
		return 0
	}

	fenwick := make([]int, lower+1)
	crossings, total := 0, 0
	var targets []int
	for _, h := range l.layers[i] {
		targets = targets[:0]
		for _, s := range l.wrappers[h].Succ {
			targets = append(targets, l.wrappers[s].Index)
		}
		slices.Sort(targets)

		// Query first so edges sharing a source never count against each other.
		for _, pos := range targets {
			lessOrEqual := 0
			for q := pos + 1; q > 0; q -= q & (-q) {
				lessOrEqual += fenwick[q]
			}
			crossings += total - lessOrEqual
		}
		for _, pos := range targets {
			total++
			for idx := pos + 1; idx <= lower; idx += idx & (-idx) {
				fenwick[idx]++
			}
		}
	}
	return crossings
}

// pairCrossings counts crossings between the edges of u and v toward one
// adjacent layer when u is placed left of v. Shared neighbors never cross.
func (l *Layering) pairCrossings(u, v int, preds bool) int {
	un, vn := l.wrappers[u].Succ, l.wrappers[v].Succ
	if preds {
		un, vn = l.wrappers[u].Pred, l.wrappers[v].Pred
	}
	crossings := 0
	for _, a := range un {
		ia := l.wrappers[a].Index
		for _, b := range vn {
			if ia > l.wrappers[b].Index {
				crossings++
			}
		}
	}
	return crossings
}

// bothCrossings is pairCrossings toward both adjacent layers.
func (l *Layering) bothCrossings(u, v int) int {
	return l.pairCrossings(u, v, true) + l.pairCrossings(u, v, false)
}
