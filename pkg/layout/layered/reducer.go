package layered

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/observability"
)

// Reducer reorders the wrappers within each layer of a layering to reduce
// edge crossings. Layer membership never changes.
type Reducer interface {
	Name() string
	Reduce(l *Layering)
}

// =============================================================================
// Barycentric
// =============================================================================

// DefaultSweeps is the sweep budget of the barycentric reducer.
const DefaultSweeps = 35

// Barycentric sorts layers by the mean index of their neighbors, alternating
// downward sweeps (predecessors) and upward sweeps (successors). Layers are
// padded to equal length first; after each sweep a refine pass (down, up,
// down) moves every wrapper onto its rounded barycenter when a padding slot
// is free there. The ordering with the fewest crossings wins.
type Barycentric struct {
	// Sweeps is the sweep budget. Zero means DefaultSweeps.
	Sweeps int
}

// Name implements Reducer.
func (b *Barycentric) Name() string { return "barycentric" }

// Reduce implements Reducer.
func (b *Barycentric) Reduce(l *Layering) {
	if l.Layers() < 2 {
		return
	}
	sweeps := b.Sweeps
	if sweeps <= 0 {
		sweeps = DefaultSweeps
	}

	l.pad()
	best, bestCrossings := l.snapshot(), l.CountCrossings()
	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		down := i%2 == 0
		b.sweep(l, down)
		b.refine(l, true)
		b.refine(l, false)
		b.refine(l, true)
		if c := l.CountCrossings(); c < bestCrossings {
			best, bestCrossings = l.snapshot(), c
		}
	}
	l.restore(best)
	l.strip()
}

func (b *Barycentric) sweep(l *Layering, down bool) {
	for _, i := range sweepOrder(l.Layers(), down) {
		layer := slices.Clone(l.Layer(i))
		keys := make(map[int]float64, len(layer))
		for _, h := range layer {
			keys[h] = barycenter(l, h, down)
		}
		slices.SortStableFunc(layer, func(a, c int) int {
			switch ka, kc := keys[a], keys[c]; {
			case ka < kc:
				return -1
			case ka > kc:
				return 1
			default:
				return 0
			}
		})
		l.setOrder(i, layer)
	}
}

func (b *Barycentric) refine(l *Layering, down bool) {
	for _, i := range sweepOrder(l.Layers(), down) {
		layer := l.Layer(i)
		for _, h := range slices.Clone(layer) {
			w := l.Wrapper(h)
			if w.Kind == Padding {
				continue
			}
			target := int(math.Round(barycenter(l, h, down)))
			target = max(0, min(target, len(layer)-1))
			if target == w.Index || l.Wrapper(layer[target]).Kind != Padding {
				continue
			}
			from := w.Index
			layer[from], layer[target] = layer[target], layer[from]
			l.Wrapper(layer[from]).Index = from
			l.Wrapper(layer[target]).Index = target
		}
	}
}

// barycenter is the mean index of h's neighbors in the previous layer (down)
// or the next layer (up). Wrappers without such neighbors keep their index.
func barycenter(l *Layering, h int, down bool) float64 {
	w := l.Wrapper(h)
	nbrs := w.Succ
	if down {
		nbrs = w.Pred
	}
	if len(nbrs) == 0 {
		return float64(w.Index)
	}
	sum := 0.0
	for _, n := range nbrs {
		sum += float64(l.Wrapper(n).Index)
	}
	return sum / float64(len(nbrs))
}

// sweepOrder lists the layers a sweep visits: 1..n-1 downward, n-2..0 upward.
func sweepOrder(n int, down bool) []int {
	out := make([]int, 0, n)
	if down {
		for i := 1; i < n; i++ {
			out = append(out, i)
		}
		return out
	}
	for i := n - 2; i >= 0; i-- {
		out = append(out, i)
	}
	return out
}

// =============================================================================
// Split
// =============================================================================

// Split sorts each layer like a quicksort: a random pivot splits the layer
// into the wrappers that cross less when placed left of it and those that
// cross less when placed right of it. Ties keep the current relative order.
// One downward sweep (against predecessors) is followed by one upward sweep
// (against successors).
type Split struct {
	rng *rand.Rand
}

// NewSplit creates a split reducer whose pivots are drawn from a generator
// seeded with seed.
func NewSplit(seed uint64) *Split {
	return &Split{rng: rand.New(rand.NewPCG(seed, seed^0x5eed))}
}

// Name implements Reducer.
func (s *Split) Name() string { return "split" }

// Reduce implements Reducer.
func (s *Split) Reduce(l *Layering) {
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(0, 0x5eed))
	}
	for _, down := range []bool{true, false} {
		for _, i := range sweepOrder(l.Layers(), down) {
			l.setOrder(i, s.sort(l, slices.Clone(l.Layer(i)), down))
		}
	}
}

func (s *Split) sort(l *Layering, hs []int, preds bool) []int {
	if len(hs) < 2 {
		return hs
	}
	pivot := hs[s.rng.IntN(len(hs))]
	pi := l.Wrapper(pivot).Index

	var left, right []int
	for _, h := range hs {
		if h == pivot {
			continue
		}
		before := l.pairCrossings(h, pivot, preds)
		after := l.pairCrossings(pivot, h, preds)
		switch {
		case before < after:
			left = append(left, h)
		case before > after:
			right = append(right, h)
		case l.Wrapper(h).Index < pi:
			left = append(left, h)
		default:
			right = append(right, h)
		}
	}

	out := append(s.sort(l, left, preds), pivot)
	return append(out, s.sort(l, right, preds)...)
}

// =============================================================================
// Greedy
// =============================================================================

// Greedy swaps adjacent wrappers whenever the swap lowers their crossings
// with both neighboring layers, or keeps a nonzero count unchanged. It stops
// after 3 consecutive sweeps without a swap, or at MaxSweeps, in which case
// non-convergence is reported and the ordering with the fewest crossings is
// kept.
type Greedy struct {
	// MaxSweeps caps the number of sweeps. Zero means 100.
	MaxSweeps int

	Logger *log.Logger
}

// Name implements Reducer.
func (g *Greedy) Name() string { return "greedy" }

// reduce runs the sweeps and reports whether they stopped before the cap.
func (g *Greedy) reduce(l *Layering) bool {
	limit := g.MaxSweeps
	if limit <= 0 {
		limit = 100
	}

	best, bestCrossings := l.snapshot(), l.CountCrossings()
	stale := 0
	for sweep := 0; sweep < limit; sweep++ {
		changed := false
		for i := range l.Layers() {
			layer := l.Layer(i)
			for k := 0; k+1 < len(layer); k++ {
				u, v := layer[k], layer[k+1]
				now := l.bothCrossings(u, v)
				swapped := l.bothCrossings(v, u)
				if swapped < now || (swapped == now && now > 0) {
					layer[k], layer[k+1] = v, u
					l.Wrapper(v).Index = k
					l.Wrapper(u).Index = k + 1
					changed = true
				}
			}
		}
		if c := l.CountCrossings(); c < bestCrossings {
			best, bestCrossings = l.snapshot(), c
		}
		if changed {
			stale = 0
			continue
		}
		if stale++; stale == 3 {
			l.restore(best)
			return true
		}
	}
	l.restore(best)
	return false
}

// Reduce implements Reducer.
func (g *Greedy) Reduce(l *Layering) {
	if g.reduce(l) {
		return
	}
	observability.Layout().OnNonConvergence(g.Name(), "sweep cap reached")
	layout.Logger(g.Logger).Warn("greedy reducer did not converge", "crossings", l.CountCrossings())
}
