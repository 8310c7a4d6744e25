package layered

import (
	"fmt"
	"slices"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
)

// Kind classifies a wrapper in a [Layering].
type Kind int

const (
	// Regular wrappers stand for an entity of the context.
	Regular Kind = iota
	// Dummy wrappers stand for one segment of an edge spanning several
	// layers. Consecutive dummies of one edge form a chain.
	Dummy
	// Padding wrappers only exist while the barycentric reducer runs.
	Padding
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Regular:
		return "regular"
	case Dummy:
		return "dummy"
	case Padding:
		return "padding"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Wrapper is one node of a layering. Pred and Succ only ever reference
// wrappers in the previous and next layer.
type Wrapper struct {
	Entity graph.Entity // nil unless Kind is Regular
	Kind   Kind
	Layer  int
	Index  int
	Pred   []int
	Succ   []int
}

// Layering is the layer assignment of a context. Wrappers are addressed by
// handle: handles 0..n-1 are the entities in context order, dummies and
// padding follow.
type Layering struct {
	topo     *graph.Topology
	wrappers []Wrapper
	layers   [][]int
}

// newLayering builds a layering from a per-entity layer assignment. Edges
// pointing to a lower layer are reversed; edges within one layer are dropped.
// Edges spanning more than one layer are replaced by dummy chains.
func newLayering(topo *graph.Topology, layer []int) *Layering {
	n := topo.Len()
	l := &Layering{topo: topo, wrappers: make([]Wrapper, n)}

	count := 0
	for _, v := range layer {
		count = max(count, v+1)
	}
	l.layers = make([][]int, count)
	for i := range n {
		l.wrappers[i] = Wrapper{Entity: topo.Entity(i), Kind: Regular, Layer: layer[i]}
		l.place(i)
	}

	for src := range n {
		for _, dst := range topo.Successors(src) {
			from, to := src, dst
			switch {
			case layer[from] == layer[to]:
				continue
			case layer[from] > layer[to]:
				from, to = to, from
			}
			l.connect(from, to)
		}
	}
	return l
}

// connect links from to to, inserting dummies for every layer in between.
func (l *Layering) connect(from, to int) {
	prev := from
	for ly := l.wrappers[from].Layer + 1; ly < l.wrappers[to].Layer; ly++ {
		h := l.add(Wrapper{Kind: Dummy, Layer: ly})
		l.link(prev, h)
		prev = h
	}
	l.link(prev, to)
}

func (l *Layering) link(from, to int) {
	if slices.Contains(l.wrappers[from].Succ, to) {
		return
	}
	l.wrappers[from].Succ = append(l.wrappers[from].Succ, to)
	l.wrappers[to].Pred = append(l.wrappers[to].Pred, from)
}

func (l *Layering) add(w Wrapper) int {
	h := len(l.wrappers)
	l.wrappers = append(l.wrappers, w)
	l.place(h)
	return h
}

// place appends h to the end of its layer.
func (l *Layering) place(h int) {
	w := &l.wrappers[h]
	w.Index = len(l.layers[w.Layer])
	l.layers[w.Layer] = append(l.layers[w.Layer], h)
}

// Topology returns the topology the layering was built from.
func (l *Layering) Topology() *graph.Topology { return l.topo }

// Len returns the number of wrappers, dummies included.
func (l *Layering) Len() int { return len(l.wrappers) }

// Wrapper returns the wrapper with handle h.
func (l *Layering) Wrapper(h int) *Wrapper { return &l.wrappers[h] }

// Layers returns the number of layers.
func (l *Layering) Layers() int { return len(l.layers) }

// Layer returns the handles of layer i in order. The slice is owned by the
// layering.
func (l *Layering) Layer(i int) []int { return l.layers[i] }

// MaxLayerSize returns the size of the largest layer.
func (l *Layering) MaxLayerSize() int {
	size := 0
	for _, layer := range l.layers {
		size = max(size, len(layer))
	}
	return size
}

// IDs returns the entity IDs of layer i in order. Dummies show up as "~N"
// with N their handle, padding as "_".
func (l *Layering) IDs(i int) []string {
	out := make([]string, len(l.layers[i]))
	for k, h := range l.layers[i] {
		switch w := l.wrappers[h]; w.Kind {
		case Regular:
			out[k] = w.Entity.ID()
		case Dummy:
			out[k] = fmt.Sprintf("~%d", h)
		default:
			out[k] = "_"
		}
	}
	return out
}

// setOrder replaces the order of layer i and reindexes its wrappers.
func (l *Layering) setOrder(i int, order []int) {
	l.layers[i] = order
	for k, h := range order {
		l.wrappers[h].Index = k
	}
}

// snapshot copies the order of every layer.
func (l *Layering) snapshot() [][]int {
	out := make([][]int, len(l.layers))
	for i, layer := range l.layers {
		out[i] = slices.Clone(layer)
	}
	return out
}

func (l *Layering) restore(orders [][]int) {
	for i, order := range orders {
		l.setOrder(i, slices.Clone(order))
	}
}

// pad fills every layer with padding wrappers up to the largest layer size.
func (l *Layering) pad() {
	size := l.MaxLayerSize()
	for i := range l.layers {
		for len(l.layers[i]) < size {
			l.add(Wrapper{Kind: Padding, Layer: i})
		}
	}
}

// strip removes padding from every layer and from the arena. Padding always
// sits at the end of the arena and is never linked.
func (l *Layering) strip() {
	for i, layer := range l.layers {
		l.setOrder(i, slices.DeleteFunc(layer, func(h int) bool { return l.wrappers[h].Kind == Padding }))
	}
	end := len(l.wrappers)
	for end > 0 && l.wrappers[end-1].Kind == Padding {
		end--
	}
	l.wrappers = l.wrappers[:end]
}

// check verifies that every wrapper sits at the index its layer claims.
func (l *Layering) check() error {
	for i, layer := range l.layers {
		for k, h := range layer {
			if w := l.wrappers[h]; w.Layer != i || w.Index != k {
				return errs.Structural("wrapper %d claims layer %d index %d, found at layer %d index %d", h, w.Layer, w.Index, i, k)
			}
		}
	}
	return nil
}
