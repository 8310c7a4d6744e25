package graph

import (
	errs "github.com/matzehuels/stacklayout/pkg/errors"
)

// Topology is an indexed view of a context's entities and edges. Strategies
// build one per pass and address entities by their index in the entity slice.
//
// Successors and Predecessors are de-duplicated and exclude self-loops, in
// edge order. Outgoing and Incoming return every edge, including self-loops
// and parallel edges.
type Topology struct {
	entities []Entity
	edges    []Edge
	index    map[string]int
	ends     [][2]int

	outgoing [][]int
	incoming [][]int
	succ     [][]int
	pred     [][]int
}

// NewTopology indexes entities and edges. It returns a STRUCTURAL error when
// two entities share an ID or an edge references an entity outside the slice.
func NewTopology(entities []Entity, edges []Edge) (*Topology, error) {
	n := len(entities)
	t := &Topology{
		entities: entities,
		edges:    edges,
		index:    make(map[string]int, n),
		ends:     make([][2]int, len(edges)),
		outgoing: make([][]int, n),
		incoming: make([][]int, n),
		succ:     make([][]int, n),
		pred:     make([][]int, n),
	}
	for i, e := range entities {
		if e == nil {
			return nil, errs.Structural("entity %d is nil", i)
		}
		if _, dup := t.index[e.ID()]; dup {
			return nil, errs.Structural("duplicate entity id %q", e.ID())
		}
		t.index[e.ID()] = i
	}

	seen := make(map[[2]int]bool, len(edges))
	for k, e := range edges {
		src, ok := t.lookup(e.Source())
		if !ok {
			return nil, errs.Structural("edge %d: unknown source entity", k)
		}
		dst, ok := t.lookup(e.Target())
		if !ok {
			return nil, errs.Structural("edge %d: unknown target entity", k)
		}
		t.ends[k] = [2]int{src, dst}
		t.outgoing[src] = append(t.outgoing[src], k)
		t.incoming[dst] = append(t.incoming[dst], k)
		if src == dst || seen[[2]int{src, dst}] {
			continue
		}
		seen[[2]int{src, dst}] = true
		t.succ[src] = append(t.succ[src], dst)
		t.pred[dst] = append(t.pred[dst], src)
	}
	return t, nil
}

func (t *Topology) lookup(e Entity) (int, bool) {
	if e == nil {
		return 0, false
	}
	i, ok := t.index[e.ID()]
	return i, ok
}

// Len returns the number of entities.
func (t *Topology) Len() int { return len(t.entities) }

// Entities returns the indexed entity slice.
func (t *Topology) Entities() []Entity { return t.entities }

// Entity returns the entity at index i.
func (t *Topology) Entity(i int) Entity { return t.entities[i] }

// Index returns the index of the entity with the given ID.
func (t *Topology) Index(id string) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// Edges returns the indexed edge slice.
func (t *Topology) Edges() []Edge { return t.edges }

// Endpoints returns the source and target indices of edge k.
func (t *Topology) Endpoints(k int) (src, dst int) {
	return t.ends[k][0], t.ends[k][1]
}

// Successors returns the distinct targets of i's outgoing edges.
func (t *Topology) Successors(i int) []int { return t.succ[i] }

// Predecessors returns the distinct sources of i's incoming edges.
func (t *Topology) Predecessors(i int) []int { return t.pred[i] }

// Outgoing returns the indices of edges leaving i.
func (t *Topology) Outgoing(i int) []int { return t.outgoing[i] }

// Incoming returns the indices of edges entering i.
func (t *Topology) Incoming(i int) []int { return t.incoming[i] }

// Sources returns entities without predecessors, in index order.
func (t *Topology) Sources() []int {
	var out []int
	for i := range t.entities {
		if len(t.pred[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Sinks returns entities without successors, in index order.
func (t *Topology) Sinks() []int {
	var out []int
	for i := range t.entities {
		if len(t.succ[i]) == 0 {
			out = append(out, i)
		}
	}
	return out
}

// Connected reports whether an edge joins i and j in either direction.
func (t *Topology) Connected(i, j int) bool {
	for _, k := range t.outgoing[i] {
		if t.ends[k][1] == j {
			return true
		}
	}
	for _, k := range t.incoming[i] {
		if t.ends[k][0] == j {
			return true
		}
	}
	return false
}
