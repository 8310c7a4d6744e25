package layered

import (
	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
)

// DefaultMaxLayers bounds the number of layers a provider may create.
const DefaultMaxLayers = 1024

// LayerProvider assigns every entity of a topology to a layer.
type LayerProvider interface {
	Name() string
	Assign(topo *graph.Topology) (*Layering, error)
}

// =============================================================================
// Simple
// =============================================================================

// Simple builds layers breadth-first: the first layer holds the entities
// without predecessors, every following layer the unplaced entities whose
// predecessors are all placed. When no entity qualifies (a cycle), the first
// unplaced entity in context order is taken so progress is guaranteed.
type Simple struct {
	// MaxLayers caps the layer count. Zero means DefaultMaxLayers.
	MaxLayers int
}

// Name implements LayerProvider.
func (s *Simple) Name() string { return "simple" }

// Assign implements LayerProvider. It fails with LAYER_LIMIT when the graph
// needs more than MaxLayers layers.
func (s *Simple) Assign(topo *graph.Topology) (*Layering, error) {
	n := topo.Len()
	limit := maxLayers(s.MaxLayers)
	layer := make([]int, n)
	placed := make([]bool, n)

	ready := func(i int) bool {
		for _, p := range topo.Predecessors(i) {
			if !placed[p] {
				return false
			}
		}
		return true
	}

	remaining := n
	for current := 0; remaining > 0; current++ {
		if current >= limit {
			return nil, errs.New(errs.ErrCodeLayerLimit, "layer assignment needs more than %d layers", limit)
		}
		var next []int
		for i := range n {
			if !placed[i] && ready(i) {
				next = append(next, i)
			}
		}
		if len(next) == 0 {
			for i := range n {
				if !placed[i] {
					next = append(next, i)
					break
				}
			}
		}
		for _, i := range next {
			layer[i] = current
			placed[i] = true
		}
		remaining -= len(next)
	}
	return newLayering(topo, layer), nil
}

// =============================================================================
// DFS
// =============================================================================

// DFS assigns layers by depth-first longest-path relaxation. Entities can be
// pinned to a layer with SetLayer; the search starts from pinned entities,
// then from sources, then from whatever is left unvisited, and unpinned start
// points begin at layer 0. Edges closing a cycle are ignored.
type DFS struct {
	// MaxLayers caps the layer count. Zero means DefaultMaxLayers.
	MaxLayers int

	fixed map[string]int
}

// Name implements LayerProvider.
func (d *DFS) Name() string { return "dfs" }

// SetLayer pins the entity with the given ID to a layer. Negative layers are
// rejected with INVALID_CONFIG.
func (d *DFS) SetLayer(id string, layer int) error {
	if layer < 0 {
		return errs.InvalidConfig("layer for %q must not be negative, got %d", id, layer)
	}
	if d.fixed == nil {
		d.fixed = make(map[string]int)
	}
	d.fixed[id] = layer
	return nil
}

// ClearLayers removes all pinned layers.
func (d *DFS) ClearLayers() { d.fixed = nil }

const (
	unvisited = iota
	open
	closed
)

type frame struct{ node, next int }

// Assign implements LayerProvider.
func (d *DFS) Assign(topo *graph.Topology) (*Layering, error) {
	n := topo.Len()
	limit := maxLayers(d.MaxLayers)
	layer := make([]int, n)
	pinned := make([]bool, n)
	state := make([]int, n)

	var starts []int
	for i := range n {
		layer[i] = -1
		if l, ok := d.fixed[topo.Entity(i).ID()]; ok {
			if l >= limit {
				return nil, errs.New(errs.ErrCodeLayerLimit, "entity %q pinned to layer %d, limit is %d", topo.Entity(i).ID(), l, limit)
			}
			layer[i] = l
			pinned[i] = true
			starts = append(starts, i)
		}
	}
	starts = append(starts, topo.Sources()...)
	for i := range n {
		starts = append(starts, i)
	}

	for _, s := range starts {
		if state[s] != unvisited {
			continue
		}
		if layer[s] < 0 {
			layer[s] = 0
		}
		state[s] = open
		stack := []frame{{node: s}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succ := topo.Successors(top.node)
			if top.next == len(succ) {
				state[top.node] = closed
				stack = stack[:len(stack)-1]
				continue
			}
			v := succ[top.next]
			top.next++

			if state[v] == open {
				continue
			}
			want := layer[top.node] + 1
			switch {
			case !pinned[v] && layer[v] < want:
				if want >= limit {
					return nil, errs.New(errs.ErrCodeLayerLimit, "layer assignment needs more than %d layers", limit)
				}
				layer[v] = want
			case state[v] == closed:
				continue
			}
			if layer[v] < 0 {
				layer[v] = 0
			}
			state[v] = open
			stack = append(stack, frame{node: v})
		}
	}
	return newLayering(topo, layer), nil
}

func maxLayers(v int) int {
	if v <= 0 {
		return DefaultMaxLayers
	}
	return v
}
