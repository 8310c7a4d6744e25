package graph

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node name is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same name already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes. The engine
// ignores it; documents carry it through a layout pass unchanged.
type Metadata map[string]any

// Node is the in-memory [Entity] used by [Graph].
//
// The zero value of the flags describes a movable, resizable entity with no
// preferred aspect ratio.
type Node struct {
	Name      string   // Unique identifier
	Pos       r2.Vec   // Center position
	Dim       r2.Vec   // Width and height
	Pinned    bool     // Layouts must not move the node
	FixedSize bool     // Layouts must not resize the node
	Ratio     float64  // Preferred width/height ratio, <= 0 for none
	Meta      Metadata // Arbitrary metadata (never nil after AddNode)
}

func (n *Node) ID() string           { return n.Name }
func (n *Node) Position() r2.Vec     { return n.Pos }
func (n *Node) SetPosition(p r2.Vec) { n.Pos = p }
func (n *Node) Size() r2.Vec         { return n.Dim }
func (n *Node) SetSize(s r2.Vec)     { n.Dim = s }
func (n *Node) Movable() bool        { return !n.Pinned }
func (n *Node) Resizable() bool      { return !n.FixedSize }
func (n *Node) AspectRatio() float64 { return n.Ratio }

// Link is the in-memory [Edge] used by [Graph].
type Link struct {
	From, To *Node
	W        float64
}

func (l *Link) Source() Entity  { return l.From }
func (l *Link) Target() Entity  { return l.To }
func (l *Link) Weight() float64 { return l.W }

// Graph is an in-memory [Context]. Nodes keep insertion order, which is the
// order strategies see them in.
//
// The entity slice returned by [Graph.Entities] is cached and stays the same
// slice until the node set changes, so stateful strategies keep their state
// across passes over an unchanged graph and rebuild it after AddNode.
//
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	bounds   Rect
	nodes    map[string]*Node
	order    []*Node
	links    []*Link
	entities []Entity
	edges    []Edge
	meta     Metadata

	preLayouts  int
	postLayouts int
}

// New creates an empty graph laid out within bounds.
func New(bounds Rect) *Graph {
	return &Graph{
		bounds: bounds,
		nodes:  make(map[string]*Node),
		meta:   Metadata{},
	}
}

// Meta returns the graph-level metadata map. The map is never nil.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a copy of n and returns the stored node. Returns
// ErrInvalidNodeID if the name is empty or ErrDuplicateNodeID if a node with
// the same name already exists.
func (g *Graph) AddNode(n Node) (*Node, error) {
	if n.Name == "" {
		return nil, ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.Name]; exists {
		return nil, ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.Name] = node
	g.order = append(g.order, node)
	g.entities = nil
	return node, nil
}

// AddEdge adds a directed edge between two existing nodes. Parallel edges
// and self-loops are allowed; strategies decide how to treat them.
func (g *Graph) AddEdge(from, to string, weight float64) error {
	src, ok := g.nodes[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	dst, ok := g.nodes[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	g.links = append(g.links, &Link{From: src, To: dst, W: weight})
	g.edges = nil
	return nil
}

// RemoveEdge removes the first edge from→to if it exists.
func (g *Graph) RemoveEdge(from, to string) {
	i := slices.IndexFunc(g.links, func(l *Link) bool { return l.From.Name == from && l.To.Name == to })
	if i < 0 {
		return
	}
	g.links = slices.Delete(g.links, i, i+1)
	g.edges = nil
}

// Node returns the node with the given name.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// stored nodes.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.order) }

// Links returns all edges in insertion order.
func (g *Graph) Links() []*Link { return slices.Clone(g.links) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.links) }

// Entities implements [Context].
func (g *Graph) Entities() []Entity {
	if g.entities == nil && len(g.order) > 0 {
		g.entities = make([]Entity, len(g.order))
		for i, n := range g.order {
			g.entities[i] = n
		}
	}
	return g.entities
}

// Edges implements [Context].
func (g *Graph) Edges() []Edge {
	if g.edges == nil && len(g.links) > 0 {
		g.edges = make([]Edge, len(g.links))
		for i, l := range g.links {
			g.edges[i] = l
		}
	}
	return g.edges
}

// Bounds implements [Context].
func (g *Graph) Bounds() Rect { return g.bounds }

// SetBounds changes the rectangle the graph is laid out within.
func (g *Graph) SetBounds(r Rect) { g.bounds = r }

// PreLayout implements [Context]. It only counts invocations.
func (g *Graph) PreLayout() { g.preLayouts++ }

// PostLayout implements [Context]. It only counts invocations.
func (g *Graph) PostLayout() { g.postLayouts++ }

// LayoutCalls returns how often PreLayout and PostLayout have been called.
func (g *Graph) LayoutCalls() (pre, post int) { return g.preLayouts, g.postLayouts }
