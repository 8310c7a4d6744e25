// Package forest derives a rooted forest from arbitrary graph topology.
//
// Layout strategies that think in trees (tree, radial, space-constrained)
// need a parent and an ordered child list for every entity, even when the
// graph has cycles, several components or nodes with many predecessors.
// [Build] produces that view:
//
//  1. For every unvisited entity, walk backward along first predecessors until
//     an entity without predecessors is found (a root), the walk revisits one
//     of its own entities (a cycle: that entity becomes a root), or the walk
//     reaches an entity claimed by an earlier walk (no new root).
//  2. Breadth-first expand every root through successor edges. Each entity
//     gets exactly one tree node, created on first visit.
//  3. Compute depth, height, leaf count, descendant count and leaf order in
//     one post-order pass.
//
// All roots hang below a synthetic super-root ([SuperRoot]) that has no
// entity and depth -1.
//
// # Arena
//
// Tree nodes live in a flat slice owned by the [Forest] and are addressed by
// [Handle]. Parent and child links are handles, so there are no pointer
// cycles. Strategies that keep extra per-node state allocate parallel slices
// indexed by handle; the [CreateHook] passed to Build is invoked once per
// created node, in handle order, so those slices can grow alongside the arena.
package forest

import (
	"github.com/matzehuels/stacklayout/pkg/graph"
)

// Handle addresses a tree node within its [Forest].
type Handle int

const (
	// SuperRoot is the handle of the synthetic root above all trees.
	SuperRoot Handle = 0

	// None marks a missing handle (the super-root's parent).
	None Handle = -1
)

// Node is one tree node. Entity is the topology index of the wrapped entity,
// or -1 for the super-root.
type Node struct {
	Entity   int
	Parent   Handle
	Children []Handle

	Depth       int  // -1 for the super-root, 0 for roots
	Height      int  // 0 for leaves
	Leaves      int  // 1 for leaves, sum over children otherwise
	Descendants int  // number of nodes below this one
	Order       int  // leaf order; internal nodes take their first child's
	First       bool // first child of its parent
	Last        bool // last child of its parent
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// CreateHook is called for every tree node right after it is added to the
// arena. entity is -1 for the super-root.
type CreateHook func(h Handle, entity int)

// Forest is a rooted forest over a [graph.Topology].
type Forest struct {
	topo     *graph.Topology
	nodes    []Node
	byEntity []Handle
}

// Build derives the forest for topo. hook may be nil.
func Build(topo *graph.Topology, hook CreateHook) *Forest {
	n := topo.Len()
	f := &Forest{
		topo:     topo,
		nodes:    make([]Node, 0, n+1),
		byEntity: make([]Handle, n),
	}
	for i := range f.byEntity {
		f.byEntity[i] = None
	}
	f.add(-1, None, hook)

	for _, root := range findRoots(topo) {
		f.expand(root, hook)
	}
	// Every entity is reachable from some root; this only guards against
	// topologies where that does not hold.
	for i := range n {
		if f.byEntity[i] == None {
			f.expand(i, hook)
		}
	}

	f.compute()
	return f
}

// findRoots walks backward along first predecessors from every unvisited
// entity and returns the discovered roots in discovery order.
func findRoots(topo *graph.Topology) []int {
	claimed := make([]int, topo.Len())
	var roots []int
	walk := 0
	for start := range topo.Len() {
		if claimed[start] != 0 {
			continue
		}
		walk++
		cur := start
		for {
			claimed[cur] = walk
			preds := topo.Predecessors(cur)
			if len(preds) == 0 {
				roots = append(roots, cur)
				break
			}
			p := preds[0]
			if claimed[p] == walk {
				roots = append(roots, p)
				break
			}
			if claimed[p] != 0 {
				break
			}
			cur = p
		}
	}
	return roots
}

func (f *Forest) add(entity int, parent Handle, hook CreateHook) Handle {
	h := Handle(len(f.nodes))
	f.nodes = append(f.nodes, Node{Entity: entity, Parent: parent})
	if entity >= 0 {
		f.byEntity[entity] = h
	}
	if parent != None {
		f.nodes[parent].Children = append(f.nodes[parent].Children, h)
	}
	if hook != nil {
		hook(h, entity)
	}
	return h
}

// expand adds root below the super-root and breadth-first claims everything
// reachable from it that has no tree node yet.
func (f *Forest) expand(root int, hook CreateHook) {
	if f.byEntity[root] != None {
		return
	}
	queue := []Handle{f.add(root, SuperRoot, hook)}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		for _, succ := range f.topo.Successors(f.nodes[h].Entity) {
			if f.byEntity[succ] != None {
				continue
			}
			queue = append(queue, f.add(succ, h, hook))
		}
	}
}

// compute fills the derived attributes: depth top-down, everything else in
// post-order.
func (f *Forest) compute() {
	pre := make([]Handle, 0, len(f.nodes))
	stack := []Handle{SuperRoot}
	f.nodes[SuperRoot].Depth = -1
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pre = append(pre, h)
		children := f.nodes[h].Children
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			f.nodes[c].Depth = f.nodes[h].Depth + 1
			f.nodes[c].First = i == 0
			f.nodes[c].Last = i == len(children)-1
			stack = append(stack, c)
		}
	}

	// Leaves are numbered in pre-order, which visits them left to right.
	leaf := 0
	for _, h := range pre {
		if f.nodes[h].IsLeaf() {
			f.nodes[h].Order = leaf
			leaf++
		}
	}

	for i := len(pre) - 1; i >= 0; i-- {
		n := &f.nodes[pre[i]]
		if n.IsLeaf() {
			n.Height, n.Leaves, n.Descendants = 0, 1, 0
			continue
		}
		n.Height, n.Leaves, n.Descendants = 0, 0, 0
		for _, c := range n.Children {
			child := &f.nodes[c]
			n.Height = max(n.Height, child.Height+1)
			n.Leaves += child.Leaves
			n.Descendants += child.Descendants + 1
		}
		n.Order = f.nodes[n.Children[0]].Order
	}
}

// Topology returns the topology the forest was built from.
func (f *Forest) Topology() *graph.Topology { return f.topo }

// Len returns the number of tree nodes, super-root included.
func (f *Forest) Len() int { return len(f.nodes) }

// Node returns the tree node for h. The pointer stays valid for the lifetime
// of the forest.
func (f *Forest) Node(h Handle) *Node { return &f.nodes[h] }

// Handle returns the tree node wrapping entity index i.
func (f *Forest) Handle(entity int) Handle { return f.byEntity[entity] }

// Entity returns the wrapped entity, or nil for the super-root.
func (f *Forest) Entity(h Handle) graph.Entity {
	if i := f.nodes[h].Entity; i >= 0 {
		return f.topo.Entity(i)
	}
	return nil
}

// Parent returns the parent of h, or None for the super-root.
func (f *Forest) Parent(h Handle) Handle { return f.nodes[h].Parent }

// Children returns the ordered children of h.
func (f *Forest) Children(h Handle) []Handle { return f.nodes[h].Children }

// Roots returns the children of the super-root.
func (f *Forest) Roots() []Handle { return f.nodes[SuperRoot].Children }

// Depth returns the depth of h (-1 for the super-root).
func (f *Forest) Depth(h Handle) int { return f.nodes[h].Depth }

// Height returns the height of h (0 for leaves).
func (f *Forest) Height(h Handle) int { return f.nodes[h].Height }

// Order returns the leaf order of h.
func (f *Forest) Order(h Handle) int { return f.nodes[h].Order }

// IsAncestor reports whether a is a proper ancestor of h.
func (f *Forest) IsAncestor(a, h Handle) bool {
	for p := f.nodes[h].Parent; p != None; p = f.nodes[p].Parent {
		if p == a {
			return true
		}
	}
	return false
}

// PreOrder calls fn for every node in depth-first pre-order, starting at the
// super-root. Children are visited in order. Returning false from fn skips
// the node's subtree.
func (f *Forest) PreOrder(fn func(h Handle) bool) {
	stack := []Handle{SuperRoot}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(h) {
			continue
		}
		children := f.nodes[h].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
