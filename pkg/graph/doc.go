// Package graph defines the data model consumed by the layout engine.
//
// The engine never owns the graph it lays out. A caller (an editor, a renderer,
// the stacklayout CLI) exposes its entities and edges through the [Context]
// interface, and strategies read and write entity attributes through the
// [Entity] and [Edge] interfaces. Entities are never created or destroyed by
// a strategy; only their position and, when allowed, their size change.
//
// # Core Types
//
//   - [Rect]: axis-aligned rectangle used for graph bounds
//   - [Entity]: a laid-out node (position, size, movable, resizable, aspect ratio)
//   - [Edge]: a weighted directed connection between two entities
//   - [Context]: one layout session (entities, edges, bounds, lifecycle hooks)
//   - [Topology]: indexed adjacency built once per pass from a context
//
// Positions are entity centers. Sizes are full width and height.
//
// # In-Memory Graph
//
// [Graph] is a ready-made [Context] backed by [Node] and [Link] values. It is
// what tests and the CLI lay out:
//
//	g := graph.New(graph.Rect{W: 800, H: 600})
//	_, _ = g.AddNode(graph.Node{Name: "a"})
//	_, _ = g.AddNode(graph.Node{Name: "b"})
//	_ = g.AddEdge("a", "b", 1)
//
// # Documents
//
// [Document] is the node-link file format read and written by the CLI. JSON
// and YAML are supported; the format is picked from the file extension:
//
//	{
//	  "bounds": {"w": 800, "h": 600},
//	  "nodes": [{"id": "a"}, {"id": "b", "w": 40, "h": 20}],
//	  "edges": [{"from": "a", "to": "b"}]
//	}
//
// Nodes without an id are assigned a random UUID when the document is built.
package graph
