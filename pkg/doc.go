// Package pkg provides the libraries behind the stacklayout graph layout
// engine.
//
// # Overview
//
// Stacklayout positions the entities of a caller-owned graph. The engine
// never owns the graph: callers expose entities and edges through
// [graph.Context], and strategies write positions and sizes back in place.
// The pkg directory is organized as follows:
//
//  1. [graph] - Data model, in-memory graph, topology view, node-link documents
//  2. [geometry] - Fitting, centering and uniform resizing of entity sets
//  3. [forest] - Rooted forest view over arbitrary, possibly cyclic, graphs
//  4. [layout] - The strategy contract and all strategies in subpackages
//  5. [config] - TOML/YAML configuration files that build strategies by name
//  6. [observability] - Hook registry for layout and document events
//  7. [errors] - Coded errors shared by every package
//
// # Architecture
//
// The typical flow through one layout pass:
//
//	graph.Context (caller's entities and edges)
//	         ↓
//	    [graph] Topology (indexed adjacency)
//	         ↓
//	    strategy (grid, tree, radial, spacetree, force, layered, ...)
//	         ↓
//	    [geometry] fit into bounds
//	         ↓
//	    positions and sizes written back to the entities
//
// # Quick Start
//
//	g := graph.New(graph.Rect{W: 800, H: 600})
//	_, _ = g.AddNode(graph.Node{Name: "a"})
//	_, _ = g.AddNode(graph.Node{Name: "b"})
//	_ = g.AddEdge("a", "b", 1)
//
//	l := layered.New(layered.DefaultOptions())
//	if err := l.Apply(g, true); err != nil {
//	    return err
//	}
//
// [graph]: github.com/matzehuels/stacklayout/pkg/graph
// [geometry]: github.com/matzehuels/stacklayout/pkg/geometry
// [forest]: github.com/matzehuels/stacklayout/pkg/forest
// [layout]: github.com/matzehuels/stacklayout/pkg/layout
// [config]: github.com/matzehuels/stacklayout/pkg/config
// [observability]: github.com/matzehuels/stacklayout/pkg/observability
// [errors]: github.com/matzehuels/stacklayout/pkg/errors
package pkg
