package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

// fork builds root -> {left, right}.
func fork(t *testing.T, bounds graph.Rect) (*graph.Graph, [3]*graph.Node) {
	t.Helper()
	g := graph.New(bounds)
	var nodes [3]*graph.Node
	for i, name := range []string{"root", "left", "right"} {
		n, err := g.AddNode(graph.Node{Name: name})
		if err != nil {
			t.Fatal(err)
		}
		nodes[i] = n
	}
	_ = g.AddEdge("root", "left", 1)
	_ = g.AddEdge("root", "right", 1)
	return g, nodes
}

func TestTreeDirections(t *testing.T) {
	tests := []struct {
		dir                   layout.Direction
		root, left, rightWant r2.Vec
	}{
		{layout.TopDown, r2.Vec{X: 10, Y: 10}, r2.Vec{X: 5, Y: 30}, r2.Vec{X: 15, Y: 30}},
		{layout.BottomUp, r2.Vec{X: 10, Y: 30}, r2.Vec{X: 5, Y: 10}, r2.Vec{X: 15, Y: 10}},
		{layout.LeftRight, r2.Vec{X: 10, Y: 10}, r2.Vec{X: 30, Y: 5}, r2.Vec{X: 30, Y: 15}},
		{layout.RightLeft, r2.Vec{X: 30, Y: 10}, r2.Vec{X: 10, Y: 5}, r2.Vec{X: 10, Y: 15}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			g, nodes := fork(t, graph.Rect{W: 500, H: 500})
			tr := New(Options{Direction: tt.dir, Spacing: r2.Vec{X: 10, Y: 20}})
			if err := tr.Apply(g, true); err != nil {
				t.Fatal(err)
			}
			for i, want := range []r2.Vec{tt.root, tt.left, tt.rightWant} {
				if nodes[i].Pos != want {
					t.Errorf("%s at %v, want %v", nodes[i].Name, nodes[i].Pos, want)
				}
			}
		})
	}
}

func TestTreeFitsBounds(t *testing.T) {
	g, nodes := fork(t, graph.Rect{W: 200, H: 100})
	if err := New(DefaultOptions()).Apply(g, true); err != nil {
		t.Fatal(err)
	}

	want := []r2.Vec{{X: 100, Y: 0}, {X: 0, Y: 100}, {X: 200, Y: 100}}
	for i, n := range nodes {
		if n.Pos != want[i] {
			t.Errorf("%s at %v, want %v", n.Name, n.Pos, want[i])
		}
	}
}

func TestTreeResize(t *testing.T) {
	g, nodes := fork(t, graph.Rect{W: 200, H: 100})
	if err := New(Options{Resize: true}).Apply(g, true); err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes {
		if n.Dim.X <= 0 || n.Dim.Y <= 0 {
			t.Errorf("%s was not resized: %v", n.Name, n.Dim)
		}
		ext := graph.Extent(n)
		if ext.X < -1e-9 || ext.Y < -1e-9 || ext.X+ext.W > 200+1e-9 || ext.Y+ext.H > 100+1e-9 {
			t.Errorf("%s extent %+v leaves the bounds", n.Name, ext)
		}
	}
}

func TestTreeSetDirection(t *testing.T) {
	tr := New(Options{Direction: layout.Direction(42)})
	if tr.Options().Direction != layout.TopDown {
		t.Errorf("invalid direction should default to TopDown")
	}
	if err := tr.SetDirection(layout.LeftRight); err != nil {
		t.Fatal(err)
	}
	if err := tr.SetDirection(layout.Direction(-1)); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("SetDirection(-1) = %v, want INVALID_CONFIG", err)
	}
	if tr.Options().Direction != layout.LeftRight {
		t.Error("rejected direction replaced the previous one")
	}
}

func TestTreeSetSpacing(t *testing.T) {
	tr := New(Options{Spacing: r2.Vec{X: -1, Y: 5}})
	if sp := tr.Options().Spacing; sp != (r2.Vec{}) {
		t.Errorf("invalid spacing kept as %v, want fitting", sp)
	}
	if err := tr.SetSpacing(20, 30); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		leaf, layer float64
	}{
		{"negative leaf", -1, 30},
		{"negative layer", 20, -0.5},
		{"NaN", math.NaN(), 30},
		{"infinite", 20, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.SetSpacing(tt.leaf, tt.layer); !errs.Is(err, errs.ErrCodeInvalidConfig) {
				t.Errorf("SetSpacing(%v, %v) = %v, want INVALID_CONFIG", tt.leaf, tt.layer, err)
			}
			if sp := tr.Options().Spacing; sp != (r2.Vec{X: 20, Y: 30}) {
				t.Errorf("rejected spacing replaced the previous one: %v", sp)
			}
		})
	}
}

func TestTreeStructuralError(t *testing.T) {
	ctx := &brokenContext{Graph: graph.New(graph.Rect{W: 10, H: 10})}
	_, _ = ctx.AddNode(graph.Node{Name: "a"})
	if err := New(DefaultOptions()).Apply(ctx, true); !errs.Is(err, errs.ErrCodeStructural) {
		t.Errorf("Apply = %v, want STRUCTURAL", err)
	}
}

// brokenContext reports an edge to an entity outside the context.
type brokenContext struct {
	*graph.Graph
}

func (b *brokenContext) Edges() []graph.Edge {
	n, _ := b.Node("a")
	return []graph.Edge{&graph.Link{From: n, To: &graph.Node{Name: "ghost"}}}
}
