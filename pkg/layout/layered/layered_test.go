package layered

import (
	"fmt"
	"slices"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/observability"
)

func build(t *testing.T, bounds graph.Rect, nodes []string, edges [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New(bounds)
	for _, id := range nodes {
		if _, err := g.AddNode(graph.Node{Name: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1], 1); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func layering(t *testing.T, g *graph.Graph, p LayerProvider) *Layering {
	t.Helper()
	topo, err := graph.NewTopology(g.Entities(), g.Edges())
	if err != nil {
		t.Fatal(err)
	}
	l, err := p.Assign(topo)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func pos(t *testing.T, g *graph.Graph, id string) r2.Vec {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %s missing", id)
	}
	return n.Pos
}

func TestTwoLayerRoundTrip(t *testing.T) {
	g := build(t, graph.Rect{W: 300, H: 200}, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"A", "C"}})
	l := New(Options{Provider: &Simple{}})

	if err := l.Apply(g, true); err != nil {
		t.Fatal(err)
	}

	got := l.Layering()
	if got.Layers() != 2 {
		t.Fatalf("Layers() = %d, want 2", got.Layers())
	}
	if ids := got.IDs(0); !slices.Equal(ids, []string{"A"}) {
		t.Errorf("layer 0 = %v, want [A]", ids)
	}
	if ids := got.IDs(1); len(ids) != 2 || !slices.Contains(ids, "B") || !slices.Contains(ids, "C") {
		t.Errorf("layer 1 = %v, want B and C", ids)
	}
	if c := got.CountCrossings(); c != 0 {
		t.Errorf("CountCrossings() = %d, want 0", c)
	}

	want := map[string]r2.Vec{
		"A": {X: 50, Y: 50},
		"B": {X: 50, Y: 150},
		"C": {X: 150, Y: 150},
	}
	for id, w := range want {
		if p := pos(t, g, id); p != w {
			t.Errorf("%s at %v, want %v", id, p, w)
		}
	}
}

func TestReducersUntangleCross(t *testing.T) {
	reducers := []Reducer{&Barycentric{}, &Greedy{}, NewSplit(1), NewSplit(7)}
	for _, r := range reducers {
		t.Run(r.Name(), func(t *testing.T) {
			g := build(t, graph.Rect{W: 100, H: 100},
				[]string{"A1", "A2", "B1", "B2"},
				[][2]string{{"A1", "B2"}, {"A2", "B1"}})
			l := layering(t, g, &Simple{})
			if c := l.CountCrossings(); c != 1 {
				t.Fatalf("initial crossings = %d, want 1", c)
			}

			r.Reduce(l)

			if c := l.CountCrossings(); c != 0 {
				t.Errorf("crossings after %s = %d, want 0 (layers %v %v)", r.Name(), c, l.IDs(0), l.IDs(1))
			}
			if err := l.check(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestReducersNeverAddCrossings(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	edges := [][2]string{
		{"a", "f"}, {"a", "d"}, {"b", "e"}, {"c", "d"}, {"c", "f"},
		{"d", "i"}, {"e", "g"}, {"f", "h"}, {"e", "i"}, {"a", "h"},
	}
	for _, r := range []Reducer{&Barycentric{}, &Greedy{}} {
		t.Run(r.Name(), func(t *testing.T) {
			g := build(t, graph.Rect{W: 100, H: 100}, nodes, edges)
			l := layering(t, g, &Simple{})
			before := l.CountCrossings()
			r.Reduce(l)
			if after := l.CountCrossings(); after > before {
				t.Errorf("crossings grew from %d to %d", before, after)
			}
			if err := l.check(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestBarycentricStripsPadding(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100},
		[]string{"r", "a", "b", "c"},
		[][2]string{{"r", "a"}, {"r", "b"}, {"r", "c"}})
	l := layering(t, g, &Simple{})
	size := l.Len()

	(&Barycentric{}).Reduce(l)

	if l.Len() != size {
		t.Errorf("Len() = %d after reduce, want %d", l.Len(), size)
	}
	for i := range l.Layers() {
		for _, h := range l.Layer(i) {
			if l.Wrapper(h).Kind == Padding {
				t.Errorf("padding left in layer %d", i)
			}
		}
	}
	if got := len(l.Layer(0)); got != 1 {
		t.Errorf("layer 0 has %d wrappers, want 1", got)
	}
}

func TestSimpleDummyChain(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100},
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"A", "D"}})
	l := layering(t, g, &Simple{})

	if l.Layers() != 4 {
		t.Fatalf("Layers() = %d, want 4", l.Layers())
	}
	if l.Len() != 6 {
		t.Fatalf("Len() = %d, want 4 entities and 2 dummies", l.Len())
	}

	// Walk the chain from A to D through the dummies.
	h := 0
	var kinds []Kind
	for {
		next := -1
		for _, s := range l.Wrapper(h).Succ {
			if s != 1 {
				next = s
			}
		}
		if next < 0 {
			break
		}
		if prev := l.Wrapper(next).Pred; !slices.Contains(prev, h) {
			t.Errorf("wrapper %d does not link back to %d", next, h)
		}
		kinds = append(kinds, l.Wrapper(next).Kind)
		h = next
		if h == 3 {
			break
		}
	}
	if want := []Kind{Dummy, Dummy, Regular}; !slices.Equal(kinds, want) {
		t.Errorf("chain kinds = %v, want %v", kinds, want)
	}
}

func TestSimpleCycle(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100},
		[]string{"A", "B", "C"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}})
	l := layering(t, g, &Simple{})

	for i, want := range [][]string{{"A"}, {"B", "~3"}, {"C"}} {
		if got := l.IDs(i); !slices.Equal(got, want) {
			t.Errorf("layer %d = %v, want %v", i, got, want)
		}
	}
}

func TestLayerLimit(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e"}
	edges := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "e"}}

	providers := []LayerProvider{&Simple{MaxLayers: 3}, &DFS{MaxLayers: 3}}
	for _, p := range providers {
		t.Run(p.Name(), func(t *testing.T) {
			g := build(t, graph.Rect{W: 100, H: 100}, nodes, edges)
			err := New(Options{Provider: p}).Apply(g, true)
			if !errs.Is(err, errs.ErrCodeLayerLimit) {
				t.Errorf("Apply = %v, want LAYER_LIMIT", err)
			}
		})
	}
}

func TestDFSLongestPath(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100},
		[]string{"a", "b", "c"},
		[][2]string{{"a", "c"}, {"a", "b"}, {"b", "c"}})
	l := layering(t, g, &DFS{})

	for id, want := range map[string]int{"a": 0, "b": 1, "c": 2} {
		topo := l.Topology()
		i, _ := topo.Index(id)
		if got := l.Wrapper(i).Layer; got != want {
			t.Errorf("%s in layer %d, want %d", id, got, want)
		}
	}
}

func TestDFSPinnedLayer(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100},
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}})
	p := &DFS{}
	if err := p.SetLayer("c", 4); err != nil {
		t.Fatal(err)
	}
	if err := p.SetLayer("a", -1); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("SetLayer(-1) = %v, want INVALID_CONFIG", err)
	}

	l := layering(t, g, p)
	if l.Layers() != 5 {
		t.Fatalf("Layers() = %d, want 5", l.Layers())
	}
	if got := l.IDs(4); !slices.Equal(got, []string{"c"}) {
		t.Errorf("layer 4 = %v, want [c]", got)
	}
	for _, i := range []int{2, 3} {
		if ids := l.IDs(i); len(ids) != 1 || ids[0][0] != '~' {
			t.Errorf("layer %d = %v, want one dummy", i, ids)
		}
	}

	p.ClearLayers()
	if l := layering(t, g, p); l.Layers() != 3 {
		t.Errorf("Layers() after ClearLayers = %d, want 3", l.Layers())
	}
}

func TestVerticalOrientation(t *testing.T) {
	g := build(t, graph.Rect{W: 200, H: 300}, []string{"A", "B", "C"}, [][2]string{{"A", "B"}, {"A", "C"}})
	l := New(Options{Orientation: layout.Vertical})
	if err := l.Apply(g, true); err != nil {
		t.Fatal(err)
	}
	a, b := pos(t, g, "A"), pos(t, g, "B")
	if a != (r2.Vec{X: 50, Y: 50}) {
		t.Errorf("A at %v, want (50, 50)", a)
	}
	if b.X != 150 {
		t.Errorf("B.X = %v, want 150 (second column)", b.X)
	}
}

func TestDimensionOverride(t *testing.T) {
	g := build(t, graph.Rect{W: 100, H: 100}, []string{"A", "B"}, [][2]string{{"A", "B"}})
	l := New(DefaultOptions())
	if err := l.SetDimension(r2.Vec{X: 1000}); err != nil {
		t.Fatal(err)
	}
	if err := l.SetDimension(r2.Vec{X: -1}); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("SetDimension(-1) = %v, want INVALID_CONFIG", err)
	}
	if err := l.Apply(g, true); err != nil {
		t.Fatal(err)
	}
	if p := pos(t, g, "A"); p != (r2.Vec{X: 250, Y: 25}) {
		t.Errorf("A at %v, want (250, 25)", p)
	}
}

func TestSetters(t *testing.T) {
	l := New(DefaultOptions())
	if err := l.SetOrientation(layout.Orientation(9)); !errs.Is(err, errs.ErrCodeInvalidConfig) {
		t.Errorf("SetOrientation(9) = %v", err)
	}
	if l.Options().Orientation != layout.Horizontal {
		t.Error("orientation changed after rejected setter")
	}
	if err := l.SetProvider(nil); err == nil {
		t.Error("SetProvider(nil) accepted")
	}
	if err := l.SetReducer(nil); err == nil {
		t.Error("SetReducer(nil) accepted")
	}
	if err := l.SetReducer(&Greedy{}); err != nil {
		t.Error(err)
	}
}

func TestPinnedEntityKeepsPosition(t *testing.T) {
	g := graph.New(graph.Rect{W: 100, H: 100})
	_, _ = g.AddNode(graph.Node{Name: "a", Pos: r2.Vec{X: 7, Y: 7}, Pinned: true})
	_, _ = g.AddNode(graph.Node{Name: "b"})
	_ = g.AddEdge("a", "b", 1)

	if err := New(DefaultOptions()).Apply(g, true); err != nil {
		t.Fatal(err)
	}
	if p := pos(t, g, "a"); p != (r2.Vec{X: 7, Y: 7}) {
		t.Errorf("pinned entity moved to %v", p)
	}
}

func TestStructuralError(t *testing.T) {
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

func TestCountCrossings(t *testing.T) {
	tests := []struct {
		name  string
		edges [][2]string
		want  int
	}{
		{"parallel", [][2]string{{"A1", "B1"}, {"A2", "B2"}}, 0},
		{"cross", [][2]string{{"A1", "B2"}, {"A2", "B1"}}, 1},
		{"complete", [][2]string{{"A1", "B1"}, {"A1", "B2"}, {"A2", "B1"}, {"A2", "B2"}}, 1},
		{"shared target", [][2]string{{"A1", "B1"}, {"A2", "B1"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, graph.Rect{W: 10, H: 10}, []string{"A1", "A2", "B1", "B2"}, tt.edges)
			l := layering(t, g, &Simple{})
			if got := l.CountCrossings(); got != tt.want {
				t.Errorf("CountCrossings() = %d, want %d", got, tt.want)
			}
		})
	}
}

type convergenceRecorder struct {
	observability.NoopLayoutHooks
	reports []string
}

func (r *convergenceRecorder) OnNonConvergence(algorithm, detail string) {
	r.reports = append(r.reports, fmt.Sprintf("%s: %s", algorithm, detail))
}

func TestGreedyReportsNonConvergence(t *testing.T) {
	rec := &convergenceRecorder{}
	observability.SetLayoutHooks(rec)
	t.Cleanup(observability.Reset)

	g := build(t, graph.Rect{W: 10, H: 10},
		[]string{"A1", "A2", "B1", "B2"},
		[][2]string{{"A1", "B1"}, {"A1", "B2"}, {"A2", "B1"}, {"A2", "B2"}})
	l := layering(t, g, &Simple{})
	(&Greedy{MaxSweeps: 10}).Reduce(l)

	if len(rec.reports) != 1 {
		t.Fatalf("reports = %v, want one non-convergence report", rec.reports)
	}
	if c := l.CountCrossings(); c != 1 {
		t.Errorf("CountCrossings() = %d, want 1", c)
	}
}
