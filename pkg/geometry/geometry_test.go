package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/graph"
)

const eps = 1e-9

func entities(nodes ...*graph.Node) []graph.Entity {
	out := make([]graph.Entity, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

func node(x, y, w, h float64) *graph.Node {
	return &graph.Node{Name: "n", Pos: r2.Vec{X: x, Y: y}, Dim: r2.Vec{X: w, Y: h}}
}

func near(a, b float64) bool { return math.Abs(a-b) <= eps*max(1, math.Abs(a), math.Abs(b)) }

func TestBounds(t *testing.T) {
	es := entities(node(0, 0, 10, 4), node(20, 10, 2, 2))

	if got := Bounds(es, false); got != (graph.Rect{X: 0, Y: 0, W: 20, H: 10}) {
		t.Errorf("center bounds = %+v", got)
	}
	if got := Bounds(es, true); got != (graph.Rect{X: -5, Y: -2, W: 26, H: 13}) {
		t.Errorf("extent bounds = %+v", got)
	}
	if got := Bounds(nil, true); got != (graph.Rect{}) {
		t.Errorf("empty bounds = %+v", got)
	}
}

func TestMinimumPairDistance(t *testing.T) {
	tests := []struct {
		name   string
		es     []graph.Entity
		dx, dy float64
	}{
		{"none", nil, 0, 0},
		{"single", entities(node(1, 1, 0, 0)), 0, 0},
		{"closest pair", entities(node(0, 0, 0, 0), node(10, 0, 0, 0), node(13, 4, 0, 0)), 3, 4},
		{"first tie wins", entities(node(0, 0, 0, 0), node(0, 5, 0, 0), node(5, 5, 0, 0)), 0, 5},
		{"coincident", entities(node(2, 2, 0, 0), node(2, 2, 0, 0)), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := MinimumPairDistance(tt.es)
			if dx != tt.dx || dy != tt.dy {
				t.Errorf("MinimumPairDistance = (%v, %v), want (%v, %v)", dx, dy, tt.dx, tt.dy)
			}
		})
	}
}

func TestMaximizeUniformSize(t *testing.T) {
	square := node(0, 0, 1, 1)
	wide := node(100, 0, 1, 1)
	wide.Ratio = 4
	tall := node(0, 100, 1, 1)
	tall.Ratio = 0.25
	fixed := node(100, 100, 3, 3)
	fixed.FixedSize = true

	MaximizeUniformSize(entities(square, wide, tall, fixed))

	if square.Dim != (r2.Vec{X: 80, Y: 80}) {
		t.Errorf("square = %v, want 80x80", square.Dim)
	}
	if wide.Dim != (r2.Vec{X: 80, Y: 20}) {
		t.Errorf("wide = %v, want 80x20", wide.Dim)
	}
	if tall.Dim != (r2.Vec{X: 20, Y: 80}) {
		t.Errorf("tall = %v, want 20x80", tall.Dim)
	}
	if fixed.Dim != (r2.Vec{X: 3, Y: 3}) {
		t.Errorf("fixed-size entity was resized to %v", fixed.Dim)
	}
}

func TestMaximizeUniformSizeFloor(t *testing.T) {
	a := node(0, 0, 1, 1)
	a.Ratio = 100
	b := node(20, 0, 1, 1)
	MaximizeUniformSize(entities(a, b))

	if a.Dim != (r2.Vec{X: 16, Y: MinSide}) {
		t.Errorf("a = %v, want 16x%v", a.Dim, MinSide)
	}
}

func TestMaximizeUniformSizeNoop(t *testing.T) {
	single := node(0, 0, 3, 3)
	MaximizeUniformSize(entities(single))
	if single.Dim != (r2.Vec{X: 3, Y: 3}) {
		t.Errorf("single entity resized to %v", single.Dim)
	}

	a, b := node(5, 5, 3, 3), node(5, 5, 3, 3)
	MaximizeUniformSize(entities(a, b))
	if a.Dim != (r2.Vec{X: 3, Y: 3}) {
		t.Errorf("coincident entities resized to %v", a.Dim)
	}
}

func TestFitWithinBounds(t *testing.T) {
	a := node(0, 0, 10, 10)
	b := node(50, 100, 10, 10)
	c := node(25, 50, 10, 10)
	dest := graph.Rect{X: 100, Y: 100, W: 210, H: 410}

	FitWithinBounds(entities(a, b, c), dest, false)

	want := []r2.Vec{{X: 105, Y: 105}, {X: 305, Y: 505}, {X: 205, Y: 305}}
	for i, n := range []*graph.Node{a, b, c} {
		if !near(n.Pos.X, want[i].X) || !near(n.Pos.Y, want[i].Y) {
			t.Errorf("entity %d at %v, want %v", i, n.Pos, want[i])
		}
		if !dest.Contains(graph.Extent(n).Min()) || !dest.Contains(graph.Extent(n).Max()) {
			t.Errorf("entity %d extent %+v leaves %+v", i, graph.Extent(n), dest)
		}
	}
}

func TestFitWithinBoundsResize(t *testing.T) {
	a := node(0, 0, 10, 10)
	b := node(10, 0, 10, 10)
	pinned := node(5, 0, 10, 10)
	pinned.Pinned = true
	pinned.FixedSize = true

	// Extent bounds are 20x10, dest is 40x40: scale = min(2, 4) = 2.
	FitWithinBounds(entities(a, b, pinned), graph.Rect{W: 40, H: 40}, true)

	if a.Dim != (r2.Vec{X: 20, Y: 20}) {
		t.Errorf("a resized to %v, want 20x20", a.Dim)
	}
	if pinned.Dim != (r2.Vec{X: 10, Y: 10}) || pinned.Pos != (r2.Vec{X: 5, Y: 0}) {
		t.Errorf("pinned entity changed: %+v", pinned)
	}
}

func TestFitWithinBoundsSingle(t *testing.T) {
	tests := []struct {
		name     string
		ratio    float64
		resize   bool
		wantSize r2.Vec
	}{
		{"no resize", 0, false, r2.Vec{X: 5, Y: 5}},
		{"fill", 0, true, r2.Vec{X: 100, Y: 50}},
		{"wide ratio", 4, true, r2.Vec{X: 100, Y: 25}},
		{"tall ratio", 0.5, true, r2.Vec{X: 25, Y: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := node(-40, 7, 5, 5)
			n.Ratio = tt.ratio
			FitWithinBounds(entities(n), graph.Rect{X: 0, Y: 0, W: 100, H: 50}, tt.resize)

			if n.Pos != (r2.Vec{X: 50, Y: 25}) {
				t.Errorf("position = %v, want centered", n.Pos)
			}
			if n.Dim != tt.wantSize {
				t.Errorf("size = %v, want %v", n.Dim, tt.wantSize)
			}
		})
	}
}

func TestFitWithinBoundsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("fitting twice equals fitting once", prop.ForAll(
		func(xs, ys []float64, size float64) bool {
			n := min(len(xs), len(ys))
			nodes := make([]*graph.Node, n)
			for i := range n {
				nodes[i] = node(xs[i], ys[i], size, size/2)
			}
			es := entities(nodes...)
			dest := graph.Rect{X: 10, Y: -20, W: 640, H: 480}

			FitWithinBounds(es, dest, false)
			once := make([]r2.Vec, n)
			for i, nd := range nodes {
				once[i] = nd.Pos
			}

			FitWithinBounds(es, dest, false)
			for i, nd := range nodes {
				if !near(nd.Pos.X, once[i].X) || !near(nd.Pos.Y, once[i].Y) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.Float64Range(-1000, 1000)),
		gen.SliceOfN(12, gen.Float64Range(-1000, 1000)),
		gen.Float64Range(0, 60),
	))

	properties.TestingRun(t)
}
