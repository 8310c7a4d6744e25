// Package force implements a force-directed layout.
//
// Connected pairs behave like logarithmic springs, unconnected pairs repel
// with an inverse-square force. Distances are measured in normalized units:
// pixel distance divided by the bounds size times an adaptive per-axis scale.
// The scale grows while the layout covers less than 90% of the bounds and
// shrinks while it overflows them, so the simulation settles at roughly the
// size of the target area without hard clamping.
//
// Every iteration:
//
//  1. computes forces and moves entities by move × force, clamped to
//     0.2 × move per axis;
//  2. computes forces again at the new positions and moves once more,
//     dropping force components whose sign flipped (oscillation damping);
//  3. adapts the scale and re-centers the layout on the bounds center.
//
// [Force] keeps its state between calls so callers can advance the
// simulation frame by frame with [Force.Step].
package force

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/observability"
)

const (
	// maxStep is the per-axis step cap as a share of Move.
	maxStep = 0.2

	// defaultWeight replaces non-positive edge weights.
	defaultWeight = 0.1

	minScale = 0.01
	maxScale = 100
)

// Force is a stateful force-directed layout. It must not be shared between
// contexts.
type Force struct {
	opts Options

	key      *graph.Entity
	entities []graph.Entity
	pos      []r2.Vec
	weights  *mat.SymDense
	scale    r2.Vec
	ran      int
}

// New creates a force-directed layout.
func New(opts Options) *Force {
	return &Force{opts: opts.withDefaults()}
}

// Name implements layout.Algorithm.
func (f *Force) Name() string { return "force" }

// Options returns the effective configuration.
func (f *Force) Options() Options { return f.opts }

// Scale returns the current adaptive scale factors.
func (f *Force) Scale() r2.Vec { return f.scale }

// Iterations returns how many iterations ran since the state was built.
func (f *Force) Iterations() int { return f.ran }

// Reset drops all simulation state. The next call rebuilds it.
func (f *Force) Reset() {
	f.key = nil
	f.entities = nil
	f.pos = nil
	f.weights = nil
	f.ran = 0
}

// Apply implements layout.Algorithm. A clean pass rebuilds the state and
// runs the full simulation within the configured time budget. clean=false is
// a no-op; use Step for incremental layout.
func (f *Force) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(f.Name(), ctx, func() error {
		f.Reset()
		if err := f.prepare(ctx, true); err != nil {
			return err
		}

		perIteration := f.opts.MaxDuration / time.Duration(f.opts.Iterations)
		start := f.opts.Clock()
		for it := 0; it < f.opts.Iterations; {
			f.iterate(ctx.Bounds())
			it++
			if perIteration > 0 {
				// Virtual iteration count from elapsed time; never decreases.
				it = max(it, int(f.opts.Clock().Sub(start)/perIteration))
			}
		}
		f.flush()

		layout.Logger(f.opts.Logger).Debug("force", "entities", len(f.entities),
			"iterations", f.ran, "scale", f.scale)
		return nil
	})
}

// Step advances the simulation by one iteration, rebuilding the state when
// the context's entity slice changed. It calls ctx.PreLayout before and
// ctx.PostLayout after touching entities.
func (f *Force) Step(ctx graph.Context) error {
	return f.StepN(ctx, 1)
}

// StepN advances the simulation by n iterations.
func (f *Force) StepN(ctx graph.Context, n int) error {
	ctx.PreLayout()
	defer ctx.PostLayout()
	if err := f.prepare(ctx, false); err != nil {
		return err
	}
	for range n {
		f.iterate(ctx.Bounds())
	}
	f.flush()
	return nil
}

// prepare (re)builds caches when the entity slice changed identity or
// length. clean forces a rebuild and applies RandomStart.
func (f *Force) prepare(ctx graph.Context, clean bool) error {
	entities := ctx.Entities()
	if !clean && f.valid(entities) {
		return nil
	}
	f.Reset()
	f.entities = entities
	if len(entities) > 0 {
		f.key = &entities[0]
	}
	f.scale = r2.Vec{X: 1, Y: 1}

	n := len(entities)
	f.pos = make([]r2.Vec, n)
	for i, e := range entities {
		f.pos[i] = dropNaN(e.Position())
	}
	if n < 2 {
		return nil
	}

	topo, err := graph.NewTopology(entities, ctx.Edges())
	if err != nil {
		return err
	}
	f.weights = mat.NewSymDense(n, nil)
	for k, e := range topo.Edges() {
		i, j := topo.Endpoints(k)
		if i == j {
			continue
		}
		w := e.Weight()
		if w <= 0 {
			w = defaultWeight
		}
		f.weights.SetSym(i, j, f.weights.At(i, j)+w)
	}

	if clean && f.opts.RandomStart {
		f.scatter(ctx.Bounds())
	}
	return nil
}

func (f *Force) valid(entities []graph.Entity) bool {
	if f.entities == nil || len(entities) != len(f.entities) {
		return false
	}
	return len(entities) == 0 || &entities[0] == f.key
}

// scatter places movable entities uniformly at random, the first two at
// opposite corners of the bounds.
func (f *Force) scatter(bounds graph.Rect) {
	rng := rand.New(rand.NewPCG(f.opts.Seed, f.opts.Seed^0xdeadbeef))
	for i, e := range f.entities {
		if !e.Movable() {
			continue
		}
		switch i {
		case 0:
			f.pos[i] = bounds.Min()
		case 1:
			f.pos[i] = bounds.Max()
		default:
			f.pos[i] = r2.Vec{
				X: bounds.X + rng.Float64()*bounds.W,
				Y: bounds.Y + rng.Float64()*bounds.H,
			}
		}
	}
}

// iterate runs one simulation iteration on the cached positions.
func (f *Force) iterate(bounds graph.Rect) {
	f.ran++
	observability.Layout().OnIteration(f.Name(), f.ran)
	n := len(f.pos)
	if n == 0 {
		return
	}
	if n == 1 {
		if f.entities[0].Movable() {
			f.pos[0] = bounds.Center()
		}
		return
	}

	norm := r2.Vec{X: nonZero(bounds.W) * f.scale.X, Y: nonZero(bounds.H) * f.scale.Y}

	first := f.forces(norm)
	f.move(first, norm)
	second := f.forces(norm)
	for i := range second {
		if math.Signbit(first[i].X) != math.Signbit(second[i].X) {
			second[i].X = 0
		}
		if math.Signbit(first[i].Y) != math.Signbit(second[i].Y) {
			second[i].Y = 0
		}
	}
	f.move(second, norm)

	f.adaptScale(bounds)
	f.recenter(bounds)
}

// forces returns the net force on every entity in normalized units.
func (f *Force) forces(norm r2.Vec) []r2.Vec {
	n := len(f.pos)
	out := make([]r2.Vec, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r2.Sub(f.pos[j], f.pos[i])
			d = r2.Vec{X: d.X / norm.X, Y: d.Y / norm.Y}
			dist2 := max(r2.Norm2(d), f.opts.MinDistance)
			dist := math.Sqrt(dist2)

			u := r2.Vec{X: 1}
			if d != (r2.Vec{}) {
				u = r2.Unit(d)
			}

			// Positive magnitude pushes the pair apart.
			var mag float64
			if w := f.weights.At(i, j); w > 0 {
				mag = -f.opts.Strain * math.Log(dist/f.opts.Length) * w
			} else {
				mag = f.opts.Gravitation / dist2
			}
			out[i] = r2.Sub(out[i], r2.Scale(mag, u))
			out[j] = r2.Add(out[j], r2.Scale(mag, u))
		}
	}
	return out
}

func (f *Force) move(forces []r2.Vec, norm r2.Vec) {
	limit := maxStep * f.opts.Move
	for i, e := range f.entities {
		if !e.Movable() {
			continue
		}
		push := dropNaN(forces[i])
		dx := clamp(f.opts.Move*push.X, limit)
		dy := clamp(f.opts.Move*push.Y, limit)
		f.pos[i] = dropNaN(r2.Add(f.pos[i], r2.Vec{X: dx * norm.X, Y: dy * norm.Y}))
	}
}

// extent returns the bounding box of the cached positions including sizes.
// Entries with a NaN coordinate are skipped; an empty extent is zero.
func (f *Force) extent() r2.Box {
	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	seen := false
	for i, e := range f.entities {
		half := r2.Scale(0.5, e.Size())
		if hasNaN(f.pos[i]) || hasNaN(half) {
			continue
		}
		seen = true
		box.Min.X = min(box.Min.X, f.pos[i].X-half.X)
		box.Min.Y = min(box.Min.Y, f.pos[i].Y-half.Y)
		box.Max.X = max(box.Max.X, f.pos[i].X+half.X)
		box.Max.Y = max(box.Max.Y, f.pos[i].Y+half.Y)
	}
	if !seen {
		return r2.Box{}
	}
	return box
}

func (f *Force) adaptScale(bounds graph.Rect) {
	size := f.extent().Size()
	f.scale.X = adapt(f.scale.X, size.X, bounds.W)
	f.scale.Y = adapt(f.scale.Y, size.Y, bounds.H)
}

func adapt(scale, used, target float64) float64 {
	switch {
	case used < 0.9*target:
		return min(scale*1.01, maxScale)
	case used > target:
		return max(scale*0.99, minScale)
	default:
		return scale
	}
}

func (f *Force) recenter(bounds graph.Rect) {
	shift := dropNaN(r2.Sub(bounds.Center(), f.extent().Center()))
	for i, e := range f.entities {
		if e.Movable() {
			f.pos[i] = r2.Add(f.pos[i], shift)
		}
	}
}

// flush writes cached positions to movable entities, replacing NaN
// coordinates with 0.
func (f *Force) flush() {
	for i, e := range f.entities {
		p := dropNaN(f.pos[i])
		f.pos[i] = p
		if e.Movable() {
			e.SetPosition(p)
		}
	}
}

// dropNaN resets NaN coordinates to 0.
func dropNaN(v r2.Vec) r2.Vec {
	if math.IsNaN(v.X) {
		v.X = 0
	}
	if math.IsNaN(v.Y) {
		v.Y = 0
	}
	return v
}

func hasNaN(v r2.Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y)
}

func clamp(v, limit float64) float64 {
	return max(-limit, min(v, limit))
}

func nonZero(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
