// Package spacetree implements an incremental tree layout that trades
// subtree expansion for space.
//
// Every tree node is either expanded (its children are laid out and visible)
// or collapsed (its children are hidden). Visible nodes are kept in one layer
// per depth with a one-dimensional breadth coordinate. A clean pass expands
// the forest breadth-first for as long as each new layer fits into the
// breadth already in use or the available breadth, whichever is larger, and
// then centers parents over their children.
//
// Moving a node pushes against its neighbors. When there is no room, the
// nearest subtree that is neither an ancestor of the moved node nor on the
// path to a protected node is collapsed and the move is retried from a fresh
// snapshot; when nothing can be collapsed the move is clamped.
//
// The invariant every operation aims for is that an expanded parent lies
// between its first and its last visible child. It is not always achievable;
// violations are counted in [Report] and reported to the observability hooks
// as non-convergence, never as errors.
package spacetree

import (
	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/spatial/r2"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/forest"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/observability"
)

// Default gaps.
const (
	DefaultLeafGap   = 15
	DefaultBranchGap = 60
	DefaultLayerGap  = 20
)

// Options configures a SpaceTree.
type Options struct {
	// Direction is the axis the tree grows along. Default: TopDown.
	Direction layout.Direction

	// LeafGap separates siblings. Default: 15.
	LeafGap float64

	// BranchGap separates neighbors with different parents. Default: 60.
	BranchGap float64

	// LayerGap separates layers along the depth axis. Default: 20.
	LayerGap float64

	Logger *log.Logger
}

// DefaultOptions returns the default space-tree configuration.
func DefaultOptions() Options {
	return Options{
		Direction: layout.TopDown,
		LeafGap:   DefaultLeafGap,
		BranchGap: DefaultBranchGap,
		LayerGap:  DefaultLayerGap,
	}
}

// Report summarizes the state after the last operation.
type Report struct {
	Layers     int  // visible layers
	Visible    int  // visible entities
	Expanded   int  // expanded entities
	Collapses  int  // subtrees collapsed for space during the last operation
	Converged  bool // every layer fit and every parent lies between its children
	Violations int  // parents outside their children's span
}

// SpaceTree is a stateful space-constrained tree layout. It must not be
// shared between contexts.
type SpaceTree struct {
	opts Options

	key    *graph.Entity
	size   int
	bounds graph.Rect
	forest *forest.Forest

	// Per-handle state, grown by the forest's create hook.
	pos      []float64
	expanded []bool
	index    []int // position within its layer, -1 when hidden
	written  []r2.Vec
	placed   []bool

	layers [][]forest.Handle
	report Report
	fitted bool
}

// New creates a space-constrained tree layout. Zero gaps take the defaults;
// an invalid direction falls back to TopDown.
func New(opts Options) *SpaceTree {
	d := DefaultOptions()
	if !opts.Direction.Valid() {
		opts.Direction = d.Direction
	}
	if opts.LeafGap <= 0 {
		opts.LeafGap = d.LeafGap
	}
	if opts.BranchGap <= 0 {
		opts.BranchGap = d.BranchGap
	}
	if opts.LayerGap <= 0 {
		opts.LayerGap = d.LayerGap
	}
	return &SpaceTree{opts: opts}
}

// Name implements layout.Algorithm.
func (s *SpaceTree) Name() string { return "spacetree" }

// Options returns the current configuration.
func (s *SpaceTree) Options() Options { return s.opts }

// SetDirection changes the growth direction. Unknown directions are rejected
// and the previous direction stays in effect. The next pass uses it.
func (s *SpaceTree) SetDirection(d layout.Direction) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.opts.Direction = d
	return nil
}

// SetGaps changes leaf, branch and layer gaps. Negative or non-finite values
// are rejected with INVALID_CONFIG.
func (s *SpaceTree) SetGaps(leaf, branch, layer float64) error {
	for _, v := range []float64{leaf, branch, layer} {
		if err := errs.ValidateFinite("gap", v); err != nil || v < 0 {
			return errs.InvalidConfig("gaps must be finite and non-negative, got %v/%v/%v", leaf, branch, layer)
		}
	}
	s.opts.LeafGap, s.opts.BranchGap, s.opts.LayerGap = leaf, branch, layer
	return nil
}

// Report returns the summary of the last operation.
func (s *SpaceTree) Report() Report { return s.report }

// Apply implements layout.Algorithm. A clean pass rebuilds the forest,
// collapses everything and expands as far as space allows. clean=false is a
// no-op; use Step for incremental layout.
func (s *SpaceTree) Apply(ctx graph.Context, clean bool) error {
	if !clean {
		return nil
	}
	return layout.Run(s.Name(), ctx, func() error {
		if err := s.rebuild(ctx); err != nil {
			return err
		}
		s.clean()
		return nil
	})
}

// Step re-snaps entities the caller moved since the last write and writes
// all positions. A changed entity slice triggers a clean pass instead.
// It calls ctx.PreLayout before and ctx.PostLayout after touching entities.
func (s *SpaceTree) Step(ctx graph.Context) error {
	ctx.PreLayout()
	defer ctx.PostLayout()
	if !s.valid(ctx) {
		if err := s.rebuild(ctx); err != nil {
			return err
		}
		s.clean()
		return nil
	}

	s.begin()
	s.bounds = ctx.Bounds()
	s.flush()
	s.finish()
	return nil
}

// SetExpanded expands or collapses the entity with the given ID and writes
// the result. Expanding may collapse other subtrees to make room; the
// entity's own ancestors are never collapsed for it.
func (s *SpaceTree) SetExpanded(ctx graph.Context, id string, expanded bool) error {
	h, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.begin()
	if expanded {
		s.expand(h)
	} else {
		s.collapse(h)
	}
	s.centerParents()
	s.flush()
	s.finish()
	return nil
}

// IsExpanded reports whether the entity's children are shown. Unknown IDs
// report false.
func (s *SpaceTree) IsExpanded(id string) bool {
	h, ok := s.handle(id)
	return ok && s.expanded[h]
}

// IsVisible reports whether all ancestors of the entity are expanded.
// Unknown IDs report false.
func (s *SpaceTree) IsVisible(id string) bool {
	h, ok := s.handle(id)
	return ok && s.index[h] >= 0
}

// AdjustPosition moves the entity with the given ID toward pos along the
// breadth axis and snaps it back into its layer along the depth axis. The
// entity's own expansion path is protected; other subtrees may collapse to
// make room. Hidden entities return NOT_FOUND.
func (s *SpaceTree) AdjustPosition(ctx graph.Context, id string, pos r2.Vec) error {
	h, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	if s.index[h] < 0 {
		return errs.New(errs.ErrCodeNotFound, "entity %q is hidden by a collapsed ancestor", id)
	}
	s.begin()
	s.moveNode(h, s.breadthOf(pos), h)
	s.flush()
	s.finish()
	return nil
}

// lookup builds the state on first use and resolves an entity ID.
func (s *SpaceTree) lookup(ctx graph.Context, id string) (forest.Handle, error) {
	if !s.valid(ctx) {
		if err := s.rebuild(ctx); err != nil {
			return forest.None, err
		}
		s.clean()
	}
	h, ok := s.handle(id)
	if !ok {
		return forest.None, errs.New(errs.ErrCodeNotFound, "entity %q is not part of the layout", id)
	}
	return h, nil
}

func (s *SpaceTree) handle(id string) (forest.Handle, bool) {
	if s.forest == nil {
		return forest.None, false
	}
	i, ok := s.forest.Topology().Index(id)
	if !ok {
		return forest.None, false
	}
	return s.forest.Handle(i), true
}

func (s *SpaceTree) valid(ctx graph.Context) bool {
	if s.forest == nil {
		return false
	}
	entities := ctx.Entities()
	if len(entities) != s.size {
		return false
	}
	return len(entities) == 0 || &entities[0] == s.key
}

// rebuild derives a fresh forest and per-handle state from ctx.
func (s *SpaceTree) rebuild(ctx graph.Context) error {
	entities := ctx.Entities()
	topo, err := graph.NewTopology(entities, ctx.Edges())
	if err != nil {
		return err
	}

	s.pos, s.expanded, s.index = s.pos[:0], s.expanded[:0], s.index[:0]
	s.written, s.placed = s.written[:0], s.placed[:0]
	s.forest = forest.Build(topo, func(forest.Handle, int) {
		s.pos = append(s.pos, 0)
		s.expanded = append(s.expanded, false)
		s.index = append(s.index, -1)
		s.written = append(s.written, r2.Vec{})
		s.placed = append(s.placed, false)
	})
	s.size = len(entities)
	s.key = nil
	if len(entities) > 0 {
		s.key = &entities[0]
	}
	s.bounds = ctx.Bounds()
	return nil
}

// clean runs a full expansion pass and writes the result.
func (s *SpaceTree) clean() {
	s.begin()
	s.maximizeExpansion()
	s.flush()
	s.finish()
}

func (s *SpaceTree) begin() {
	s.report = Report{}
	s.fitted = true
}

// finish counts the state into the report and surfaces violations.
func (s *SpaceTree) finish() {
	r := &s.report
	r.Layers = len(s.layers)
	r.Visible, r.Expanded = 0, 0
	for h := 1; h < len(s.index); h++ {
		if s.index[h] >= 0 {
			r.Visible++
		}
		if s.expanded[h] {
			r.Expanded++
		}
	}
	r.Violations = len(s.violations())
	r.Converged = s.fitted && r.Violations == 0

	logger := layout.Logger(s.opts.Logger)
	logger.Debug("spacetree", "layers", r.Layers, "visible", r.Visible,
		"expanded", r.Expanded, "collapses", r.Collapses)
	if !r.Converged {
		observability.Layout().OnNonConvergence(s.Name(), "parents outside their children or layers overflowing")
		logger.Warn("spacetree did not converge", "violations", r.Violations, "fitted", s.fitted)
	}
}
