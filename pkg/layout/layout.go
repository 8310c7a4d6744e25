// Package layout defines the contract shared by all layout strategies.
//
// A strategy receives a [graph.Context], reads its entities and edges, and
// writes new positions (and, when allowed, sizes) back in place. Strategies
// live in subpackages:
//
//   - grid: Grid and Box placement
//   - shift: horizontal de-overlapping of rows
//   - tree: layered tree placement along one of four directions
//   - radial: tree placement bent around a circle
//   - spacetree: incremental tree layout with expand/collapse under space pressure
//   - force: force-directed simulation
//   - layered: Sugiyama-style layered graph drawing
//
// [Composite] chains strategies in a fixed order.
//
// # Passes
//
// [Algorithm.Apply] runs one pass. clean=false is a no-op for stateless
// strategies; the stateful ones (force, spacetree) take an incremental step
// through their [Stepper] entry point instead.
//
// Every pass reports to the registered observability hooks via [Run].
package layout

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/observability"
)

// Algorithm is a layout strategy.
type Algorithm interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Apply lays out the context's entities. It returns an error only for
	// fatal conditions; heuristics that stop at their iteration cap keep the
	// best result and report through observability hooks instead.
	Apply(ctx graph.Context, clean bool) error
}

// Stepper is implemented by stateful strategies that support incremental
// layout. Step performs one increment, bracketed by the context's PreLayout
// and PostLayout hooks.
type Stepper interface {
	Algorithm
	Step(ctx graph.Context) error
}

// Run wraps one layout pass with the registered observability hooks.
func Run(name string, ctx graph.Context, pass func() error) error {
	hooks := observability.Layout()
	hooks.OnLayoutStart(name, len(ctx.Entities()))
	start := time.Now()
	err := pass()
	hooks.OnLayoutComplete(name, time.Since(start), err)
	return err
}

var discard = log.New(io.Discard)

// Logger returns l, or a logger that discards everything when l is nil.
func Logger(l *log.Logger) *log.Logger {
	if l == nil {
		return discard
	}
	return l
}

// =============================================================================
// Direction
// =============================================================================

// Direction is the axis a tree grows along.
type Direction int

const (
	TopDown Direction = iota
	BottomUp
	LeftRight
	RightLeft
)

var directionNames = [...]string{"top-down", "bottom-up", "left-right", "right-left"}

// String returns the direction name used in configuration files.
func (d Direction) String() string {
	if d.Valid() {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Valid reports whether d is one of the four defined directions.
func (d Direction) Valid() bool { return d >= TopDown && d <= RightLeft }

// Validate returns an INVALID_CONFIG error for out-of-range directions.
func (d Direction) Validate() error {
	if !d.Valid() {
		return errs.InvalidConfig("unknown direction %d", int(d))
	}
	return nil
}

// Horizontal reports whether depth runs along the x axis.
func (d Direction) Horizontal() bool { return d == LeftRight || d == RightLeft }

// Reversed reports whether depth grows toward smaller coordinates.
func (d Direction) Reversed() bool { return d == BottomUp || d == RightLeft }

// ParseDirection parses a direction name ("top-down", "left-right", ...).
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i), nil
		}
	}
	return 0, errs.InvalidConfig("unknown direction %q", s)
}

// =============================================================================
// Orientation
// =============================================================================

// Orientation selects the main axis of a Box or a layered layout.
type Orientation int

const (
	Horizontal Orientation = iota // entities along x
	Vertical                      // entities along y
)

// String returns the orientation name used in configuration files.
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// ParseOrientation parses "horizontal" or "vertical".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	default:
		return 0, errs.InvalidConfig("unknown orientation %q", s)
	}
}
