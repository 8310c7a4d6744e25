package grid

import (
	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
)

// Box is a Grid with a single row or a single column.
type Box struct {
	*Grid
	orientation layout.Orientation
}

// NewBox creates a box layout. An unknown orientation falls back to
// Horizontal.
func NewBox(o layout.Orientation, opts Options) *Box {
	b := &Box{Grid: New(opts)}
	b.Grid.name = "box"
	if err := b.SetOrientation(o); err != nil {
		_ = b.SetOrientation(layout.Horizontal)
	}
	return b
}

// Orientation returns the current orientation.
func (b *Box) Orientation() layout.Orientation { return b.orientation }

// SetOrientation changes the orientation. Unknown values are rejected with
// INVALID_CONFIG and the previous orientation stays in effect.
func (b *Box) SetOrientation(o layout.Orientation) error {
	switch o {
	case layout.Horizontal:
		b.fixedRows, b.fixedCols = true, false
	case layout.Vertical:
		b.fixedRows, b.fixedCols = false, true
	default:
		return errs.InvalidConfig("unknown orientation %d", int(o))
	}
	b.orientation = o
	return nil
}

// Apply implements layout.Algorithm.
func (b *Box) Apply(ctx graph.Context, clean bool) error {
	return b.Grid.Apply(ctx, clean)
}
