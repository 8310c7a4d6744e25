package layout

import (
	"fmt"

	"github.com/matzehuels/stacklayout/pkg/graph"
)

// Composite applies a fixed list of strategies in order to the same context.
type Composite struct {
	steps []Algorithm
}

// NewComposite returns a composite over steps. Nil steps are dropped.
func NewComposite(steps ...Algorithm) *Composite {
	c := &Composite{}
	for _, s := range steps {
		if s != nil {
			c.steps = append(c.steps, s)
		}
	}
	return c
}

// Name implements Algorithm.
func (c *Composite) Name() string { return "composite" }

// Steps returns the strategies in application order.
func (c *Composite) Steps() []Algorithm { return c.steps }

// Apply runs every step in order and stops at the first error.
func (c *Composite) Apply(ctx graph.Context, clean bool) error {
	for i, s := range c.steps {
		if err := s.Apply(ctx, clean); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Name(), err)
		}
	}
	return nil
}
