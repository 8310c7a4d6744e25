package force

import (
	"time"

	"github.com/charmbracelet/log"
)

// Options configures a Force layout. Zero numeric values are replaced by the
// defaults from DefaultOptions.
type Options struct {
	// Iterations is the simulation length for a clean pass. Default: 1000.
	Iterations int

	// MaxDuration caps the wall-clock time of a clean pass. Elapsed time is
	// mapped onto the iteration counter, so a slow host runs fewer
	// iterations instead of overrunning. Default: 5s.
	MaxDuration time.Duration

	// RandomStart scatters entities over the bounds before a clean pass.
	// The first two entities start at opposite corners.
	RandomStart bool

	// Move scales every step; a single step never exceeds 0.2 × Move in
	// normalized units. Default: 1.
	Move float64

	// Strain is the spring constant of connected pairs. Default: 1.
	Strain float64

	// Length is the normalized rest length of springs. Default: 3.
	Length float64

	// Gravitation is the repulsion constant of unconnected pairs. Default: 2.
	Gravitation float64

	// MinDistance floors the squared normalized distance. Default: 0.001.
	MinDistance float64

	// Seed drives RandomStart.
	Seed uint64

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time

	Logger *log.Logger
}

// DefaultOptions returns the default force configuration.
func DefaultOptions() Options {
	return Options{
		Iterations:  1000,
		MaxDuration: 5 * time.Second,
		Move:        1,
		Strain:      1,
		Length:      3,
		Gravitation: 2,
		MinDistance: 0.001,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = d.MaxDuration
	}
	if o.Move <= 0 {
		o.Move = d.Move
	}
	if o.Strain <= 0 {
		o.Strain = d.Strain
	}
	if o.Length <= 0 {
		o.Length = d.Length
	}
	if o.Gravitation <= 0 {
		o.Gravitation = d.Gravitation
	}
	if o.MinDistance <= 0 {
		o.MinDistance = d.MinDistance
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
