package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklayout/pkg/config"
	errs "github.com/matzehuels/stacklayout/pkg/errors"
	"github.com/matzehuels/stacklayout/pkg/graph"
	"github.com/matzehuels/stacklayout/pkg/layout"
	"github.com/matzehuels/stacklayout/pkg/layout/force"
	"github.com/matzehuels/stacklayout/pkg/layout/layered"
	"github.com/matzehuels/stacklayout/pkg/layout/spacetree"
	"github.com/matzehuels/stacklayout/pkg/observability"
	"github.com/matzehuels/stacklayout/pkg/observability/promhooks"
)

// Default bounds for documents that carry none.
const (
	defaultWidth  = 800
	defaultHeight = 600
)

// layoutOptions holds the flags of the layout command.
type layoutOptions struct {
	Algorithm string
	Config    string
	Output    string
	Width     float64
	Height    float64
	Steps     int
	Metrics   string

	// Bounds is set when --width or --height was given explicitly; it then
	// overrides the document's bounds.
	Bounds bool
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOptions{Width: defaultWidth, Height: defaultHeight}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Lay out a graph document",
		Long: `Lay out a graph document with one of the layout strategies.

The input is a node-link document (.json, .yaml or .yml) with optional
bounds, nodes and edges. The output is the same document with computed
positions and sizes, written next to the input as <input>.layout.<ext>
unless -o is given. Use -o - to write JSON to stdout.

The strategy comes from --algorithm, then from the config file, then
defaults to tree. Strategy options are read from a TOML or YAML config
file (-c). Stateful strategies (force, spacetree) can run extra
incremental steps after the clean pass with --steps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Bounds = cmd.Flags().Changed("width") || cmd.Flags().Changed("height")
			return c.runLayout(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "", "layout algorithm (see 'stacklayout algorithms')")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "config file (.toml, .yaml or .yml)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: <input>.layout.<ext>, - for stdout)")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "bounds width when the document has none")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "bounds height when the document has none")
	cmd.Flags().IntVar(&opts.Steps, "steps", 0, "incremental steps after the clean pass (force, spacetree)")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write Prometheus metrics of the run to this file")

	return cmd
}

// runLayout loads the graph, runs the strategy and writes the result.
func (c *CLI) runLayout(ctx context.Context, out io.Writer, input string, opts layoutOptions) error {
	logger := loggerFromContext(ctx)

	if err := errs.ValidatePath(input); err != nil {
		return err
	}
	if opts.Steps < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "--steps must not be negative, got %d", opts.Steps)
	}

	var reg *prometheus.Registry
	if opts.Metrics != "" {
		reg = prometheus.NewRegistry()
		hooks := promhooks.New(reg)
		observability.SetLayoutHooks(hooks)
		observability.SetDocumentHooks(hooks)
		defer observability.Reset()
	}

	cfg := &config.File{}
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return fmt.Errorf("load config %s: %w", opts.Config, err)
		}
		logger.Debug("Loaded config", "path", opts.Config)
	}
	alg, err := config.Build(cfg, opts.Algorithm, logger)
	if err != nil {
		return err
	}

	fallback := graph.Rect{W: opts.Width, H: opts.Height}
	g, err := readGraph(input, fallback)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}
	if opts.Bounds {
		if err := errs.ValidateExtent("bounds", opts.Width, opts.Height); err != nil {
			return err
		}
		b := g.Bounds()
		g.SetBounds(graph.Rect{X: b.X, Y: b.Y, W: opts.Width, H: opts.Height})
	}
	logger.Debug("Loaded graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "bounds", g.Bounds())

	prog := newProgress(logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Running %s layout...", alg.Name()))
	spinner.Start()

	if err := runPasses(ctx, alg, g, opts.Steps, spinner); err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("%s layout: %w", alg.Name(), err)
	}
	spinner.Stop()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Laid out %d nodes with %s", g.NodeCount(), alg.Name()))

	path := outputPath(input, opts.Output)
	if err := writeGraph(out, path, g); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(opts.Metrics, reg); err != nil {
			return fmt.Errorf("write metrics %s: %w", opts.Metrics, err)
		}
	}

	if path == "-" {
		return nil
	}
	printSuccess("Layout complete")
	printFile(path)
	if reg != nil {
		printFile(opts.Metrics)
	}
	printStats(g.NodeCount(), g.EdgeCount(), alg.Name())
	printReport(alg)
	return nil
}

// runPasses applies one clean pass and then up to steps incremental steps,
// stopping early when ctx is cancelled.
func runPasses(ctx context.Context, alg layout.Algorithm, g *graph.Graph, steps int, spinner *Spinner) error {
	if err := alg.Apply(g, true); err != nil {
		return err
	}
	if steps == 0 {
		return nil
	}
	stepper, ok := alg.(layout.Stepper)
	if !ok {
		loggerFromContext(ctx).Warn("Algorithm does not support incremental steps", "algorithm", alg.Name())
		return nil
	}
	for i := range steps {
		if ctx.Err() != nil {
			return nil
		}
		spinner.SetMessage(fmt.Sprintf("Running %s step %d/%d...", alg.Name(), i+1, steps))
		if err := stepper.Step(g); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

// outputPath returns the explicit output or <input>.layout.<ext>.
func outputPath(input, output string) string {
	if output != "" {
		return output
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".layout" + ext
}

func readGraph(path string, fallback graph.Rect) (g *graph.Graph, err error) {
	start := time.Now()
	format, err := graph.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		var nodes, edges int
		if g != nil {
			nodes, edges = g.NodeCount(), g.EdgeCount()
		}
		observability.Document().OnDocumentRead(format.String(), nodes, edges, time.Since(start), err)
	}()

	doc, err := graph.ReadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(fallback)
}

// writeGraph writes g to path, or as JSON to out when path is "-".
func writeGraph(out io.Writer, path string, g *graph.Graph) (err error) {
	start := time.Now()
	format := graph.FormatJSON
	if path != "-" {
		if format, err = graph.FormatFromPath(path); err != nil {
			return err
		}
	}
	defer func() {
		observability.Document().OnDocumentWrite(format.String(), time.Since(start), err)
	}()

	doc := graph.FromGraph(g)
	if path == "-" {
		return graph.WriteDocument(out, doc, format)
	}
	return graph.WriteDocumentFile(path, doc)
}

// printReport prints strategy-specific details of the finished run.
func printReport(alg layout.Algorithm) {
	switch a := alg.(type) {
	case *force.Force:
		printDetail("%d iterations", a.Iterations())
	case *layered.Layered:
		if l := a.Layering(); l != nil {
			printDetail("%d layers · %d crossings", l.Layers(), l.CountCrossings())
		}
	case *spacetree.SpaceTree:
		r := a.Report()
		printDetail("%d layers · %d visible · %d expanded · %d collapsed for space", r.Layers, r.Visible, r.Expanded, r.Collapses)
		if !r.Converged {
			printWarning("Layout did not fully converge (%d parents outside their children)", r.Violations)
		}
	}
}
