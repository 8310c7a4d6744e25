// Package cli implements the stacklayout command-line interface.
//
// The CLI loads a node-link graph document, runs one layout strategy over it
// and writes the document back with computed positions and sizes. It is a
// thin driver around the pkg/ libraries and the easiest way to try a
// strategy on real data.
//
// # Commands
//
//   - layout: lay out a graph document with a strategy
//   - algorithms: list the available strategies
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command context and passed on to the strategies.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklayout/pkg/buildinfo"
)

const appName = "stacklayout"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI whose logger writes to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The logger is attached to the command context before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Stacklayout computes graph layouts",
		Long:         `Stacklayout positions the nodes of a graph with one of several layout strategies (grid, tree, radial, space-constrained tree, force-directed, layered) and writes the result back as a node-link document.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.algorithmsCommand())
	root.AddCommand(c.completionCommand())

	return root
}
