package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stacklayout/pkg/config"
)

// algorithmsCommand lists the strategies known to the layout command.
func (c *CLI) algorithmsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the available layout algorithms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, e := range config.Algorithms() {
				printKeyValue(e.Name, e.Summary)
			}
		},
	}
}
