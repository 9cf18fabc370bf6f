package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarchlab/avrtester/scenarios"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bundled scenarios.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			for _, s := range scenarios.All() {
				fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			}

			return w.Flush()
		},
	}
}
