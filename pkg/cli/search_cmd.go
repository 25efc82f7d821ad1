package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd(cc *cliContext) *cobra.Command {
	var includeLineage bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search datasets by table, column, schema, or database name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hits, err := cc.client.Search(cmd.Context(), args[0], includeLineage)
			if err != nil {
				return err
			}
			if cc.output == "json" {
				return printJSON(os.Stdout, hits)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FQN\tLAYER\tMATCHED ON")
			for _, hit := range hits {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", hit.Dataset.FQN, hit.Dataset.Layer, hit.MatchField)
			}
			_ = tw.Flush()

			if includeLineage {
				for _, hit := range hits {
					if len(hit.UpstreamFQNs) > 0 {
						fmt.Printf("%s <- %s\n", hit.Dataset.FQN, strings.Join(hit.UpstreamFQNs, ", "))
					}
					if len(hit.DownstreamFQNs) > 0 {
						fmt.Printf("%s -> %s\n", hit.Dataset.FQN, strings.Join(hit.DownstreamFQNs, ", "))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeLineage, "lineage", false, "Include direct upstream/downstream FQNs")
	return cmd
}
