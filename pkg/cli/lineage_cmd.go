package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLineageCmd(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Manage dataset lineage",
	}
	cmd.AddCommand(newLineageAddCmd(cc))
	cmd.AddCommand(newLineageShowCmd(cc))
	return cmd
}

func newLineageAddCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <upstream-fqn> <downstream-fqn>",
		Short: "Add a lineage edge between two registered datasets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.client.AddLineage(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Added lineage %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newLineageShowCmd(cc *cliContext) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "show <fqn>",
		Short: "Show upstream and downstream datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			node, err := cc.client.GetLineage(cmd.Context(), args[0], depth)
			if err != nil {
				return err
			}
			if cc.output == "json" {
				return printJSON(os.Stdout, node)
			}

			fmt.Printf("%s\n", node.FQN)
			fmt.Printf("Upstream (%d):\n", len(node.Upstream))
			for _, ds := range node.Upstream {
				fmt.Printf("  <- %s (%s)\n", ds.FQN, ds.Layer)
			}
			fmt.Printf("Downstream (%d):\n", len(node.Downstream))
			for _, ds := range node.Downstream {
				fmt.Printf("  -> %s (%s)\n", ds.FQN, ds.Layer)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&depth, "depth", 0, "Traversal depth in hops (0 = unbounded)")
	return cmd
}
