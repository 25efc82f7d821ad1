// Package cli implements the metacat command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

type cliContext struct {
	client *Client
	output string
}

func newRootCmd() *cobra.Command {
	var (
		host   string
		output string
	)
	cc := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "metacat",
		Short:         "Dataset lineage catalog CLI",
		Long:          "Command-line interface for the metacat dataset lineage catalog API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("METACAT_HOST"); v != "" {
					host = v
				}
			}
			cc.client = NewClient(host)
			cc.output = output
		},
	}

	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "API host URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(newDatasetCmd(cc))
	rootCmd.AddCommand(newLineageCmd(cc))
	rootCmd.AddCommand(newSearchCmd(cc))

	return rootCmd
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDatasetTable(w io.Writer, datasets ...Dataset) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FQN\tLAYER\tCOLUMNS\tCREATED")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			ds.FQN, ds.Layer, len(ds.Columns), ds.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
}
