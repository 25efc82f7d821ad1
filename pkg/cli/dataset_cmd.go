package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newDatasetCmd(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage registered datasets",
	}
	cmd.AddCommand(newDatasetRegisterCmd(cc))
	cmd.AddCommand(newDatasetGetCmd(cc))
	cmd.AddCommand(newDatasetListCmd(cc))
	cmd.AddCommand(newDatasetDeleteCmd(cc))
	return cmd
}

func newDatasetRegisterCmd(cc *cliContext) *cobra.Command {
	var (
		layer       string
		columns     []string
		description string
	)

	cmd := &cobra.Command{
		Use:   "register <fqn>",
		Short: "Register a new dataset",
		Long: `Register a new dataset under a four-part FQN
(connection.database.schema.table). Columns are given as name:type pairs:

  metacat dataset register warehouse.sales.public.orders \
      --layer bronze --column order_id:BIGINT --column amount:DECIMAL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := parseColumns(columns)
			if err != nil {
				return err
			}
			ds, err := cc.client.RegisterDataset(cmd.Context(), args[0], layer, cols, description)
			if err != nil {
				return err
			}
			if cc.output == "json" {
				return printJSON(os.Stdout, ds)
			}
			fmt.Printf("Registered %s (%s)\n", ds.FQN, ds.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "bronze", "Dataset layer (bronze, silver, gold)")
	cmd.Flags().StringArrayVar(&columns, "column", nil, "Column as name:type (repeatable)")
	cmd.Flags().StringVar(&description, "description", "", "Dataset description")
	return cmd
}

func newDatasetGetCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <fqn>",
		Short: "Show a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := cc.client.GetDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cc.output == "json" {
				return printJSON(os.Stdout, ds)
			}
			printDatasetTable(os.Stdout, *ds)
			for _, col := range ds.Columns {
				fmt.Printf("  %s %s\n", col.Name, col.Type)
			}
			return nil
		},
	}
}

func newDatasetListCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			datasets, err := cc.client.ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			if cc.output == "json" {
				return printJSON(os.Stdout, datasets)
			}
			printDatasetTable(os.Stdout, datasets...)
			return nil
		},
	}
}

func newDatasetDeleteCmd(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fqn>",
		Short: "Delete a dataset without lineage edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cc.client.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

// parseColumns converts repeated --column name:type flags into API columns.
func parseColumns(raw []string) ([]Column, error) {
	cols := make([]Column, 0, len(raw))
	for _, entry := range raw {
		name, typ, _ := strings.Cut(entry, ":")
		if name == "" {
			return nil, fmt.Errorf("invalid --column %q: expected name:type", entry)
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	return cols, nil
}
