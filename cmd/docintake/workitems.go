package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docintake/internal/app"
)

var xlsxPath string

var workitemsCmd = &cobra.Command{
	Use:   "workitems",
	Short: "Print the dashboard work items as JSON, or export them to XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if xlsxPath != "" {
			body, err := a.Exporter.WorkItemsXLSX(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.WriteFile(xlsxPath, body, 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s (%d bytes)\n", xlsxPath, len(body))
			return nil
		}

		items, err := a.WorkItems.List(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

func init() {
	workitemsCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an XLSX export to this path instead of printing JSON")
	rootCmd.AddCommand(workitemsCmd)
}
