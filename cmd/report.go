package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coastal-group/tidegate-cli/internal/report"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a merged flood layer as an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ws, err := initWorkspace(cmd)
		if err != nil {
			return err
		}

		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		if err := ws.CheckOutput(output); err != nil {
			return err
		}

		layer, err := vector.Open(ws.Resolve(input))
		if err != nil {
			return err
		}
		if err := report.Write(ws.Resolve(output), layer); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Wrote %d records to %s\n", len(layer.Features), output)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("workspace", "", "directory all relative names resolve against")
	reportCmd.Flags().String("input", "flooded.shp", "merged flood layer to summarize")
	reportCmd.Flags().String("output", "flood_summary.xlsx", "workbook to write")
	reportCmd.Flags().Bool("overwrite", false, "replace an existing workbook")
	rootCmd.AddCommand(reportCmd)
}
