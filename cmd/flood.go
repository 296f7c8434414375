package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/coastal-group/tidegate-cli/internal/scenario"
)

var floodCmd = &cobra.Command{
	Use:   "flood",
	Short: "Flood the DEM at custom elevations",
	Long:  "Evaluates one or more water-surface elevations (feet) against the DEM, traces the flooded area behind each tidegate, and writes the merged flood layer plus optional asset aggregates.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		elevations, _ := cmd.Flags().GetFloat64Slice("elevation")
		scs, err := scenario.FromElevations(elevations)
		if err != nil {
			return err
		}
		return runPipeline(cmd, scs)
	},
}

// runPipeline wires flags into a driver request and executes it. Shared by
// the flood and scenarios commands, which differ only in how the scenario
// list is built.
func runPipeline(cmd *cobra.Command, scs []scenario.Scenario) error {
	ws, err := initWorkspace(cmd)
	if err != nil {
		return err
	}
	log, err := initRunLog(cmd, ws)
	if err != nil {
		return err
	}
	defer log.Close() //nolint:errcheck

	d := &scenario.Driver{
		Workspace:      ws,
		Log:            log,
		Fields:         cfg.Fields,
		MaxRasterBytes: cfg.Raster.MaxBytes,
	}

	req := scenario.Request{Scenarios: scs}
	req.DEM, _ = cmd.Flags().GetString("dem")
	req.Zones, _ = cmd.Flags().GetString("zones")
	req.IDField, _ = cmd.Flags().GetString("id-field")
	req.Output, _ = cmd.Flags().GetString("flood-output")
	req.Wetlands, _ = cmd.Flags().GetString("wetlands")
	req.WetlandsOutput, _ = cmd.Flags().GetString("wetlands-output")
	req.Buildings, _ = cmd.Flags().GetString("buildings")
	req.BuildingsOutput, _ = cmd.Flags().GetString("buildings-output")
	req.BuildingIDField, _ = cmd.Flags().GetString("building-id-field")

	res, err := d.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	printRunSummary(os.Stdout, res)
	return nil
}

// addPipelineFlags registers the flags shared by flood and scenarios.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("workspace", "", "directory all relative names resolve against")
	cmd.Flags().String("dem", "dem.asc", "DEM raster (ESRI ASCII)")
	cmd.Flags().String("zones", "zones.shp", "tidegate zones of influence shapefile")
	cmd.Flags().String("id-field", "GeoID", "zone identifier field")
	cmd.Flags().String("flood-output", "flooded.shp", "merged flood layer to write")
	cmd.Flags().String("wetlands", "", "wetlands shapefile (optional)")
	cmd.Flags().String("wetlands-output", "", "flooded-wetland fragments layer to write (optional)")
	cmd.Flags().String("buildings", "", "buildings shapefile (optional)")
	cmd.Flags().String("buildings-output", "", "flooded-building fragments layer to write (optional)")
	cmd.Flags().String("building-id-field", "", "building identifier field (default from config)")
	cmd.Flags().Bool("overwrite", false, "replace existing outputs")
}

func init() {
	addPipelineFlags(floodCmd)
	floodCmd.Flags().Float64Slice("elevation", nil, "water-surface elevation in feet (repeatable)")
	_ = floodCmd.MarkFlagRequired("elevation")
	rootCmd.AddCommand(floodCmd)
}
