package scenario

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/config"
	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/flood"
	"github.com/coastal-group/tidegate-cli/internal/impact"
	"github.com/coastal-group/tidegate-cli/internal/overlay"
	"github.com/coastal-group/tidegate-cli/internal/raster"
	"github.com/coastal-group/tidegate-cli/internal/runlog"
	"github.com/coastal-group/tidegate-cli/internal/vector"
	"github.com/coastal-group/tidegate-cli/internal/workspace"
)

// Driver runs the flood pipeline across a scenario list.
type Driver struct {
	Workspace      *workspace.Workspace
	Log            *runlog.Store // optional
	Fields         config.FieldConfig
	MaxRasterBytes int64
}

// Request describes one driver invocation. Names resolve inside the
// workspace; asset layers are optional.
type Request struct {
	DEM     string
	Zones   string
	IDField string

	Scenarios []Scenario
	Output    string

	Wetlands       string
	WetlandsOutput string

	Buildings       string
	BuildingsOutput string
	BuildingIDField string
}

// Result summarizes a completed run.
type Result struct {
	RunID     string
	Output    string
	Scenarios int
	Records   int
}

// Run evaluates every scenario in order against one DEM and zone layer,
// stamps scenario columns and aggregates onto each flood extent, and writes
// the merged output once after the whole list succeeds. A failure at any
// elevation aborts the run and leaves no merged output behind.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Scenarios) == 0 {
		return nil, errs.Configurationf("scenario: nothing to run")
	}
	if req.Output == "" {
		return nil, errs.Configurationf("scenario: no output name")
	}

	if err := d.Workspace.CheckOutput(req.Output); err != nil {
		return nil, err
	}
	for _, name := range []string{req.WetlandsOutput, req.BuildingsOutput} {
		if name == "" {
			continue
		}
		if err := d.Workspace.CheckOutput(name); err != nil {
			return nil, err
		}
	}

	dem, err := raster.ReadASCII(d.Workspace.Resolve(req.DEM), d.MaxRasterBytes)
	if err != nil {
		return nil, err
	}
	zones, err := vector.Open(d.Workspace.Resolve(req.Zones))
	if err != nil {
		return nil, err
	}

	var wetlands, buildings *vector.Layer
	if req.Wetlands != "" {
		if wetlands, err = vector.Open(d.Workspace.Resolve(req.Wetlands)); err != nil {
			return nil, err
		}
	}
	if req.Buildings != "" {
		if buildings, err = vector.Open(d.Workspace.Resolve(req.Buildings)); err != nil {
			return nil, err
		}
	}

	flooder, err := flood.Prepare(dem, zones, req.IDField)
	if err != nil {
		return nil, err
	}

	var runID string
	if d.Log != nil {
		feet := make([]float64, len(req.Scenarios))
		for i, sc := range req.Scenarios {
			feet[i] = sc.ElevationFeet
		}
		run, err := d.Log.Create(ctx, req.DEM, req.Zones, req.Output, feet)
		if err != nil {
			return nil, err
		}
		runID = run.ID
	}

	res, err := d.run(ctx, req, flooder, wetlands, buildings)
	if d.Log != nil && runID != "" {
		if err != nil {
			if logErr := d.Log.Fail(ctx, runID, err); logErr != nil {
				zap.L().Warn("scenario: run log update failed", zap.Error(logErr))
			}
		} else {
			if logErr := d.Log.Complete(ctx, runID); logErr != nil {
				zap.L().Warn("scenario: run log update failed", zap.Error(logErr))
			}
		}
	}
	if err != nil {
		return nil, err
	}
	res.RunID = runID
	return res, nil
}

func (d *Driver) run(ctx context.Context, req Request, flooder *flood.Flooder, wetlands, buildings *vector.Layer) (*Result, error) {
	fields := d.fieldNames()

	var wetFrags, bldgFrags *vector.Layer
	if req.WetlandsOutput != "" {
		wetFrags = vector.NewLayer(outputName(req.WetlandsOutput), "")
	}
	if req.BuildingsOutput != "" {
		bldgFrags = vector.NewLayer(outputName(req.BuildingsOutput), "")
	}

	var merged *vector.Layer
	for _, sc := range req.Scenarios {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scenario: run canceled")
		}

		ext, err := flooder.Extent(sc.ElevationMeters)
		if err != nil {
			return nil, eris.Wrapf(err, "scenario: %s", sc.Label)
		}
		stamp(ext, sc, fields)

		if wetlands != nil {
			if err := impact.AreaOfImpact(ext, req.IDField, wetlands, fields.WetlandArea, flooder.CellSize(), wetFrags); err != nil {
				return nil, eris.Wrapf(err, "scenario: %s", sc.Label)
			}
			if err := impact.CountOfImpact(ext, req.IDField, wetlands, wetlandIDField(wetlands), fields.WetlandCount, flooder.CellSize(), nil); err != nil {
				return nil, eris.Wrapf(err, "scenario: %s", sc.Label)
			}
		}
		if buildings != nil {
			idField := req.BuildingIDField
			if idField == "" {
				idField = fields.BuildingID
			}
			if err := impact.CountOfImpact(ext, req.IDField, buildings, idField, fields.BuildingCount, flooder.CellSize(), bldgFrags); err != nil {
				return nil, eris.Wrapf(err, "scenario: %s", sc.Label)
			}
		}

		if merged == nil {
			merged = vector.NewLayer(outputName(req.Output), ext.CRS)
		}
		for _, f := range ext.Fields {
			merged.EnsureField(f)
		}
		for _, feat := range ext.Features {
			merged.Append(feat)
		}

		zap.L().Info("scenario: evaluated",
			zap.String("label", sc.Label),
			zap.Float64("elevation_ft", sc.ElevationFeet),
			zap.Int("zones_flooded", len(ext.Features)),
		)
	}

	if merged == nil {
		merged = vector.NewLayer(outputName(req.Output), "")
	}

	// One write at the very end. A failed run never leaves a merged layer.
	if err := vector.Write(d.Workspace.Resolve(req.Output), merged); err != nil {
		return nil, err
	}
	if wetFrags != nil && req.WetlandsOutput != "" {
		wetFrags.CRS = merged.CRS
		if err := vector.Write(d.Workspace.Resolve(req.WetlandsOutput), wetFrags); err != nil {
			return nil, err
		}
	}
	if bldgFrags != nil && req.BuildingsOutput != "" {
		bldgFrags.CRS = merged.CRS
		if err := vector.Write(d.Workspace.Resolve(req.BuildingsOutput), bldgFrags); err != nil {
			return nil, err
		}
	}

	return &Result{
		Output:    req.Output,
		Scenarios: len(req.Scenarios),
		Records:   len(merged.Features),
	}, nil
}

// stamp writes the scenario columns onto every record of one flood extent:
// the water-surface elevation in feet, the surge category and SLR step (blank
// and zero for custom scenarios), and the record's flooded area.
func stamp(ext *vector.Layer, sc Scenario, fields config.FieldConfig) {
	ext.EnsureField(vector.Field{Name: fields.Elevation, Type: vector.FieldFloat})
	ext.EnsureField(vector.Field{Name: fields.Surge, Type: vector.FieldString})
	ext.EnsureField(vector.Field{Name: fields.SLR, Type: vector.FieldInt})
	ext.EnsureField(vector.Field{Name: fields.TotalArea, Type: vector.FieldFloat})

	for _, feat := range ext.Features {
		feat.Attrs[fields.Elevation] = sc.ElevationFeet
		feat.Attrs[fields.Surge] = sc.SurgeName
		feat.Attrs[fields.SLR] = int64(sc.SLRFeet)
		feat.Attrs[fields.TotalArea] = overlay.Area(feat.Geom)
	}
}

// wetlandIDField picks the identity field for distinct wetland counting. Most
// wetland layers carry no stable id, so a per-record index is materialized
// once and reused across elevations.
func wetlandIDField(wetlands *vector.Layer) string {
	const name = "wtld_idx"
	if wetlands.HasField(name) {
		return name
	}
	wetlands.EnsureField(vector.Field{Name: name, Type: vector.FieldInt})
	for i, feat := range wetlands.Features {
		if feat.Attrs == nil {
			feat.Attrs = make(map[string]any)
		}
		feat.Attrs[name] = int64(i)
	}
	return name
}

// fieldNames fills unset output field names with their defaults.
func (d *Driver) fieldNames() config.FieldConfig {
	f := d.Fields
	def := func(v *string, name string) {
		if *v == "" {
			*v = name
		}
	}
	def(&f.Elevation, "flood_elev")
	def(&f.Surge, "surge")
	def(&f.SLR, "slr")
	def(&f.TotalArea, "totalarea")
	def(&f.BuildingCount, "N_bldgs")
	def(&f.WetlandArea, "area_wtlds")
	def(&f.WetlandCount, "N_wtlds")
	def(&f.BuildingID, "STRUCT_ID")
	return f
}

func outputName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
