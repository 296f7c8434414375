// Package flood derives the flooded area behind each tidegate: it masks DEM
// cells at or below a water-surface elevation, restricted to each gate's
// zone of influence, and vectorizes the result into per-zone polygons whose
// boundaries follow grid-cell edges.
//
// A zone with no flooded cells produces no output record, while aggregate
// fields appended later are populated on every record that does exist. The
// asymmetry is long-standing behavior of this workflow and is preserved
// deliberately.
package flood

import (
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/raster"
	"github.com/coastal-group/tidegate-cli/internal/units"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

// Flooder holds a DEM and rasterized zones, prepared once and reused across
// elevations within one run.
type Flooder struct {
	dem     *raster.Grid
	zones   *vector.Layer
	idField string
	idType  vector.FieldType
	zoneIdx []int32
}

// Prepare validates the DEM and zones and rasterizes the zones onto the DEM
// grid. The DEM and zones must share a spatial reference; nothing here
// reprojects.
func Prepare(dem *raster.Grid, zones *vector.Layer, idField string) (*Flooder, error) {
	if err := zones.RequireField(idField); err != nil {
		return nil, err
	}
	if dem.CRS != zones.CRS {
		return nil, errs.Configurationf(
			"dem spatial reference %q does not match zones %q; reproject inputs first",
			dem.CRS, zones.CRS,
		)
	}

	f := &Flooder{
		dem:     dem,
		zones:   zones,
		idField: idField,
		idType:  vector.FieldString,
		zoneIdx: rasterizeZones(dem, zones),
	}
	if i := zones.FieldIndex(idField); i >= 0 {
		f.idType = zones.Fields[i].Type
	}
	return f, nil
}

// Extent computes the flooded area at a water-surface elevation (meters).
// One polygon feature per zone with any flooded cell; zones with none are
// absent from the output. Nodata cells never flood.
func (f *Flooder) Extent(elevationMeters float64) (*vector.Layer, error) {
	if err := units.CheckElevation(elevationMeters); err != nil {
		return nil, err
	}

	// Bucket flooded cells by zone.
	flooded := make(map[int32]map[cell]bool)
	for r := 0; r < f.dem.Rows; r++ {
		for c := 0; c < f.dem.Cols; c++ {
			zi := f.zoneIdx[r*f.dem.Cols+c]
			if zi == noZone || f.dem.IsNoData(r, c) {
				continue
			}
			if f.dem.At(r, c) <= elevationMeters {
				if flooded[zi] == nil {
					flooded[zi] = make(map[cell]bool)
				}
				flooded[zi][cell{r, c}] = true
			}
		}
	}

	out := vector.NewLayer("flooded_zones", f.zones.CRS, vector.Field{Name: f.idField, Type: f.idType})
	// Zone order follows the input layer so output is reproducible.
	for zi := range f.zones.Features {
		cells := flooded[int32(zi)]
		if len(cells) == 0 {
			continue
		}
		mp, err := tracePolygons(f.dem, cells)
		if err != nil {
			return nil, errs.Configurationf("flood: trace zone %d: %v", zi, err)
		}
		out.Append(&vector.Feature{
			Geom: mp,
			Attrs: map[string]any{
				f.idField: f.zones.Features[zi].Attrs[f.idField],
			},
		})
	}

	zap.L().Info("flood: extent computed",
		zap.Float64("elevation_m", elevationMeters),
		zap.Int("zones_flooded", len(out.Features)),
	)
	return out, nil
}

// CellSize reports the side length of the DEM's cells in the layer's
// native linear unit.
func (f *Flooder) CellSize() float64 {
	return f.dem.CellSize
}

// Extent is the single-shot form: prepare and evaluate one elevation.
func Extent(dem *raster.Grid, zones *vector.Layer, idField string, elevationMeters float64) (*vector.Layer, error) {
	f, err := Prepare(dem, zones, idField)
	if err != nil {
		return nil, err
	}
	return f.Extent(elevationMeters)
}
