package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

func floatAttr(t *testing.T, f *vector.Feature, name string) float64 {
	t.Helper()
	v, ok := f.FloatAttr(name)
	require.True(t, ok, "attribute %s", name)
	return v
}

func intAttr(t *testing.T, f *vector.Feature, name string) int64 {
	t.Helper()
	v, ok := f.IntAttr(name)
	require.True(t, ok, "attribute %s", name)
	return v
}

func rectPoly(minX, minY, maxX, maxY float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		minX, minY, maxX, minY, maxX, maxY, minX, maxY, minX, minY,
	}, []int{10})
}

func floodLayer(zones ...[5]float64) *vector.Layer {
	l := vector.NewLayer("flooded_zones", "", vector.Field{Name: "GeoID", Type: vector.FieldString})
	names := []string{"gate-1", "gate-2", "gate-3"}
	for i, z := range zones {
		l.Append(&vector.Feature{
			Geom:  rectPoly(z[0], z[1], z[2], z[3]),
			Attrs: map[string]any{"GeoID": names[i]},
		})
	}
	return l
}

func TestAreaOfImpactSumsAndZeroFills(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4}, [5]float64{10, 0, 12, 2})

	wetlands := vector.NewLayer("wetlands", "")
	wetlands.Append(&vector.Feature{Geom: rectPoly(2, 2, 6, 6), Attrs: map[string]any{}})
	wetlands.Append(&vector.Feature{Geom: rectPoly(0, 0, 1, 1), Attrs: map[string]any{}})

	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil))

	require.True(t, flood.HasField("area_wtlds"))
	// gate-1: (2,2)-(4,4) overlap of the first wetland plus the full 1x1.
	assert.InDelta(t, 5.0, floatAttr(t, flood.Features[0], "area_wtlds"), 1e-9)
	// gate-2 touches nothing but still carries the field, zero-filled.
	assert.InDelta(t, 0.0, floatAttr(t, flood.Features[1], "area_wtlds"), 1e-9)
}

func TestAreaOfImpactOverwritesOnRerun(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})
	wetlands := vector.NewLayer("wetlands", "")
	wetlands.Append(&vector.Feature{Geom: rectPoly(0, 0, 2, 2), Attrs: map[string]any{}})

	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil))
	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil))

	count := 0
	for _, f := range flood.Fields {
		if f.Name == "area_wtlds" {
			count++
		}
	}
	assert.Equal(t, 1, count, "rerun must not duplicate the field")
	assert.InDelta(t, 4.0, floatAttr(t, flood.Features[0], "area_wtlds"), 1e-9)
}

func TestAreaOfImpactCellDecomposition(t *testing.T) {
	// L-shaped flood outline traced from three unit cells; the notch at
	// (1,1)-(2,2) must be excluded from the overlay.
	l := geom.NewPolygonFlat(geom.XY, []float64{
		0, 0, 2, 0, 2, 1, 1, 1, 1, 2, 0, 2, 0, 0,
	}, []int{14})
	flood := vector.NewLayer("flooded_zones", "", vector.Field{Name: "GeoID", Type: vector.FieldString})
	flood.Append(&vector.Feature{Geom: l, Attrs: map[string]any{"GeoID": "gate-1"}})

	wetlands := vector.NewLayer("wetlands", "")
	wetlands.Append(&vector.Feature{Geom: rectPoly(0, 0, 2, 2), Attrs: map[string]any{}})

	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil))
	assert.InDelta(t, 3.0, floatAttr(t, flood.Features[0], "area_wtlds"), 1e-9)
}

func TestAreaOfImpactNonSquareFloodBlock(t *testing.T) {
	// A fully flooded 7x3 block of unit cells. The wetland sits against the
	// far edge, well past the block's shorter side, and must still be
	// picked up in full.
	flood := floodLayer([5]float64{0, 0, 7, 3})

	wetlands := vector.NewLayer("wetlands", "")
	wetlands.Append(&vector.Feature{Geom: rectPoly(6, 0, 7, 1), Attrs: map[string]any{}})

	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil))
	assert.InDelta(t, 1.0, floatAttr(t, flood.Features[0], "area_wtlds"), 1e-9)
}

func TestCountOfImpactNonSquareFloodBlock(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 7, 3})

	buildings := vector.NewLayer("buildings", "", vector.Field{Name: "STRUCT_ID", Type: vector.FieldString})
	buildings.Append(&vector.Feature{Geom: rectPoly(6, 0, 7, 1), Attrs: map[string]any{"STRUCT_ID": "b1"}})
	buildings.Append(&vector.Feature{
		Geom:  geom.NewPointFlat(geom.XY, []float64{6.5, 2.5}),
		Attrs: map[string]any{"STRUCT_ID": "p1"},
	})

	require.NoError(t, CountOfImpact(flood, "GeoID", buildings, "STRUCT_ID", "N_bldgs", 1.0, nil))
	assert.EqualValues(t, 2, intAttr(t, flood.Features[0], "N_bldgs"))
}

func TestAreaOfImpactRejectsBadCellSize(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})
	wetlands := vector.NewLayer("wetlands", "")

	err := AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 0, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestAreaOfImpactFieldAndCRSChecks(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})
	wetlands := vector.NewLayer("wetlands", "")

	err := AreaOfImpact(flood, "NoSuchField", wetlands, "area_wtlds", 1.0, nil)
	assert.True(t, errs.IsNotFound(err))

	wetlands.CRS = "PROJCS[other]"
	err = AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestCountOfImpactDistinctPerZone(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4}, [5]float64{10, 0, 12, 2})

	buildings := vector.NewLayer("buildings", "", vector.Field{Name: "STRUCT_ID", Type: vector.FieldString})
	add := func(id string, g geom.T) {
		buildings.Append(&vector.Feature{Geom: g, Attrs: map[string]any{"STRUCT_ID": id}})
	}
	add("b1", rectPoly(0, 0, 1, 1))
	add("b2", rectPoly(3, 3, 5, 5)) // partial overlap still counts
	add("b3", rectPoly(20, 20, 21, 21))

	require.NoError(t, CountOfImpact(flood, "GeoID", buildings, "STRUCT_ID", "N_bldgs", 1.0, nil))

	assert.EqualValues(t, 2, intAttr(t, flood.Features[0], "N_bldgs"))
	assert.EqualValues(t, 0, intAttr(t, flood.Features[1], "N_bldgs"))
}

func TestCountOfImpactDedupesSharedIDWithinZone(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})

	// Two features sharing one STRUCT_ID, as happens with multipart
	// building footprints split across records.
	buildings := vector.NewLayer("buildings", "", vector.Field{Name: "STRUCT_ID", Type: vector.FieldString})
	buildings.Append(&vector.Feature{Geom: rectPoly(0, 0, 1, 1), Attrs: map[string]any{"STRUCT_ID": "b1"}})
	buildings.Append(&vector.Feature{Geom: rectPoly(2, 2, 3, 3), Attrs: map[string]any{"STRUCT_ID": "b1"}})

	require.NoError(t, CountOfImpact(flood, "GeoID", buildings, "STRUCT_ID", "N_bldgs", 1.0, nil))
	assert.EqualValues(t, 1, intAttr(t, flood.Features[0], "N_bldgs"))
}

func TestCountOfImpactStraddlingAssetCountsInEachZone(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 2, 2}, [5]float64{2, 0, 4, 2})

	buildings := vector.NewLayer("buildings", "", vector.Field{Name: "STRUCT_ID", Type: vector.FieldString})
	buildings.Append(&vector.Feature{Geom: rectPoly(1, 0, 3, 2), Attrs: map[string]any{"STRUCT_ID": "b1"}})

	require.NoError(t, CountOfImpact(flood, "GeoID", buildings, "STRUCT_ID", "N_bldgs", 1.0, nil))
	assert.EqualValues(t, 1, intAttr(t, flood.Features[0], "N_bldgs"))
	assert.EqualValues(t, 1, intAttr(t, flood.Features[1], "N_bldgs"))
}

func TestCountOfImpactPointAssets(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})

	pts := vector.NewLayer("buildings", "", vector.Field{Name: "STRUCT_ID", Type: vector.FieldString})
	pts.Append(&vector.Feature{
		Geom:  geom.NewPointFlat(geom.XY, []float64{1, 1}),
		Attrs: map[string]any{"STRUCT_ID": "p1"},
	})
	pts.Append(&vector.Feature{
		Geom:  geom.NewPointFlat(geom.XY, []float64{9, 9}),
		Attrs: map[string]any{"STRUCT_ID": "p2"},
	})

	require.NoError(t, CountOfImpact(flood, "GeoID", pts, "STRUCT_ID", "N_bldgs", 1.0, nil))
	assert.EqualValues(t, 1, intAttr(t, flood.Features[0], "N_bldgs"))
}

func TestCountOfImpactRequiresIDField(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})
	buildings := vector.NewLayer("buildings", "")

	err := CountOfImpact(flood, "GeoID", buildings, "", "N_bldgs", 1.0, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestFragmentsLayerMatchesSums(t *testing.T) {
	flood := floodLayer([5]float64{0, 0, 4, 4})
	wetlands := vector.NewLayer("wetlands", "")
	wetlands.Append(&vector.Feature{Geom: rectPoly(2, 2, 6, 6), Attrs: map[string]any{}})
	wetlands.Append(&vector.Feature{Geom: rectPoly(0, 0, 1, 1), Attrs: map[string]any{}})

	frags := vector.NewLayer("flooded_wetlands", flood.CRS)
	require.NoError(t, AreaOfImpact(flood, "GeoID", wetlands, "area_wtlds", 1.0, frags))

	require.Len(t, frags.Features, 2)
	var total float64
	for _, f := range frags.Features {
		assert.Equal(t, "gate-1", f.StringAttr("GeoID"))
		assert.NotNil(t, f.Geom)
		total += floatAttr(t, f, "area")
	}
	assert.InDelta(t, floatAttr(t, flood.Features[0], "area_wtlds"), total, 1e-9)
}
