package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

func summaryLayer() *vector.Layer {
	l := vector.NewLayer("flooded", "",
		vector.Field{Name: "GeoID", Type: vector.FieldString},
		vector.Field{Name: "flood_elev", Type: vector.FieldFloat},
		vector.Field{Name: "N_bldgs", Type: vector.FieldInt},
	)
	g := geom.NewPointFlat(geom.XY, []float64{0, 0})
	l.Append(&vector.Feature{Geom: g, Attrs: map[string]any{
		"GeoID": "gate-1", "flood_elev": 7.5, "N_bldgs": int64(2),
	}})
	l.Append(&vector.Feature{Geom: g, Attrs: map[string]any{
		"GeoID": "gate-2", "flood_elev": 7.5, "N_bldgs": int64(0),
	}})
	return l
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	require.NoError(t, Write(path, summaryLayer()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[SheetName]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "GeoID", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "gate-1", sheet.Rows[1].Cells[0].String())

	elev, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 7.5, elev, 1e-9)

	n, err := sheet.Rows[1].Cells[2].Int64()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestWriteRejectsEmptySchema(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "out.xlsx"), vector.NewLayer("empty", ""))
	assert.True(t, errs.IsConfiguration(err))
}
