package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastal-group/tidegate-cli/internal/errs"
)

const demASC = `ncols 3
nrows 2
xllcorner 100.0
yllcorner 200.0
cellsize 10.0
nodata_value -9999
1.0 2.5 -9999
4.0 5.0 6.0
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadASCII(t *testing.T) {
	path := writeTemp(t, "dem.asc", demASC)

	g, err := ReadASCII(path, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 100.0, g.XLL)
	assert.Equal(t, 200.0, g.YLL)
	assert.Equal(t, 10.0, g.CellSize)
	assert.Equal(t, 2.5, g.At(0, 1))
	assert.True(t, g.IsNoData(0, 2))
	assert.False(t, g.IsNoData(1, 0))
	assert.Equal(t, "", g.CRS)
}

func TestReadASCIIWithPrj(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dem.asc"), []byte(demASC), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dem.prj"), []byte("PROJCS[\n  \"StatePlane\"\n]"), 0o644))

	g, err := ReadASCII(filepath.Join(dir, "dem.asc"), 0)
	require.NoError(t, err)
	assert.Equal(t, `PROJCS[ "StatePlane" ]`, g.CRS)
}

func TestReadASCIIErrors(t *testing.T) {
	_, err := ReadASCII(filepath.Join(t.TempDir(), "missing.asc"), 0)
	assert.True(t, errs.IsNotFound(err))

	short := writeTemp(t, "short.asc", "ncols 3\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n")
	_, err = ReadASCII(short, 0)
	assert.True(t, errs.IsConfiguration(err))

	noHeader := writeTemp(t, "nohdr.asc", "ncols 3\nnrows 2\n1 2 3 4 5 6\n")
	_, err = ReadASCII(noHeader, 0)
	assert.True(t, errs.IsConfiguration(err))
}

func TestReadASCIIMemoryBudget(t *testing.T) {
	path := writeTemp(t, "dem.asc", demASC)
	_, err := ReadASCII(path, 16) // 6 samples need 48 bytes
	assert.True(t, errs.IsResourceExhaustion(err))
}

func TestCellGeometry(t *testing.T) {
	g := &Grid{Cols: 3, Rows: 2, XLL: 100, YLL: 200, CellSize: 10}

	// Row 0 is the TOP row: its centers sit in the upper band.
	x, y := g.CellCenter(0, 0)
	assert.Equal(t, 105.0, x)
	assert.Equal(t, 215.0, y)

	x, y = g.CellCenter(1, 2)
	assert.Equal(t, 125.0, x)
	assert.Equal(t, 205.0, y)

	minX, minY, maxX, maxY := g.CellBounds(1, 0)
	assert.Equal(t, []float64{100, 200, 110, 210}, []float64{minX, minY, maxX, maxY})

	assert.Equal(t, 100.0, g.CellArea())
}

func TestWriteReadRoundTrip(t *testing.T) {
	g := &Grid{
		Cols: 2, Rows: 2, XLL: 0, YLL: 0, CellSize: 5, NoData: -9999,
		Data: []float64{1.5, -9999, 3, 4.25},
		CRS:  "PROJCS[\"x\"]",
	}
	path := filepath.Join(t.TempDir(), "out.asc")
	require.NoError(t, WriteASCII(path, g))

	back, err := ReadASCII(path, 0)
	require.NoError(t, err)
	assert.True(t, g.SameShape(back))
	assert.Equal(t, g.Data, back.Data)
	assert.Equal(t, g.CRS, back.CRS)
}
