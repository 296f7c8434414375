// Package raster reads and writes ESRI ASCII grids, the DEM exchange format
// for this pipeline. Samples are row-major from the top-left corner, vertical
// unit meters. A .prj sidecar, when present, carries the spatial reference.
package raster

import (
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Grid is a rectangular raster of elevation samples.
type Grid struct {
	Cols, Rows int
	// XLL, YLL locate the lower-left corner of the lower-left cell.
	XLL, YLL float64
	CellSize float64
	NoData   float64
	// Data is row-major, row 0 at the top of the grid.
	Data []float64
	// CRS is the normalized contents of the .prj sidecar, empty if absent.
	CRS string
}

// At returns the sample at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}

// Set assigns the sample at (row, col).
func (g *Grid) Set(row, col int, v float64) {
	g.Data[row*g.Cols+col] = v
}

// IsNoData reports whether the sample at (row, col) is the nodata sentinel.
// NaN samples are treated as nodata too.
func (g *Grid) IsNoData(row, col int) bool {
	v := g.At(row, col)
	return math.IsNaN(v) || v == g.NoData
}

// CellCenter returns the map coordinates of a cell's center.
func (g *Grid) CellCenter(row, col int) (x, y float64) {
	x = g.XLL + (float64(col)+0.5)*g.CellSize
	y = g.YLL + (float64(g.Rows-1-row)+0.5)*g.CellSize
	return x, y
}

// CellBounds returns the map-coordinate bounds of a cell.
func (g *Grid) CellBounds(row, col int) (minX, minY, maxX, maxY float64) {
	minX = g.XLL + float64(col)*g.CellSize
	minY = g.YLL + float64(g.Rows-1-row)*g.CellSize
	return minX, minY, minX + g.CellSize, minY + g.CellSize
}

// CellArea returns the area of one cell in squared linear units.
func (g *Grid) CellArea() float64 { return g.CellSize * g.CellSize }

// SameShape reports whether two grids share extent, cell size, and dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return g.Cols == o.Cols && g.Rows == o.Rows &&
		g.XLL == o.XLL && g.YLL == o.YLL && g.CellSize == o.CellSize
}

// readPrj loads and normalizes the .prj sidecar next to path, if any.
func readPrj(path string) string {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	b, err := os.ReadFile(prj)
	if err != nil {
		return ""
	}
	return NormalizeCRS(string(b))
}

// NormalizeCRS collapses whitespace so that spatial-reference equality is a
// plain string comparison.
func NormalizeCRS(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
