package flood

import (
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/overlay"
	"github.com/coastal-group/tidegate-cli/internal/raster"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

// noZone marks cells outside every zone of influence.
const noZone = int32(-1)

// rasterizeZones assigns each DEM cell to the zone whose polygon contains
// the cell center, or noZone. Where zones overlap, the earlier feature in
// layer order wins, matching the one-value-per-cell behavior of the
// polygon-to-raster conversion this replaces.
func rasterizeZones(dem *raster.Grid, zones *vector.Layer) []int32 {
	idx := make([]int32, dem.Cols*dem.Rows)
	for i := range idx {
		idx[i] = noZone
	}

	var assigned int
	for zi, feat := range zones.Features {
		if feat.Geom == nil {
			continue
		}
		b := feat.Geom.Bounds()
		r0, c0, r1, c1 := cellRange(dem, b.Min(0), b.Min(1), b.Max(0), b.Max(1))
		for r := r0; r <= r1; r++ {
			for c := c0; c <= c1; c++ {
				pos := r*dem.Cols + c
				if idx[pos] != noZone {
					continue
				}
				x, y := dem.CellCenter(r, c)
				if overlay.Contains(feat.Geom, x, y) {
					idx[pos] = int32(zi)
					assigned++
				}
			}
		}
	}

	zap.L().Debug("flood: rasterized zones",
		zap.Int("zones", len(zones.Features)),
		zap.Int("cells_assigned", assigned),
	)
	return idx
}

// cellRange clips a map-coordinate bbox to grid cell indices.
func cellRange(g *raster.Grid, minX, minY, maxX, maxY float64) (r0, c0, r1, c1 int) {
	c0 = int((minX - g.XLL) / g.CellSize)
	c1 = int((maxX - g.XLL) / g.CellSize)
	top := g.YLL + float64(g.Rows)*g.CellSize
	r0 = int((top - maxY) / g.CellSize)
	r1 = int((top - minY) / g.CellSize)

	if c0 < 0 {
		c0 = 0
	}
	if r0 < 0 {
		r0 = 0
	}
	if c1 >= g.Cols {
		c1 = g.Cols - 1
	}
	if r1 >= g.Rows {
		r1 = g.Rows - 1
	}
	return r0, c0, r1, c1
}
