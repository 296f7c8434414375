package vector

import (
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/overlay"
)

// ShapeToGeom converts a go-shp geometry to go-geom. Polygons come back as
// MultiPolygon with shapefile ring orientation decoded: clockwise parts are
// exteriors, counterclockwise parts are holes of the exterior containing
// them. Unsupported shapes return nil.
func ShapeToGeom(s shp.Shape) geom.T {
	switch t := s.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y})
	case *shp.Polygon:
		return polygonToMultiPolygon(t)
	default:
		return nil
	}
}

// partFlat extracts part i of a shapefile polygon as flat XY coordinates.
func partFlat(p *shp.Polygon, i int32) []float64 {
	start := p.Parts[i]
	end := int32(len(p.Points))
	if i+1 < p.NumParts {
		end = p.Parts[i+1]
	}
	flat := make([]float64, 0, (end-start)*2)
	for j := start; j < end; j++ {
		flat = append(flat, p.Points[j].X, p.Points[j].Y)
	}
	return flat
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var outers, holes [][]float64
	for i := int32(0); i < p.NumParts; i++ {
		flat := partFlat(p, i)
		if len(flat) < 6 {
			continue
		}
		// Shapefile winding: clockwise (negative shoelace) = exterior.
		if overlay.RingSignedArea(flat) <= 0 {
			outers = append(outers, flat)
		} else {
			holes = append(holes, flat)
		}
	}
	if len(outers) == 0 {
		// Malformed winding; treat every part as an exterior.
		outers, holes = holes, nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	polys := make([]*geom.Polygon, 0, len(outers))
	for _, flat := range outers {
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("vector: skipping malformed exterior ring", zap.Error(err))
			continue
		}
		polys = append(polys, poly)
	}
	for _, hole := range holes {
		for _, poly := range polys {
			if overlay.RingContains(poly.LinearRing(0).FlatCoords(), hole[0], hole[1]) {
				if err := poly.Push(geom.NewLinearRingFlat(geom.XY, hole)); err != nil {
					zap.L().Debug("vector: skipping malformed hole ring", zap.Error(err))
				}
				break
			}
		}
	}
	for _, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("vector: skipping malformed polygon", zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// GeomToShape converts a go-geom geometry to go-shp, re-encoding ring
// orientation to the shapefile convention (exterior clockwise, holes
// counterclockwise). Unsupported geometries return nil.
func GeomToShape(g geom.T) shp.Shape {
	switch t := g.(type) {
	case *geom.Point:
		return &shp.Point{X: t.X(), Y: t.Y()}
	case *geom.Polygon:
		mp := geom.NewMultiPolygon(geom.XY)
		if err := mp.Push(t); err != nil {
			return nil
		}
		return multiPolygonToShape(mp)
	case *geom.MultiPolygon:
		return multiPolygonToShape(t)
	default:
		return nil
	}
}

func multiPolygonToShape(mp *geom.MultiPolygon) shp.Shape {
	var parts []int32
	var points []shp.Point

	appendRing := func(flat []float64, wantClockwise bool) {
		ccw := overlay.RingSignedArea(flat) > 0
		reverse := ccw == wantClockwise
		parts = append(parts, int32(len(points)))
		n := len(flat) / 2
		idx := make([]int, 0, n+1)
		for i := 0; i < n; i++ {
			idx = append(idx, i)
		}
		// Shapefile rings are explicitly closed.
		if n > 0 && (flat[0] != flat[2*(n-1)] || flat[1] != flat[2*(n-1)+1]) {
			idx = append(idx, 0)
		}
		if reverse {
			for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
		for _, i := range idx {
			points = append(points, shp.Point{X: flat[2*i], Y: flat[2*i+1]})
		}
	}

	for p := 0; p < mp.NumPolygons(); p++ {
		poly := mp.Polygon(p)
		for r := 0; r < poly.NumLinearRings(); r++ {
			appendRing(poly.LinearRing(r).FlatCoords(), r == 0)
		}
	}
	if len(points) == 0 {
		return nil
	}

	box := shp.Box{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, pt := range points[1:] {
		if pt.X < box.MinX {
			box.MinX = pt.X
		}
		if pt.X > box.MaxX {
			box.MaxX = pt.X
		}
		if pt.Y < box.MinY {
			box.MinY = pt.Y
		}
		if pt.Y > box.MaxY {
			box.MaxY = pt.Y
		}
	}

	return &shp.Polygon{
		Box:       box,
		NumParts:  int32(len(parts)),
		NumPoints: int32(len(points)),
		Parts:     parts,
		Points:    points,
	}
}
