// Package overlay holds the planar geometry predicates and measures the
// pipeline needs: shoelace areas, point-in-polygon tests, and polygon
// clipping against axis-aligned rectangles. Flood extents are unions of
// whole grid cells, so every overlay the pipeline performs reduces to
// clipping arbitrary polygons against cell rectangles.
package overlay

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Rect is an axis-aligned rectangle in map coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether the point lies inside or on the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Overlaps reports whether the rectangle overlaps the bounds. Touching
// edges count, fragments of zero width are discarded later by area checks.
func (r Rect) Overlaps(b *geom.Bounds) bool {
	return b.Min(0) <= r.MaxX && b.Max(0) >= r.MinX &&
		b.Min(1) <= r.MaxY && b.Max(1) >= r.MinY
}

// RingSignedArea computes the signed shoelace area of a ring given as flat
// XY coordinates. Positive for counterclockwise rings.
func RingSignedArea(flat []float64) float64 {
	n := len(flat) / 2
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}

// PolygonArea computes the area of a polygon, subtracting interior rings.
func PolygonArea(p *geom.Polygon) float64 {
	var area float64
	for i := 0; i < p.NumLinearRings(); i++ {
		a := math.Abs(RingSignedArea(p.LinearRing(i).FlatCoords()))
		if i == 0 {
			area += a
		} else {
			area -= a
		}
	}
	return area
}

// Area computes the area of a Polygon or MultiPolygon. Other geometry types
// have zero area.
func Area(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return PolygonArea(t)
	case *geom.MultiPolygon:
		var area float64
		for i := 0; i < t.NumPolygons(); i++ {
			area += PolygonArea(t.Polygon(i))
		}
		return area
	default:
		return 0
	}
}

// RingContains is an even-odd crossing test over flat XY coordinates. Points
// exactly on an edge may land on either side; the pipeline only uses this
// for cell centers, which inputs place strictly inside or outside in
// practice.
func RingContains(flat []float64, x, y float64) bool {
	n := len(flat) / 2
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := flat[2*i], flat[2*i+1]
		xj, yj := flat[2*j], flat[2*j+1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PolygonContains reports whether the point lies inside the polygon's outer
// ring and outside all of its holes.
func PolygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !RingContains(p.LinearRing(0).FlatCoords(), x, y) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if RingContains(p.LinearRing(i).FlatCoords(), x, y) {
			return false
		}
	}
	return true
}

// Contains reports whether the point lies inside a Polygon or MultiPolygon.
func Contains(g geom.T, x, y float64) bool {
	switch t := g.(type) {
	case *geom.Polygon:
		return PolygonContains(t, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if PolygonContains(t.Polygon(i), x, y) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
