package overlay

import (
	"math"

	"github.com/twpayne/go-geom"
)

// clipRingToHalfPlane is one Sutherland-Hodgman pass: it keeps the portion
// of the ring on the inside of a single rectangle edge. inside and intersect
// are specialized per edge by the caller.
func clipRingToHalfPlane(flat []float64, inside func(x, y float64) bool, cross func(x1, y1, x2, y2 float64) (float64, float64)) []float64 {
	n := len(flat) / 2
	if n == 0 {
		return nil
	}
	out := make([]float64, 0, len(flat)+4)
	px, py := flat[2*(n-1)], flat[2*(n-1)+1]
	pin := inside(px, py)
	for i := 0; i < n; i++ {
		cx, cy := flat[2*i], flat[2*i+1]
		cin := inside(cx, cy)
		if cin {
			if !pin {
				ix, iy := cross(px, py, cx, cy)
				out = append(out, ix, iy)
			}
			out = append(out, cx, cy)
		} else if pin {
			ix, iy := cross(px, py, cx, cy)
			out = append(out, ix, iy)
		}
		px, py, pin = cx, cy, cin
	}
	return out
}

// ClipRingToRect clips a ring (flat XY coordinates) to an axis-aligned
// rectangle with Sutherland-Hodgman. The rectangle is convex so the result
// is a single ring, possibly empty.
func ClipRingToRect(flat []float64, r Rect) []float64 {
	out := clipRingToHalfPlane(flat,
		func(x, _ float64) bool { return x >= r.MinX },
		func(x1, y1, x2, y2 float64) (float64, float64) {
			t := (r.MinX - x1) / (x2 - x1)
			return r.MinX, y1 + t*(y2-y1)
		})
	out = clipRingToHalfPlane(out,
		func(x, _ float64) bool { return x <= r.MaxX },
		func(x1, y1, x2, y2 float64) (float64, float64) {
			t := (r.MaxX - x1) / (x2 - x1)
			return r.MaxX, y1 + t*(y2-y1)
		})
	out = clipRingToHalfPlane(out,
		func(_, y float64) bool { return y >= r.MinY },
		func(x1, y1, x2, y2 float64) (float64, float64) {
			t := (r.MinY - y1) / (y2 - y1)
			return x1 + t*(x2-x1), r.MinY
		})
	out = clipRingToHalfPlane(out,
		func(_, y float64) bool { return y <= r.MaxY },
		func(x1, y1, x2, y2 float64) (float64, float64) {
			t := (r.MaxY - y1) / (y2 - y1)
			return x1 + t*(x2-x1), r.MaxY
		})
	return out
}

// ClipPolygonToRect returns the intersection of a polygon and a rectangle as
// a set of rings (outer first, clipped holes after) plus the net area.
// Returns nil, 0 when the intersection is empty or degenerate.
func ClipPolygonToRect(p *geom.Polygon, r Rect) ([][]float64, float64) {
	if p.NumLinearRings() == 0 {
		return nil, 0
	}
	outer := ClipRingToRect(p.LinearRing(0).FlatCoords(), r)
	outerArea := math.Abs(RingSignedArea(outer))
	if outerArea == 0 {
		return nil, 0
	}
	rings := [][]float64{outer}
	area := outerArea
	for i := 1; i < p.NumLinearRings(); i++ {
		hole := ClipRingToRect(p.LinearRing(i).FlatCoords(), r)
		a := math.Abs(RingSignedArea(hole))
		if a == 0 {
			continue
		}
		rings = append(rings, hole)
		area -= a
	}
	if area <= 0 {
		return nil, 0
	}
	return rings, area
}

// ClipAreaToRect computes the intersection area of a Polygon or MultiPolygon
// with a rectangle. Point geometries contribute area only through Contains
// checks elsewhere.
func ClipAreaToRect(g geom.T, r Rect) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		_, a := ClipPolygonToRect(t, r)
		return a
	case *geom.MultiPolygon:
		var area float64
		for i := 0; i < t.NumPolygons(); i++ {
			_, a := ClipPolygonToRect(t.Polygon(i), r)
			area += a
		}
		return area
	default:
		return 0
	}
}

// Intersects reports whether a geometry intersects a rectangle: positive
// clip area for polygons, containment for points.
func Intersects(g geom.T, r Rect) bool {
	switch t := g.(type) {
	case *geom.Point:
		return r.Contains(t.X(), t.Y())
	case *geom.MultiPoint:
		for i := 0; i < t.NumPoints(); i++ {
			p := t.Point(i)
			if r.Contains(p.X(), p.Y()) {
				return true
			}
		}
		return false
	default:
		if !r.Overlaps(g.Bounds()) {
			return false
		}
		return ClipAreaToRect(g, r) > 0
	}
}
