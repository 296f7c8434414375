// Package impact quantifies what a flood extent touches: summed asset area
// per zone (wetlands) and distinct asset counts per zone (buildings).
//
// Flood geometries are unions of whole grid cells, so asset-flood overlay
// reduces to clipping asset polygons against each cell rectangle of the
// flood outline. Areas come out in the layer's native linear unit squared.
package impact

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/coastal-group/tidegate-cli/internal/errs"
	"github.com/coastal-group/tidegate-cli/internal/overlay"
	"github.com/coastal-group/tidegate-cli/internal/vector"
)

// fragment is one asset-flood intersection piece, tagged with the zone and
// asset it came from. Counting distinct assets per zone is an explicit
// group-by over these tags, never an artifact of overlay geometry.
type fragment struct {
	zoneID  string
	assetID string
	area    float64
	rings   [][]float64
}

// intersect clips every asset feature against every flood feature and
// returns the tagged fragments. Point assets yield zero-area fragments when
// the point falls inside a flooded cell.
func intersect(flood *vector.Layer, zoneIDField string, assets *vector.Layer, assetIDField string, cellSize float64) ([]fragment, error) {
	if err := flood.RequireField(zoneIDField); err != nil {
		return nil, err
	}
	if assetIDField != "" {
		if err := assets.RequireField(assetIDField); err != nil {
			return nil, err
		}
	}
	if flood.CRS != assets.CRS {
		return nil, errs.Configurationf(
			"flood spatial reference %q does not match assets %q",
			flood.CRS, assets.CRS,
		)
	}
	if cellSize <= 0 {
		return nil, errs.Configurationf("impact: cell size must be positive, got %v", cellSize)
	}

	var frags []fragment
	for _, fz := range flood.Features {
		zoneID := fz.StringAttr(zoneIDField)
		zb := fz.Geom.Bounds()
		rects := cellRects(fz.Geom, cellSize)
		for ai, asset := range assets.Features {
			if asset.Geom == nil {
				continue
			}
			ab := asset.Geom.Bounds()
			if ab.Min(0) > zb.Max(0) || ab.Max(0) < zb.Min(0) ||
				ab.Min(1) > zb.Max(1) || ab.Max(1) < zb.Min(1) {
				continue
			}
			assetID := asset.StringAttr(assetIDField)
			if assetIDField == "" {
				assetID = featureKey(ai)
			}
			frag, ok := clipAsset(rects, asset.Geom)
			if !ok {
				continue
			}
			frag.zoneID = zoneID
			frag.assetID = assetID
			frags = append(frags, frag)
		}
	}
	return frags, nil
}

func featureKey(i int) string {
	// Stable synthetic identity for layers without an ID field.
	return "#" + sortableIndex(i)
}

func sortableIndex(i int) string {
	const digits = "0123456789"
	buf := [12]byte{}
	pos := len(buf)
	if i == 0 {
		return "0"
	}
	for i > 0 {
		pos--
		buf[pos] = digits[i%10]
		i /= 10
	}
	return string(buf[pos:])
}

// clipAsset intersects one asset geometry with one flood extent given as the
// extent's flooded-cell rectangles. Point assets intersect when they lie in a
// flooded cell; polygon assets when their clipped area is positive.
func clipAsset(rects []overlay.Rect, assetGeom geom.T) (fragment, bool) {
	switch a := assetGeom.(type) {
	case *geom.Point:
		for _, r := range rects {
			if overlay.Intersects(a, r) {
				return fragment{}, true
			}
		}
		return fragment{}, false
	case *geom.Polygon, *geom.MultiPolygon:
		var total float64
		var rings [][]float64
		for _, r := range rects {
			if !r.Overlaps(assetGeom.Bounds()) {
				continue
			}
			area, rs := clipToRect(a, r)
			total += area
			rings = append(rings, rs...)
		}
		if total <= 0 {
			return fragment{}, false
		}
		return fragment{area: total, rings: rings}, true
	default:
		return fragment{}, false
	}
}

func clipToRect(g geom.T, r overlay.Rect) (float64, [][]float64) {
	var area float64
	var rings [][]float64
	polys := asPolygons(g)
	for _, p := range polys {
		rs, a := overlay.ClipPolygonToRect(p, r)
		if a > 0 {
			area += a
			rings = append(rings, rs...)
		}
	}
	return area, rings
}

func asPolygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		out := make([]*geom.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	default:
		return nil
	}
}

// cellRects decomposes a cell-aligned flood geometry into the rectangles of
// its constituent cells by scanning the geometry's bounds on the given cell
// size and keeping cells whose center the geometry contains. The cell size
// must be the DEM's; inferring it from the outline is ambiguous whenever a
// flooded block spans multiple cells on its shortest side.
func cellRects(g geom.T, cs float64) []overlay.Rect {
	polys := asPolygons(g)
	var rects []overlay.Rect
	for _, p := range polys {
		b := p.Bounds()
		cols := int((b.Max(0)-b.Min(0))/cs + 0.5)
		rows := int((b.Max(1)-b.Min(1))/cs + 0.5)
		for ri := 0; ri < rows; ri++ {
			for ci := 0; ci < cols; ci++ {
				minX := b.Min(0) + float64(ci)*cs
				minY := b.Min(1) + float64(ri)*cs
				cx, cy := minX+cs/2, minY+cs/2
				if overlay.PolygonContains(p, cx, cy) {
					rects = append(rects, overlay.Rect{
						MinX: minX, MinY: minY, MaxX: minX + cs, MaxY: minY + cs,
					})
				}
			}
		}
	}
	return rects
}

// AreaOfImpact sums the asset area intersecting each zone's flood polygon
// and writes the sum into outField on every flood record, 0 where nothing
// intersects. Re-running with the same field name overwrites in place.
// When fragmentsOut is non-nil, the intersection pieces are appended to it
// as a persistable layer. cellSize is the side length of the grid cells the
// flood geometries are built from.
func AreaOfImpact(flood *vector.Layer, zoneIDField string, assets *vector.Layer, outField string, cellSize float64, fragmentsOut *vector.Layer) error {
	frags, err := intersect(flood, zoneIDField, assets, "", cellSize)
	if err != nil {
		return eris.Wrap(err, "impact: area of impact")
	}

	sums := make(map[string]float64)
	for _, f := range frags {
		sums[f.zoneID] += f.area
	}

	flood.EnsureField(vector.Field{Name: outField, Type: vector.FieldFloat})
	for _, feat := range flood.Features {
		feat.Attrs[outField] = sums[feat.StringAttr(zoneIDField)]
	}

	if fragmentsOut != nil {
		appendFragments(fragmentsOut, zoneIDField, frags)
	}

	zap.L().Info("impact: area aggregated",
		zap.String("field", outField),
		zap.Int("fragments", len(frags)),
		zap.Int("zones", len(sums)),
	)
	return nil
}

// CountOfImpact counts the distinct asset identifiers whose geometry
// intersects each zone's flood polygon and writes the count into outField on
// every flood record, 0 where nothing intersects. An asset split into
// multiple fragments within one zone is counted once for that zone; an asset
// straddling two zones counts once in each.
func CountOfImpact(flood *vector.Layer, zoneIDField string, assets *vector.Layer, assetIDField, outField string, cellSize float64, fragmentsOut *vector.Layer) error {
	if assetIDField == "" {
		return errs.Configurationf("impact: count of impact requires an asset identifier field")
	}
	frags, err := intersect(flood, zoneIDField, assets, assetIDField, cellSize)
	if err != nil {
		return eris.Wrap(err, "impact: count of impact")
	}

	// Group fragments by (zone, asset id), then count groups per zone.
	groups := make(map[string]map[string]bool)
	for _, f := range frags {
		if groups[f.zoneID] == nil {
			groups[f.zoneID] = make(map[string]bool)
		}
		groups[f.zoneID][f.assetID] = true
	}

	flood.EnsureField(vector.Field{Name: outField, Type: vector.FieldInt})
	for _, feat := range flood.Features {
		feat.Attrs[outField] = int64(len(groups[feat.StringAttr(zoneIDField)]))
	}

	if fragmentsOut != nil {
		appendFragments(fragmentsOut, zoneIDField, frags)
	}

	zap.L().Info("impact: distinct assets counted",
		zap.String("field", outField),
		zap.Int("fragments", len(frags)),
		zap.Int("zones", len(groups)),
	)
	return nil
}

// appendFragments materializes intersection pieces as polygon features so
// callers can persist the flooded-asset layer alongside the summary fields.
func appendFragments(out *vector.Layer, zoneIDField string, frags []fragment) {
	out.EnsureField(vector.Field{Name: zoneIDField, Type: vector.FieldString})
	out.EnsureField(vector.Field{Name: "asset_id", Type: vector.FieldString})
	out.EnsureField(vector.Field{Name: "area", Type: vector.FieldFloat})

	sorted := make([]fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].zoneID != sorted[j].zoneID {
			return sorted[i].zoneID < sorted[j].zoneID
		}
		return sorted[i].assetID < sorted[j].assetID
	})

	for _, f := range sorted {
		if len(f.rings) == 0 {
			continue
		}
		mp := geom.NewMultiPolygon(geom.XY)
		ok := true
		for _, ring := range f.rings {
			closed := closeRing(ring)
			p := geom.NewPolygon(geom.XY)
			if err := p.Push(geom.NewLinearRingFlat(geom.XY, closed)); err != nil {
				ok = false
				break
			}
			if err := mp.Push(p); err != nil {
				ok = false
				break
			}
		}
		if !ok || mp.NumPolygons() == 0 {
			continue
		}
		out.Append(&vector.Feature{
			Geom: mp,
			Attrs: map[string]any{
				zoneIDField: f.zoneID,
				"asset_id":  f.assetID,
				"area":      f.area,
			},
		})
	}
}

func closeRing(flat []float64) []float64 {
	n := len(flat)
	if n >= 2 && (flat[0] != flat[n-2] || flat[1] != flat[n-1]) {
		out := make([]float64, n+2)
		copy(out, flat)
		out[n], out[n+1] = flat[0], flat[1]
		return out
	}
	return flat
}
