package flood

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/coastal-group/tidegate-cli/internal/overlay"
	"github.com/coastal-group/tidegate-cli/internal/raster"
)

// cell addresses one grid cell, row 0 at the top.
type cell struct{ r, c int }

// vertex addresses one grid lattice corner. Row vr runs 0..Rows top to
// bottom, column vc runs 0..Cols left to right.
type vertex struct{ vr, vc int }

// direction of a unit boundary edge in lattice space.
type direction int

const (
	dirRight direction = iota // +vc
	dirUp                     // -vr (increasing world y)
	dirLeft                   // -vc
	dirDown                   // +vr
)

// leftOf rotates a direction 90 degrees counterclockwise in world space.
func leftOf(d direction) direction { return (d + 1) % 4 }

// rightOf rotates a direction 90 degrees clockwise in world space.
func rightOf(d direction) direction { return (d + 3) % 4 }

func step(v vertex, d direction) vertex {
	switch d {
	case dirRight:
		return vertex{v.vr, v.vc + 1}
	case dirUp:
		return vertex{v.vr - 1, v.vc}
	case dirLeft:
		return vertex{v.vr, v.vc - 1}
	default:
		return vertex{v.vr + 1, v.vc}
	}
}

// edge is a directed unit boundary segment keyed by its start vertex.
type edge struct {
	from vertex
	dir  direction
}

// components splits a cell set into 4-connected components.
func components(cells map[cell]bool) [][]cell {
	seen := make(map[cell]bool, len(cells))
	var comps [][]cell
	// Deterministic order: scan cells sorted by row then column.
	ordered := make([]cell, 0, len(cells))
	for c := range cells {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].r != ordered[j].r {
			return ordered[i].r < ordered[j].r
		}
		return ordered[i].c < ordered[j].c
	})

	for _, start := range ordered {
		if seen[start] {
			continue
		}
		var comp []cell
		queue := []cell{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			comp = append(comp, cur)
			for _, nb := range []cell{
				{cur.r - 1, cur.c}, {cur.r + 1, cur.c},
				{cur.r, cur.c - 1}, {cur.r, cur.c + 1},
			} {
				if cells[nb] && !seen[nb] {
					seen[nb] = true
					queue = append(queue, nb)
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// boundaryEdges emits the directed boundary of a cell set with the interior
// on the left, so exterior rings come out counterclockwise in world space
// and holes clockwise.
func boundaryEdges(cells map[cell]bool, comp []cell) map[vertex][]edge {
	edges := make(map[vertex][]edge)
	add := func(e edge) { edges[e.from] = append(edges[e.from], e) }
	for _, cl := range comp {
		// Corners in lattice space: top-left is (r, c).
		tl := vertex{cl.r, cl.c}
		tr := vertex{cl.r, cl.c + 1}
		bl := vertex{cl.r + 1, cl.c}
		br := vertex{cl.r + 1, cl.c + 1}

		if !cells[cell{cl.r + 1, cl.c}] { // below
			add(edge{from: bl, dir: dirRight})
		}
		if !cells[cell{cl.r, cl.c + 1}] { // right
			add(edge{from: br, dir: dirUp})
		}
		if !cells[cell{cl.r - 1, cl.c}] { // above
			add(edge{from: tr, dir: dirLeft})
		}
		if !cells[cell{cl.r, cl.c - 1}] { // left
			add(edge{from: tl, dir: dirDown})
		}
	}
	return edges
}

// traceRings links boundary edges into closed rings. At pinch vertices where
// two cells of one component touch diagonally, the leftmost available turn
// is taken so rings never self-intersect.
func traceRings(edges map[vertex][]edge) [][]vertex {
	used := make(map[edge]bool)
	var rings [][]vertex

	starts := make([]vertex, 0, len(edges))
	for v := range edges {
		starts = append(starts, v)
	}
	sort.Slice(starts, func(i, j int) bool {
		if starts[i].vr != starts[j].vr {
			return starts[i].vr < starts[j].vr
		}
		return starts[i].vc < starts[j].vc
	})

	takeFrom := func(v vertex, incoming direction, first bool) (edge, bool) {
		candidates := edges[v]
		if len(candidates) == 0 {
			return edge{}, false
		}
		if first {
			for _, e := range candidates {
				if !used[e] {
					return e, true
				}
			}
			return edge{}, false
		}
		// Preference: sharpest left turn first, reverse never.
		for _, d := range []direction{leftOf(incoming), incoming, rightOf(incoming)} {
			for _, e := range candidates {
				if e.dir == d && !used[e] {
					return e, true
				}
			}
		}
		return edge{}, false
	}

	for _, sv := range starts {
		for {
			e, ok := takeFrom(sv, 0, true)
			if !ok {
				break
			}
			ring := []vertex{e.from}
			cur := e
			for {
				used[cur] = true
				next := step(cur.from, cur.dir)
				if next == ring[0] {
					break
				}
				ring = append(ring, next)
				nxt, ok := takeFrom(next, cur.dir, false)
				if !ok {
					// Boundary edge sets always close; bail defensively.
					break
				}
				cur = nxt
			}
			rings = append(rings, ring)
		}
	}
	return rings
}

// simplifyRing drops collinear lattice vertices, keeping ring corners only.
func simplifyRing(ring []vertex) []vertex {
	n := len(ring)
	if n < 3 {
		return ring
	}
	out := make([]vertex, 0, n)
	for i := 0; i < n; i++ {
		prev := ring[(i-1+n)%n]
		next := ring[(i+1)%n]
		cur := ring[i]
		collinear := (prev.vr == cur.vr && cur.vr == next.vr) ||
			(prev.vc == cur.vc && cur.vc == next.vc)
		if !collinear {
			out = append(out, cur)
		}
	}
	return out
}

// ringToFlat converts lattice vertices to closed world-coordinate rings.
func ringToFlat(g *raster.Grid, ring []vertex) []float64 {
	flat := make([]float64, 0, (len(ring)+1)*2)
	for _, v := range ring {
		x := g.XLL + float64(v.vc)*g.CellSize
		y := g.YLL + float64(g.Rows-v.vr)*g.CellSize
		flat = append(flat, x, y)
	}
	// Close explicitly.
	flat = append(flat, flat[0], flat[1])
	return flat
}

// tracePolygons converts a cell set into a MultiPolygon whose boundaries
// follow cell edges: one polygon per 4-connected component, holes included.
func tracePolygons(g *raster.Grid, cells map[cell]bool) (*geom.MultiPolygon, error) {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, comp := range components(cells) {
		compSet := make(map[cell]bool, len(comp))
		for _, c := range comp {
			compSet[c] = true
		}
		rings := traceRings(boundaryEdges(compSet, comp))

		var outer []float64
		var holes [][]float64
		for _, ring := range rings {
			flat := ringToFlat(g, simplifyRing(ring))
			if overlay.RingSignedArea(flat) > 0 {
				outer = flat
			} else {
				holes = append(holes, flat)
			}
		}
		if outer == nil {
			continue
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, outer)); err != nil {
			return nil, err
		}
		for _, hole := range holes {
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, hole)); err != nil {
				return nil, err
			}
		}
		if err := mp.Push(poly); err != nil {
			return nil, err
		}
	}
	return mp, nil
}
