package polytope

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

// Removes exact duplicate points. The order of the remaining points is unspecified.
func uniquePoints(points [][]float64) [][]float64 {
	points = slices.Clone(points)
	slices.SortFunc(points, func(a, b []float64) int {
		return slices.Compare(a, b)
	})
	return slices.CompactFunc(points, func(a, b []float64) bool {
		return slices.Equal(a, b)
	})
}

func column(points [][]float64, i int) []float64 {
	col := make([]float64, len(points))
	for j, p := range points {
		col[j] = p[i]
	}
	return col
}

// The extent of a set of points along one coordinate.
func columnRange(points [][]float64, i int) (float64, float64) {
	col := column(points, i)
	return floats.Min(col), floats.Max(col)
}

func dropCoordinate(p []float64, i int) []float64 {
	out := make([]float64, 0, len(p)-1)
	out = append(out, p[:i]...)
	return append(out, p[i+1:]...)
}

// Intersects the convex hull of points with the hyperplane where coordinate i equals v, returning
// points on the remaining coordinates whose convex hull is the intersection. Vertices within tol of
// the hyperplane lie on it.
func slicePoints(points [][]float64, i int, v, tol float64) [][]float64 {
	var out [][]float64
	for _, p := range points {
		if math.Abs(p[i]-v) <= tol {
			out = append(out, dropCoordinate(p, i))
		}
	}
	for a := range points {
		da := points[a][i] - v
		if math.Abs(da) <= tol {
			continue
		}
		for b := a + 1; b < len(points); b++ {
			db := points[b][i] - v
			if math.Abs(db) <= tol || (da < 0) == (db < 0) {
				continue
			}
			t := da / (da - db)
			mid := make([]float64, len(points[a]))
			for k := range mid {
				mid[k] = points[a][k] + t*(points[b][k]-points[a][k])
			}
			out = append(out, dropCoordinate(mid, i))
		}
	}
	return reduceHull(out)
}

// Drops points that cannot be vertices of the convex hull where that is cheap to decide.
func reduceHull(points [][]float64) [][]float64 {
	points = uniquePoints(points)
	if len(points) <= 1 {
		return points
	}
	switch len(points[0]) {
	case 1:
		lo, hi := columnRange(points, 0)
		if lo == hi {
			return [][]float64{{lo}}
		}
		return [][]float64{{lo}, {hi}}
	case 2:
		return hull2D(points)
	default:
		return points
	}
}

func toR2(points [][]float64) []r2.Point {
	pts := make([]r2.Point, len(points))
	for i, p := range points {
		pts[i] = r2.Point{X: p[0], Y: p[1]}
	}
	return pts
}

// The vertices of the convex hull of 2-D points in counter-clockwise order, by the monotone chain
// method. Collinear points on the hull boundary are dropped.
func hull2D(points [][]float64) [][]float64 {
	pts := toR2(points)
	slices.SortFunc(pts, func(a, b r2.Point) int {
		if c := cmp.Compare(a.X, b.X); c != 0 {
			return c
		}
		return cmp.Compare(a.Y, b.Y)
	})
	if len(pts) <= 2 {
		return fromR2(pts)
	}

	turn := func(o, a, b r2.Point) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}
	lower := make([]r2.Point, 0, len(pts))
	for _, p := range pts {
		for len(lower) >= 2 && turn(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]r2.Point, 0, len(pts))
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && turn(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	chain := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return fromR2(chain)
}

func fromR2(pts []r2.Point) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = []float64{p.X, p.Y}
	}
	return out
}

// Reports whether x lies in the convex hull of points, within tol on every coordinate. Higher
// dimensions are decided by slicing the hull one coordinate at a time.
func containsPoint(points [][]float64, x []float64, tol float64) bool {
	if len(points) == 0 {
		return false
	}
	if len(x) == 0 {
		return true
	}
	if len(x) == 2 {
		rect := r2.RectFromPoints(toR2(points)...).ExpandedByMargin(tol)
		if !rect.ContainsPoint(r2.Point{X: x[0], Y: x[1]}) {
			return false
		}
	}
	lo, hi := columnRange(points, 0)
	if x[0] < lo-tol || x[0] > hi+tol {
		return false
	}
	if len(x) == 1 {
		return true
	}
	return containsPoint(slicePoints(points, 0, clamp(x[0], lo, hi), tol), x[1:], tol)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// The area enclosed by a simple polygon, by the shoelace formula.
func polygonArea(xs, ys []float64) float64 {
	n := len(xs)
	if n < 3 {
		return 0
	}
	next := func(s []float64) []float64 {
		return append(slices.Clone(s[1:]), s[0])
	}
	return math.Abs(floats.Dot(xs, next(ys))-floats.Dot(next(xs), ys)) / 2
}

// Splits a simple polygon into triangles by ear clipping. Returns nil when the polygon is degenerate
// or self-intersecting so that no complete triangulation exists.
func earClip(points [][]float64) [][3]int {
	pts := toR2(points)
	idx := make([]int, 0, len(pts))
	for i := range pts {
		idx = append(idx, i)
	}
	if signedArea(pts) < 0 {
		slices.Reverse(idx)
	}
	idx = dropCollinear(pts, idx)

	var triangles [][3]int
	for len(idx) > 3 {
		m := len(idx)
		clipped := false
		for i := range idx {
			prev, cur, next := idx[(i-1+m)%m], idx[i], idx[(i+1)%m]
			a, b, c := pts[prev], pts[cur], pts[next]
			if b.Sub(a).Cross(c.Sub(b)) <= 0 {
				continue
			}
			ear := true
			for _, j := range idx {
				if j != prev && j != cur && j != next && inTriangle(pts[j], a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			triangles = append(triangles, [3]int{prev, cur, next})
			idx = slices.Delete(idx, i, i+1)
			idx = dropCollinear(pts, idx)
			clipped = true
			break
		}
		if !clipped {
			return nil
		}
	}
	if len(idx) == 3 {
		a, b, c := pts[idx[0]], pts[idx[1]], pts[idx[2]]
		if b.Sub(a).Cross(c.Sub(b)) > 0 {
			triangles = append(triangles, [3]int{idx[0], idx[1], idx[2]})
		}
	}
	return triangles
}

func signedArea(pts []r2.Point) float64 {
	area := 0.0
	for i := range pts {
		area += pts[i].Cross(pts[(i+1)%len(pts)])
	}
	return area / 2
}

// Removes vertices that lie on the line through their neighbours.
func dropCollinear(pts []r2.Point, idx []int) []int {
	for changed := true; changed && len(idx) > 3; {
		changed = false
		for i := range idx {
			m := len(idx)
			a, b, c := pts[idx[(i-1+m)%m]], pts[idx[i]], pts[idx[(i+1)%m]]
			if b.Sub(a).Cross(c.Sub(b)) == 0 {
				idx = slices.Delete(idx, i, i+1)
				changed = true
				break
			}
		}
	}
	return idx
}

func inTriangle(p, a, b, c r2.Point) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return d1 >= 0 && d2 >= 0 && d3 >= 0
}
