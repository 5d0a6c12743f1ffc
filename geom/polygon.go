package geom

import (
	"math"
	"sort"
)

// ConvexHull computes the convex hull of a point set using the Andrew
// monotone chain algorithm. The hull is returned in counter-clockwise
// order without a repeated closing vertex. Inputs with fewer than three
// points are returned as-is (a copy).
func ConvexHull(points []Point) []Point {
	pts := make([]Point, len(points))
	copy(pts, points)
	if len(pts) < 3 {
		return pts
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Lower then upper hull; the last point of each chain is the first
	// of the other, so both are dropped before concatenation.
	var lower, upper []Point
	for _, p := range pts {
		for len(lower) > 1 && orient(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) > 1 && orient(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// PointInPolygon reports whether p lies inside the polygon (boundary
// inclusive) using the even-odd crossing rule. The polygon does not
// need to be convex.
func PointInPolygon(p Point, polygon []Point) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b := polygon[i], polygon[(i+1)%n]
		if orient(a, b, p) == 0 && onSegment(a, b, p) {
			return true
		}
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := polygon[i], polygon[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// PolygonsIntersect reports whether two simple polygons overlap or
// touch: any pair of edges intersects, or one polygon contains the
// other.
func PolygonsIntersect(a, b []Point) bool {
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	for i := range a {
		for j := range b {
			if SegmentsIntersect(a[i], a[(i+1)%len(a)], b[j], b[(j+1)%len(b)]) {
				return true
			}
		}
	}
	return PointInPolygon(a[0], b) || PointInPolygon(b[0], a)
}

// PolygonIntersectsRect reports whether a simple polygon overlaps or
// touches an axis-aligned rectangle.
func PolygonIntersectsRect(polygon []Point, r Rect) bool {
	c := r.Corners()
	return PolygonsIntersect(polygon, c[:])
}

// PolygonIntersectsCircle reports whether a simple polygon overlaps or
// touches the circle centered at c with radius radius.
func PolygonIntersectsCircle(polygon []Point, c Point, radius float64) bool {
	if len(polygon) < 3 {
		return false
	}
	if PointInPolygon(c, polygon) {
		return true
	}
	for i := range polygon {
		d := PointSegmentDistance(c, polygon[i], polygon[(i+1)%len(polygon)])
		if d <= radius {
			return true
		}
	}
	return false
}

// PolygonArea returns the unsigned area of a simple polygon via the
// shoelace formula.
func PolygonArea(polygon []Point) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += polygon[i].Cross(polygon[(i+1)%n])
	}
	return math.Abs(sum) / 2
}
