package geom

import "math"

// ClosestOnSegment returns the point on the closed segment ab nearest
// to p. Degenerate segments (a == b) reduce to a.
func ClosestOnSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	l2 := ab.LengthSquared()
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Lerp(b, t)
}

// PointSegmentDistance returns the distance from p to the closed
// segment ab.
func PointSegmentDistance(p, a, b Point) float64 {
	return p.Distance(ClosestOnSegment(p, a, b))
}

// SegmentsIntersect reports whether the closed segments ab and cd
// intersect, including collinear overlap and shared endpoints.
func SegmentsIntersect(a, b, c, d Point) bool {
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(c, d, a) {
		return true
	}
	if d2 == 0 && onSegment(c, d, b) {
		return true
	}
	if d3 == 0 && onSegment(a, b, c) {
		return true
	}
	if d4 == 0 && onSegment(a, b, d) {
		return true
	}
	return false
}

// orient returns the signed area of the triangle abc: positive when c
// is left of ab, negative when right, zero when collinear.
func orient(a, b, c Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// onSegment reports whether collinear point p lies within the bounding
// box of segment ab.
func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentIntersectsRect reports whether segment ab touches rectangle r,
// where touching the boundary counts.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.Contains(a) || r.Contains(b) {
		return true
	}
	c := r.Corners()
	for i := 0; i < 4; i++ {
		if SegmentsIntersect(a, b, c[i], c[(i+1)%4]) {
			return true
		}
	}
	return false
}

// SegmentRectDistance returns the distance between segment ab and
// rectangle r; zero when they touch or overlap.
func SegmentRectDistance(a, b Point, r Rect) float64 {
	if SegmentIntersectsRect(a, b, r) {
		return 0
	}
	c := r.Corners()
	min := math.Inf(1)
	for i := 0; i < 4; i++ {
		min = math.Min(min, segmentSegmentDistance(a, b, c[i], c[(i+1)%4]))
	}
	return min
}

// segmentSegmentDistance returns the distance between two
// non-intersecting segments: the minimum endpoint-to-segment distance.
func segmentSegmentDistance(a, b, c, d Point) float64 {
	if SegmentsIntersect(a, b, c, d) {
		return 0
	}
	min := PointSegmentDistance(a, c, d)
	min = math.Min(min, PointSegmentDistance(b, c, d))
	min = math.Min(min, PointSegmentDistance(c, a, b))
	min = math.Min(min, PointSegmentDistance(d, a, b))
	return min
}
