package geom

// Simplify reduces a polyline with the Douglas-Peucker algorithm,
// removing interior points whose perpendicular deviation from the
// simplified line is below tolerance. The endpoints are always
// preserved exactly and the result never has fewer than two points.
// Returns ErrInvalidGeometry for an empty or single-point input, or
// for non-finite coordinates. A negative tolerance is treated as zero.
func Simplify(points []Point, tolerance float64) ([]Point, error) {
	kept, err := SimplifyIndices(points, tolerance)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(kept))
	for _, i := range kept {
		out = append(out, points[i])
	}
	return out, nil
}

// SimplifyIndices is Simplify returning the indices of the kept points
// in ascending order instead of the points themselves. Callers with
// per-point attributes (pressure tags) use it to drop attributes in
// lockstep with the dropped points.
func SimplifyIndices(points []Point, tolerance float64) ([]int, error) {
	if err := Valid(points); err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, ErrInvalidGeometry
	}
	if tolerance < 0 {
		tolerance = 0
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	simplifyRange(points, 0, len(points)-1, tolerance, keep)

	out := make([]int, 0, len(points))
	for i, k := range keep {
		if k {
			out = append(out, i)
		}
	}
	return out, nil
}

// simplifyRange marks points to keep between the fixed endpoints first
// and last (exclusive), recursing on the farthest outlier.
func simplifyRange(points []Point, first, last int, tolerance float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxDist := 0.0
	maxIdx := first
	for i := first + 1; i < last; i++ {
		d := PointSegmentDistance(points[i], points[first], points[last])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist > tolerance {
		keep[maxIdx] = true
		simplifyRange(points, first, maxIdx, tolerance, keep)
		simplifyRange(points, maxIdx, last, tolerance, keep)
	}
}
