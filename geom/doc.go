// Package geom provides the pure geometry kernel for the sketch engine:
// points, axis-aligned rectangles, 2x3 affine matrices, convex hulls,
// segment and polygon intersection tests, and polyline simplification.
//
// All functions are stateless and total over well-formed input.
// Malformed input (empty point sets, NaN or infinite coordinates) is
// rejected with ErrInvalidGeometry rather than propagated silently.
package geom
