package geom

import (
	"errors"
	"math"
)

// ErrInvalidGeometry is returned when an operation receives malformed
// geometry: an empty point set, or coordinates that are NaN or infinite.
var ErrInvalidGeometry = errors.New("geom: invalid geometry")

// Rect is an axis-aligned rectangle defined by its minimum and maximum
// corners. A Rect with MinX == MaxX or MinY == MaxY is degenerate but
// valid: a single point is a zero-area rectangle, not an error.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewRect creates a Rect from two corner coordinates, normalizing the
// order so that Min <= Max on both axes.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}
}

// RectFromPoints creates the smallest Rect containing both points.
func RectFromPoints(a, b Point) Rect {
	return NewRect(a.X, a.Y, b.X, b.Y)
}

// RectAround creates a square Rect centered on p with half-extent r.
func RectAround(p Point, r float64) Rect {
	return Rect{MinX: p.X - r, MinY: p.Y - r, MaxX: p.X + r, MaxY: p.Y + r}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Contains reports whether p lies inside the rectangle (inclusive of
// the boundary).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX &&
		p.Y >= r.MinY && p.Y <= r.MaxY
}

// ContainsRect reports whether other lies entirely inside r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.MinX >= r.MinX && other.MaxX <= r.MaxX &&
		other.MinY >= r.MinY && other.MaxY <= r.MaxY
}

// Intersects reports whether the two rectangles overlap. Touching
// edges count as an intersection.
func (r Rect) Intersects(other Rect) bool {
	return r.MinX <= other.MaxX && r.MaxX >= other.MinX &&
		r.MinY <= other.MaxY && r.MaxY >= other.MinY
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, other.MinX),
		MinY: math.Min(r.MinY, other.MinY),
		MaxX: math.Max(r.MaxX, other.MaxX),
		MaxY: math.Max(r.MaxY, other.MaxY),
	}
}

// Inflate returns the rectangle grown by d on every side. Negative d
// shrinks it; the result is normalized if the shrink crosses over.
func (r Rect) Inflate(d float64) Rect {
	return NewRect(r.MinX-d, r.MinY-d, r.MaxX+d, r.MaxY+d)
}

// Corners returns the four corners in counter-clockwise order starting
// at (MinX, MinY).
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.MinX, Y: r.MinY},
		{X: r.MaxX, Y: r.MinY},
		{X: r.MaxX, Y: r.MaxY},
		{X: r.MinX, Y: r.MaxY},
	}
}

// Area returns the area of the rectangle.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// IsFinite reports whether all four coordinates are finite.
func (r Rect) IsFinite() bool {
	return Point{X: r.MinX, Y: r.MinY}.IsFinite() &&
		Point{X: r.MaxX, Y: r.MaxY}.IsFinite()
}

// Valid checks a point sequence for use as geometry input: it must be
// non-empty and every coordinate finite. Returns ErrInvalidGeometry
// otherwise.
func Valid(points []Point) error {
	if len(points) == 0 {
		return ErrInvalidGeometry
	}
	for _, p := range points {
		if !p.IsFinite() {
			return ErrInvalidGeometry
		}
	}
	return nil
}

// BoundsOf returns the tight axis-aligned bounding box of a point set.
// A single point yields a zero-area rectangle. Returns
// ErrInvalidGeometry for an empty set or non-finite coordinates.
func BoundsOf(points []Point) (Rect, error) {
	if err := Valid(points); err != nil {
		return Rect{}, err
	}
	r := Rect{
		MinX: points[0].X, MinY: points[0].Y,
		MaxX: points[0].X, MaxY: points[0].Y,
	}
	for _, p := range points[1:] {
		if p.X < r.MinX {
			r.MinX = p.X
		}
		if p.X > r.MaxX {
			r.MaxX = p.X
		}
		if p.Y < r.MinY {
			r.MinY = p.Y
		}
		if p.Y > r.MaxY {
			r.MaxY = p.Y
		}
	}
	return r, nil
}
