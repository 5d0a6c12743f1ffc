package sketch

import (
	"math"

	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
)

// PressurePoint is one sample of a freehand path: a position and the
// pen pressure at that position, normalized to [0, 1].
type PressurePoint struct {
	Pos      geom.Point
	Pressure float64
}

// FreehandStroke is an ordered sequence of pressure-tagged points
// rendered as a variable-width ribbon. The local ribbon radius at a
// point is Style.Width/2 scaled by that point's pressure.
type FreehandStroke struct {
	id     uuid.UUID
	points []PressurePoint
	style  Style
	bounds geom.Rect
}

// NewFreehand creates a freehand stroke from finalized input samples.
// The input capture collaborator supplies points already smoothed and
// pressure-mapped. At least one sample is required and all coordinates
// must be finite; pressures are clamped to [0, 1].
func NewFreehand(points []PressurePoint, style Style) (*FreehandStroke, error) {
	if err := validPressurePoints(points); err != nil {
		return nil, err
	}
	pts := make([]PressurePoint, len(points))
	copy(pts, points)
	for i := range pts {
		pts[i].Pressure = clamp01(pts[i].Pressure)
	}
	s := &FreehandStroke{
		id:     uuid.New(),
		points: pts,
		style:  style,
	}
	s.recomputeBounds()
	return s, nil
}

func validPressurePoints(points []PressurePoint) error {
	if len(points) == 0 {
		return ErrInvalidGeometry
	}
	for _, p := range points {
		if !p.Pos.IsFinite() || math.IsNaN(p.Pressure) || math.IsInf(p.Pressure, 0) {
			return ErrInvalidGeometry
		}
	}
	return nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Kind implements Stroke.
func (s *FreehandStroke) Kind() Kind { return KindFreehand }

// UUID implements Stroke.
func (s *FreehandStroke) UUID() uuid.UUID { return s.id }

// Bounds implements Stroke.
func (s *FreehandStroke) Bounds() geom.Rect { return s.bounds }

// Style implements Stroke.
func (s *FreehandStroke) Style() Style { return s.style }

// SetStyle implements Stroke.
func (s *FreehandStroke) SetStyle(st Style) {
	s.style = st
	s.recomputeBounds()
}

// Points returns a copy of the pressure-tagged samples.
func (s *FreehandStroke) Points() []PressurePoint {
	out := make([]PressurePoint, len(s.points))
	copy(out, s.points)
	return out
}

// radiusAt returns the ribbon half-width at sample i.
func (s *FreehandStroke) radiusAt(i int) float64 {
	return s.style.Width / 2 * s.points[i].Pressure
}

// maxRadius returns the largest ribbon half-width along the path.
func (s *FreehandStroke) maxRadius() float64 {
	max := 0.0
	for i := range s.points {
		if r := s.radiusAt(i); r > max {
			max = r
		}
	}
	return max
}

func (s *FreehandStroke) recomputeBounds() {
	positions := s.positions()
	b, err := geom.BoundsOf(positions)
	if err != nil {
		// Points are validated at construction; an empty path cannot
		// occur here.
		panic("sketch: freehand stroke with invalid points")
	}
	s.bounds = b.Inflate(s.maxRadius())
}

func (s *FreehandStroke) positions() []geom.Point {
	out := make([]geom.Point, len(s.points))
	for i, p := range s.points {
		out[i] = p.Pos
	}
	return out
}

// HitTest implements Stroke. A point hits the path when it is within
// tol of the ribbon surface: distance to a segment minus the local
// radius at that segment.
func (s *FreehandStroke) HitTest(p geom.Point, tol float64) bool {
	if len(s.points) == 1 {
		return p.Distance(s.points[0].Pos) <= tol+s.radiusAt(0)
	}
	for i := 0; i+1 < len(s.points); i++ {
		rad := math.Max(s.radiusAt(i), s.radiusAt(i+1))
		if geom.PointSegmentDistance(p, s.points[i].Pos, s.points[i+1].Pos) <= tol+rad {
			return true
		}
	}
	return false
}

// IntersectsRect implements Stroke.
func (s *FreehandStroke) IntersectsRect(r geom.Rect) bool {
	if len(s.points) == 1 {
		return r.Inflate(s.radiusAt(0)).Contains(s.points[0].Pos)
	}
	for i := 0; i+1 < len(s.points); i++ {
		rad := math.Max(s.radiusAt(i), s.radiusAt(i+1))
		if geom.SegmentRectDistance(s.points[i].Pos, s.points[i+1].Pos, r) <= rad {
			return true
		}
	}
	return false
}

// Transform implements Stroke. The ribbon width scales with the
// average scale factor so the rendered extent follows the geometry.
func (s *FreehandStroke) Transform(m geom.Matrix) {
	for i := range s.points {
		s.points[i].Pos = m.TransformPoint(s.points[i].Pos)
	}
	s.style.Width *= m.ScaleFactor()
	s.recomputeBounds()
}

// Simplify removes samples whose perpendicular deviation from the
// reduced path is below tolerance, keeping endpoints and pressure tags
// of surviving samples. Paths with fewer than three samples are left
// unchanged.
func (s *FreehandStroke) Simplify(tolerance float64) error {
	if len(s.points) < 3 {
		return nil
	}
	kept, err := geom.SimplifyIndices(s.positions(), tolerance)
	if err != nil {
		return err
	}
	out := make([]PressurePoint, 0, len(kept))
	for _, i := range kept {
		out = append(out, s.points[i])
	}
	s.points = out
	s.recomputeBounds()
	return nil
}

// ToPath implements Stroke.
func (s *FreehandStroke) ToPath() string {
	return polylinePath(s.positions())
}

// Clone implements Stroke.
func (s *FreehandStroke) Clone() Stroke {
	pts := make([]PressurePoint, len(s.points))
	copy(pts, s.points)
	return &FreehandStroke{
		id:     s.id,
		points: pts,
		style:  s.style,
		bounds: s.bounds,
	}
}

func (*FreehandStroke) isStroke() {}
