package sketch

import (
	"math"

	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
)

// ShapeForm selects the parametric form of a ShapeStroke.
type ShapeForm uint8

const (
	// FormLine is a straight segment between the two anchors.
	FormLine ShapeForm = iota + 1

	// FormRectangle is the axis-aligned rectangle spanned by the two
	// anchors in local space.
	FormRectangle

	// FormEllipse is the ellipse inscribed in that rectangle.
	FormEllipse
)

// String returns the form's serialization tag.
func (f ShapeForm) String() string {
	switch f {
	case FormLine:
		return "line"
	case FormRectangle:
		return "rectangle"
	case FormEllipse:
		return "ellipse"
	default:
		return "unknown"
	}
}

// kappa is the control-point factor approximating a quarter circle
// with a cubic Bezier.
const kappa = 0.5522847498307936

// ShapeStroke is a parametric shape: two anchor points in local space
// plus an affine transform into document space. Rotation and shear
// live in the transform, so the local form stays axis-aligned and hit
// tests can run in local coordinates.
type ShapeStroke struct {
	id         uuid.UUID
	form       ShapeForm
	start, end geom.Point
	xform      geom.Matrix
	style      Style
	bounds     geom.Rect
}

// NewShape creates a shape stroke from two anchor points in document
// space. Anchors must be finite.
func NewShape(form ShapeForm, start, end geom.Point, style Style) (*ShapeStroke, error) {
	if form != FormLine && form != FormRectangle && form != FormEllipse {
		return nil, ErrInvalidGeometry
	}
	if err := geom.Valid([]geom.Point{start, end}); err != nil {
		return nil, err
	}
	s := &ShapeStroke{
		id:    uuid.New(),
		form:  form,
		start: start,
		end:   end,
		xform: geom.Identity(),
		style: style,
	}
	s.recomputeBounds()
	return s, nil
}

// Kind implements Stroke.
func (s *ShapeStroke) Kind() Kind { return KindShape }

// UUID implements Stroke.
func (s *ShapeStroke) UUID() uuid.UUID { return s.id }

// Bounds implements Stroke.
func (s *ShapeStroke) Bounds() geom.Rect { return s.bounds }

// Style implements Stroke.
func (s *ShapeStroke) Style() Style { return s.style }

// SetStyle implements Stroke.
func (s *ShapeStroke) SetStyle(st Style) {
	s.style = st
	s.recomputeBounds()
}

// Form returns the parametric form.
func (s *ShapeStroke) Form() ShapeForm { return s.form }

// Anchors returns the two local-space anchor points.
func (s *ShapeStroke) Anchors() (geom.Point, geom.Point) { return s.start, s.end }

// Matrix returns the local-to-document transform.
func (s *ShapeStroke) Matrix() geom.Matrix { return s.xform }

// localRect returns the axis-aligned rectangle spanned by the anchors
// in local space.
func (s *ShapeStroke) localRect() geom.Rect {
	return geom.RectFromPoints(s.start, s.end)
}

// halfWidth returns half the outline width in document space.
func (s *ShapeStroke) halfWidth() float64 {
	return s.style.Width / 2
}

// docPolygon returns the local rectangle's corners in document space.
func (s *ShapeStroke) docPolygon() []geom.Point {
	c := s.localRect().Corners()
	out := make([]geom.Point, 4)
	for i, p := range c {
		out[i] = s.xform.TransformPoint(p)
	}
	return out
}

func (s *ShapeStroke) recomputeBounds() {
	switch s.form {
	case FormLine:
		a := s.xform.TransformPoint(s.start)
		b := s.xform.TransformPoint(s.end)
		s.bounds = geom.RectFromPoints(a, b).Inflate(s.halfWidth())
	case FormRectangle:
		s.bounds = s.xform.TransformRect(s.localRect()).Inflate(s.halfWidth())
	case FormEllipse:
		// Exact AABB of an affinely transformed ellipse: the extents
		// are the row norms of the linear part scaled by the radii.
		lr := s.localRect()
		rx, ry := lr.Width()/2, lr.Height()/2
		c := s.xform.TransformPoint(lr.Center())
		m := s.xform
		ex := math.Sqrt(m.A*m.A*rx*rx + m.B*m.B*ry*ry)
		ey := math.Sqrt(m.D*m.D*rx*rx + m.E*m.E*ry*ry)
		s.bounds = geom.NewRect(c.X-ex, c.Y-ey, c.X+ex, c.Y+ey).Inflate(s.halfWidth())
	}
}

// HitTest implements Stroke. Filled shapes hit anywhere in their
// interior; unfilled shapes hit near their outline only.
func (s *ShapeStroke) HitTest(p geom.Point, tol float64) bool {
	reach := tol + s.halfWidth()
	switch s.form {
	case FormLine:
		a := s.xform.TransformPoint(s.start)
		b := s.xform.TransformPoint(s.end)
		return geom.PointSegmentDistance(p, a, b) <= reach
	case FormRectangle:
		poly := s.docPolygon()
		if s.style.Filled && geom.PointInPolygon(p, poly) {
			return true
		}
		for i := range poly {
			if geom.PointSegmentDistance(p, poly[i], poly[(i+1)%len(poly)]) <= reach {
				return true
			}
		}
		return false
	case FormEllipse:
		// Work in normalized local space where the ellipse is the unit
		// circle.
		q, ok := s.toUnitCircleSpace(p)
		if !ok {
			return false
		}
		if s.style.Filled && q.Length() <= 1 {
			return true
		}
		return s.outlineDistance(q) <= reach
	}
	return false
}

// toUnitCircleSpace maps a document point into the space where the
// ellipse is the unit circle at the origin. ok is false for degenerate
// (zero-radius) forms.
func (s *ShapeStroke) toUnitCircleSpace(p geom.Point) (q geom.Point, ok bool) {
	lr := s.localRect()
	rx, ry := lr.Width()/2, lr.Height()/2
	if rx == 0 || ry == 0 {
		return geom.Point{}, false
	}
	center := lr.Center()
	local := s.xform.Invert().TransformPoint(p)
	return geom.Pt((local.X-center.X)/rx, (local.Y-center.Y)/ry), true
}

// outlineDistance returns the document-space distance from a point
// (given in unit-circle space) to the ellipse outline. The local
// distance is exact, so eccentric radii cannot produce false
// negatives; the transform conversion uses the mean scale factor,
// exact for the similarity transforms the editing operations compose.
func (s *ShapeStroke) outlineDistance(q geom.Point) float64 {
	lr := s.localRect()
	rx, ry := lr.Width()/2, lr.Height()/2
	local := geom.Pt(q.X*rx, q.Y*ry)
	return geom.PointEllipseDistance(local, rx, ry) * s.xform.ScaleFactor()
}

// IntersectsRect implements Stroke.
func (s *ShapeStroke) IntersectsRect(r geom.Rect) bool {
	hw := s.halfWidth()
	switch s.form {
	case FormLine:
		a := s.xform.TransformPoint(s.start)
		b := s.xform.TransformPoint(s.end)
		return geom.SegmentRectDistance(a, b, r) <= hw
	case FormRectangle:
		poly := s.docPolygon()
		if s.style.Filled {
			return geom.PolygonIntersectsRect(poly, r) ||
				rectNearPolygonOutline(r, poly, hw)
		}
		return rectNearPolygonOutline(r, poly, hw)
	case FormEllipse:
		// Map the query rect into unit-circle space; the rect becomes
		// a parallelogram and the outline becomes the unit circle.
		corners := r.Corners()
		poly := make([]geom.Point, 4)
		for i, c := range corners {
			q, ok := s.toUnitCircleSpace(c)
			if !ok {
				return false
			}
			poly[i] = q
		}

		// Nearest window point to the center and the farthest corner
		// bracket the window's radial extent.
		origin := geom.Point{}
		near := origin
		if !geom.PointInPolygon(origin, poly) {
			near = poly[0]
			for i := range poly {
				c := geom.ClosestOnSegment(origin, poly[i], poly[(i+1)%len(poly)])
				if c.Length() < near.Length() {
					near = c
				}
			}
		}
		dmax := 0.0
		for _, q := range poly {
			if l := q.Length(); l > dmax {
				dmax = l
			}
		}
		if near.Length() <= 1 && dmax >= 1 {
			return true // window straddles the outline
		}
		if s.style.Filled && dmax <= 1 {
			return true // window wholly inside the interior
		}
		// Window on one side of the outline: within ribbon reach of it
		// if any radial extreme is. Distances are direction-aware, so
		// eccentric radii do not produce false negatives.
		minDist := s.outlineDistance(near)
		for _, q := range poly {
			if d := s.outlineDistance(q); d < minDist {
				minDist = d
			}
		}
		return minDist <= hw
	}
	return false
}

// rectNearPolygonOutline reports whether any polygon edge passes
// within dist of rectangle r.
func rectNearPolygonOutline(r geom.Rect, poly []geom.Point, dist float64) bool {
	for i := range poly {
		if geom.SegmentRectDistance(poly[i], poly[(i+1)%len(poly)], r) <= dist {
			return true
		}
	}
	return false
}

// Transform implements Stroke.
func (s *ShapeStroke) Transform(m geom.Matrix) {
	s.xform = m.Multiply(s.xform)
	s.style.Width *= m.ScaleFactor()
	s.recomputeBounds()
}

// ToPath implements Stroke.
func (s *ShapeStroke) ToPath() string {
	switch s.form {
	case FormLine:
		return polylinePath([]geom.Point{
			s.xform.TransformPoint(s.start),
			s.xform.TransformPoint(s.end),
		})
	case FormRectangle:
		return polygonPath(s.docPolygon())
	case FormEllipse:
		return s.ellipsePath()
	}
	return ""
}

// ellipsePath approximates the transformed ellipse with four cubic
// Bezier quarters.
func (s *ShapeStroke) ellipsePath() string {
	lr := s.localRect()
	cx, cy := lr.Center().X, lr.Center().Y
	rx, ry := lr.Width()/2, lr.Height()/2

	tp := func(x, y float64) geom.Point {
		return s.xform.TransformPoint(geom.Pt(x, y))
	}

	var b pathBuilder
	b.moveTo(tp(cx+rx, cy))
	b.cubicTo(tp(cx+rx, cy+ry*kappa), tp(cx+rx*kappa, cy+ry), tp(cx, cy+ry))
	b.cubicTo(tp(cx-rx*kappa, cy+ry), tp(cx-rx, cy+ry*kappa), tp(cx-rx, cy))
	b.cubicTo(tp(cx-rx, cy-ry*kappa), tp(cx-rx*kappa, cy-ry), tp(cx, cy-ry))
	b.cubicTo(tp(cx+rx*kappa, cy-ry), tp(cx+rx, cy-ry*kappa), tp(cx+rx, cy))
	b.closePath()
	return b.String()
}

// Clone implements Stroke.
func (s *ShapeStroke) Clone() Stroke {
	c := *s
	return &c
}

func (*ShapeStroke) isStroke() {}
