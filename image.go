package sketch

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the bitmap payloads an image stroke may carry.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
)

// ImageStroke places an encoded bitmap in the document. The payload
// stays in its encoded form (PNG, JPEG, GIF, BMP or TIFF); decoding to
// pixels is the render collaborator's job. The engine only validates
// the header and tracks the placement rectangle.
type ImageStroke struct {
	id     uuid.UUID
	data   []byte
	format string
	pixelW int
	pixelH int
	rect   geom.Rect
	xform  geom.Matrix
	style  Style
	bounds geom.Rect
}

// NewImage creates an image stroke from encoded bitmap data placed in
// rect (document space). A zero rect places the image at the origin at
// its natural pixel size. The data must decode to a supported format.
func NewImage(data []byte, rect geom.Rect) (*ImageStroke, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("sketch: decode image: %w", err)
	}
	if rect == (geom.Rect{}) {
		rect = geom.NewRect(0, 0, float64(cfg.Width), float64(cfg.Height))
	}
	if !rect.IsFinite() {
		return nil, ErrInvalidGeometry
	}
	s := &ImageStroke{
		id:     uuid.New(),
		data:   data,
		format: format,
		pixelW: cfg.Width,
		pixelH: cfg.Height,
		rect:   rect,
		xform:  geom.Identity(),
	}
	s.recomputeBounds()
	return s, nil
}

// Kind implements Stroke.
func (s *ImageStroke) Kind() Kind { return KindImage }

// UUID implements Stroke.
func (s *ImageStroke) UUID() uuid.UUID { return s.id }

// Bounds implements Stroke.
func (s *ImageStroke) Bounds() geom.Rect { return s.bounds }

// Style implements Stroke. Images carry a style for interface
// uniformity; it does not affect their rendered extent.
func (s *ImageStroke) Style() Style { return s.style }

// SetStyle implements Stroke.
func (s *ImageStroke) SetStyle(st Style) { s.style = st }

// Data returns the encoded bitmap payload. The slice is shared, not
// copied; callers must not modify it.
func (s *ImageStroke) Data() []byte { return s.data }

// Format returns the detected encoding ("png", "jpeg", ...).
func (s *ImageStroke) Format() string { return s.format }

// PixelSize returns the bitmap dimensions in pixels.
func (s *ImageStroke) PixelSize() (int, int) { return s.pixelW, s.pixelH }

// Rect returns the local-space placement rectangle.
func (s *ImageStroke) Rect() geom.Rect { return s.rect }

// Matrix returns the local-to-document transform.
func (s *ImageStroke) Matrix() geom.Matrix { return s.xform }

// docPolygon returns the placement rectangle's corners in document
// space.
func (s *ImageStroke) docPolygon() []geom.Point {
	c := s.rect.Corners()
	out := make([]geom.Point, 4)
	for i, p := range c {
		out[i] = s.xform.TransformPoint(p)
	}
	return out
}

func (s *ImageStroke) recomputeBounds() {
	s.bounds = s.xform.TransformRect(s.rect)
}

// HitTest implements Stroke: inside the placed rectangle, or within
// tol of its edge.
func (s *ImageStroke) HitTest(p geom.Point, tol float64) bool {
	poly := s.docPolygon()
	if geom.PointInPolygon(p, poly) {
		return true
	}
	for i := range poly {
		if geom.PointSegmentDistance(p, poly[i], poly[(i+1)%len(poly)]) <= tol {
			return true
		}
	}
	return false
}

// IntersectsRect implements Stroke.
func (s *ImageStroke) IntersectsRect(r geom.Rect) bool {
	return geom.PolygonIntersectsRect(s.docPolygon(), r)
}

// Transform implements Stroke.
func (s *ImageStroke) Transform(m geom.Matrix) {
	s.xform = m.Multiply(s.xform)
	s.recomputeBounds()
}

// ToPath implements Stroke: the outline of the placed rectangle.
func (s *ImageStroke) ToPath() string {
	return polygonPath(s.docPolygon())
}

// Clone implements Stroke. The encoded payload is immutable and
// shared between clones.
func (s *ImageStroke) Clone() Stroke {
	c := *s
	return &c
}

func (*ImageStroke) isStroke() {}
