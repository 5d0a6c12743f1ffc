package sketch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/google/uuid"
	"golang.org/x/image/math/fixed"

	"github.com/sketchkit/sketch/geom"
)

// Font describes the typeface of a text stroke. When Data carries an
// embedded TTF/OTF the engine can measure the text itself; otherwise
// the caller supplies the placement rectangle and the engine treats it
// as authoritative.
type Font struct {
	// Family is the face name, kept for collaborators that resolve
	// fonts by name.
	Family string

	// Size is the type size in document units.
	Size float64

	// Data optionally embeds the font file (TTF or OTF).
	Data []byte
}

// TextStroke is a text block with a font and a placement rectangle.
type TextStroke struct {
	id     uuid.UUID
	text   string
	font   Font
	rect   geom.Rect
	xform  geom.Matrix
	style  Style
	bounds geom.Rect
}

// NewText creates a text stroke whose intrinsic size is measured from
// the embedded font: the placement rectangle starts at origin and is
// sized by shaping each line. Requires font.Data and a positive size.
func NewText(text string, fnt Font, origin geom.Point, style Style) (*TextStroke, error) {
	if fnt.Size <= 0 || len(fnt.Data) == 0 {
		return nil, fmt.Errorf("sketch: text measurement needs an embedded font with positive size: %w", ErrInvalidGeometry)
	}
	if !origin.IsFinite() {
		return nil, ErrInvalidGeometry
	}
	w, h, err := measureText(text, fnt)
	if err != nil {
		return nil, err
	}
	rect := geom.NewRect(origin.X, origin.Y, origin.X+w, origin.Y+h)
	return newTextInRect(text, fnt, rect, style)
}

// NewTextInRect creates a text stroke with a caller-supplied placement
// rectangle; no font data is required.
func NewTextInRect(text string, fnt Font, rect geom.Rect, style Style) (*TextStroke, error) {
	if fnt.Size <= 0 {
		return nil, ErrInvalidGeometry
	}
	return newTextInRect(text, fnt, rect, style)
}

func newTextInRect(text string, fnt Font, rect geom.Rect, style Style) (*TextStroke, error) {
	if !rect.IsFinite() {
		return nil, ErrInvalidGeometry
	}
	s := &TextStroke{
		id:    uuid.New(),
		text:  text,
		font:  fnt,
		rect:  rect,
		xform: geom.Identity(),
		style: style,
	}
	s.recomputeBounds()
	return s, nil
}

// measureText shapes each line with HarfBuzz via go-text/typesetting
// and returns the block's intrinsic width and height.
func measureText(text string, fnt Font) (w, h float64, err error) {
	face, err := font.ParseTTF(bytes.NewReader(fnt.Data))
	if err != nil {
		return 0, 0, fmt.Errorf("sketch: parse font: %w", err)
	}

	var shaper shaping.HarfbuzzShaper
	lines := strings.Split(text, "\n")
	lineHeight := 0.0
	for _, line := range lines {
		runes := []rune(line)
		out := shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: di.DirectionLTR,
			Face:      face,
			Size:      floatToFixed(fnt.Size),
			Script:    detectScript(runes),
			Language:  language.NewLanguage("en"),
		})
		if adv := fixedToFloat(out.Advance); adv > w {
			w = adv
		}
		lb := out.LineBounds
		lh := fixedToFloat(lb.Ascent) - fixedToFloat(lb.Descent) + fixedToFloat(lb.Gap)
		if lh > lineHeight {
			lineHeight = lh
		}
	}
	h = float64(len(lines)) * lineHeight
	return w, h, nil
}

// detectScript inspects the runes and returns the script of the first
// non-space character. Mixed-script text should be split by the caller
// before measurement.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// floatToFixed converts a float64 font size to fixed.Int26_6.
func floatToFixed(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// fixedToFloat converts a fixed.Int26_6 value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// Kind implements Stroke.
func (s *TextStroke) Kind() Kind { return KindText }

// UUID implements Stroke.
func (s *TextStroke) UUID() uuid.UUID { return s.id }

// Bounds implements Stroke.
func (s *TextStroke) Bounds() geom.Rect { return s.bounds }

// Style implements Stroke.
func (s *TextStroke) Style() Style { return s.style }

// SetStyle implements Stroke.
func (s *TextStroke) SetStyle(st Style) { s.style = st }

// Text returns the text content.
func (s *TextStroke) Text() string { return s.text }

// Font returns the font settings.
func (s *TextStroke) Font() Font { return s.font }

// Rect returns the local-space placement rectangle.
func (s *TextStroke) Rect() geom.Rect { return s.rect }

// Matrix returns the local-to-document transform.
func (s *TextStroke) Matrix() geom.Matrix { return s.xform }

func (s *TextStroke) docPolygon() []geom.Point {
	c := s.rect.Corners()
	out := make([]geom.Point, 4)
	for i, p := range c {
		out[i] = s.xform.TransformPoint(p)
	}
	return out
}

func (s *TextStroke) recomputeBounds() {
	s.bounds = s.xform.TransformRect(s.rect)
}

// HitTest implements Stroke: inside the placed block, or within tol
// of its edge.
func (s *TextStroke) HitTest(p geom.Point, tol float64) bool {
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
func (s *TextStroke) IntersectsRect(r geom.Rect) bool {
	return geom.PolygonIntersectsRect(s.docPolygon(), r)
}

// Transform implements Stroke. The type size scales with the average
// scale factor so re-measurement after a resize stays faithful.
func (s *TextStroke) Transform(m geom.Matrix) {
	s.xform = m.Multiply(s.xform)
	s.font.Size *= m.ScaleFactor()
	s.recomputeBounds()
}

// ToPath implements Stroke: the outline of the placed block.
func (s *TextStroke) ToPath() string {
	return polygonPath(s.docPolygon())
}

// Clone implements Stroke. Font data is immutable and shared.
func (s *TextStroke) Clone() Stroke {
	c := *s
	return &c
}

func (*TextStroke) isStroke() {}
