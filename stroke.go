package sketch

import (
	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
)

// Kind identifies a stroke variant. The set is closed: the codec, the
// store and every capability implementation enumerate it exhaustively,
// so a new kind is a compile-visible change across the engine.
type Kind uint8

const (
	// KindFreehand is a pressure-tagged polyline rendered as a
	// variable-width ribbon.
	KindFreehand Kind = iota + 1

	// KindShape is a parametric form (line, rectangle or ellipse)
	// defined by two anchor points and an affine transform.
	KindShape

	// KindImage is a bitmap with a placement rectangle.
	KindImage

	// KindText is a text block with a font and a placement rectangle.
	KindText
)

// String returns the kind's serialization tag.
func (k Kind) String() string {
	switch k {
	case KindFreehand:
		return "freehand"
	case KindShape:
		return "shape"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Stroke is a document element. All variants implement the same
// capability set; the set of implementations is closed (sealed within
// this package).
//
// Strokes returned by a Store are owned by it: callers must treat them
// as read-only and perform all mutation through store operations, which
// keep the spatial index and dirty regions consistent.
//
// Every mutator re-derives the cached bounding box before returning;
// callers never observe a stale Bounds.
type Stroke interface {
	// Kind returns the variant tag.
	Kind() Kind

	// UUID returns the stroke's persistent identity. It survives
	// serialization and trash/restore cycles, unlike the in-memory
	// arena Key.
	UUID() uuid.UUID

	// Bounds returns the cached axis-aligned bounding box. It always
	// encloses the full rendered extent of the stroke, including
	// outline width.
	Bounds() geom.Rect

	// HitTest reports whether p lies on the rendered stroke within
	// tolerance tol (document units).
	HitTest(p geom.Point, tol float64) bool

	// IntersectsRect reports whether the rendered stroke geometry
	// touches r. This is the precise test run after the coarse
	// spatial-index pass.
	IntersectsRect(r geom.Rect) bool

	// Transform applies an affine transform to the geometry in place
	// and recomputes bounds. Outline widths scale with the average
	// scale factor of the matrix.
	Transform(m geom.Matrix)

	// Style returns the paint style.
	Style() Style

	// SetStyle replaces the paint style and recomputes bounds (width
	// affects the rendered extent).
	SetStyle(s Style)

	// ToPath returns the stroke geometry as SVG path data, the
	// exchange form for export collaborators.
	ToPath() string

	// Clone returns a deep copy with the same UUID. Used by the
	// history manager to capture before-states.
	Clone() Stroke

	isStroke()
}
