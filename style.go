package sketch

// Color is an RGBA color with components in the range [0, 1].
type Color struct {
	R, G, B, A float64
}

// RGB creates an opaque color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// RGBA creates a color with explicit alpha.
func RGBA(r, g, b, a float64) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Style describes how a stroke is painted. It travels with the stroke,
// is captured by style commands for undo, and round-trips exactly
// through serialization.
type Style struct {
	// Stroke is the outline color.
	Stroke Color

	// Fill is the interior color, used when Filled is set.
	Fill Color

	// Filled selects whether closed shapes paint their interior.
	Filled bool

	// Width is the outline width in document units. For freehand
	// strokes it is the full ribbon width at pressure 1.
	Width float64
}

// DefaultStyle returns the style applied to new strokes when the
// caller does not specify one: a 2-unit black outline, no fill.
func DefaultStyle() Style {
	return Style{
		Stroke: RGB(0, 0, 0),
		Fill:   RGBA(0, 0, 0, 0),
		Width:  2,
	}
}
