package geom

import "math"

// PointEllipseDistance returns the distance from p to the outline of
// the axis-aligned ellipse centered at the origin with radii rx, ry.
// Interior and exterior points both measure to the nearest outline
// point. Degenerate radii collapse the outline to a segment or point.
func PointEllipseDistance(p Point, rx, ry float64) float64 {
	px, py := math.Abs(p.X), math.Abs(p.Y)
	if rx == 0 && ry == 0 {
		return math.Hypot(px, py)
	}
	if rx == 0 {
		return PointSegmentDistance(Pt(px, py), Pt(0, -ry), Pt(0, ry))
	}
	if ry == 0 {
		return PointSegmentDistance(Pt(px, py), Pt(-rx, 0), Pt(rx, 0))
	}

	// On the major axis the nearest outline point leaves the axis for
	// points inside the evolute; elsewhere on an axis it is the
	// vertex.
	if py == 0 {
		if rx > ry {
			if cx := rx * rx * px / (rx*rx - ry*ry); cx < rx {
				cy := ry * math.Sqrt(1-(cx/rx)*(cx/rx))
				return math.Hypot(cx-px, cy)
			}
		}
		return math.Abs(px - rx)
	}
	if px == 0 {
		if ry > rx {
			if cy := ry * ry * py / (ry*ry - rx*rx); cy < ry {
				cx := rx * math.Sqrt(1-(cy/ry)*(cy/ry))
				return math.Hypot(cx, cy-py)
			}
		}
		return math.Abs(py - ry)
	}

	// General case: the nearest outline point is
	// (rx^2 px/(t+rx^2), ry^2 py/(t+ry^2)) where t is the root of
	// F(t) = (rx px/(t+rx^2))^2 + (ry py/(t+ry^2))^2 - 1. F decreases
	// monotonically from +Inf at t = -min(rx,ry)^2, so bisection
	// converges unconditionally.
	f := func(t float64) float64 {
		u := rx * px / (t + rx*rx)
		v := ry * py / (t + ry*ry)
		return u*u + v*v - 1
	}
	lo := -math.Min(rx*rx, ry*ry)
	hi := math.Hypot(rx*px, ry*py)
	for f(hi) > 0 {
		hi = hi*2 + 1
	}
	for i := 0; i < 100; i++ {
		t := lo + (hi-lo)/2
		if t == lo || t == hi {
			break
		}
		if f(t) > 0 {
			lo = t
		} else {
			hi = t
		}
	}
	t := lo + (hi-lo)/2
	cx := rx * rx * px / (t + rx*rx)
	cy := ry * ry * py / (t + ry*ry)
	return math.Hypot(cx-px, cy-py)
}
