package sketch

import (
	"strconv"
	"strings"

	"github.com/sketchkit/sketch/geom"
)

// pathBuilder accumulates SVG path data ("M x y L x y ... Z").
// Coordinates are formatted with the shortest representation that
// round-trips, so exported geometry is bit-faithful.
type pathBuilder struct {
	sb strings.Builder
}

func (b *pathBuilder) cmd(op byte, pts ...geom.Point) {
	if b.sb.Len() > 0 {
		b.sb.WriteByte(' ')
	}
	b.sb.WriteByte(op)
	for _, p := range pts {
		b.sb.WriteByte(' ')
		b.sb.WriteString(strconv.FormatFloat(p.X, 'g', -1, 64))
		b.sb.WriteByte(' ')
		b.sb.WriteString(strconv.FormatFloat(p.Y, 'g', -1, 64))
	}
}

func (b *pathBuilder) moveTo(p geom.Point)          { b.cmd('M', p) }
func (b *pathBuilder) lineTo(p geom.Point)          { b.cmd('L', p) }
func (b *pathBuilder) cubicTo(c1, c2, p geom.Point) { b.cmd('C', c1, c2, p) }
func (b *pathBuilder) closePath()                   { b.cmd('Z') }
func (b *pathBuilder) String() string               { return b.sb.String() }

// polylinePath returns path data tracing the given points in order.
func polylinePath(points []geom.Point) string {
	var b pathBuilder
	for i, p := range points {
		if i == 0 {
			b.moveTo(p)
		} else {
			b.lineTo(p)
		}
	}
	return b.String()
}

// polygonPath returns closed path data tracing the given vertices.
func polygonPath(points []geom.Point) string {
	var b pathBuilder
	for i, p := range points {
		if i == 0 {
			b.moveTo(p)
		} else {
			b.lineTo(p)
		}
	}
	b.closePath()
	return b.String()
}
