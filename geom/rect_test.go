package geom

import (
	"errors"
	"math"
	"testing"
)

func TestRectIntersects(t *testing.T) {
	base := NewRect(0, 0, 10, 10)
	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlapping", NewRect(5, 5, 15, 15), true},
		{"contained", NewRect(2, 2, 4, 4), true},
		{"containing", NewRect(-5, -5, 20, 20), true},
		{"touching edge", NewRect(10, 0, 20, 10), true},
		{"touching corner", NewRect(10, 10, 20, 20), true},
		{"disjoint right", NewRect(11, 0, 20, 10), false},
		{"disjoint above", NewRect(0, 11, 10, 20), false},
		{"degenerate point inside", NewRect(5, 5, 5, 5), true},
		{"degenerate point outside", NewRect(50, 50, 50, 50), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects(%+v) = %v, want %v", tt.other, got, tt.want)
			}
		})
	}
}

func TestRectUnionInflate(t *testing.T) {
	u := NewRect(0, 0, 1, 1).Union(NewRect(5, -2, 6, 0))
	want := NewRect(0, -2, 6, 1)
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}

	inf := NewRect(0, 0, 2, 2).Inflate(1)
	if inf != NewRect(-1, -1, 3, 3) {
		t.Errorf("Inflate(1) = %+v", inf)
	}
}

func TestBoundsOf(t *testing.T) {
	tests := []struct {
		name    string
		points  []Point
		want    Rect
		wantErr bool
	}{
		{"single point", []Point{Pt(3, 4)}, NewRect(3, 4, 3, 4), false},
		{"two points", []Point{Pt(1, 5), Pt(-2, 0)}, NewRect(-2, 0, 1, 5), false},
		{"collinear", []Point{Pt(0, 0), Pt(1, 0), Pt(2, 0)}, NewRect(0, 0, 2, 0), false},
		{"empty", nil, Rect{}, true},
		{"nan coordinate", []Point{Pt(math.NaN(), 0)}, Rect{}, true},
		{"inf coordinate", []Point{Pt(0, math.Inf(-1))}, Rect{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BoundsOf(tt.points)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidGeometry) {
					t.Fatalf("BoundsOf error = %v, want ErrInvalidGeometry", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("BoundsOf failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("BoundsOf = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestBoundsOfTight verifies that shrinking any side of the computed
// box excludes at least one input point.
func TestBoundsOfTight(t *testing.T) {
	points := []Point{Pt(1, 2), Pt(7, -3), Pt(4, 9), Pt(-2, 5)}
	b, err := BoundsOf(points)
	if err != nil {
		t.Fatalf("BoundsOf failed: %v", err)
	}

	const shrink = 1e-6
	sides := []Rect{
		{MinX: b.MinX + shrink, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY},
		{MinX: b.MinX, MinY: b.MinY + shrink, MaxX: b.MaxX, MaxY: b.MaxY},
		{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX - shrink, MaxY: b.MaxY},
		{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY - shrink},
	}
	for i, s := range sides {
		excluded := false
		for _, p := range points {
			if !s.Contains(p) {
				excluded = true
				break
			}
		}
		if !excluded {
			t.Errorf("shrinking side %d still contains all points; bounds not tight", i)
		}
	}
}
