package geom

import (
	"errors"
	"math"
	"testing"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name      string
		points    []Point
		tolerance float64
		want      []Point
	}{
		{
			"collinear collapses to endpoints",
			[]Point{Pt(0, 0), Pt(1, 0), Pt(2, 0), Pt(3, 0)},
			0.1,
			[]Point{Pt(0, 0), Pt(3, 0)},
		},
		{
			"deviation above tolerance kept",
			[]Point{Pt(0, 0), Pt(1, 1), Pt(2, 0)},
			0.5,
			[]Point{Pt(0, 0), Pt(1, 1), Pt(2, 0)},
		},
		{
			"deviation below tolerance removed",
			[]Point{Pt(0, 0), Pt(1, 0.1), Pt(2, 0)},
			0.5,
			[]Point{Pt(0, 0), Pt(2, 0)},
		},
		{
			"two points unchanged",
			[]Point{Pt(0, 0), Pt(5, 5)},
			10,
			[]Point{Pt(0, 0), Pt(5, 5)},
		},
		{
			"closed loop keeps outlier",
			[]Point{Pt(0, 0), Pt(4, 0), Pt(4, 4), Pt(0, 0)},
			0.5,
			[]Point{Pt(0, 0), Pt(4, 0), Pt(4, 4), Pt(0, 0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(tt.points, tt.tolerance)
			if err != nil {
				t.Fatalf("Simplify failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Simplify = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("point %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSimplifyPreservesEndpoints(t *testing.T) {
	points := []Point{Pt(0.25, 0.75), Pt(1, 2), Pt(2, 1.5), Pt(3, 3), Pt(4.5, 0.125)}
	got, err := Simplify(points, 100)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("Simplify returned %d points, want at least 2", len(got))
	}
	if got[0] != points[0] || got[len(got)-1] != points[len(points)-1] {
		t.Errorf("endpoints changed: got %+v .. %+v", got[0], got[len(got)-1])
	}
}

func TestSimplifyInvalid(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"single point", []Point{Pt(0, 0)}},
		{"nan", []Point{Pt(0, 0), Pt(math.NaN(), 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Simplify(tt.points, 1); !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("Simplify error = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}
