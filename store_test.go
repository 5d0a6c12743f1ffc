package sketch

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchkit/sketch/geom"
)

func freehandAt(t *testing.T, pts ...geom.Point) *FreehandStroke {
	t.Helper()
	pp := make([]PressurePoint, len(pts))
	for i, p := range pts {
		pp[i] = PressurePoint{Pos: p, Pressure: 1}
	}
	s, err := NewFreehand(pp, DefaultStyle())
	require.NoError(t, err)
	return s
}

func lineStroke(t *testing.T, x0, y0, x1, y1 float64) *FreehandStroke {
	t.Helper()
	return freehandAt(t, geom.Pt(x0, y0), geom.Pt(x1, y1))
}

func TestStoreInsertResolve(t *testing.T) {
	st := NewStore()
	s := lineStroke(t, 0, 0, 10, 0)
	k := st.Insert(s)

	require.False(t, k.IsZero())
	got, err := st.Stroke(k)
	require.NoError(t, err)
	assert.Equal(t, s.UUID(), got.UUID())
	assert.Equal(t, 1, st.Len())
}

func TestStoreStaleKey(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))
	st.Remove(k)
	st.PurgeTrash()

	// The slot is reused; the stale key must not resolve to the new
	// occupant.
	k2 := st.Insert(lineStroke(t, 50, 50, 60, 50))
	require.Equal(t, k.idx, k2.idx)
	require.NotEqual(t, k.gen, k2.gen)

	_, err := st.Stroke(k)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	_, err = st.Stroke(k2)
	assert.NoError(t, err)
}

func TestStoreRemoveIsSoft(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))

	st.Remove(k)
	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 1, st.TrashLen())
	_, err := st.Stroke(k)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.Empty(t, st.QueryRect(geom.NewRect(-1, -1, 11, 1)))

	st.RestoreFromTrash(k)
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 0, st.TrashLen())
	_, err = st.Stroke(k)
	assert.NoError(t, err)
	assert.Equal(t, []Key{k}, st.QueryRect(geom.NewRect(-1, -1, 11, 1)))
}

func TestStoreRemoveUnknownKeyIsNoop(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))

	st.Remove(Key{idx: 99, gen: 7})
	st.Remove(k, k) // double remove of the same key

	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 1, st.TrashLen())
}

func TestStoreRestorePreservesZOrder(t *testing.T) {
	st := NewStore()
	bottom := st.Insert(lineStroke(t, 0, 0, 10, 0))
	middle := st.Insert(lineStroke(t, 0, 0, 10, 0))
	top := st.Insert(lineStroke(t, 0, 0, 10, 0))

	st.Remove(middle)
	st.RestoreFromTrash(middle)

	got := st.QueryRect(geom.NewRect(-1, -1, 11, 1))
	assert.Equal(t, []Key{bottom, middle, top}, got)
}

func TestStoreTransform(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))

	err := st.Transform([]Key{k}, geom.Translate(5, 5))
	require.NoError(t, err)

	s, err := st.Stroke(k)
	require.NoError(t, err)
	b := s.Bounds()
	assert.InDelta(t, 5.0, b.MinX+s.Style().Width/2, 1e-9)
	assert.InDelta(t, 5.0, b.MinY+s.Style().Width/2, 1e-9)

	// Spatial queries follow the stroke to its new position.
	assert.Empty(t, st.QueryRect(geom.NewRect(-2, -2, -1, -1)))
	assert.Equal(t, []Key{k}, st.QueryRect(geom.NewRect(4, 4, 16, 6)))
}

func TestStoreTransformAtomicFailure(t *testing.T) {
	st := NewStore()
	alive := st.Insert(lineStroke(t, 0, 0, 10, 0))
	dead := st.Insert(lineStroke(t, 20, 20, 30, 20))
	st.Remove(dead)

	err := st.Transform([]Key{alive, dead}, geom.Translate(5, 5))
	require.ErrorIs(t, err, ErrUnknownHandle)

	// The live stroke must be untouched.
	s, err := st.Stroke(alive)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, s.Bounds().MinX+s.Style().Width/2, 1e-9)
}

func TestStoreTransformRejectsNonFinite(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))

	bad := geom.Matrix{A: 1, C: math.NaN(), E: 2}
	err := st.Transform([]Key{k}, bad)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestStoreQueryZOrder(t *testing.T) {
	st := NewStore()
	// Three overlapping strokes inserted bottom to top.
	a := st.Insert(lineStroke(t, 0, 0, 10, 0))
	b := st.Insert(lineStroke(t, 0, 1, 10, 1))
	c := st.Insert(lineStroke(t, 0, 2, 10, 2))

	got := st.QueryRect(geom.NewRect(-5, -5, 15, 15))
	assert.Equal(t, []Key{a, b, c}, got)

	require.NoError(t, st.RaiseToTop(a))
	got = st.QueryRect(geom.NewRect(-5, -5, 15, 15))
	assert.Equal(t, []Key{b, c, a}, got)

	require.NoError(t, st.LowerToBottom(c))
	got = st.QueryRect(geom.NewRect(-5, -5, 15, 15))
	assert.Equal(t, []Key{c, b, a}, got)
}

func TestStoreQueryPointPrecise(t *testing.T) {
	// A diagonal stroke whose bounding box covers the query point but
	// whose ribbon does not: the point must not match.
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 100, 100))

	assert.Equal(t, []Key{k}, st.QueryPoint(geom.Pt(50, 50), 0.5))
	assert.Empty(t, st.QueryPoint(geom.Pt(50, 5), 0.5))
	assert.Empty(t, st.QueryPoint(geom.Pt(5, 95), 0.5))
}

func TestStoreDirtyRegion(t *testing.T) {
	st := NewStore()
	_, ok := st.TakeDirtyRegion()
	assert.False(t, ok)

	k1 := st.Insert(lineStroke(t, 0, 0, 10, 0))
	k2 := st.Insert(lineStroke(t, 100, 100, 110, 100))

	region, ok := st.TakeDirtyRegion()
	require.True(t, ok)
	s1, _ := st.Stroke(k1)
	s2, _ := st.Stroke(k2)
	want := s1.Bounds().Union(s2.Bounds())
	assert.InDelta(t, want.MinX, region.MinX, 1e-9)
	assert.InDelta(t, want.MaxY, region.MaxY, 1e-9)

	// Taking the region clears it.
	_, ok = st.TakeDirtyRegion()
	assert.False(t, ok)

	// A move dirties the union of old and new bounds.
	require.NoError(t, st.Transform([]Key{k1}, geom.Translate(200, 0)))
	region, ok = st.TakeDirtyRegion()
	require.True(t, ok)
	assert.LessOrEqual(t, region.MinX, s1.Bounds().MinX)
	moved, _ := st.Stroke(k1)
	assert.GreaterOrEqual(t, region.MaxX, moved.Bounds().MaxX)
}

func TestStoreSelection(t *testing.T) {
	st := NewStore()
	a := st.Insert(lineStroke(t, 0, 0, 10, 0))
	b := st.Insert(lineStroke(t, 20, 20, 30, 20))
	dead := st.Insert(lineStroke(t, 40, 40, 50, 40))
	st.Remove(dead)

	require.NoError(t, st.Select(a, b))
	assert.True(t, st.IsSelected(a))
	assert.ElementsMatch(t, []Key{a, b}, st.Selected())

	bounds, ok := st.SelectionBounds()
	require.True(t, ok)
	assert.True(t, bounds.ContainsRect(mustStroke(t, st, a).Bounds()))
	assert.True(t, bounds.ContainsRect(mustStroke(t, st, b).Bounds()))

	// Selecting any trashed key fails without changing the selection.
	err := st.Select(dead)
	assert.ErrorIs(t, err, ErrUnknownHandle)
	assert.ElementsMatch(t, []Key{a, b}, st.Selected())

	// Trashing a selected stroke deselects it.
	st.Remove(a)
	assert.False(t, st.IsSelected(a))
	assert.ElementsMatch(t, []Key{b}, st.Selected())

	st.ClearSelection()
	assert.Empty(t, st.Selected())
	_, ok = st.SelectionBounds()
	assert.False(t, ok)
}

func mustStroke(t *testing.T, st *Store, k Key) Stroke {
	t.Helper()
	s, err := st.Stroke(k)
	require.NoError(t, err)
	return s
}

func TestStoreSetStrokeStyle(t *testing.T) {
	st := NewStore()
	k := st.Insert(lineStroke(t, 0, 0, 10, 0))

	style := Style{Stroke: RGB(1, 0, 0), Width: 6}
	require.NoError(t, st.SetStrokeStyle([]Key{k}, style))
	assert.Equal(t, style, mustStroke(t, st, k).Style())

	// Width change widens the bounds and re-indexes.
	assert.Equal(t, []Key{k}, st.QueryPoint(geom.Pt(0, 2.9), 0))
}

func TestStoreSimplifyStrokes(t *testing.T) {
	st := NewStore()
	pts := make([]geom.Point, 0, 11)
	for i := 0; i <= 10; i++ {
		pts = append(pts, geom.Pt(float64(i), 0))
	}
	k := st.Insert(freehandAt(t, pts...))

	require.NoError(t, st.SimplifyStrokes([]Key{k}, 0.1))
	fh := mustStroke(t, st, k).(*FreehandStroke)
	assert.Equal(t, 2, len(fh.Points()))
}

func TestStoreBounds(t *testing.T) {
	st := NewStore()
	_, ok := st.Bounds()
	assert.False(t, ok)

	st.Insert(lineStroke(t, 0, 0, 10, 0))
	k := st.Insert(lineStroke(t, 100, 100, 110, 100))

	bounds, ok := st.Bounds()
	require.True(t, ok)
	assert.InDelta(t, -1.0, bounds.MinX, 1e-9)
	assert.InDelta(t, 111.0, bounds.MaxX, 1e-9)

	// Trashed strokes do not contribute.
	st.Remove(k)
	bounds, ok = st.Bounds()
	require.True(t, ok)
	assert.InDelta(t, 11.0, bounds.MaxX, 1e-9)
}

func TestStoreQueryRectMatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	st := NewStore()

	for i := 0; i < 60; i++ {
		x, y := rng.Float64()*400, rng.Float64()*400
		style := Style{Width: 1 + rng.Float64()*5}

		var s Stroke
		switch i % 3 {
		case 0:
			pts := []PressurePoint{
				{Pos: geom.Pt(x, y), Pressure: 1},
				{Pos: geom.Pt(x+rng.Float64()*40, y+rng.Float64()*40), Pressure: rng.Float64()},
				{Pos: geom.Pt(x+rng.Float64()*80, y+rng.Float64()*80), Pressure: 1},
			}
			fh, err := NewFreehand(pts, style)
			require.NoError(t, err)
			s = fh
		case 1:
			end := geom.Pt(x+10+rng.Float64()*80, y+10+rng.Float64()*80)
			sh, err := NewShape(FormRectangle, geom.Pt(x, y), end, style)
			require.NoError(t, err)
			sh.Transform(geom.RotateAbout(rng.Float64()*math.Pi, geom.Pt(x, y)))
			s = sh
		default:
			// Eccentric: one axis much longer than the other.
			end := geom.Pt(x+60+rng.Float64()*80, y+1+rng.Float64()*4)
			style.Filled = rng.Intn(2) == 0
			sh, err := NewShape(FormEllipse, geom.Pt(x, y), end, style)
			require.NoError(t, err)
			s = sh
		}
		k := st.Insert(s)
		if rng.Intn(4) == 0 {
			st.Remove(k)
		}
	}

	for q := 0; q < 50; q++ {
		x, y := rng.Float64()*400, rng.Float64()*400
		r := geom.NewRect(x, y, x+rng.Float64()*120, y+rng.Float64()*120)

		var want []Key
		for _, k := range st.Keys() {
			if mustStroke(t, st, k).IntersectsRect(r) {
				want = append(want, k)
			}
		}
		got := st.QueryRect(r)
		if len(want) == 0 {
			assert.Empty(t, got, "query %d", q)
			continue
		}
		assert.Equal(t, want, got, "query %d", q)
	}
}

func TestStorePurgeTrashCompacts(t *testing.T) {
	st := NewStore()
	keep := st.Insert(lineStroke(t, 0, 0, 10, 0))
	drop := st.Insert(lineStroke(t, 20, 0, 30, 0))
	st.Remove(drop)

	st.PurgeTrash()
	assert.Equal(t, 0, st.TrashLen())
	assert.Equal(t, []Key{keep}, st.Keys())

	// Restoring after purge is a no-op.
	st.RestoreFromTrash(drop)
	assert.Equal(t, 1, st.Len())
}
