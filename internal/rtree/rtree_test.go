package rtree

import (
	"math/rand"
	"testing"

	"github.com/sketchkit/sketch/geom"
)

func randRect(rng *rand.Rand) geom.Rect {
	x := rng.Float64() * 1000
	y := rng.Float64() * 1000
	return geom.NewRect(x, y, x+rng.Float64()*50, y+rng.Float64()*50)
}

// bruteForce returns the keys in items whose rects intersect r.
func bruteForce(items map[int]geom.Rect, r geom.Rect) map[int]bool {
	out := make(map[int]bool)
	for k, ir := range items {
		if ir.Intersects(r) {
			out[k] = true
		}
	}
	return out
}

func checkExact(t *testing.T, tree *Tree[int], items map[int]geom.Rect, query geom.Rect) {
	t.Helper()
	want := bruteForce(items, query)
	got := tree.SearchRect(query)
	gotSet := make(map[int]bool, len(got))
	for _, k := range got {
		if gotSet[k] {
			t.Errorf("duplicate key %d in result", k)
		}
		gotSet[k] = true
	}
	for k := range want {
		if !gotSet[k] {
			t.Errorf("missing key %d for query %+v", k, query)
		}
	}
	for k := range gotSet {
		if !want[k] {
			t.Errorf("spurious key %d for query %+v", k, query)
		}
	}
}

func TestInsertSearchExact(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tree := New[int]()
	items := make(map[int]geom.Rect)

	for i := 0; i < 500; i++ {
		r := randRect(rng)
		items[i] = r
		tree.Insert(i, r)
	}
	if tree.Len() != 500 {
		t.Fatalf("Len = %d, want 500", tree.Len())
	}
	for i := 0; i < 50; i++ {
		checkExact(t, tree, items, randRect(rng))
	}
	// Window covering everything.
	checkExact(t, tree, items, geom.NewRect(-10, -10, 2000, 2000))
	// Window touching nothing.
	checkExact(t, tree, items, geom.NewRect(-500, -500, -400, -400))
}

func TestRemoveKeepsExactness(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	tree := New[int]()
	items := make(map[int]geom.Rect)

	for i := 0; i < 300; i++ {
		r := randRect(rng)
		items[i] = r
		tree.Insert(i, r)
	}
	// Remove a random half, verifying exactness as the tree condenses.
	for i := 0; i < 300; i += 2 {
		if !tree.Remove(i) {
			t.Fatalf("Remove(%d) found nothing", i)
		}
		delete(items, i)
		if i%30 == 0 {
			checkExact(t, tree, items, randRect(rng))
		}
	}
	if tree.Len() != 150 {
		t.Fatalf("Len = %d, want 150", tree.Len())
	}
	checkExact(t, tree, items, geom.NewRect(0, 0, 1100, 1100))

	if tree.Remove(0) {
		t.Error("Remove of absent key reported success")
	}
}

func TestUpdateMovesEntry(t *testing.T) {
	tree := New[int]()
	tree.Insert(1, geom.NewRect(0, 0, 10, 10))
	tree.Update(1, geom.NewRect(100, 100, 110, 110))

	if got := tree.SearchRect(geom.NewRect(0, 0, 20, 20)); len(got) != 0 {
		t.Errorf("old position still indexed: %v", got)
	}
	got := tree.SearchRect(geom.NewRect(105, 105, 106, 106))
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("new position not found: %v", got)
	}
	if tree.Len() != 1 {
		t.Errorf("Len = %d after update, want 1", tree.Len())
	}
}

func TestSearchPoint(t *testing.T) {
	tree := New[int]()
	tree.Insert(1, geom.NewRect(0, 0, 10, 10))
	tree.Insert(2, geom.NewRect(20, 20, 30, 30))

	got := tree.SearchPoint(geom.Pt(11, 5), 2)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("SearchPoint near entry 1 = %v", got)
	}
	if got := tree.SearchPoint(geom.Pt(15, 15), 1); len(got) != 0 {
		t.Errorf("SearchPoint in gap = %v", got)
	}
}

func TestRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tree := New[int]()
	for i := 0; i < 100; i++ {
		tree.Insert(i, randRect(rng))
	}

	items := make(map[int]geom.Rect)
	for i := 0; i < 40; i++ {
		items[i+1000] = randRect(rng)
	}
	tree.Rebuild(items)

	if tree.Len() != 40 {
		t.Fatalf("Len after Rebuild = %d, want 40", tree.Len())
	}
	checkExact(t, tree, items, geom.NewRect(0, 0, 1100, 1100))
	for i := 0; i < 20; i++ {
		checkExact(t, tree, items, randRect(rng))
	}
}

func TestInterleavedMutations(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	tree := New[int]()
	items := make(map[int]geom.Rect)
	next := 0

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(items) == 0:
			r := randRect(rng)
			items[next] = r
			tree.Insert(next, r)
			next++
		case op == 1:
			for k := range items {
				r := randRect(rng)
				items[k] = r
				tree.Update(k, r)
				break
			}
		default:
			for k := range items {
				delete(items, k)
				tree.Remove(k)
				break
			}
		}
		if step%200 == 0 {
			checkExact(t, tree, items, randRect(rng))
		}
	}
	if tree.Len() != len(items) {
		t.Fatalf("Len = %d, want %d", tree.Len(), len(items))
	}
	checkExact(t, tree, items, geom.NewRect(-10, -10, 1100, 1100))
}
