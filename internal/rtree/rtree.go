// Package rtree implements a dynamic R-tree mapping opaque keys to
// axis-aligned bounding rectangles. It backs the engine's spatial
// queries: range and point lookups over stroke bounds.
//
// The tree is exact for bounding-box overlap: a search never misses an
// entry whose rectangle intersects the query window. Result order is
// unspecified. The tree is not safe for concurrent use; the owning
// store serializes access.
package rtree

import (
	"math"

	"github.com/sketchkit/sketch/geom"
)

const (
	defaultMinEntries = 2
	defaultMaxEntries = 8
)

type entry[K comparable] struct {
	rect  geom.Rect
	key   K        // set for leaf entries
	child *node[K] // set for branch entries
}

type node[K comparable] struct {
	leaf    bool
	entries []entry[K]
}

// Tree is a dynamic R-tree with quadratic node splitting.
// The zero value is not usable; call New.
type Tree[K comparable] struct {
	root  *node[K]
	items map[K]geom.Rect
	min   int
	max   int
}

// New creates an empty tree with default node capacity.
func New[K comparable]() *Tree[K] {
	return &Tree[K]{
		root:  &node[K]{leaf: true},
		items: make(map[K]geom.Rect),
		min:   defaultMinEntries,
		max:   defaultMaxEntries,
	}
}

// Len returns the number of entries in the tree.
func (t *Tree[K]) Len() int { return len(t.items) }

// RectOf returns the rectangle stored for key, if present.
func (t *Tree[K]) RectOf(key K) (geom.Rect, bool) {
	r, ok := t.items[key]
	return r, ok
}

// Insert adds key with the given rectangle. If the key is already
// present its rectangle is replaced.
func (t *Tree[K]) Insert(key K, rect geom.Rect) {
	if _, ok := t.items[key]; ok {
		t.Remove(key)
	}
	t.items[key] = rect
	t.insertLeafEntry(entry[K]{rect: rect, key: key})
}

// Update replaces the rectangle stored for key. Updating an absent key
// behaves like Insert.
func (t *Tree[K]) Update(key K, rect geom.Rect) {
	t.Insert(key, rect)
}

// Remove deletes the entry for key. It reports whether an entry was
// removed. Leaf entries orphaned by node underflow are reinserted.
func (t *Tree[K]) Remove(key K) bool {
	rect, ok := t.items[key]
	if !ok {
		return false
	}
	delete(t.items, key)

	var orphans []entry[K]
	t.removeRec(t.root, key, rect, &orphans)

	// Collapse root chains left behind by underflow.
	for !t.root.leaf && len(t.root.entries) == 1 {
		t.root = t.root.entries[0].child
	}
	if !t.root.leaf && len(t.root.entries) == 0 {
		t.root = &node[K]{leaf: true}
	}
	for _, e := range orphans {
		t.insertLeafEntry(e)
	}
	return true
}

// SearchRect returns the keys of all entries whose rectangles
// intersect r.
func (t *Tree[K]) SearchRect(r geom.Rect) []K {
	var out []K
	t.searchRec(t.root, r, &out)
	return out
}

// SearchPoint returns the keys of all entries whose rectangles
// intersect the square of half-extent tol around p.
func (t *Tree[K]) SearchPoint(p geom.Point, tol float64) []K {
	return t.SearchRect(geom.RectAround(p, tol))
}

// Rebuild discards the tree and repopulates it from the given entries.
// Used after bulk removals where incremental pruning is not worth it.
func (t *Tree[K]) Rebuild(entries map[K]geom.Rect) {
	t.root = &node[K]{leaf: true}
	t.items = make(map[K]geom.Rect, len(entries))
	for k, r := range entries {
		t.items[k] = r
		t.insertLeafEntry(entry[K]{rect: r, key: k})
	}
}

func (t *Tree[K]) searchRec(n *node[K], r geom.Rect, out *[]K) {
	for _, e := range n.entries {
		if !e.rect.Intersects(r) {
			continue
		}
		if n.leaf {
			*out = append(*out, e.key)
		} else {
			t.searchRec(e.child, r, out)
		}
	}
}

func (t *Tree[K]) insertLeafEntry(e entry[K]) {
	split := t.insertRec(t.root, e)
	if split != nil {
		// Root split: grow the tree by one level.
		oldRoot := t.root
		t.root = &node[K]{
			leaf: false,
			entries: []entry[K]{
				{rect: nodeBounds(oldRoot), child: oldRoot},
				{rect: nodeBounds(split), child: split},
			},
		}
	}
}

// insertRec inserts e below n and returns the new sibling if n split.
func (t *Tree[K]) insertRec(n *node[K], e entry[K]) *node[K] {
	if n.leaf {
		n.entries = append(n.entries, e)
		if len(n.entries) > t.max {
			return t.split(n)
		}
		return nil
	}

	i := chooseSubtree(n, e.rect)
	split := t.insertRec(n.entries[i].child, e)
	n.entries[i].rect = nodeBounds(n.entries[i].child)
	if split != nil {
		n.entries = append(n.entries, entry[K]{rect: nodeBounds(split), child: split})
		if len(n.entries) > t.max {
			return t.split(n)
		}
	}
	return nil
}

func (t *Tree[K]) removeRec(n *node[K], key K, rect geom.Rect, orphans *[]entry[K]) bool {
	if n.leaf {
		for i, e := range n.entries {
			if e.key == key {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
				return true
			}
		}
		return false
	}
	for i, e := range n.entries {
		if !e.rect.Intersects(rect) {
			continue
		}
		if !t.removeRec(e.child, key, rect, orphans) {
			continue
		}
		if len(e.child.entries) < t.min {
			collectLeafEntries(e.child, orphans)
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
		} else {
			n.entries[i].rect = nodeBounds(e.child)
		}
		return true
	}
	return false
}

func collectLeafEntries[K comparable](n *node[K], out *[]entry[K]) {
	if n.leaf {
		*out = append(*out, n.entries...)
		return
	}
	for _, e := range n.entries {
		collectLeafEntries(e.child, out)
	}
}

// chooseSubtree picks the child whose rectangle needs the least
// enlargement to cover r, breaking ties by smaller area.
func chooseSubtree[K comparable](n *node[K], r geom.Rect) int {
	best := 0
	bestEnlarge := math.Inf(1)
	bestArea := math.Inf(1)
	for i, e := range n.entries {
		area := e.rect.Area()
		enlarge := e.rect.Union(r).Area() - area
		if enlarge < bestEnlarge || (enlarge == bestEnlarge && area < bestArea) {
			best = i
			bestEnlarge = enlarge
			bestArea = area
		}
	}
	return best
}

// split divides an overfull node using the quadratic split heuristic
// and returns the new sibling.
func (t *Tree[K]) split(n *node[K]) *node[K] {
	entries := n.entries
	seedA, seedB := pickSeeds(entries)

	groupA := []entry[K]{entries[seedA]}
	groupB := []entry[K]{entries[seedB]}
	rectA := entries[seedA].rect
	rectB := entries[seedB].rect

	rest := make([]entry[K], 0, len(entries)-2)
	for i, e := range entries {
		if i != seedA && i != seedB {
			rest = append(rest, e)
		}
	}

	for len(rest) > 0 {
		// Force assignment when one group must take all remaining
		// entries to reach the minimum fill.
		if len(groupA)+len(rest) == t.min {
			for _, e := range rest {
				groupA = append(groupA, e)
				rectA = rectA.Union(e.rect)
			}
			break
		}
		if len(groupB)+len(rest) == t.min {
			for _, e := range rest {
				groupB = append(groupB, e)
				rectB = rectB.Union(e.rect)
			}
			break
		}

		// Pick the entry with the greatest preference for one group.
		bestIdx := 0
		bestDiff := -1.0
		for i, e := range rest {
			dA := rectA.Union(e.rect).Area() - rectA.Area()
			dB := rectB.Union(e.rect).Area() - rectB.Area()
			diff := math.Abs(dA - dB)
			if diff > bestDiff {
				bestDiff = diff
				bestIdx = i
			}
		}
		e := rest[bestIdx]
		rest = append(rest[:bestIdx], rest[bestIdx+1:]...)

		dA := rectA.Union(e.rect).Area() - rectA.Area()
		dB := rectB.Union(e.rect).Area() - rectB.Area()
		if dA < dB || (dA == dB && len(groupA) <= len(groupB)) {
			groupA = append(groupA, e)
			rectA = rectA.Union(e.rect)
		} else {
			groupB = append(groupB, e)
			rectB = rectB.Union(e.rect)
		}
	}

	n.entries = groupA
	return &node[K]{leaf: n.leaf, entries: groupB}
}

// pickSeeds selects the pair of entries that would waste the most area
// if placed in the same node.
func pickSeeds[K comparable](entries []entry[K]) (int, int) {
	a, b := 0, 1
	worst := -1.0
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			waste := entries[i].rect.Union(entries[j].rect).Area() -
				entries[i].rect.Area() - entries[j].rect.Area()
			if waste > worst {
				worst = waste
				a, b = i, j
			}
		}
	}
	return a, b
}

func nodeBounds[K comparable](n *node[K]) geom.Rect {
	b := n.entries[0].rect
	for _, e := range n.entries[1:] {
		b = b.Union(e.rect)
	}
	return b
}
