package sketch

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
	"github.com/sketchkit/sketch/internal/rtree"
)

// Key is a stable identity handle for a stroke in a Store. It is an
// opaque generational index: once a stroke is purged its slot may be
// reused, but only under a new generation, so stale keys fail lookups
// explicitly instead of aliasing a different stroke.
//
// The zero Key is never valid.
type Key struct {
	idx uint32
	gen uint32
}

// IsZero reports whether k is the invalid zero key.
func (k Key) IsZero() bool { return k == Key{} }

// String returns a debug representation.
func (k Key) String() string { return fmt.Sprintf("key(%d:%d)", k.idx, k.gen) }

// PatternKind selects the background pattern of a document.
type PatternKind uint8

const (
	PatternNone PatternKind = iota
	PatternLines
	PatternGrid
	PatternDots
)

// String returns the pattern's serialization tag.
func (p PatternKind) String() string {
	switch p {
	case PatternLines:
		return "lines"
	case PatternGrid:
		return "grid"
	case PatternDots:
		return "dots"
	default:
		return "none"
	}
}

// Background describes the document background.
type Background struct {
	Color       Color
	Pattern     PatternKind
	PatternSize geom.Point
}

// DocMeta is the document-level metadata carried by a Store and
// persisted in the file container.
type DocMeta struct {
	// ID identifies the document across saves.
	ID uuid.UUID

	// CanvasSize is the page size in document units.
	CanvasSize geom.Point

	// Background is the page background.
	Background Background
}

type slot struct {
	s       Stroke // nil when the slot is vacant
	gen     uint32
	trashed bool
}

// Store owns all strokes of one document. It is the arena behind every
// Key, and it alone mutates strokes: callers hold keys, never owning
// references, and issue edits through store operations (normally via a
// History).
//
// Store enforces the single-writer model: every mutating operation
// takes an exclusive lock, so concurrent mutation attempts serialize;
// read-only queries share a read lock and may run concurrently with
// each other but never with a mutation. Each operation is atomic with
// respect to concurrent queries.
type Store struct {
	mu       sync.RWMutex
	slots    []slot
	free     []uint32
	order    []Key // z-order, bottom first; includes trashed strokes
	index    *rtree.Tree[Key]
	selected map[Key]struct{}
	dirty    geom.Rect
	hasDirty bool
	meta     DocMeta
}

// NewStore creates an empty document store.
func NewStore(opts ...StoreOption) *Store {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{
		index:    rtree.New[Key](),
		selected: make(map[Key]struct{}),
		meta: DocMeta{
			ID:         uuid.New(),
			CanvasSize: cfg.canvasSize,
			Background: cfg.background,
		},
	}
}

// Meta returns the document metadata.
func (st *Store) Meta() DocMeta {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.meta
}

// SetMeta replaces the document metadata and marks the whole canvas
// dirty.
func (st *Store) SetMeta(m DocMeta) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.meta = m
	st.markDirty(geom.NewRect(0, 0, m.CanvasSize.X, m.CanvasSize.Y))
}

// resolve returns the slot for k when k refers to a live (possibly
// trashed) stroke. Callers must hold the lock.
func (st *Store) resolve(k Key) (*slot, error) {
	if int(k.idx) >= len(st.slots) {
		return nil, fmt.Errorf("%w: %v", ErrUnknownHandle, k)
	}
	sl := &st.slots[k.idx]
	if sl.s == nil || sl.gen != k.gen {
		return nil, fmt.Errorf("%w: %v", ErrUnknownHandle, k)
	}
	return sl, nil
}

// resolveLive is resolve restricted to non-trashed strokes.
func (st *Store) resolveLive(k Key) (*slot, error) {
	sl, err := st.resolve(k)
	if err != nil {
		return nil, err
	}
	if sl.trashed {
		return nil, fmt.Errorf("%w: %v is trashed", ErrUnknownHandle, k)
	}
	return sl, nil
}

func (st *Store) markDirty(r geom.Rect) {
	if st.hasDirty {
		st.dirty = st.dirty.Union(r)
	} else {
		st.dirty = r
		st.hasDirty = true
	}
}

// Insert adds a stroke to the document at the top of the z-order and
// returns its key. The stroke must have been built by one of the New*
// constructors (already validated); Insert itself never fails.
func (st *Store) Insert(s Stroke) Key {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.insertLocked(s)
}

func (st *Store) insertLocked(s Stroke) Key {
	var idx uint32
	if n := len(st.free); n > 0 {
		idx = st.free[n-1]
		st.free = st.free[:n-1]
	} else {
		st.slots = append(st.slots, slot{})
		idx = uint32(len(st.slots) - 1)
	}
	sl := &st.slots[idx]
	sl.gen++
	sl.s = s
	sl.trashed = false

	k := Key{idx: idx, gen: sl.gen}
	st.order = append(st.order, k)
	st.index.Insert(k, s.Bounds())
	st.markDirty(s.Bounds())
	logger().Debug("stroke inserted", "key", k.String(), "kind", s.Kind().String())
	return k
}

// Remove moves strokes to the trash: they stay in the arena for undo
// but leave the spatial index and the render-visible set. Unknown or
// already-trashed keys are skipped silently; callers are expected to
// pass only keys this store returned.
func (st *Store) Remove(keys ...Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, k := range keys {
		sl, err := st.resolve(k)
		if err != nil || sl.trashed {
			continue
		}
		sl.trashed = true
		st.index.Remove(k)
		delete(st.selected, k)
		st.markDirty(sl.s.Bounds())
	}
}

// RestoreFromTrash reinstates trashed strokes at their original
// z-order positions. Non-trashed or unknown keys are skipped.
func (st *Store) RestoreFromTrash(keys ...Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, k := range keys {
		sl, err := st.resolve(k)
		if err != nil || !sl.trashed {
			continue
		}
		sl.trashed = false
		st.index.Insert(k, sl.s.Bounds())
		st.markDirty(sl.s.Bounds())
	}
}

// PurgeTrash irreversibly frees all trashed strokes. The history
// manager calls it once no retained command can restore them. The
// spatial index is rebuilt wholesale afterwards.
func (st *Store) PurgeTrash() {
	st.mu.Lock()
	defer st.mu.Unlock()

	var purged int
	kept := st.order[:0]
	for _, k := range st.order {
		sl := &st.slots[k.idx]
		if sl.s != nil && sl.gen == k.gen && sl.trashed {
			st.freeSlotLocked(k)
			purged++
		} else {
			kept = append(kept, k)
		}
	}
	st.order = kept
	if purged == 0 {
		return
	}

	entries := make(map[Key]geom.Rect, len(st.order))
	for _, k := range st.order {
		entries[k] = st.slots[k.idx].s.Bounds()
	}
	st.index.Rebuild(entries)
	logger().Debug("trash purged", "count", purged)
}

// purgeIfTrashed frees the given strokes when they are in trash.
// It backs history eviction, which purges only the strokes whose
// undo entries were dropped.
func (st *Store) purgeIfTrashed(keys ...Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, k := range keys {
		sl, err := st.resolve(k)
		if err != nil || !sl.trashed {
			continue
		}
		st.freeSlotLocked(k)
		for i, ok := range st.order {
			if ok == k {
				st.order = append(st.order[:i], st.order[i+1:]...)
				break
			}
		}
	}
}

// freeSlotLocked vacates a slot. The caller maintains st.order.
func (st *Store) freeSlotLocked(k Key) {
	sl := &st.slots[k.idx]
	sl.s = nil
	sl.trashed = false
	delete(st.selected, k)
	st.free = append(st.free, k.idx)
}

// isTrashed reports whether k refers to a trashed stroke.
func (st *Store) isTrashed(k Key) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sl, err := st.resolve(k)
	return err == nil && sl.trashed
}

// Transform applies an affine transform to each stroke's geometry,
// recomputes bounds and updates the spatial index. The dirty region
// covers both the vacated and the newly occupied area. All keys are
// validated first; on ErrUnknownHandle or ErrInvalidGeometry the
// store is unchanged.
func (st *Store) Transform(keys []Key, m geom.Matrix) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !m.IsFinite() {
		return fmt.Errorf("%w: non-finite transform", ErrInvalidGeometry)
	}
	slots, err := st.resolveAllLive(keys)
	if err != nil {
		return err
	}
	for i, sl := range slots {
		old := sl.s.Bounds()
		sl.s.Transform(m)
		st.index.Update(keys[i], sl.s.Bounds())
		st.markDirty(old)
		st.markDirty(sl.s.Bounds())
	}
	return nil
}

// SetStrokeStyle replaces the style of each stroke. Width changes can
// grow or shrink bounds, so index entries and dirty regions follow.
func (st *Store) SetStrokeStyle(keys []Key, style Style) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	slots, err := st.resolveAllLive(keys)
	if err != nil {
		return err
	}
	for i, sl := range slots {
		old := sl.s.Bounds()
		sl.s.SetStyle(style)
		st.index.Update(keys[i], sl.s.Bounds())
		st.markDirty(old)
		st.markDirty(sl.s.Bounds())
	}
	return nil
}

// SimplifyStrokes runs path simplification on the freehand strokes
// among keys; other kinds are unaffected. Bounds can only shrink or
// stay, but the full old extent is marked dirty.
func (st *Store) SimplifyStrokes(keys []Key, tolerance float64) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	slots, err := st.resolveAllLive(keys)
	if err != nil {
		return err
	}
	for i, sl := range slots {
		fh, ok := sl.s.(*FreehandStroke)
		if !ok {
			continue
		}
		old := fh.Bounds()
		if err := fh.Simplify(tolerance); err != nil {
			return err
		}
		st.index.Update(keys[i], fh.Bounds())
		st.markDirty(old)
	}
	return nil
}

// resolveAllLive resolves every key or fails without touching the
// store. Callers must hold the write lock.
func (st *Store) resolveAllLive(keys []Key) ([]*slot, error) {
	slots := make([]*slot, len(keys))
	for i, k := range keys {
		sl, err := st.resolveLive(k)
		if err != nil {
			return nil, err
		}
		slots[i] = sl
	}
	return slots, nil
}

// replace swaps the stored stroke for k with s, keeping index and
// dirty region consistent. History commands use it to restore
// captured before-states.
func (st *Store) replace(k Key, s Stroke) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	sl, err := st.resolveLive(k)
	if err != nil {
		return err
	}
	st.markDirty(sl.s.Bounds())
	sl.s = s
	st.index.Update(k, s.Bounds())
	st.markDirty(s.Bounds())
	return nil
}

// Stroke returns the live stroke for k. The returned value is owned by
// the store and must be treated as read-only.
func (st *Store) Stroke(k Key) (Stroke, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sl, err := st.resolveLive(k)
	if err != nil {
		return nil, err
	}
	return sl.s, nil
}

// strokeClone returns a deep copy of the live stroke for k.
func (st *Store) strokeClone(k Key) (Stroke, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sl, err := st.resolveLive(k)
	if err != nil {
		return nil, err
	}
	return sl.s.Clone(), nil
}

// QueryRect returns the keys of all live strokes whose geometry
// intersects r, in z-order (bottom first). The spatial index provides
// the coarse candidate set; each candidate then passes the precise
// per-kind geometry test.
func (st *Store) QueryRect(r geom.Rect) []Key {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.collectInOrder(st.index.SearchRect(r), func(s Stroke) bool {
		return s.IntersectsRect(r)
	})
}

// QueryPoint returns the keys of all live strokes hit by p within
// tolerance tol, in z-order (bottom first).
func (st *Store) QueryPoint(p geom.Point, tol float64) []Key {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.collectInOrder(st.index.SearchPoint(p, tol), func(s Stroke) bool {
		return s.HitTest(p, tol)
	})
}

// collectInOrder filters index candidates through the precise test and
// returns survivors in store z-order. Callers must hold a lock.
func (st *Store) collectInOrder(candidates []Key, precise func(Stroke) bool) []Key {
	if len(candidates) == 0 {
		return nil
	}
	set := make(map[Key]struct{}, len(candidates))
	for _, k := range candidates {
		set[k] = struct{}{}
	}
	var out []Key
	for _, k := range st.order {
		if _, ok := set[k]; !ok {
			continue
		}
		if precise(st.slots[k.idx].s) {
			out = append(out, k)
		}
	}
	return out
}

// TakeDirtyRegion returns the accumulated dirty area since the last
// call and clears it. ok is false when nothing changed. The render
// collaborator polls this to know what to repaint.
func (st *Store) TakeDirtyRegion() (region geom.Rect, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	region, ok = st.dirty, st.hasDirty
	st.dirty = geom.Rect{}
	st.hasDirty = false
	return region, ok
}

// Keys returns the live, non-trashed strokes in z-order.
func (st *Store) Keys() []Key {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Key, 0, len(st.order))
	for _, k := range st.order {
		if !st.slots[k.idx].trashed {
			out = append(out, k)
		}
	}
	return out
}

// Len returns the number of live, non-trashed strokes.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n := 0
	for _, k := range st.order {
		if !st.slots[k.idx].trashed {
			n++
		}
	}
	return n
}

// TrashLen returns the number of trashed strokes.
func (st *Store) TrashLen() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n := 0
	for _, k := range st.order {
		if st.slots[k.idx].trashed {
			n++
		}
	}
	return n
}

// Bounds returns the union of all live stroke bounds. ok is false for
// an empty document.
func (st *Store) Bounds() (bounds geom.Rect, ok bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, k := range st.order {
		sl := &st.slots[k.idx]
		if sl.trashed {
			continue
		}
		if !ok {
			bounds, ok = sl.s.Bounds(), true
		} else {
			bounds = bounds.Union(sl.s.Bounds())
		}
	}
	return bounds, ok
}

// Select adds strokes to the selection set. All keys must resolve to
// live, non-trashed strokes; otherwise the selection is unchanged.
func (st *Store) Select(keys ...Key) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, err := st.resolveAllLive(keys); err != nil {
		return err
	}
	for _, k := range keys {
		st.selected[k] = struct{}{}
	}
	return nil
}

// Deselect removes strokes from the selection set. Unknown keys are
// ignored.
func (st *Store) Deselect(keys ...Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, k := range keys {
		delete(st.selected, k)
	}
}

// ClearSelection empties the selection set.
func (st *Store) ClearSelection() {
	st.mu.Lock()
	defer st.mu.Unlock()
	clear(st.selected)
}

// IsSelected reports whether k is in the selection set.
func (st *Store) IsSelected(k Key) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.selected[k]
	return ok
}

// Selected returns the selection in z-order.
func (st *Store) Selected() []Key {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]Key, 0, len(st.selected))
	for _, k := range st.order {
		if _, ok := st.selected[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// SelectionBounds returns the union of the selected strokes' bounds.
// UI collaborators use it to place resize handles.
func (st *Store) SelectionBounds() (bounds geom.Rect, ok bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for k := range st.selected {
		sl, err := st.resolveLive(k)
		if err != nil {
			continue
		}
		if !ok {
			bounds, ok = sl.s.Bounds(), true
		} else {
			bounds = bounds.Union(sl.s.Bounds())
		}
	}
	return bounds, ok
}

// zPosition returns k's index in the z-order.
func (st *Store) zPosition(k Key) (int, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if _, err := st.resolveLive(k); err != nil {
		return 0, err
	}
	for i, ok := range st.order {
		if ok == k {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %v not in z-order", ErrUnknownHandle, k)
}

// moveZ moves k to the given z-order position.
func (st *Store) moveZ(k Key, pos int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.moveZLocked(k, pos)
}

func (st *Store) moveZLocked(k Key, pos int) error {
	sl, err := st.resolveLive(k)
	if err != nil {
		return err
	}
	cur := -1
	for i, ok := range st.order {
		if ok == k {
			cur = i
			break
		}
	}
	if cur < 0 {
		return fmt.Errorf("%w: %v not in z-order", ErrUnknownHandle, k)
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(st.order) {
		pos = len(st.order) - 1
	}
	if pos == cur {
		return nil
	}
	st.order = append(st.order[:cur], st.order[cur+1:]...)
	st.order = append(st.order[:pos], append([]Key{k}, st.order[pos:]...)...)
	st.markDirty(sl.s.Bounds())
	return nil
}

// Raise moves k one position up in the z-order (towards the top).
func (st *Store) Raise(k Key) error { return st.shiftZ(k, 1) }

// Lower moves k one position down in the z-order.
func (st *Store) Lower(k Key) error { return st.shiftZ(k, -1) }

// RaiseToTop moves k to the top of the z-order.
func (st *Store) RaiseToTop(k Key) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.moveZLocked(k, len(st.order)-1)
}

// LowerToBottom moves k to the bottom of the z-order.
func (st *Store) LowerToBottom(k Key) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.moveZLocked(k, 0)
}

func (st *Store) shiftZ(k Key, delta int) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur := -1
	for i, ok := range st.order {
		if ok == k {
			cur = i
			break
		}
	}
	if cur < 0 {
		return fmt.Errorf("%w: %v", ErrUnknownHandle, k)
	}
	return st.moveZLocked(k, cur+delta)
}
