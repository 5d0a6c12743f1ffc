package sketch

import "time"

// defaultUndoDepth bounds the undo stack unless overridden with
// WithUndoDepth.
const defaultUndoDepth = 100

// DefaultCoalesceWindow is the default time window within which
// consecutive similar commands collapse into one undo step.
const DefaultCoalesceWindow = 500 * time.Millisecond

// CoalescePolicy controls how continuous gestures (drag-resize,
// drag-move) are merged into single undo steps. Two consecutive
// commands coalesce when they are of the same kind, target the same
// handle set, and arrive within Window of each other.
type CoalescePolicy struct {
	// Window is the maximum gap between commands that still merge.
	// A zero or negative window disables coalescing.
	Window time.Duration
}

// DefaultCoalescePolicy returns the policy used when none is
// configured.
func DefaultCoalescePolicy() CoalescePolicy {
	return CoalescePolicy{Window: DefaultCoalesceWindow}
}

type historyEntry struct {
	cmd Command
	at  time.Time
}

// History records reversible commands over one Store, with
// bounded-depth linear undo/redo. A new edit clears the redo stack;
// entries evicted from the bottom of the undo stack release the
// trashed strokes only they could restore.
//
// History itself is not safe for concurrent use: it belongs to the
// single writer of its store.
type History struct {
	store  *Store
	undo   []historyEntry
	redo   []historyEntry
	max    int
	policy CoalescePolicy
	now    func() time.Time

	// barrier blocks coalescing into the current top entry. Set by
	// Undo and Redo so a new edit never merges across an undo
	// boundary the user has observed.
	barrier bool
}

// NewHistory creates a history manager for st.
func NewHistory(st *Store, opts ...HistoryOption) *History {
	cfg := defaultHistoryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &History{
		store:  st,
		max:    cfg.maxDepth,
		policy: cfg.policy,
		now:    cfg.now,
	}
}

// Apply executes cmd against the store and records it for undo. On
// error the store is unchanged and nothing is recorded. A successful
// apply invalidates the redo stack.
func (h *History) Apply(cmd Command) error {
	if err := cmd.apply(h.store); err != nil {
		return err
	}

	h.dropRedo()

	now := h.now()
	if n := len(h.undo); n > 0 && h.policy.Window > 0 && !h.barrier {
		top := &h.undo[n-1]
		if now.Sub(top.at) <= h.policy.Window && top.cmd.merge(cmd) {
			top.at = now
			return nil
		}
	}

	h.barrier = false
	h.undo = append(h.undo, historyEntry{cmd: cmd, at: now})
	if len(h.undo) > h.max {
		evicted := h.undo[0]
		h.undo = append(h.undo[:0], h.undo[1:]...)
		evicted.cmd.dropped(h.store, droppedFromUndo)
	}
	return nil
}

// Undo reverts the most recent command. It is a no-op on an empty
// undo stack; an empty stack is an expected steady state, not an
// error.
func (h *History) Undo() {
	n := len(h.undo)
	if n == 0 {
		return
	}
	entry := h.undo[n-1]
	h.undo = h.undo[:n-1]
	if err := entry.cmd.revert(h.store); err != nil {
		// Commands are designed so that revert of an applied command
		// cannot fail; this indicates a bug, not a user error.
		logger().Warn("undo failed", "command", entry.cmd.String(), "error", err)
	}
	h.barrier = true
	h.redo = append(h.redo, entry)
}

// Redo re-applies the most recently undone command. It is a no-op on
// an empty redo stack.
func (h *History) Redo() {
	n := len(h.redo)
	if n == 0 {
		return
	}
	entry := h.redo[n-1]
	h.redo = h.redo[:n-1]
	if err := entry.cmd.apply(h.store); err != nil {
		logger().Warn("redo failed", "command", entry.cmd.String(), "error", err)
	}
	entry.at = h.now()
	h.barrier = true
	h.undo = append(h.undo, entry)
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the current number of undoable steps.
func (h *History) Depth() int { return len(h.undo) }

// Reset drops all recorded history and purges every stroke left in
// trash. Used when a new document replaces the store's content.
func (h *History) Reset() {
	for _, e := range h.undo {
		e.cmd.dropped(h.store, droppedFromUndo)
	}
	h.undo = nil
	h.dropRedo()
	h.barrier = false
	h.store.PurgeTrash()
}

// dropRedo discards the redo stack, releasing strokes only those
// commands could restore (undone inserts still sitting in trash).
func (h *History) dropRedo() {
	for _, e := range h.redo {
		e.cmd.dropped(h.store, droppedFromRedo)
	}
	h.redo = nil
}
