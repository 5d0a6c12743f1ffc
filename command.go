package sketch

import (
	"fmt"

	"github.com/sketchkit/sketch/geom"
)

// Command is an atomic, reversible document edit. Commands are created
// with the New*Command constructors and executed through a History;
// the interface is sealed so every command kind participates correctly
// in undo, redo, coalescing and trash purging.
//
// Applying then reverting a command restores the store to a state
// observationally equal to before: same live strokes, same geometry,
// same bounds. Re-inserted strokes keep their UUID even when their
// arena key changes.
type Command interface {
	fmt.Stringer

	// apply executes the edit against the store. It is called for the
	// initial application and again for redo.
	apply(st *Store) error

	// revert undoes the edit.
	revert(st *Store) error

	// merge attempts to coalesce next into the receiver. It reports
	// whether next was absorbed; the caller checks the time window.
	merge(next Command) bool

	// dropped is called when the command permanently leaves history
	// (undo-depth eviction or redo invalidation) so it can release
	// trashed strokes only it could restore. reason says which stack
	// the command is leaving; a command may only purge strokes that
	// are in trash because of its own effect in that state.
	dropped(st *Store, reason dropReason)
}

// dropReason identifies the stack a command is leaving when it is
// permanently discarded.
type dropReason uint8

const (
	// droppedFromUndo: evicted from the bottom of the undo stack. The
	// command is applied; strokes are in trash by its own apply only
	// for removal-type commands.
	droppedFromUndo dropReason = iota + 1

	// droppedFromRedo: discarded from the redo stack by a new edit.
	// The command is reverted; strokes are in trash by its own revert
	// only for insertion-type commands.
	droppedFromRedo
)

// sameKeys reports whether two key slices hold the same keys in the
// same order. Commands coalesce only over identical target sets.
func sameKeys(a, b []Key) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// InsertCommand adds one stroke to the document.
type InsertCommand struct {
	stroke Stroke
	key    Key
}

// NewInsertCommand creates a command inserting s. The store takes
// ownership of s once the command is applied.
func NewInsertCommand(s Stroke) *InsertCommand {
	return &InsertCommand{stroke: s}
}

// Key returns the handle assigned at application time.
func (c *InsertCommand) Key() Key { return c.key }

func (c *InsertCommand) apply(st *Store) error {
	// Redo path: the stroke is still in trash from the revert.
	if !c.key.IsZero() && st.isTrashed(c.key) {
		st.RestoreFromTrash(c.key)
		return nil
	}
	c.key = st.Insert(c.stroke)
	return nil
}

func (c *InsertCommand) revert(st *Store) error {
	st.Remove(c.key)
	return nil
}

func (c *InsertCommand) merge(Command) bool { return false }

func (c *InsertCommand) dropped(st *Store, reason dropReason) {
	// Leaving the undo stack the insert is applied; if the stroke is
	// in trash it was put there by a later remove command, which still
	// owns the restore path. Only the reverted (redo-stack) form holds
	// the stroke in trash itself.
	if reason == droppedFromRedo {
		st.purgeIfTrashed(c.key)
	}
}

func (c *InsertCommand) String() string { return "insert stroke" }

// RemoveCommand moves strokes to the trash.
type RemoveCommand struct {
	keys []Key
}

// NewRemoveCommand creates a command removing the given strokes.
func NewRemoveCommand(keys ...Key) *RemoveCommand {
	return &RemoveCommand{keys: append([]Key(nil), keys...)}
}

func (c *RemoveCommand) apply(st *Store) error {
	st.Remove(c.keys...)
	return nil
}

func (c *RemoveCommand) revert(st *Store) error {
	st.RestoreFromTrash(c.keys...)
	return nil
}

func (c *RemoveCommand) merge(Command) bool { return false }

func (c *RemoveCommand) dropped(st *Store, reason dropReason) {
	// Reverted (redo-stack) removes hold no strokes in trash; an
	// applied remove leaving the undo stack is the last restore path
	// for the strokes it trashed.
	if reason == droppedFromUndo {
		st.purgeIfTrashed(c.keys...)
	}
}

func (c *RemoveCommand) String() string {
	return fmt.Sprintf("remove %d strokes", len(c.keys))
}

// TransformCommand applies an affine transform to a set of strokes.
// Consecutive transforms over the same target set coalesce by
// composing their matrices, so a continuous drag stays one undo step.
type TransformCommand struct {
	keys   []Key
	m      geom.Matrix
	before []Stroke // captured clones, set on first application
}

// NewTransformCommand creates a command applying m to the given
// strokes.
func NewTransformCommand(keys []Key, m geom.Matrix) *TransformCommand {
	return &TransformCommand{keys: append([]Key(nil), keys...), m: m}
}

func (c *TransformCommand) apply(st *Store) error {
	if c.before == nil {
		before, err := captureClones(st, c.keys)
		if err != nil {
			return err
		}
		c.before = before
	}
	return st.Transform(c.keys, c.m)
}

func (c *TransformCommand) revert(st *Store) error {
	return restoreClones(st, c.keys, c.before)
}

func (c *TransformCommand) merge(next Command) bool {
	n, ok := next.(*TransformCommand)
	if !ok || !sameKeys(c.keys, n.keys) {
		return false
	}
	// The later transform applies on top of this one.
	c.m = n.m.Multiply(c.m)
	return true
}

func (c *TransformCommand) dropped(*Store, dropReason) {}

func (c *TransformCommand) String() string {
	return fmt.Sprintf("transform %d strokes", len(c.keys))
}

// StyleCommand replaces the style of a set of strokes. Consecutive
// style changes over the same target set coalesce to the latest style.
type StyleCommand struct {
	keys   []Key
	after  Style
	before []Style
}

// NewStyleCommand creates a command applying style to the given
// strokes.
func NewStyleCommand(keys []Key, style Style) *StyleCommand {
	return &StyleCommand{keys: append([]Key(nil), keys...), after: style}
}

func (c *StyleCommand) apply(st *Store) error {
	if c.before == nil {
		before := make([]Style, len(c.keys))
		for i, k := range c.keys {
			s, err := st.Stroke(k)
			if err != nil {
				return err
			}
			before[i] = s.Style()
		}
		c.before = before
	}
	return st.SetStrokeStyle(c.keys, c.after)
}

func (c *StyleCommand) revert(st *Store) error {
	for i, k := range c.keys {
		if err := st.SetStrokeStyle([]Key{k}, c.before[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *StyleCommand) merge(next Command) bool {
	n, ok := next.(*StyleCommand)
	if !ok || !sameKeys(c.keys, n.keys) {
		return false
	}
	c.after = n.after
	return true
}

func (c *StyleCommand) dropped(*Store, dropReason) {}

func (c *StyleCommand) String() string {
	return fmt.Sprintf("restyle %d strokes", len(c.keys))
}

// SimplifyCommand runs path simplification on freehand strokes.
type SimplifyCommand struct {
	keys      []Key
	tolerance float64
	before    []Stroke
}

// NewSimplifyCommand creates a command simplifying the freehand
// strokes among keys with the given tolerance.
func NewSimplifyCommand(keys []Key, tolerance float64) *SimplifyCommand {
	return &SimplifyCommand{keys: append([]Key(nil), keys...), tolerance: tolerance}
}

func (c *SimplifyCommand) apply(st *Store) error {
	if c.before == nil {
		before, err := captureClones(st, c.keys)
		if err != nil {
			return err
		}
		c.before = before
	}
	return st.SimplifyStrokes(c.keys, c.tolerance)
}

func (c *SimplifyCommand) revert(st *Store) error {
	return restoreClones(st, c.keys, c.before)
}

func (c *SimplifyCommand) merge(Command) bool { return false }

func (c *SimplifyCommand) dropped(*Store, dropReason) {}

func (c *SimplifyCommand) String() string {
	return fmt.Sprintf("simplify %d strokes", len(c.keys))
}

// ReorderCommand moves one stroke in the z-order.
type ReorderCommand struct {
	key  Key
	op   ReorderOp
	prev int
}

// ReorderOp selects a z-order movement.
type ReorderOp uint8

const (
	RaiseOne ReorderOp = iota + 1
	LowerOne
	ToTop
	ToBottom
)

// String returns a human-readable op name.
func (op ReorderOp) String() string {
	switch op {
	case RaiseOne:
		return "raise"
	case LowerOne:
		return "lower"
	case ToTop:
		return "raise to top"
	case ToBottom:
		return "lower to bottom"
	default:
		return "unknown"
	}
}

// NewReorderCommand creates a command moving k per op.
func NewReorderCommand(k Key, op ReorderOp) *ReorderCommand {
	return &ReorderCommand{key: k, op: op}
}

func (c *ReorderCommand) apply(st *Store) error {
	prev, err := st.zPosition(c.key)
	if err != nil {
		return err
	}
	c.prev = prev
	switch c.op {
	case RaiseOne:
		return st.Raise(c.key)
	case LowerOne:
		return st.Lower(c.key)
	case ToTop:
		return st.RaiseToTop(c.key)
	case ToBottom:
		return st.LowerToBottom(c.key)
	default:
		return fmt.Errorf("sketch: unknown reorder op %d", c.op)
	}
}

func (c *ReorderCommand) revert(st *Store) error {
	return st.moveZ(c.key, c.prev)
}

func (c *ReorderCommand) merge(Command) bool { return false }

func (c *ReorderCommand) dropped(*Store, dropReason) {}

func (c *ReorderCommand) String() string {
	return fmt.Sprintf("%s %v", c.op, c.key)
}

// BatchCommand groups several edits into one undo step. Application
// is atomic: if a sub-command fails, the already-applied prefix is
// reverted before the error is returned.
type BatchCommand struct {
	name string
	cmds []Command
}

// NewBatchCommand creates a named batch of commands.
func NewBatchCommand(name string, cmds ...Command) *BatchCommand {
	return &BatchCommand{name: name, cmds: cmds}
}

func (c *BatchCommand) apply(st *Store) error {
	for i, cmd := range c.cmds {
		if err := cmd.apply(st); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := c.cmds[j].revert(st); rerr != nil {
					logger().Warn("batch rollback failed", "command", c.cmds[j].String(), "error", rerr)
				}
			}
			return fmt.Errorf("batch %q: %w", c.name, err)
		}
	}
	return nil
}

func (c *BatchCommand) revert(st *Store) error {
	for i := len(c.cmds) - 1; i >= 0; i-- {
		if err := c.cmds[i].revert(st); err != nil {
			return err
		}
	}
	return nil
}

func (c *BatchCommand) merge(Command) bool { return false }

func (c *BatchCommand) dropped(st *Store, reason dropReason) {
	for _, cmd := range c.cmds {
		cmd.dropped(st, reason)
	}
}

func (c *BatchCommand) String() string { return c.name }

// captureClones snapshots the current state of the given strokes.
func captureClones(st *Store, keys []Key) ([]Stroke, error) {
	out := make([]Stroke, len(keys))
	for i, k := range keys {
		clone, err := st.strokeClone(k)
		if err != nil {
			return nil, err
		}
		out[i] = clone
	}
	return out, nil
}

// restoreClones puts captured snapshots back into the store. Each
// clone is re-cloned so the captured state survives further redo
// cycles.
func restoreClones(st *Store, keys []Key, clones []Stroke) error {
	for i, k := range keys {
		if err := st.replace(k, clones[i].Clone()); err != nil {
			return err
		}
	}
	return nil
}
