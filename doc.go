// Package sketch implements the document engine for a vector-sketch
// application: the in-memory model of a hand-drawn document and every
// operation a front-end needs to edit it.
//
// # Overview
//
// A document is a [Store]: an arena of strokes addressed by stable
// [Key] handles, with a spatial index for hit-testing and viewport
// culling, a selection set, a trash set for undoable removal, and a
// dirty-region accumulator for repaint tracking. Edits go through a
// [History], which records reversible commands with bounded-depth
// undo/redo and coalescing of continuous gestures.
//
//	st := sketch.NewStore()
//	h := sketch.NewHistory(st)
//
//	fh, _ := sketch.NewFreehand(points, sketch.DefaultStyle())
//	cmd := sketch.NewInsertCommand(fh)
//	_ = h.Apply(cmd)
//
//	hits := st.QueryPoint(geom.Pt(120, 80), 4)
//	dirty, ok := st.TakeDirtyRegion()
//
// Documents round-trip through a versioned compressed container via
// [Save] and [Load].
//
// # Concurrency
//
// The engine is single-writer: all mutation of a Store (directly or via
// its History) is serialized internally, and read-only queries may run
// concurrently with each other but block while a mutation is in flight.
// Long operations (Save, Load) hold the store for their full duration
// and complete or fail atomically.
//
// # Collaborators
//
// The engine does not render, parse foreign formats, or read input
// devices. Renderers poll [Store.TakeDirtyRegion] and
// [Store.QueryRect]; importers feed finalized strokes to insert
// commands; exporters read [Stroke.ToPath] and bounds.
package sketch
