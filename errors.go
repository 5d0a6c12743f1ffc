package sketch

import (
	"errors"

	"github.com/sketchkit/sketch/geom"
)

// ErrInvalidGeometry is returned when a payload or transform carries
// malformed geometry (empty point set, NaN or infinite values). It is
// rejected at the boundary; malformed geometry never enters the arena.
// This is the same value as [geom.ErrInvalidGeometry].
var ErrInvalidGeometry = geom.ErrInvalidGeometry

var (
	// ErrUnknownHandle is returned when an operation references a key
	// that does not resolve to a live stroke, or resolves only to a
	// trashed stroke where trash access is not valid for that
	// operation. The store is left unchanged.
	ErrUnknownHandle = errors.New("sketch: unknown stroke handle")

	// ErrVersionTooNew is returned by Load when the document stream
	// was written by a newer format version than this build supports.
	ErrVersionTooNew = errors.New("sketch: document format version too new")

	// ErrNoMigrationPath is returned by Load when the stream's format
	// version is old and no registered migration chain reaches the
	// current version.
	ErrNoMigrationPath = errors.New("sketch: no migration path for document version")

	// ErrCorruptStream is returned by Load for structural decode
	// failures: bad magic, truncated data, checksum mismatch, or an
	// unknown stroke kind tag. Loading is all-or-nothing; no partial
	// document is ever produced.
	ErrCorruptStream = errors.New("sketch: corrupt document stream")
)
