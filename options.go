package sketch

import (
	"time"

	"github.com/sketchkit/sketch/geom"
)

// StoreOption configures a Store during creation.
type StoreOption func(*storeConfig)

type storeConfig struct {
	canvasSize geom.Point
	background Background
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		canvasSize: geom.Pt(1404, 1872),
		background: Background{
			Color:       RGB(1, 1, 1),
			Pattern:     PatternNone,
			PatternSize: geom.Pt(32, 32),
		},
	}
}

// WithCanvasSize sets the document canvas size in document units.
func WithCanvasSize(w, h float64) StoreOption {
	return func(c *storeConfig) {
		c.canvasSize = geom.Pt(w, h)
	}
}

// WithBackground sets the document background.
func WithBackground(bg Background) StoreOption {
	return func(c *storeConfig) {
		c.background = bg
	}
}

// HistoryOption configures a History during creation.
type HistoryOption func(*historyConfig)

type historyConfig struct {
	maxDepth int
	policy   CoalescePolicy
	now      func() time.Time
}

func defaultHistoryConfig() historyConfig {
	return historyConfig{
		maxDepth: defaultUndoDepth,
		policy:   DefaultCoalescePolicy(),
		now:      time.Now,
	}
}

// WithUndoDepth bounds the undo stack. When a new command would exceed
// the depth, the oldest entry is dropped and any strokes it kept alive
// in trash are purged. Values below 1 are clamped to 1.
func WithUndoDepth(n int) HistoryOption {
	return func(c *historyConfig) {
		if n < 1 {
			n = 1
		}
		c.maxDepth = n
	}
}

// WithCoalescePolicy sets the coalescing policy for continuous
// gestures.
func WithCoalescePolicy(p CoalescePolicy) HistoryOption {
	return func(c *historyConfig) {
		c.policy = p
	}
}

// WithClock injects the time source used for coalescing decisions.
// Tests use it to drive the coalescing window deterministically.
func WithClock(now func() time.Time) HistoryOption {
	return func(c *historyConfig) {
		if now != nil {
			c.now = now
		}
	}
}
