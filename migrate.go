package sketch

import (
	"encoding/json"
	"fmt"
)

// Migrations upgrade the decoded JSON document one version at a time,
// operating on the generic representation so that old layouts need no
// parallel Go structs. Each entry transforms version n into n+1.
var migrations = map[int]func(map[string]any) error{
	1: migrateV1ToV2,
}

func migrate(raw []byte, from int) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	for v := from; v < FormatVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, fmt.Errorf("%w: no migration from version %d", ErrNoMigrationPath, v)
		}
		if err := step(doc); err != nil {
			return nil, err
		}
		logger().Debug("migrated document", "from", v, "to", v+1)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return out, nil
}

// Version 1 carried the paint fields flat on each stroke record:
//
//	{"kind": "...", "id": "...", "color": {...}, "fill": {...},
//	 "filled": false, "width": 2, ...}
//
// Version 2 nests them under "style" and renames "color" to "stroke".
func migrateV1ToV2(doc map[string]any) error {
	strokes, ok := doc["strokes"].([]any)
	if !ok {
		if doc["strokes"] == nil {
			return nil
		}
		return fmt.Errorf("%w: strokes is not an array", ErrCorruptStream)
	}
	for _, raw := range strokes {
		rec, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: stroke record is not an object", ErrCorruptStream)
		}
		style := map[string]any{
			"stroke": rec["color"],
			"fill":   rec["fill"],
			"filled": rec["filled"],
			"width":  rec["width"],
		}
		if style["stroke"] == nil {
			style["stroke"] = map[string]any{"r": 0.0, "g": 0.0, "b": 0.0, "a": 1.0}
		}
		if style["fill"] == nil {
			style["fill"] = map[string]any{"r": 0.0, "g": 0.0, "b": 0.0, "a": 0.0}
		}
		if style["filled"] == nil {
			style["filled"] = false
		}
		if style["width"] == nil {
			style["width"] = 1.0
		}
		delete(rec, "color")
		delete(rec, "fill")
		delete(rec, "filled")
		delete(rec, "width")
		rec["style"] = style
	}
	return nil
}
