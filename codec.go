package sketch

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/sketchkit/sketch/geom"
)

// The document container is a 6-byte header (magic + format version)
// followed by a gzip stream of one JSON document. gzip supplies the
// integrity checksum; a truncated or tampered stream fails its CRC and
// surfaces as ErrCorruptStream.
const (
	formatMagic = "SKDOC"

	// FormatVersion is the current document format version. Streams
	// tagged with an older version are migrated on load; streams
	// tagged with a newer version are rejected with ErrVersionTooNew.
	//
	// Version history:
	//   1: flat paint fields on each stroke record (color, fill,
	//      filled, width)
	//   2: paint fields nested under "style"
	FormatVersion = 2
)

type docFile struct {
	Meta    metaRecord     `json:"meta"`
	Strokes []strokeRecord `json:"strokes"`
}

type metaRecord struct {
	ID           string           `json:"id"`
	CanvasWidth  float64          `json:"canvas_width"`
	CanvasHeight float64          `json:"canvas_height"`
	Background   backgroundRecord `json:"background"`
}

type backgroundRecord struct {
	Color       colorRecord `json:"color"`
	Pattern     string      `json:"pattern"`
	PatternSize [2]float64  `json:"pattern_size"`
}

type colorRecord struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type styleRecord struct {
	Stroke colorRecord `json:"stroke"`
	Fill   colorRecord `json:"fill"`
	Filled bool        `json:"filled"`
	Width  float64     `json:"width"`
}

type rectRecord struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// strokeRecord is a tagged union: Kind selects which payload pointer
// is set.
type strokeRecord struct {
	Kind  string      `json:"kind"`
	ID    string      `json:"id"`
	Style styleRecord `json:"style"`

	Freehand *freehandRecord `json:"freehand,omitempty"`
	Shape    *shapeRecord    `json:"shape,omitempty"`
	Image    *imageRecord    `json:"image,omitempty"`
	Text     *textRecord     `json:"text,omitempty"`
}

type pointRecord struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"p"`
}

type freehandRecord struct {
	Points []pointRecord `json:"points"`
}

type shapeRecord struct {
	Form      string     `json:"form"`
	Start     [2]float64 `json:"start"`
	End       [2]float64 `json:"end"`
	Transform [6]float64 `json:"transform"`
}

type imageRecord struct {
	Data        []byte     `json:"data"` // base64 via encoding/json
	PixelWidth  int        `json:"pixel_width"`
	PixelHeight int        `json:"pixel_height"`
	Rect        rectRecord `json:"rect"`
	Transform   [6]float64 `json:"transform"`
}

type textRecord struct {
	Text      string     `json:"text"`
	Family    string     `json:"family"`
	Size      float64    `json:"size"`
	FontData  []byte     `json:"font_data,omitempty"`
	Rect      rectRecord `json:"rect"`
	Transform [6]float64 `json:"transform"`
}

func colorToRecord(c Color) colorRecord {
	return colorRecord{R: c.R, G: c.G, B: c.B, A: c.A}
}

func colorFromRecord(r colorRecord) Color {
	return Color{R: r.R, G: r.G, B: r.B, A: r.A}
}

func styleToRecord(s Style) styleRecord {
	return styleRecord{
		Stroke: colorToRecord(s.Stroke),
		Fill:   colorToRecord(s.Fill),
		Filled: s.Filled,
		Width:  s.Width,
	}
}

func styleFromRecord(r styleRecord) Style {
	return Style{
		Stroke: colorFromRecord(r.Stroke),
		Fill:   colorFromRecord(r.Fill),
		Filled: r.Filled,
		Width:  r.Width,
	}
}

func rectToRecord(r geom.Rect) rectRecord {
	return rectRecord{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

func rectFromRecord(r rectRecord) geom.Rect {
	return geom.Rect{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: r.MaxY}
}

func matrixToRecord(m geom.Matrix) [6]float64 {
	return [6]float64{m.A, m.B, m.C, m.D, m.E, m.F}
}

func matrixFromRecord(v [6]float64) geom.Matrix {
	return geom.Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
}

func patternFromTag(tag string) (PatternKind, error) {
	switch tag {
	case "none", "":
		return PatternNone, nil
	case "lines":
		return PatternLines, nil
	case "grid":
		return PatternGrid, nil
	case "dots":
		return PatternDots, nil
	default:
		return 0, fmt.Errorf("%w: unknown background pattern %q", ErrCorruptStream, tag)
	}
}

// Save writes the document as a versioned compressed stream: metadata
// first, then each live (non-trashed) stroke in z-order. Trashed
// strokes are not persisted.
func Save(w io.Writer, st *Store) error {
	st.mu.RLock()
	doc := docFile{
		Meta: metaRecord{
			ID:           st.meta.ID.String(),
			CanvasWidth:  st.meta.CanvasSize.X,
			CanvasHeight: st.meta.CanvasSize.Y,
			Background: backgroundRecord{
				Color:       colorToRecord(st.meta.Background.Color),
				Pattern:     st.meta.Background.Pattern.String(),
				PatternSize: [2]float64{st.meta.Background.PatternSize.X, st.meta.Background.PatternSize.Y},
			},
		},
	}
	for _, k := range st.order {
		sl := &st.slots[k.idx]
		if sl.trashed {
			continue
		}
		doc.Strokes = append(doc.Strokes, strokeToRecord(sl.s))
	}
	st.mu.RUnlock()

	if _, err := w.Write([]byte(formatMagic)); err != nil {
		return fmt.Errorf("sketch: write header: %w", err)
	}
	if _, err := w.Write([]byte{FormatVersion}); err != nil {
		return fmt.Errorf("sketch: write header: %w", err)
	}
	zw := gzip.NewWriter(w)
	if err := json.NewEncoder(zw).Encode(&doc); err != nil {
		return fmt.Errorf("sketch: encode document: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("sketch: flush document: %w", err)
	}
	logger().Info("document saved", "strokes", len(doc.Strokes), "version", FormatVersion)
	return nil
}

func strokeToRecord(s Stroke) strokeRecord {
	rec := strokeRecord{
		Kind:  s.Kind().String(),
		ID:    s.UUID().String(),
		Style: styleToRecord(s.Style()),
	}
	switch s := s.(type) {
	case *FreehandStroke:
		fr := &freehandRecord{Points: make([]pointRecord, len(s.points))}
		for i, p := range s.points {
			fr.Points[i] = pointRecord{X: p.Pos.X, Y: p.Pos.Y, Pressure: p.Pressure}
		}
		rec.Freehand = fr
	case *ShapeStroke:
		rec.Shape = &shapeRecord{
			Form:      s.form.String(),
			Start:     [2]float64{s.start.X, s.start.Y},
			End:       [2]float64{s.end.X, s.end.Y},
			Transform: matrixToRecord(s.xform),
		}
	case *ImageStroke:
		rec.Image = &imageRecord{
			Data:        s.data,
			PixelWidth:  s.pixelW,
			PixelHeight: s.pixelH,
			Rect:        rectToRecord(s.rect),
			Transform:   matrixToRecord(s.xform),
		}
	case *TextStroke:
		rec.Text = &textRecord{
			Text:      s.text,
			Family:    s.font.Family,
			Size:      s.font.Size,
			FontData:  s.font.Data,
			Rect:      rectToRecord(s.rect),
			Transform: matrixToRecord(s.xform),
		}
	}
	return rec
}

// Load reads a document stream written by Save (any supported past
// version) and constructs a fresh store. Loading is all-or-nothing: a
// structurally invalid stream, an unknown stroke kind, or a missing
// migration leaves no partially populated store behind.
func Load(r io.Reader) (*Store, error) {
	header := make([]byte, len(formatMagic)+1)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorruptStream, err)
	}
	if string(header[:len(formatMagic)]) != formatMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptStream)
	}
	version := int(header[len(formatMagic)])
	if version < 1 {
		return nil, fmt.Errorf("%w: version 0", ErrCorruptStream)
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: stream version %d, supported up to %d",
			ErrVersionTooNew, version, FormatVersion)
	}

	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		// Covers truncation and checksum mismatch.
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	if version < FormatVersion {
		raw, err = migrate(raw, version)
		if err != nil {
			return nil, err
		}
	}

	var doc docFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return buildStore(&doc, version)
}

func buildStore(doc *docFile, streamVersion int) (*Store, error) {
	docID, err := uuid.Parse(doc.Meta.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: document id: %v", ErrCorruptStream, err)
	}
	pattern, err := patternFromTag(doc.Meta.Background.Pattern)
	if err != nil {
		return nil, err
	}

	st := NewStore()
	st.meta = DocMeta{
		ID:         docID,
		CanvasSize: geom.Pt(doc.Meta.CanvasWidth, doc.Meta.CanvasHeight),
		Background: Background{
			Color:       colorFromRecord(doc.Meta.Background.Color),
			Pattern:     pattern,
			PatternSize: geom.Pt(doc.Meta.Background.PatternSize[0], doc.Meta.Background.PatternSize[1]),
		},
	}

	for i := range doc.Strokes {
		s, err := strokeFromRecord(&doc.Strokes[i])
		if err != nil {
			return nil, err
		}
		st.Insert(s)
	}
	logger().Info("document loaded", "strokes", len(doc.Strokes), "version", streamVersion)
	return st, nil
}

func strokeFromRecord(rec *strokeRecord) (Stroke, error) {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: stroke id: %v", ErrCorruptStream, err)
	}
	style := styleFromRecord(rec.Style)

	switch rec.Kind {
	case "freehand":
		if rec.Freehand == nil {
			return nil, fmt.Errorf("%w: freehand record missing payload", ErrCorruptStream)
		}
		pts := make([]PressurePoint, len(rec.Freehand.Points))
		for i, p := range rec.Freehand.Points {
			pts[i] = PressurePoint{Pos: geom.Pt(p.X, p.Y), Pressure: p.Pressure}
		}
		s, err := NewFreehand(pts, style)
		if err != nil {
			return nil, fmt.Errorf("%w: freehand stroke: %v", ErrCorruptStream, err)
		}
		s.id = id
		return s, nil

	case "shape":
		if rec.Shape == nil {
			return nil, fmt.Errorf("%w: shape record missing payload", ErrCorruptStream)
		}
		form, err := formFromTag(rec.Shape.Form)
		if err != nil {
			return nil, err
		}
		s, err := NewShape(form,
			geom.Pt(rec.Shape.Start[0], rec.Shape.Start[1]),
			geom.Pt(rec.Shape.End[0], rec.Shape.End[1]), style)
		if err != nil {
			return nil, fmt.Errorf("%w: shape stroke: %v", ErrCorruptStream, err)
		}
		s.id = id
		s.xform = matrixFromRecord(rec.Shape.Transform)
		s.recomputeBounds()
		return s, nil

	case "image":
		if rec.Image == nil {
			return nil, fmt.Errorf("%w: image record missing payload", ErrCorruptStream)
		}
		s, err := NewImage(rec.Image.Data, rectFromRecord(rec.Image.Rect))
		if err != nil {
			return nil, fmt.Errorf("%w: image stroke: %v", ErrCorruptStream, err)
		}
		s.id = id
		s.style = style
		s.xform = matrixFromRecord(rec.Image.Transform)
		s.recomputeBounds()
		return s, nil

	case "text":
		if rec.Text == nil {
			return nil, fmt.Errorf("%w: text record missing payload", ErrCorruptStream)
		}
		fnt := Font{Family: rec.Text.Family, Size: rec.Text.Size, Data: rec.Text.FontData}
		s, err := NewTextInRect(rec.Text.Text, fnt, rectFromRecord(rec.Text.Rect), style)
		if err != nil {
			return nil, fmt.Errorf("%w: text stroke: %v", ErrCorruptStream, err)
		}
		s.id = id
		s.xform = matrixFromRecord(rec.Text.Transform)
		s.recomputeBounds()
		return s, nil

	default:
		return nil, fmt.Errorf("%w: unknown stroke kind %q", ErrCorruptStream, rec.Kind)
	}
}

func formFromTag(tag string) (ShapeForm, error) {
	switch tag {
	case "line":
		return FormLine, nil
	case "rectangle":
		return FormRectangle, nil
	case "ellipse":
		return FormEllipse, nil
	default:
		return 0, fmt.Errorf("%w: unknown shape form %q", ErrCorruptStream, tag)
	}
}

// SaveToBytes is a convenience wrapper around Save.
func SaveToBytes(st *Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(&buf, st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadFromBytes is a convenience wrapper around Load.
func LoadFromBytes(data []byte) (*Store, error) {
	return Load(bytes.NewReader(data))
}
