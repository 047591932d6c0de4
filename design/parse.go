package design

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/h2non/filetype"
	"golang.org/x/text/unicode/norm"
)

// Wire format of a design snapshot. Pointer fields distinguish absent values
// from zero values so host-tool defaults (visible, full opacity) survive
// sparse exports.
type (
	jsonSnapshot struct {
		Name   string            `json:"name"`
		Fonts  []jsonFont        `json:"fonts"`
		Images map[string]string `json:"images"` // ref -> base64 bytes
		Roots  []*jsonNode       `json:"roots"`
	}

	jsonFont struct {
		Family string   `json:"family"`
		Styles []string `json:"styles"`
	}

	jsonColor struct {
		R float64 `json:"r"`
		G float64 `json:"g"`
		B float64 `json:"b"`
	}

	jsonStop struct {
		Color    jsonColor `json:"color"`
		Alpha    *float64  `json:"alpha"`
		Position float64   `json:"position"`
	}

	jsonPaint struct {
		Type     string     `json:"type"`
		Visible  *bool      `json:"visible"`
		Opacity  *float64   `json:"opacity"`
		Color    *jsonColor `json:"color"`
		Stops    []jsonStop `json:"stops"`
		ImageRef string     `json:"imageRef"`
	}

	jsonLayout struct {
		Mode          string  `json:"mode"`
		PaddingTop    float64 `json:"paddingTop"`
		PaddingRight  float64 `json:"paddingRight"`
		PaddingBottom float64 `json:"paddingBottom"`
		PaddingLeft   float64 `json:"paddingLeft"`
		ItemSpacing   float64 `json:"itemSpacing"`
		CounterAlign  string  `json:"counterAlign"`
	}

	jsonLineHeight struct {
		Unit  string  `json:"unit"`
		Value float64 `json:"value"`
	}

	jsonRun struct {
		Characters string          `json:"characters"`
		Family     string          `json:"family"`
		Style      string          `json:"style"`
		Size       float64         `json:"size"`
		LineHeight *jsonLineHeight `json:"lineHeight"`
		Underline  bool            `json:"underline"`
		Fills      []jsonPaint     `json:"fills"`
	}

	jsonNode struct {
		ID           string      `json:"id"`
		Name         string      `json:"name"`
		Kind         string      `json:"kind"`
		X            float64     `json:"x"`
		Y            float64     `json:"y"`
		Width        float64     `json:"width"`
		Height       float64     `json:"height"`
		Visible      *bool       `json:"visible"`
		Opacity      *float64    `json:"opacity"`
		Fills        []jsonPaint `json:"fills"`
		Strokes      []jsonPaint `json:"strokes"`
		StrokeWeight float64     `json:"strokeWeight"`
		Layout       *jsonLayout `json:"layout"`
		Children     []*jsonNode `json:"children"`
		Runs         []jsonRun   `json:"runs"`
		TextAlign    string      `json:"textAlign"`
		VectorPath   string      `json:"vectorPath"`
	}
)

// Load reads and parses a design snapshot file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read design snapshot: %w", err)
	}
	return Parse(data)
}

// Parse parses design snapshot bytes into a Document.
func Parse(data []byte) (*Document, error) {
	var snap jsonSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unable to parse design snapshot: %w", err)
	}

	doc := &Document{
		Name:   snap.Name,
		Images: make(map[string][]byte, len(snap.Images)),
		fonts:  make(map[string]map[string]bool, len(snap.Fonts)),
	}

	for _, f := range snap.Fonts {
		styles := make(map[string]bool, len(f.Styles))
		for _, s := range f.Styles {
			styles[s] = true
		}
		doc.fonts[f.Family] = styles
	}

	for ref, b64 := range snap.Images {
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("image %q: invalid base64 data: %w", ref, err)
		}
		if !filetype.IsImage(raw) {
			return nil, fmt.Errorf("image %q: data is not a supported raster image", ref)
		}
		doc.Images[ref] = raw
	}

	for i, jn := range snap.Roots {
		n, err := buildNode(jn, nil, doc)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		doc.Roots = append(doc.Roots, n)
	}
	return doc, nil
}

func buildNode(jn *jsonNode, parent *Node, doc *Document) (*Node, error) {
	kind, err := ParseNodeKind(jn.Kind)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", jn.Name, err)
	}
	if jn.Width < 0 || jn.Height < 0 {
		return nil, fmt.Errorf("node %q: negative geometry", jn.Name)
	}

	n := &Node{
		ID:           jn.ID,
		Name:         jn.Name,
		Kind:         kind,
		X:            jn.X,
		Y:            jn.Y,
		Width:        jn.Width,
		Height:       jn.Height,
		Visible:      boolOr(jn.Visible, true),
		Opacity:      clamp01(floatOr(jn.Opacity, 1)),
		StrokeWeight: jn.StrokeWeight,
		VectorPath:   jn.VectorPath,
		parent:       parent,
	}

	if n.Fills, err = buildPaints(jn.Fills, doc); err != nil {
		return nil, fmt.Errorf("node %q fills: %w", jn.Name, err)
	}
	if n.Strokes, err = buildPaints(jn.Strokes, doc); err != nil {
		return nil, fmt.Errorf("node %q strokes: %w", jn.Name, err)
	}

	if jn.Layout != nil {
		if n.Layout, err = buildLayout(jn.Layout); err != nil {
			return nil, fmt.Errorf("node %q layout: %w", jn.Name, err)
		}
	}

	if kind == KindText {
		if jn.TextAlign != "" {
			if n.TextAlign, err = ParseTextAlign(jn.TextAlign); err != nil {
				return nil, fmt.Errorf("node %q: %w", jn.Name, err)
			}
		}
		for _, jr := range jn.Runs {
			run, err := buildRun(jr, doc)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", jn.Name, err)
			}
			n.Runs = append(n.Runs, run)
		}
	}

	for i, jc := range jn.Children {
		c, err := buildNode(jc, n, doc)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func buildPaints(in []jsonPaint, doc *Document) ([]Paint, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Paint, 0, len(in))
	for _, jp := range in {
		t, err := ParsePaintType(jp.Type)
		if err != nil {
			return nil, err
		}
		p := Paint{
			Type:    t,
			Visible: boolOr(jp.Visible, true),
			Opacity: clamp01(floatOr(jp.Opacity, 1)),
		}
		switch t {
		case PaintSolid:
			if jp.Color != nil {
				p.Color = RGB{R: jp.Color.R, G: jp.Color.G, B: jp.Color.B}
			}
		case PaintGradient:
			for _, js := range jp.Stops {
				p.Stops = append(p.Stops, GradientStop{
					Color:    RGB{R: js.Color.R, G: js.Color.G, B: js.Color.B},
					Alpha:    clamp01(floatOr(js.Alpha, 1)),
					Position: js.Position,
				})
			}
		case PaintImage:
			if jp.ImageRef == "" {
				return nil, fmt.Errorf("image paint without image reference")
			}
			if _, exists := doc.Images[jp.ImageRef]; !exists {
				return nil, fmt.Errorf("image paint references unknown image %q", jp.ImageRef)
			}
			p.ImageRef = jp.ImageRef
		}
		out = append(out, p)
	}
	return out, nil
}

func buildLayout(jl *jsonLayout) (Layout, error) {
	l := Layout{
		PaddingTop:    jl.PaddingTop,
		PaddingRight:  jl.PaddingRight,
		PaddingBottom: jl.PaddingBottom,
		PaddingLeft:   jl.PaddingLeft,
		ItemSpacing:   jl.ItemSpacing,
	}
	if l.PaddingTop < 0 || l.PaddingRight < 0 || l.PaddingBottom < 0 || l.PaddingLeft < 0 || l.ItemSpacing < 0 {
		return l, fmt.Errorf("negative spacing")
	}
	var err error
	if jl.Mode != "" {
		if l.Mode, err = ParseLayoutMode(jl.Mode); err != nil {
			return l, err
		}
	}
	if jl.CounterAlign != "" {
		if l.CounterAlign, err = ParseAlign(jl.CounterAlign); err != nil {
			return l, err
		}
	}
	return l, nil
}

func buildRun(jr jsonRun, doc *Document) (TextRun, error) {
	run := TextRun{
		// composing characters may arrive decomposed from the host tool
		Characters: norm.NFC.String(jr.Characters),
		Family:     jr.Family,
		Style:      jr.Style,
		Size:       jr.Size,
		Underline:  jr.Underline,
	}
	if jr.LineHeight != nil {
		unit, err := ParseLineHeightUnit(jr.LineHeight.Unit)
		if err != nil {
			return run, err
		}
		run.LineHeight = LineHeight{Unit: unit, Value: jr.LineHeight.Value}
	}
	var err error
	if run.Fills, err = buildPaints(jr.Fills, doc); err != nil {
		return run, err
	}
	return run, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
