// Package design models a read-only visual design tree - the input of the
// conversion engine. The tree is loaded from a design snapshot (JSON export of
// the host design tool) and is never mutated after loading.
package design

import (
	"fmt"
	"strings"
)

// NodeKind enumerates every node variant the engine understands. The set is
// closed - renderers switch over all kinds explicitly.
type NodeKind int

const (
	KindFrame NodeKind = iota
	KindGroup
	KindRectangle
	KindEllipse
	KindVector
	KindLine
	KindText
)

var nodeKindNames = []string{"frame", "group", "rectangle", "ellipse", "vector", "line", "text"}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return nodeKindNames[k]
}

func ParseNodeKind(name string) (NodeKind, error) {
	for i, n := range nodeKindNames {
		if n == name {
			return NodeKind(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid NodeKind", name)
}

// IsContainer reports whether the node owns layout of its children.
func (k NodeKind) IsContainer() bool {
	return k == KindFrame || k == KindGroup
}

// IsShape reports whether the node is a plain filled shape.
func (k NodeKind) IsShape() bool {
	return k == KindRectangle || k == KindEllipse
}

// IsVectorPrimitive reports whether the node is drawn geometry with no
// markup representation of its own.
func (k NodeKind) IsVectorPrimitive() bool {
	return k == KindVector || k == KindLine
}

// RGB is a color with float channels in [0,1] as exported by the host tool.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// White is the documented fallback for ancestor background lookups.
var White = RGB{R: 1, G: 1, B: 1}

type PaintType int

const (
	PaintSolid PaintType = iota
	PaintGradient
	PaintImage
)

var paintTypeNames = []string{"solid", "gradient", "image"}

func (t PaintType) String() string {
	if t < 0 || int(t) >= len(paintTypeNames) {
		return fmt.Sprintf("PaintType(%d)", int(t))
	}
	return paintTypeNames[t]
}

func ParsePaintType(name string) (PaintType, error) {
	for i, n := range paintTypeNames {
		if n == name {
			return PaintType(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid PaintType", name)
}

// GradientStop is a single stop of a gradient paint, in paint order.
type GradientStop struct {
	Color    RGB
	Alpha    float64
	Position float64
}

// Paint is one entry of a node's ordered fill or stroke list.
type Paint struct {
	Type    PaintType
	Visible bool
	Opacity float64
	Color   RGB            // solid only
	Stops   []GradientStop // gradient only
	ImageRef string        // image only, key into Document.Images
}

type LayoutMode int

const (
	LayoutNone LayoutMode = iota
	LayoutVertical
	LayoutHorizontal
)

var layoutModeNames = []string{"none", "vertical", "horizontal"}

func (m LayoutMode) String() string {
	if m < 0 || int(m) >= len(layoutModeNames) {
		return fmt.Sprintf("LayoutMode(%d)", int(m))
	}
	return layoutModeNames[m]
}

func ParseLayoutMode(name string) (LayoutMode, error) {
	for i, n := range layoutModeNames {
		if n == name {
			return LayoutMode(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid LayoutMode", name)
}

// Align is cross-axis alignment of auto-layout children.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

var alignNames = []string{"start", "center", "end"}

func (a Align) String() string {
	if a < 0 || int(a) >= len(alignNames) {
		return fmt.Sprintf("Align(%d)", int(a))
	}
	return alignNames[a]
}

func ParseAlign(name string) (Align, error) {
	for i, n := range alignNames {
		if n == name {
			return Align(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid Align", name)
}

// Layout is the auto-layout metadata of a container.
type Layout struct {
	Mode          LayoutMode
	PaddingTop    float64
	PaddingRight  float64
	PaddingBottom float64
	PaddingLeft   float64
	ItemSpacing   float64
	CounterAlign  Align
}

type LineHeightUnit int

const (
	LineHeightAuto LineHeightUnit = iota
	LineHeightPixels
	LineHeightPercent
)

var lineHeightUnitNames = []string{"auto", "px", "percent"}

func (u LineHeightUnit) String() string {
	if u < 0 || int(u) >= len(lineHeightUnitNames) {
		return fmt.Sprintf("LineHeightUnit(%d)", int(u))
	}
	return lineHeightUnitNames[u]
}

func ParseLineHeightUnit(name string) (LineHeightUnit, error) {
	for i, n := range lineHeightUnitNames {
		if n == name {
			return LineHeightUnit(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid LineHeightUnit", name)
}

type LineHeight struct {
	Unit  LineHeightUnit
	Value float64
}

// TextRun is a maximal run of characters sharing one text style. Runs of a
// text node partition its full character sequence in document order.
type TextRun struct {
	Characters string
	Family     string
	Style      string // style name as reported by the host tool, e.g. "Bold Italic"
	Size       float64
	LineHeight LineHeight
	Underline  bool
	Fills      []Paint
}

// TextAlign is horizontal alignment of a text block.
type TextAlign int

const (
	TextAlignLeft TextAlign = iota
	TextAlignCenter
	TextAlignRight
	TextAlignJustify
)

var textAlignNames = []string{"left", "center", "right", "justify"}

func (a TextAlign) String() string {
	if a < 0 || int(a) >= len(textAlignNames) {
		return fmt.Sprintf("TextAlign(%d)", int(a))
	}
	return textAlignNames[a]
}

func ParseTextAlign(name string) (TextAlign, error) {
	for i, n := range textAlignNames {
		if n == name {
			return TextAlign(i), nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid TextAlign", name)
}

// Node is a single element of the design tree. Geometry is relative to the
// parent. The engine treats nodes as immutable.
type Node struct {
	ID      string
	Name    string
	Kind    NodeKind
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Visible bool
	Opacity float64

	Fills        []Paint
	Strokes      []Paint
	StrokeWeight float64

	Layout   Layout
	Children []*Node

	// text nodes only
	Runs      []TextRun
	TextAlign TextAlign

	// vector primitives only: SVG path data in node coordinates
	VectorPath string

	parent *Node
}

// Parent returns the owning node, nil for roots.
func (n *Node) Parent() *Node { return n.parent }

// Characters returns the full character sequence of a text node.
func (n *Node) Characters() string {
	if len(n.Runs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range n.Runs {
		b.WriteString(r.Characters)
	}
	return b.String()
}

// VisibleChildren returns children which take part in rendering.
func (n *Node) VisibleChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Visible && c.Opacity > 0 {
			out = append(out, c)
		}
	}
	return out
}

// FirstVisibleFill returns the first paint of the fill list which is visible
// and not fully transparent.
func (n *Node) FirstVisibleFill() (Paint, bool) {
	return firstVisible(n.Fills)
}

// FirstVisibleStroke returns the first paint of the stroke list which is
// visible and not fully transparent.
func (n *Node) FirstVisibleStroke() (Paint, bool) {
	return firstVisible(n.Strokes)
}

func firstVisible(paints []Paint) (Paint, bool) {
	for _, p := range paints {
		if !p.Visible || p.Opacity <= 0 {
			continue
		}
		return p, true
	}
	return Paint{}, false
}

// HasImageFill reports whether any visible fill is an image paint.
func (n *Node) HasImageFill() bool {
	for _, p := range n.Fills {
		if p.Visible && p.Type == PaintImage {
			return true
		}
	}
	return false
}
