package email

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"demc/config"
	"demc/design"
)

// gapTolerance is the threshold in design units below which vertical gaps are
// considered rendering noise and suppressed.
const gapTolerance = 2.0

// renderCtx is the immutable per-recursion-level state. A new value is
// derived, never mutated, at each step down the tree.
type renderCtx struct {
	avail     float64
	bg        design.RGB
	imageMode config.ImageExportMode
	widthMode config.WidthMode
	root      bool
}

func (rc renderCtx) child(avail float64, bg design.RGB) renderCtx {
	rc.avail = avail
	rc.bg = bg
	rc.root = false
	return rc
}

// renderNode is the dispatch point of the traversal. It returns nil for
// nodes with no markup representation.
func (s *session) renderNode(ctx context.Context, n *design.Node, rc renderCtx) (*etree.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !n.Visible || n.Opacity <= 0 {
		return nil, nil
	}
	if isImageLike(n) {
		return s.renderImage(ctx, n, rc)
	}

	switch n.Kind {
	case design.KindFrame, design.KindGroup:
		if isBulletPair(n) {
			return s.renderBulletPair(ctx, n, rc)
		}
		return s.renderContainer(ctx, n, rc)
	case design.KindRectangle, design.KindEllipse:
		return s.renderShape(n, rc), nil
	case design.KindText:
		return s.renderTextBlock(ctx, n, rc)
	case design.KindVector, design.KindLine:
		// always image-like, unreachable
		return nil, nil
	default:
		s.log.Debug("Unsupported node kind", zap.String("node", n.Name), zap.Stringer("kind", n.Kind))
		return nil, nil
	}
}

// isBulletPair recognizes the common "glyph + body" list row: a horizontal
// container of exactly two text children whose first child is a single
// bullet glyph.
func isBulletPair(n *design.Node) bool {
	if n.Layout.Mode != design.LayoutHorizontal {
		return false
	}
	kids := n.VisibleChildren()
	if len(kids) != 2 || kids[0].Kind != design.KindText || kids[1].Kind != design.KindText {
		return false
	}
	return isBulletGlyph(kids[0].Characters())
}

func (s *session) renderContainer(ctx context.Context, n *design.Node, rc renderCtx) (*etree.Element, error) {
	bgHex, bgRGB, hasBG := resolveColor(n.Fills, rc.bg)
	border, hasBorder := borderDecl(n)
	kids := n.VisibleChildren()

	if len(kids) == 0 && !hasBG && !hasBorder {
		return nil, nil
	}

	childBG := rc.bg
	if hasBG {
		childBG = bgRGB
	}

	if n.Layout.Mode == design.LayoutHorizontal {
		return s.renderHorizontal(ctx, n, rc, kids, childBG, bgHex, border, hasBorder)
	}
	return s.renderVertical(ctx, n, rc, kids, childBG, bgHex, border, hasBorder)
}

// renderVertical stacks children as table rows. This is the default for any
// container, auto-layout or not.
func (s *session) renderVertical(ctx context.Context, n *design.Node, rc renderCtx, kids []*design.Node, childBG design.RGB, bgHex string, border decl, hasBorder bool) (*etree.Element, error) {
	l := n.Layout

	if l.Mode != design.LayoutVertical {
		// free-form containers carry no ordering guarantee
		kids = append([]*design.Node(nil), kids...)
		sort.SliceStable(kids, func(i, j int) bool { return kids[i].Y < kids[j].Y })
	}

	// Unwrap fast path: a wrapper with a single child, no own visible effect
	// and no meaningful offset adds nothing but a nested table. Recursion
	// makes chains of such wrappers collapse to zero tables.
	if len(kids) == 1 && !rc.root && bgHex == "" && !hasBorder &&
		l.PaddingLeft == 0 && l.PaddingRight == 0 &&
		l.PaddingTop <= gapTolerance && l.PaddingBottom <= gapTolerance &&
		kids[0].Y-l.PaddingTop <= gapTolerance {
		return s.renderNode(ctx, kids[0], rc.child(rc.avail, childBG))
	}

	hasL, hasR := l.PaddingLeft > 0, l.PaddingRight > 0
	cols := 1
	if hasL {
		cols++
	}
	if hasR {
		cols++
	}
	contentWidth := math.Max(rc.avail-l.PaddingLeft-l.PaddingRight, 1)

	var rows []*etree.Element
	prevBottom := l.PaddingTop

	for i := 0; i < len(kids); {
		if kids[i].Kind == design.KindText {
			// consecutive text siblings render as one group
			j := i
			for j < len(kids) && kids[j].Kind == design.KindText {
				j++
			}
			group := kids[i:j]

			if gap := group[0].Y - prevBottom; gap > gapTolerance {
				rows = append(rows, fillerRow(roundPx(gap), cols))
			}

			groupRows, bottom, err := s.renderTextGroup(ctx, group, rc.child(contentWidth, childBG))
			if err != nil {
				return nil, err
			}
			prevBottom = bottom

			if !hasL && !hasR {
				// no side padding - group rows splice directly into ours
				rows = append(rows, groupRows...)
			} else if len(groupRows) > 0 {
				sub := newSubTable()
				for _, r := range groupRows {
					sub.AddChild(r)
				}
				row := etree.NewElement("tr")
				if hasL {
					row.AddChild(paddingCell(l.PaddingLeft))
				}
				row.CreateElement("td").AddChild(sub)
				if hasR {
					row.AddChild(paddingCell(l.PaddingRight))
				}
				rows = append(rows, row)
			}
			i = j
			continue
		}

		c := kids[i]
		if gap := c.Y - prevBottom; gap > gapTolerance {
			rows = append(rows, fillerRow(roundPx(gap), cols))
		}

		el, err := s.renderNode(ctx, c, rc.child(contentWidth, childBG))
		if err != nil {
			return nil, err
		}
		if el != nil {
			row := etree.NewElement("tr")
			if hasL {
				row.AddChild(paddingCell(l.PaddingLeft))
			}
			row.CreateElement("td").AddChild(el)
			if hasR {
				row.AddChild(paddingCell(l.PaddingRight))
			}
			rows = append(rows, row)
		}
		prevBottom = c.Y + c.Height
		i++
	}

	if pt := roundPx(l.PaddingTop); pt > 0 {
		rows = append([]*etree.Element{fillerRow(pt, cols)}, rows...)
	}
	if pb := roundPx(l.PaddingBottom); pb > 0 {
		rows = append(rows, fillerRow(pb, cols))
	}

	return s.assembleTable(n, rc, rows, bgHex, border, hasBorder), nil
}

// renderTextGroup renders consecutive text siblings as rows with internal
// gaps as filler rows. Returns rows and the bottom Y of the last child.
func (s *session) renderTextGroup(ctx context.Context, group []*design.Node, rc renderCtx) ([]*etree.Element, float64, error) {
	var rows []*etree.Element
	var prevBottom float64
	for i, c := range group {
		if i > 0 {
			if gap := c.Y - prevBottom; gap > gapTolerance {
				rows = append(rows, fillerRow(roundPx(gap), 1))
			}
		}
		el, err := s.renderNode(ctx, c, rc)
		if err != nil {
			return nil, 0, err
		}
		if el != nil {
			row := etree.NewElement("tr")
			row.CreateElement("td").AddChild(el)
			rows = append(rows, row)
		}
		prevBottom = c.Y + c.Height
	}
	return rows, prevBottom, nil
}

// renderHorizontal lays children out side by side in a single row.
func (s *session) renderHorizontal(ctx context.Context, n *design.Node, rc renderCtx, kids []*design.Node, childBG design.RGB, bgHex string, border decl, hasBorder bool) (*etree.Element, error) {
	l := n.Layout
	hasL, hasR := l.PaddingLeft > 0, l.PaddingRight > 0
	spacing := roundPx(l.ItemSpacing)

	row := etree.NewElement("tr")
	cols := 0
	if hasL {
		row.AddChild(paddingCell(l.PaddingLeft))
		cols++
	}
	for i, c := range kids {
		if i > 0 && spacing > 0 {
			row.AddChild(paddingCell(l.ItemSpacing))
			cols++
		}
		td := etree.NewElement("td")
		td.CreateAttr("valign", valign(l.CounterAlign))
		el, err := s.renderNode(ctx, c, rc.child(c.Width, childBG))
		if err != nil {
			return nil, err
		}
		if el != nil {
			td.AddChild(el)
		}
		row.AddChild(td)
		cols++
	}
	if hasR {
		row.AddChild(paddingCell(l.PaddingRight))
		cols++
	}

	var rows []*etree.Element
	if pt := roundPx(l.PaddingTop); pt > 0 {
		rows = append(rows, fillerRow(pt, cols))
	}
	if cols > 0 {
		rows = append(rows, row)
	}
	if pb := roundPx(l.PaddingBottom); pb > 0 {
		rows = append(rows, fillerRow(pb, cols))
	}

	return s.assembleTable(n, rc, rows, bgHex, border, hasBorder), nil
}

// renderShape renders a filled spacer: a full width table with one cell of
// the node's height. The 1px font-size/line-height pair keeps legacy
// renderers from collapsing the empty cell.
func (s *session) renderShape(n *design.Node, rc renderCtx) *etree.Element {
	h := roundPx(n.Height)
	if h < 1 {
		return nil
	}
	bgHex, _, hasBG := resolveColor(n.Fills, rc.bg)
	border, hasBorder := borderDecl(n)

	table := newSubTable()
	table.CreateAttr("width", "100%")
	row := table.CreateElement("tr")
	td := row.CreateElement("td")
	td.CreateAttr("height", fmt.Sprint(h))
	decls := []decl{
		{"height", fmt.Sprintf("%dpx", h)},
		{"font-size", "1px"},
		{"line-height", "1px"},
	}
	if hasBG {
		td.CreateAttr("bgcolor", bgHex)
		decls = append(decls, decl{"background-color", bgHex})
	}
	if hasBorder {
		decls = append(decls, border)
	}
	td.CreateAttr("style", SanitizeStyle(serializeDecls(decls)))
	return table
}

// renderTextBlock wraps the text engine output in a single-row table carrying
// the block's alignment and base style.
func (s *session) renderTextBlock(ctx context.Context, n *design.Node, rc renderCtx) (*etree.Element, error) {
	if strings.TrimSpace(n.Characters()) == "" {
		return nil, nil
	}
	base, tokens, err := s.processTextBlock(ctx, n, rc.bg)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	table := newSubTable()
	table.CreateAttr("width", "100%")
	td := table.CreateElement("tr").CreateElement("td")
	td.CreateAttr("align", n.TextAlign.String())
	td.CreateAttr("style", SanitizeStyle(serializeDecls(base.decls())))
	for _, t := range tokens {
		td.AddChild(t)
	}
	return table, nil
}

// renderBulletPair renders the glyph and the body side by side: a shrunk
// glyph cell, a fixed spacer sized to item spacing and the body cell. Each
// cell carries its own run's base style.
func (s *session) renderBulletPair(ctx context.Context, n *design.Node, rc renderCtx) (*etree.Element, error) {
	kids := n.VisibleChildren()
	bullet, body := kids[0], kids[1]

	bulletBase, bulletToks, err := s.processTextBlock(ctx, bullet, rc.bg)
	if err != nil {
		return nil, err
	}
	bodyBase, bodyToks, err := s.processTextBlock(ctx, body, rc.bg)
	if err != nil {
		return nil, err
	}

	table := newSubTable()
	table.CreateAttr("width", "100%")
	row := table.CreateElement("tr")

	glyphTD := row.CreateElement("td")
	glyphTD.CreateAttr("width", "1")
	glyphTD.CreateAttr("valign", "top")
	glyphTD.CreateAttr("style", SanitizeStyle(serializeDecls(append(bulletBase.decls(), decl{"white-space", "nowrap"}))))
	for _, t := range bulletToks {
		glyphTD.AddChild(t)
	}

	if spacing := roundPx(n.Layout.ItemSpacing); spacing > 0 {
		row.AddChild(paddingCell(n.Layout.ItemSpacing))
	}

	bodyTD := row.CreateElement("td")
	bodyTD.CreateAttr("valign", "top")
	bodyTD.CreateAttr("style", SanitizeStyle(serializeDecls(bodyBase.decls())))
	for _, t := range bodyToks {
		bodyTD.AddChild(t)
	}
	return table, nil
}

// assembleTable builds the outer container table: hygiene attributes, width
// handling per width mode, background as both style and legacy attribute.
func (s *session) assembleTable(n *design.Node, rc renderCtx, rows []*etree.Element, bgHex string, border decl, hasBorder bool) *etree.Element {
	if len(rows) == 0 {
		if bgHex == "" && !hasBorder {
			return nil
		}
		// visible effect with nothing inside still occupies its area
		rows = []*etree.Element{fillerRow(max(roundPx(n.Height), 1), 1)}
	}

	table := newSubTable()
	var decls []decl

	mode := rc.widthMode
	if mode == config.WidthModeFluidMax && !rc.root && n.Width < s.opts.FluidMaxThreshold {
		mode = config.WidthModeLiteral
	}
	switch mode {
	case config.WidthModeLiteral:
		w := min(roundPx(n.Width), roundPx(rc.avail))
		table.CreateAttr("width", fmt.Sprint(w))
		decls = append(decls, decl{"width", fmt.Sprintf("%dpx", w)})
	case config.WidthModeFluidMax:
		table.CreateAttr("width", "100%")
		decls = append(decls,
			decl{"width", "100%"},
			decl{"max-width", fmt.Sprintf("%dpx", roundPx(n.Width))})
	default:
		table.CreateAttr("width", "100%")
		decls = append(decls, decl{"width", "100%"})
	}

	if bgHex != "" {
		table.CreateAttr("bgcolor", bgHex)
		decls = append(decls, decl{"background-color", bgHex})
	}
	if hasBorder {
		decls = append(decls, border)
	}
	table.CreateAttr("style", SanitizeStyle(serializeDecls(decls)))

	for _, r := range rows {
		table.AddChild(r)
	}
	return table
}

// borderDecl resolves the node's first visible stroke into a border
// declaration, blending the color against the nearest opaque ancestor
// background.
func borderDecl(n *design.Node) (decl, bool) {
	if n.StrokeWeight <= 0 {
		return decl{}, false
	}
	hex, _, ok := resolveColor(n.Strokes, ancestorBackground(n))
	if !ok {
		return decl{}, false
	}
	return decl{"border", fmt.Sprintf("%dpx solid %s", max(roundPx(n.StrokeWeight), 1), hex)}, true
}

// newSubTable creates a table with the hygiene attributes every emitted
// table carries.
func newSubTable() *etree.Element {
	t := etree.NewElement("table")
	t.CreateAttr("cellpadding", "0")
	t.CreateAttr("cellspacing", "0")
	t.CreateAttr("border", "0")
	t.CreateAttr("role", "presentation")
	return t
}

// fillerRow reproduces a vertical gap. The height attribute alone is ignored
// by some legacy renderers, hence the matching font-size/line-height pair.
func fillerRow(h, cols int) *etree.Element {
	row := etree.NewElement("tr")
	td := row.CreateElement("td")
	if cols > 1 {
		td.CreateAttr("colspan", fmt.Sprint(cols))
	}
	td.CreateAttr("height", fmt.Sprint(h))
	td.CreateAttr("style", fmt.Sprintf("font-size:%dpx;line-height:%dpx", h, h))
	return row
}

// paddingCell reproduces a horizontal gap as a fixed width cell.
func paddingCell(w float64) *etree.Element {
	td := etree.NewElement("td")
	px := max(roundPx(w), 1)
	td.CreateAttr("width", fmt.Sprint(px))
	td.CreateAttr("style", fmt.Sprintf("width:%dpx;font-size:1px;line-height:1px", px))
	return td
}

func valign(a design.Align) string {
	switch a {
	case design.AlignCenter:
		return "middle"
	case design.AlignEnd:
		return "bottom"
	default:
		return "top"
	}
}

func roundPx(v float64) int {
	return int(math.Round(v))
}
