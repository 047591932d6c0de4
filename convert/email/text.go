package email

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"demc/design"
)

// textStyle is the closed set of properties a text run can carry. Zero
// values mean "absent". Comparison is structural which makes the type usable
// directly as a tally key.
type textStyle struct {
	Color      string // hex
	FontFamily string // full fallback stack
	FontWeight int    // 400 or 700
	FontStyle  string // normal or italic
	FontSize   int    // rounded px
	LineHeight string // "" when automatic, otherwise "<n>px" or "<n>%"
	Decoration string // underline or none
}

// decls renders the style as CSS declarations in stable order.
func (s textStyle) decls() []decl {
	var out []decl
	if s.Color != "" {
		out = append(out, decl{"color", s.Color})
	}
	if s.FontFamily != "" {
		out = append(out, decl{"font-family", s.FontFamily})
	}
	if s.FontWeight != 0 {
		out = append(out, decl{"font-weight", strconv.Itoa(s.FontWeight)})
	}
	if s.FontStyle != "" {
		out = append(out, decl{"font-style", s.FontStyle})
	}
	if s.FontSize != 0 {
		out = append(out, decl{"font-size", strconv.Itoa(s.FontSize) + "px"})
	}
	if s.LineHeight != "" {
		out = append(out, decl{"line-height", s.LineHeight})
	}
	if s.Decoration != "" {
		out = append(out, decl{"text-decoration", s.Decoration})
	}
	return out
}

// diff returns the declarations by which this style differs from base.
// Only properties present on the run side are compared - an absent property
// never emits an override.
func (s textStyle) diff(base textStyle) []decl {
	var out []decl
	if s.Color != "" && s.Color != base.Color {
		out = append(out, decl{"color", s.Color})
	}
	if s.FontFamily != "" && s.FontFamily != base.FontFamily {
		out = append(out, decl{"font-family", s.FontFamily})
	}
	if s.FontWeight != 0 && s.FontWeight != base.FontWeight {
		out = append(out, decl{"font-weight", strconv.Itoa(s.FontWeight)})
	}
	if s.FontStyle != "" && s.FontStyle != base.FontStyle {
		out = append(out, decl{"font-style", s.FontStyle})
	}
	if s.FontSize != 0 && s.FontSize != base.FontSize {
		out = append(out, decl{"font-size", strconv.Itoa(s.FontSize) + "px"})
	}
	if s.LineHeight != "" && s.LineHeight != base.LineHeight {
		out = append(out, decl{"line-height", s.LineHeight})
	}
	if s.Decoration != "" && s.Decoration != base.Decoration {
		out = append(out, decl{"text-decoration", s.Decoration})
	}
	return out
}

// bulletGlyphs maps bullet glyph variants to the canonical glyph used on
// output. Keys double as the recognizer for bullet-pair containers.
var bulletGlyphs = map[string]string{
	"•": "•",
	"◦": "◦",
	"▪": "▪",
	"●": "•",
	"‣": "•",
	"·": "•",
	"-": "•",
	"–": "•",
	"*": "•",
}

// isBulletGlyph reports whether the trimmed text is exactly one recognized
// bullet glyph.
func isBulletGlyph(text string) bool {
	_, ok := bulletGlyphs[strings.TrimSpace(text)]
	return ok
}

type styledRun struct {
	text  string
	style textStyle
}

// processTextBlock segments a text node into style-homogeneous runs, computes
// the dominant base style and renders runs as inline markup tokens carrying
// only the differences from the base. The caller applies the base style to
// the containing cell.
func (s *session) processTextBlock(ctx context.Context, n *design.Node, inherited design.RGB) (textStyle, []etree.Token, error) {
	runs, err := s.styledRuns(ctx, n, inherited)
	if err != nil {
		return textStyle{}, nil, err
	}
	if len(runs) == 0 {
		return textStyle{}, nil, nil
	}

	base := baseStyle(runs)

	var tokens []etree.Token
	for _, run := range runs {
		content := substituteBullet(run.text)
		if content == "" {
			continue
		}

		diff := run.style.diff(base)
		switch {
		case len(diff) == 0:
			tokens = appendTextTokens(tokens, nil, content)
		case len(diff) == 1 && diff[0].name == "font-weight" && diff[0].value == "700":
			tokens = appendTextTokens(tokens, etree.NewElement("b"), content)
		case len(diff) == 1 && diff[0].name == "font-style" && diff[0].value == "italic":
			tokens = appendTextTokens(tokens, etree.NewElement("i"), content)
		default:
			span := etree.NewElement("span")
			span.CreateAttr("style", SanitizeStyle(serializeDecls(diff)))
			tokens = appendTextTokens(tokens, span, content)
		}
	}
	return base, tokens, nil
}

// styledRuns computes per-run style maps, merging adjacent runs whose styles
// come out identical so runs stay maximal.
func (s *session) styledRuns(ctx context.Context, n *design.Node, inherited design.RGB) ([]styledRun, error) {
	var out []styledRun
	for _, r := range n.Runs {
		if r.Characters == "" {
			continue
		}

		// font must be ready before the run is styled
		if err := s.doc.LoadFont(ctx, r.Family, r.Style); err != nil {
			if !errors.Is(err, design.ErrFontUnavailable) {
				return nil, err
			}
			s.log.Debug("Font not available, falling back", zap.String("family", r.Family), zap.String("style", r.Style))
		}

		st := textStyle{
			FontFamily: fontStack(r.Family, s.opts.FontStacks),
			FontWeight: 400,
			FontStyle:  "normal",
			FontSize:   int(math.Round(r.Size)),
			Decoration: "none",
		}
		lower := strings.ToLower(r.Style)
		if strings.Contains(lower, "bold") {
			st.FontWeight = 700
		}
		if strings.Contains(lower, "italic") {
			st.FontStyle = "italic"
		}
		if hex, _, ok := resolveColor(r.Fills, inherited); ok {
			st.Color = hex
		}
		switch r.LineHeight.Unit {
		case design.LineHeightPixels:
			st.LineHeight = strconv.Itoa(int(math.Round(r.LineHeight.Value))) + "px"
		case design.LineHeightPercent:
			st.LineHeight = strconv.Itoa(int(math.Round(r.LineHeight.Value))) + "%"
		}
		if r.Underline {
			st.Decoration = "underline"
		}

		if len(out) > 0 && out[len(out)-1].style == st {
			out[len(out)-1].text += r.Characters
			continue
		}
		out = append(out, styledRun{text: r.Characters, style: st})
	}
	return out, nil
}

// baseStyle picks the style with the greatest accumulated character count,
// ties broken by first occurrence. Hoisting the dominant style onto the
// containing cell minimizes inline overrides.
func baseStyle(runs []styledRun) textStyle {
	counts := make(map[textStyle]int, len(runs))
	var order []textStyle
	for _, r := range runs {
		if _, seen := counts[r.style]; !seen {
			order = append(order, r.style)
		}
		counts[r.style] += len([]rune(r.text))
	}

	best := order[0]
	for _, st := range order[1:] {
		if counts[st] > counts[best] {
			best = st
		}
	}
	return best
}

// substituteBullet replaces whole-trimmed-run bullet glyph variants with the
// canonical glyph.
func substituteBullet(text string) string {
	if glyph, ok := bulletGlyphs[strings.TrimSpace(text)]; ok {
		return glyph
	}
	return text
}

// appendTextTokens appends content to the token stream, inside wrapper when
// given. Newlines become explicit line breaks; character escaping is left to
// serialization.
func appendTextTokens(tokens []etree.Token, wrapper *etree.Element, content string) []etree.Token {
	if wrapper != nil {
		addTextWithBreaks(wrapper, content)
		return append(tokens, wrapper)
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i > 0 {
			tokens = append(tokens, etree.NewElement("br"))
		}
		if line != "" {
			tokens = append(tokens, etree.NewText(line))
		}
	}
	return tokens
}

func addTextWithBreaks(parent *etree.Element, content string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i > 0 {
			parent.CreateElement("br")
		}
		if line != "" {
			parent.CreateText(line)
		}
	}
}
