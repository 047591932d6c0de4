package design

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"

	"demc/utils/images"
)

// ErrFontUnavailable is returned by LoadFont when the snapshot does not carry
// the requested family/style. Callers are expected to degrade to fallback
// stacks rather than abort.
var ErrFontUnavailable = errors.New("font unavailable")

// Document is a loaded design snapshot. It owns the node tree and implements
// the host primitives the conversion engine needs: font loading and raster
// export. Nothing here is mutated after Parse returns.
type Document struct {
	Name   string
	Roots  []*Node
	Images map[string][]byte // raster bytes by paint reference

	fonts map[string]map[string]bool // family -> style set
}

// LoadFont makes sure the given family/style is available before any run
// using it is styled. For snapshot documents there is nothing to fetch, the
// call only validates against the snapshot font table.
func (d *Document) LoadFont(ctx context.Context, family, style string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	styles, ok := d.fonts[family]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFontUnavailable, family)
	}
	if style != "" && !styles[style] {
		return fmt.Errorf("%w: %s %s", ErrFontUnavailable, family, style)
	}
	return nil
}

// ExportRaster renders the node subtree as PNG bytes at the given linear
// scale. Rectangles and ellipses draw their fills and strokes, vector
// primitives rasterize their path data, containers compose children on top of
// their own background. Text nodes inside exported subtrees are not supported
// and are skipped.
func (d *Document) ExportRaster(ctx context.Context, n *Node, scale float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid raster scale %v", scale)
	}
	w := int(math.Round(n.Width * scale))
	h := int(math.Round(n.Height * scale))
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("node %q has no exportable area", n.Name)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := d.drawNode(ctx, canvas, n, 0, 0, scale); err != nil {
		return nil, err
	}
	return images.EncodePNG(canvas)
}

func (d *Document) drawNode(ctx context.Context, dst *image.RGBA, n *Node, ox, oy, scale float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !n.Visible || n.Opacity <= 0 {
		return nil
	}

	switch n.Kind {
	case KindVector, KindLine, KindRectangle, KindEllipse:
		if err := d.drawImageFills(n, dst, ox, oy, scale); err != nil {
			return err
		}
		svg := nodeSVG(n)
		if svg == "" {
			return nil
		}
		img, err := images.RasterizeSVG([]byte(svg), scaled(n.Width, scale), scaled(n.Height, scale))
		if err != nil {
			return fmt.Errorf("node %q: %w", n.Name, err)
		}
		compose(dst, img, ox, oy, scale)
		return nil

	case KindFrame, KindGroup:
		if svg := backgroundSVG(n); svg != "" {
			img, err := images.RasterizeSVG([]byte(svg), scaled(n.Width, scale), scaled(n.Height, scale))
			if err != nil {
				return fmt.Errorf("node %q: %w", n.Name, err)
			}
			compose(dst, img, ox, oy, scale)
		}
		if err := d.drawImageFills(n, dst, ox, oy, scale); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := d.drawNode(ctx, dst, c, ox+c.X, oy+c.Y, scale); err != nil {
				return err
			}
		}
		return nil

	case KindText:
		// text never classifies as image-like, nothing to draw
		return nil

	default:
		return nil
	}
}

func (d *Document) drawImageFills(n *Node, dst *image.RGBA, ox, oy, scale float64) error {
	for _, p := range n.Fills {
		if !p.Visible || p.Type != PaintImage {
			continue
		}
		raw, ok := d.Images[p.ImageRef]
		if !ok {
			return fmt.Errorf("node %q references unknown image %q", n.Name, p.ImageRef)
		}
		src, err := images.Decode(raw)
		if err != nil {
			return fmt.Errorf("node %q image %q: %w", n.Name, p.ImageRef, err)
		}
		scaledSrc := images.Resample(src, scaled(n.Width, scale), scaled(n.Height, scale))
		compose(dst, scaledSrc, ox, oy, scale)
	}
	return nil
}

// compose draws src over dst at node offset (in design units).
func compose(dst *image.RGBA, src image.Image, ox, oy, scale float64) {
	x := int(math.Round(ox * scale))
	y := int(math.Round(oy * scale))
	b := src.Bounds()
	r := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	xdraw.Draw(dst, r, src, b.Min, xdraw.Over)
}

func scaled(v, scale float64) int {
	return max(int(math.Round(v*scale)), 1)
}

// nodeSVG synthesizes minimal SVG markup for a drawable leaf node.
func nodeSVG(n *Node) string {
	fill, hasFill := n.FirstVisibleFill()
	stroke, hasStroke := n.FirstVisibleStroke()
	if hasFill && fill.Type == PaintImage {
		hasFill = false // drawn separately
	}
	if !hasFill && !hasStroke && n.VectorPath == "" {
		return ""
	}

	var shape strings.Builder
	switch n.Kind {
	case KindRectangle:
		fmt.Fprintf(&shape, `<rect x="0" y="0" width="%g" height="%g"`, n.Width, n.Height)
	case KindEllipse:
		fmt.Fprintf(&shape, `<ellipse cx="%g" cy="%g" rx="%g" ry="%g"`, n.Width/2, n.Height/2, n.Width/2, n.Height/2)
	case KindVector, KindLine:
		if n.VectorPath == "" {
			return ""
		}
		fmt.Fprintf(&shape, `<path d="%s"`, n.VectorPath)
	default:
		return ""
	}

	if hasFill {
		fmt.Fprintf(&shape, ` fill="%s" fill-opacity="%g"`, svgColor(paintColor(fill)), fill.Opacity)
	} else {
		shape.WriteString(` fill="none"`)
	}
	if hasStroke && n.StrokeWeight > 0 {
		fmt.Fprintf(&shape, ` stroke="%s" stroke-opacity="%g" stroke-width="%g"`, svgColor(paintColor(stroke)), stroke.Opacity, n.StrokeWeight)
	}
	shape.WriteString("/>")

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g">%s</svg>`,
		math.Max(n.Width, 1), math.Max(n.Height, 1), shape.String())
}

// backgroundSVG synthesizes container background, a full size rectangle.
func backgroundSVG(n *Node) string {
	fill, ok := n.FirstVisibleFill()
	if !ok || fill.Type == PaintImage {
		return ""
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %g %g"><rect x="0" y="0" width="%g" height="%g" fill="%s" fill-opacity="%g"/></svg>`,
		math.Max(n.Width, 1), math.Max(n.Height, 1), n.Width, n.Height, svgColor(paintColor(fill)), fill.Opacity)
}

// paintColor returns the representative color of a paint: the solid color or
// the first gradient stop.
func paintColor(p Paint) RGB {
	if p.Type == PaintGradient && len(p.Stops) > 0 {
		return p.Stops[0].Color
	}
	return p.Color
}

func svgColor(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
