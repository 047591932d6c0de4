package email

import (
	"fmt"
	"math"

	"demc/design"
)

// opaqueEnough is the alpha above which blending is skipped and a color is
// used verbatim.
const opaqueEnough = 0.99

// resolveColor resolves the effective color of an ordered paint list against
// an inherited background. The first visible solid or gradient paint wins:
// nearly opaque colors pass through unchanged, anything else is
// alpha-composited over the inherited background. Image paints carry no color
// and are skipped. Returns ok=false when no color-bearing paint is visible.
func resolveColor(paints []design.Paint, inherited design.RGB) (hex string, rgb design.RGB, ok bool) {
	for _, p := range paints {
		if !p.Visible || p.Opacity <= 0 {
			continue
		}
		switch p.Type {
		case design.PaintSolid:
			rgb = composite(p.Color, p.Opacity, inherited)
			return hexRGB(rgb), rgb, true
		case design.PaintGradient:
			if len(p.Stops) == 0 {
				continue
			}
			stop := p.Stops[0]
			rgb = composite(stop.Color, stop.Alpha*p.Opacity, inherited)
			return hexRGB(rgb), rgb, true
		case design.PaintImage:
			// no color information
			continue
		}
	}
	return "", inherited, false
}

// composite applies the "over" operator per channel unless the foreground is
// effectively opaque.
func composite(fg design.RGB, alpha float64, bg design.RGB) design.RGB {
	if alpha >= opaqueEnough {
		return fg
	}
	return design.RGB{
		R: fg.R*alpha + bg.R*(1-alpha),
		G: fg.G*alpha + bg.G*(1-alpha),
		B: fg.B*alpha + bg.B*(1-alpha),
	}
}

// ancestorBackground walks parents looking for an opaque enough solid or
// gradient fill to blend border colors against. Defaults to white at the
// document root.
func ancestorBackground(n *design.Node) design.RGB {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if c, ok := opaqueFillColor(p.Fills); ok {
			return c
		}
	}
	return design.White
}

func opaqueFillColor(paints []design.Paint) (design.RGB, bool) {
	for _, p := range paints {
		if !p.Visible || p.Opacity < opaqueEnough {
			continue
		}
		switch p.Type {
		case design.PaintSolid:
			return p.Color, true
		case design.PaintGradient:
			if len(p.Stops) > 0 && p.Stops[0].Alpha >= opaqueEnough {
				return p.Stops[0].Color, true
			}
		}
	}
	return design.RGB{}, false
}

func hexRGB(c design.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}
