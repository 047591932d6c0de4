package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/beevik/etree"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"demc/config"
	"demc/design"
)

// isImageLike classifies nodes which render as a single <img> instead of
// structured markup: shapes with an image fill, vector primitives, and
// composites built entirely out of such nodes.
func isImageLike(n *design.Node) bool {
	switch n.Kind {
	case design.KindVector, design.KindLine:
		return true
	case design.KindRectangle, design.KindEllipse:
		return n.HasImageFill()
	case design.KindFrame, design.KindGroup:
		// a childless composite is empty, not an image
		if len(n.Children) == 0 {
			return false
		}
		for _, c := range n.Children {
			if c.Kind == design.KindText || !isImageLike(c) {
				return false
			}
		}
		return true
	case design.KindText:
		return false
	default:
		return false
	}
}

// renderImage renders an image-like node per the active export mode. Export
// failures degrade to a local inline marker and never abort the traversal.
func (s *session) renderImage(ctx context.Context, n *design.Node, rc renderCtx) (*etree.Element, error) {
	if n.Width < 1 || n.Height < 1 {
		return nil, nil
	}

	width := int(math.Round(n.Width))
	height := int(math.Round(n.Height))
	if avail := int(math.Round(rc.avail)); width > avail && avail > 0 {
		width = avail
	}

	var src string
	switch rc.imageMode {
	case config.ImageExportModePlaceholder:
		src = fmt.Sprintf("%s/%dx%d", s.opts.PlaceholderBaseURL, width, height)

	case config.ImageExportModeInline:
		data, err := s.doc.ExportRaster(ctx, n, s.opts.ExportScale)
		if err != nil {
			return s.exportFailed(n, err), nil
		}
		src = "data:" + sniffMIME(data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	case config.ImageExportModeAssets:
		data, err := s.doc.ExportRaster(ctx, n, s.opts.ExportScale)
		if err != nil {
			return s.exportFailed(n, err), nil
		}
		s.imageSeq++
		name := fmt.Sprintf("image-%d.png", s.imageSeq)
		s.assets = append(s.assets, Asset{Name: name, Data: data})
		src = "images/" + name
	}

	img := etree.NewElement("img")
	img.CreateAttr("src", src)
	img.CreateAttr("width", fmt.Sprint(width))
	img.CreateAttr("alt", n.Name)
	img.CreateAttr("style", SanitizeStyle(serializeDecls([]decl{
		{"display", "block"},
		{"width", fmt.Sprintf("%dpx", width)},
		{"max-width", "100%"},
		{"height", "auto"},
	})))
	return img, nil
}

// exportFailed emits the inline error marker naming the element.
func (s *session) exportFailed(n *design.Node, err error) *etree.Element {
	s.log.Warn("Image export failed", zap.String("node", n.Name), zap.Error(err))
	span := etree.NewElement("span")
	span.CreateAttr("style", "color:#cc0000;font-size:11px")
	span.SetText(fmt.Sprintf("[image %q export failed]", n.Name))
	return span
}

func sniffMIME(data []byte) string {
	if t, err := filetype.Match(data); err == nil && t.MIME.Value != "" {
		return t.MIME.Value
	}
	return "image/png"
}
