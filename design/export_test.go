package design

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"testing"
)

func decodePNGSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Exported data is not PNG: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestExportRaster_SolidRectangle(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "Box", "kind": "rectangle", "width": 40, "height": 20,
			 "fills": [{"type": "solid", "color": {"r": 1, "g": 0, "b": 0}}]}
		]
	}`)

	data, err := doc.ExportRaster(context.Background(), doc.Roots[0], 2)
	if err != nil {
		t.Fatalf("ExportRaster() error = %v", err)
	}

	w, h := decodePNGSize(t, data)
	if w != 80 || h != 40 {
		t.Errorf("Exported size = %dx%d, want 80x40 (scale 2)", w, h)
	}
}

func TestExportRaster_ImageFill(t *testing.T) {
	data := fmt.Sprintf(`{
		"images": {"photo": %q},
		"roots": [
			{"name": "Pic", "kind": "rectangle", "width": 30, "height": 10,
			 "fills": [{"type": "image", "imageRef": "photo"}]}
		]
	}`, pngB64(t, 4, 4))
	doc := mustParse(t, data)

	out, err := doc.ExportRaster(context.Background(), doc.Roots[0], 1)
	if err != nil {
		t.Fatalf("ExportRaster() error = %v", err)
	}
	w, h := decodePNGSize(t, out)
	if w != 30 || h != 10 {
		t.Errorf("Exported size = %dx%d, want 30x10", w, h)
	}
}

func TestExportRaster_Composite(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "Logo", "kind": "frame", "width": 50, "height": 50,
			 "fills": [{"type": "solid", "color": {"r": 0, "g": 0, "b": 1}}],
			 "children": [
				{"name": "Dot", "kind": "ellipse", "x": 10, "y": 10, "width": 20, "height": 20,
				 "fills": [{"type": "solid", "color": {"r": 1, "g": 1, "b": 1}}]},
				{"name": "Hidden", "kind": "rectangle", "width": 5, "height": 5, "visible": false}
			]}
		]
	}`)

	out, err := doc.ExportRaster(context.Background(), doc.Roots[0], 1)
	if err != nil {
		t.Fatalf("ExportRaster() error = %v", err)
	}
	w, h := decodePNGSize(t, out)
	if w != 50 || h != 50 {
		t.Errorf("Exported size = %dx%d, want 50x50", w, h)
	}
}

func TestExportRaster_Errors(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "Empty", "kind": "rectangle", "width": 0, "height": 10}
		]
	}`)

	if _, err := doc.ExportRaster(context.Background(), doc.Roots[0], 1); err == nil {
		t.Error("Expected error for node without exportable area")
	}
	if _, err := doc.ExportRaster(context.Background(), doc.Roots[0], 0); err == nil {
		t.Error("Expected error for non-positive scale")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := doc.ExportRaster(ctx, doc.Roots[0], 1); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
