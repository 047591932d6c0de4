package design

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, data string) *Document {
	t.Helper()
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

// pngB64 returns base64 of a wxh PNG, for image paint fixtures.
func pngB64(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestParse_Defaults(t *testing.T) {
	doc := mustParse(t, `{
		"name": "Newsletter",
		"roots": [
			{"name": "Hero", "kind": "frame", "width": 600, "height": 200, "children": [
				{"name": "Box", "kind": "rectangle", "width": 100, "height": 40}
			]}
		]
	}`)

	if doc.Name != "Newsletter" {
		t.Errorf("Name = %q, want Newsletter", doc.Name)
	}
	if len(doc.Roots) != 1 {
		t.Fatalf("len(Roots) = %d, want 1", len(doc.Roots))
	}

	root := doc.Roots[0]
	if !root.Visible {
		t.Error("Visibility should default to true")
	}
	if root.Opacity != 1 {
		t.Errorf("Opacity = %v, should default to 1", root.Opacity)
	}
	if root.Parent() != nil {
		t.Error("Root node must not have a parent")
	}

	child := root.Children[0]
	if child.Parent() != root {
		t.Error("Child parent link is broken")
	}
	if child.Kind != KindRectangle {
		t.Errorf("Child kind = %s, want rectangle", child.Kind)
	}
}

func TestParse_TextNormalization(t *testing.T) {
	// "e" followed by combining acute accent must compose to a single rune
	doc := mustParse(t, `{
		"roots": [
			{"name": "T", "kind": "text", "width": 100, "height": 20,
			 "runs": [{"characters": "caf\u0065\u0301", "family": "Georgia", "size": 14}]}
		]
	}`)

	got := doc.Roots[0].Characters()
	if got != "café" {
		t.Errorf("Characters() = %q, want precomposed café", got)
	}
	if len([]rune(got)) != 4 {
		t.Errorf("rune count = %d, want 4", len([]rune(got)))
	}
}

func TestParse_PaintDefaults(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "Box", "kind": "rectangle", "width": 10, "height": 10,
			 "fills": [{"type": "solid", "color": {"r": 1, "g": 0, "b": 0}}],
			 "strokes": [{"type": "solid", "visible": false, "color": {"r": 0, "g": 0, "b": 0}}]}
		]
	}`)

	n := doc.Roots[0]
	fill, ok := n.FirstVisibleFill()
	if !ok {
		t.Fatal("Expected visible fill")
	}
	if !fill.Visible || fill.Opacity != 1 {
		t.Errorf("Fill defaults wrong: visible=%v opacity=%v", fill.Visible, fill.Opacity)
	}
	if fill.Color != (RGB{R: 1}) {
		t.Errorf("Fill color = %+v", fill.Color)
	}
	if _, ok := n.FirstVisibleStroke(); ok {
		t.Error("Invisible stroke should not be returned")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"unknown kind", `{"roots":[{"name":"x","kind":"portal","width":1,"height":1}]}`},
		{"negative geometry", `{"roots":[{"name":"x","kind":"frame","width":-5,"height":1}]}`},
		{"unknown layout mode", `{"roots":[{"name":"x","kind":"frame","width":1,"height":1,"layout":{"mode":"diagonal"}}]}`},
		{"negative padding", `{"roots":[{"name":"x","kind":"frame","width":1,"height":1,"layout":{"mode":"vertical","paddingTop":-1}}]}`},
		{"image paint without ref", `{"roots":[{"name":"x","kind":"rectangle","width":1,"height":1,"fills":[{"type":"image"}]}]}`},
		{"image paint unknown ref", `{"roots":[{"name":"x","kind":"rectangle","width":1,"height":1,"fills":[{"type":"image","imageRef":"nope"}]}]}`},
		{"bad image base64", `{"images":{"img1":"@@@"},"roots":[]}`},
		{"image not raster", `{"images":{"img1":"aGVsbG8="},"roots":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestParse_Images(t *testing.T) {
	data := fmt.Sprintf(`{
		"images": {"img1": %q},
		"roots": [
			{"name": "Pic", "kind": "rectangle", "width": 10, "height": 10,
			 "fills": [{"type": "image", "imageRef": "img1"}]}
		]
	}`, pngB64(t, 2, 2))

	doc := mustParse(t, data)
	if len(doc.Images["img1"]) == 0 {
		t.Fatal("Image bytes were not decoded")
	}
	if !doc.Roots[0].HasImageFill() {
		t.Error("HasImageFill() = false for image-filled node")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"name":"FromFile","roots":[]}`), 0644); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Name != "FromFile" {
		t.Errorf("Name = %q, want FromFile", doc.Name)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFont(t *testing.T) {
	doc := mustParse(t, `{
		"fonts": [{"family": "Georgia", "styles": ["Regular", "Bold"]}],
		"roots": []
	}`)

	ctx := context.Background()

	if err := doc.LoadFont(ctx, "Georgia", "Bold"); err != nil {
		t.Errorf("LoadFont(Georgia, Bold) error = %v", err)
	}
	if err := doc.LoadFont(ctx, "Georgia", ""); err != nil {
		t.Errorf("LoadFont(Georgia) error = %v", err)
	}

	err := doc.LoadFont(ctx, "Comic Sans MS", "Regular")
	if !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("LoadFont for unknown family = %v, want ErrFontUnavailable", err)
	}
	err = doc.LoadFont(ctx, "Georgia", "Black")
	if !errors.Is(err, ErrFontUnavailable) {
		t.Errorf("LoadFont for unknown style = %v, want ErrFontUnavailable", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := doc.LoadFont(cancelled, "Georgia", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("LoadFont with cancelled context = %v, want context.Canceled", err)
	}
}

func TestVisibleChildren(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "F", "kind": "frame", "width": 100, "height": 100, "children": [
				{"name": "a", "kind": "rectangle", "width": 1, "height": 1},
				{"name": "b", "kind": "rectangle", "width": 1, "height": 1, "visible": false},
				{"name": "c", "kind": "rectangle", "width": 1, "height": 1, "opacity": 0}
			]}
		]
	}`)

	kids := doc.Roots[0].VisibleChildren()
	if len(kids) != 1 || kids[0].Name != "a" {
		t.Errorf("VisibleChildren() = %d nodes, want only %q", len(kids), "a")
	}
}

func TestDumpTree(t *testing.T) {
	doc := mustParse(t, `{
		"roots": [
			{"name": "Hero", "kind": "frame", "width": 600, "height": 100, "children": [
				{"name": "Title", "kind": "text", "width": 200, "height": 20,
				 "runs": [{"characters": "Hello", "family": "Georgia", "size": 14}]},
				{"name": "Gone", "kind": "rectangle", "width": 1, "height": 1, "visible": false}
			]}
		]
	}`)

	out := DumpTree(doc.Roots)
	for _, want := range []string{`frame "Hero"`, `text "Title"`, `text: "Hello"`, "hidden"} {
		if !strings.Contains(out, want) {
			t.Errorf("DumpTree() output is missing %q:\n%s", want, out)
		}
	}
}
