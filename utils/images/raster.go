// Package images holds low level raster helpers shared by export code.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// maxRasterDim is the maximum pixel dimension (width or height) allowed when
// rasterizing. Prevents OOM on malformed geometry (a node claiming to be
// 100000 units wide would otherwise allocate gigabytes for the RGBA buffer).
const maxRasterDim = 8192

// RasterizeSVG renders SVG markup to an RGBA image of the given target size.
// When either target dimension is <=0 the SVG viewBox dimensions are used.
// Background is left transparent so results can be composed.
func RasterizeSVG(svgData []byte, targetW, targetH int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	w, h := targetW, targetH
	if w <= 0 {
		w = int(math.Ceil(icon.ViewBox.W))
	}
	if h <= 0 {
		h = int(math.Ceil(icon.ViewBox.H))
	}
	w = max(w, 1)
	h = max(h, 1)

	// Clamp preserving aspect ratio.
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// Decode decodes raster bytes into an image. Format is detected from the data.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode image: %w", err)
	}
	return img, nil
}

// Resample scales an image to exactly w x h pixels.
func Resample(img image.Image, w, h int) image.Image {
	w = max(min(w, maxRasterDim), 1)
	h = max(min(h, maxRasterDim), 1)
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("unable to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
