package pdfio

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"

	"github.com/narratext/narratext/constants"
)

// Renderer rasterizes PDF pages for the vision fallback.
type Renderer struct {
	doc *fitz.Document

	// MaxDimension caps the longest side of a rendered page; JPEGQuality
	// tunes compression. Zero values use the defaults.
	MaxDimension int
	JPEGQuality  int
}

// OpenRenderer opens the PDF at path for page rendering.
func OpenRenderer(path string) (*Renderer, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering %s: %w", path, err)
	}
	return &Renderer{doc: doc}, nil
}

// NumPages returns the page count.
func (r *Renderer) NumPages() int { return r.doc.NumPage() }

// RenderPage rasterizes one page (1-based), downscales it to the dimension
// cap, and returns it as a JPEG data URL ready for a vision request.
func (r *Renderer) RenderPage(ctx context.Context, pageNumber int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := r.doc.Image(pageNumber - 1)
	if err != nil {
		return "", fmt.Errorf("render page %d: %w", pageNumber, err)
	}

	maxDim := r.MaxDimension
	if maxDim <= 0 {
		maxDim = constants.VisionMaxDimension
	}
	quality := r.JPEGQuality
	if quality <= 0 {
		quality = constants.VisionJPEGQuality
	}

	scaled := downscale(img, maxDim)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode page %d: %w", pageNumber, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Close releases the underlying document.
func (r *Renderer) Close() error {
	if r.doc != nil {
		return r.doc.Close()
	}
	return nil
}

// downscale shrinks img so its longest side is at most maxDim. Images
// already under the cap pass through untouched.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return img
	}
	scale := float64(maxDim) / float64(longest)
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
