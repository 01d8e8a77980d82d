// Package preview rasterizes single pages of in-memory PDF documents for
// display in the dashboard.
package preview

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

const baseDPI = 72

// Renderer renders page previews as JPEG images.
type Renderer struct {
	Quality  int     // JPEG quality, 1-100
	MaxScale float64 // upper bound on the requested scale factor
}

// NewRenderer returns a Renderer with the given JPEG quality and scale cap.
func NewRenderer(quality int, maxScale float64) *Renderer {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	if maxScale <= 0 {
		maxScale = 4
	}
	return &Renderer{Quality: quality, MaxScale: maxScale}
}

// RenderPage rasterizes the zero-based pageIndex of the given document at
// scale times the base resolution and returns JPEG bytes plus dimensions.
func (r *Renderer) RenderPage(data []byte, pageIndex int, scale float64) ([]byte, int, int, error) {
	if scale <= 0 {
		scale = 1
	}
	if scale > r.MaxScale {
		scale = r.MaxScale
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("preview: open document: %w", err)
	}
	defer doc.Close()

	if pageIndex < 0 || pageIndex >= doc.NumPage() {
		return nil, 0, 0, fmt.Errorf("preview: page index %d out of range (document has %d pages)", pageIndex, doc.NumPage())
	}

	img, err := doc.ImageDPI(pageIndex, baseDPI*scale)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("preview: render page %d: %w", pageIndex, err)
	}

	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.Quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("preview: encode JPEG: %w", err)
	}

	log.Debug().
		Int("page_index", pageIndex).
		Float64("scale", scale).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("jpeg_size", buf.Len()).
		Msg("rendered page preview")

	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}
