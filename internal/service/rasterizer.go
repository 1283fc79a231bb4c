package service

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer implements domain.PageRasterizer using MuPDF.
type FitzRasterizer struct{}

// NewFitzRasterizer creates a new page rasterizer
func NewFitzRasterizer() *FitzRasterizer {
	return &FitzRasterizer{}
}

// RenderPage renders the given zero-based page as an RGB bitmap. Scale is
// linear relative to the natural 72 DPI page size, so 2.0 renders at 144 DPI.
func (r *FitzRasterizer) RenderPage(path string, page int, scale float64) (image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, doc.NumPage())
	}
	if scale <= 0 {
		scale = 1.0
	}

	img, err := doc.ImageDPI(page, 72*scale)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}
	return img, nil
}
