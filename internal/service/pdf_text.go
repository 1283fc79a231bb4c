package service

import (
	"fmt"
	"strings"

	"thesis-catalog/internal/domain"

	"github.com/gen2brain/go-fitz"
)

// FitzText implements domain.PDFText on top of MuPDF via go-fitz.
// Documents are opened per call; callers hold no handle state.
type FitzText struct {
	logger domain.Logger
}

// NewFitzText creates a new PDF text reader
func NewFitzText(logger domain.Logger) *FitzText {
	return &FitzText{logger: logger}
}

// PageCount returns the number of pages, or an error when the file cannot be
// parsed as a PDF.
func (t *FitzText) PageCount(path string) (int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}

// PageText extracts the plain text of a single zero-based page.
func (t *FitzText) PageText(path string, page int) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if page < 0 || page >= doc.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", page, doc.NumPage())
	}

	text, err := doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return strings.TrimSpace(text), nil
}

// PageTextRange extracts the text of pages [from, from+count), clamped to the
// document's page count. A page that fails to extract becomes an empty string
// so callers keep their page alignment.
func (t *FitzText) PageTextRange(path string, from, count int) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if from < 0 {
		from = 0
	}
	to := from + count
	if to > numPages {
		to = numPages
	}

	texts := make([]string, 0, to-from)
	for page := from; page < to; page++ {
		text, err := doc.Text(page)
		if err != nil {
			t.logger.Warn("Failed to extract text from page", "page", page, "error", err)
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}
