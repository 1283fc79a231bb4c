package service

import (
	"fmt"
	"os"

	"thesis-catalog/internal/domain"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// StampWatermarker applies the deployment's diagonal semi-transparent text
// stamp, plus an optional logo image, to every page of a stored PDF.
type StampWatermarker struct {
	text     string
	logoPath string
	logger   domain.Logger
}

// NewStampWatermarker creates a watermarker. logoPath may be empty.
func NewStampWatermarker(text, logoPath string, logger domain.Logger) *StampWatermarker {
	return &StampWatermarker{text: text, logoPath: logoPath, logger: logger}
}

// Apply stamps every page and replaces the file in place. The replacement is
// atomic: the stamped copy is written next to the original and renamed over
// it, so a failure never leaves a half-written stored file.
func (w *StampWatermarker) Apply(path string) error {
	tmp := path + ".stamped"
	defer os.Remove(tmp)

	wm, err := api.TextWatermark(w.text, "font:Helvetica-Bold, points:30, col: 0.6 0.6 0.6, rot:45, sc:0.9 rel, op:0.3", true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build text stamp: %w", err)
	}
	if err := api.AddWatermarksFile(path, tmp, nil, wm, nil); err != nil {
		return fmt.Errorf("failed to stamp text: %w", err)
	}

	if w.logoPath != "" {
		logo, err := api.ImageWatermark(w.logoPath, "sc:0.2 rel, rot:0, op:0.2", true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("failed to build logo stamp: %w", err)
		}
		if err := api.AddWatermarksFile(tmp, "", nil, logo, nil); err != nil {
			return fmt.Errorf("failed to stamp logo: %w", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace original with stamped copy: %w", err)
	}
	return nil
}
