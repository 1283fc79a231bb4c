package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"thesis-catalog/internal/domain"
	apperrors "thesis-catalog/pkg/errors"

	"github.com/disintegration/imaging"
)

const (
	// previewScale is the linear render scale for first-page previews.
	previewScale = 2.0
	// thumbnailBox bounds the preview thumbnail; aspect ratio is preserved.
	thumbnailBox = 550
)

// IngestionPipeline drives an upload from raw PDF to committed record:
// text access, metadata extraction, keyword scoring, vault placement,
// optional watermark, store commit. Each attempt runs to a terminal state;
// there is no automatic retry beyond the store's own bounded busy wait.
type IngestionPipeline struct {
	pdf         domain.PDFText
	rasterizer  domain.PageRasterizer
	metadata    *MetadataExtractor
	keywords    domain.KeywordExtractor
	vault       domain.FileVault
	store       domain.RecordStore
	watermarker domain.Watermarker
	courses     []string
	keywordTopN int
	logger      domain.Logger
}

// NewIngestionPipeline wires the pipeline. watermarker may be nil when
// watermarking is disabled for the deployment.
func NewIngestionPipeline(
	pdf domain.PDFText,
	rasterizer domain.PageRasterizer,
	metadata *MetadataExtractor,
	keywords domain.KeywordExtractor,
	vault domain.FileVault,
	store domain.RecordStore,
	watermarker domain.Watermarker,
	courses []string,
	keywordTopN int,
	logger domain.Logger,
) *IngestionPipeline {
	return &IngestionPipeline{
		pdf:         pdf,
		rasterizer:  rasterizer,
		metadata:    metadata,
		keywords:    keywords,
		vault:       vault,
		store:       store,
		watermarker: watermarker,
		courses:     courses,
		keywordTopN: keywordTopN,
		logger:      logger,
	}
}

// Preview opens the source PDF and derives everything the upload form needs:
// candidate metadata, keywords, and a first-page thumbnail. Nothing is
// persisted.
func (p *IngestionPipeline) Preview(ctx context.Context, sourcePath string) (*domain.PreviewResult, error) {
	pageCount, err := p.pdf.PageCount(sourcePath)
	if err != nil {
		return nil, apperrors.NewUnreadablePdfError("source file is not a readable PDF", err)
	}
	if pageCount == 0 {
		return nil, apperrors.NewUnreadablePdfError("source PDF has no pages", nil)
	}

	texts, err := p.pdf.PageTextRange(sourcePath, 0, keywordSourcePages)
	if err != nil {
		return nil, apperrors.NewUnreadablePdfError("failed to read source PDF text", err)
	}

	guess := p.metadata.Extract(texts, filepath.Base(sourcePath))
	keywords := p.keywords.Extract(ctx, guess.KeywordSourceText, p.keywordTopN)

	img, err := p.rasterizer.RenderPage(sourcePath, 0, previewScale)
	if err != nil {
		return nil, apperrors.NewUnreadablePdfError("failed to render first page", err)
	}
	thumb := imaging.Fit(img, thumbnailBox, thumbnailBox, imaging.Lanczos)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, apperrors.NewInternalError("failed to encode thumbnail", err)
	}

	return &domain.PreviewResult{
		TitleGuess:   guess.TitleGuess,
		AuthorsGuess: guess.AuthorsGuess,
		YearGuess:    guess.YearGuess,
		Keywords:     keywords,
		Thumbnail:    buf.Bytes(),
	}, nil
}

// Ingest validates the submitted fields, places the file, optionally stamps
// it, and commits a new record. No side effects occur before every validation
// check has passed.
func (p *IngestionPipeline) Ingest(ctx context.Context, fields domain.ThesisFields, sourcePath string) (*domain.ThesisRecord, error) {
	year, problems := p.validate(fields, sourcePath, true)
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("please fill in all required fields", problems...)
	}
	p.logger.Debug("Ingestion validated", "title", fields.Title)

	relPath, err := p.placeAndStamp(sourcePath, fields.Course)
	if err != nil {
		return nil, err
	}

	record := p.buildRecord(ctx, fields, year, relPath)
	committed, err := p.store.Insert(ctx, record)
	if err != nil {
		return nil, storeError(err)
	}

	p.logger.Info("Thesis ingested", "id", committed.ID, "course", committed.Course, "file", committed.FilePath)
	return committed, nil
}

// Update overwrites every field of an existing record except its id and
// upload timestamp. An empty sourcePath keeps the current stored file;
// otherwise the new copy is placed and the superseded file is deliberately
// left in the vault (other records or external references may still point at
// it; there is no reference counting).
func (p *IngestionPipeline) Update(ctx context.Context, id int64, fields domain.ThesisFields, sourcePath string) (*domain.ThesisRecord, error) {
	existing, err := p.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("thesis %d not found", id))
		}
		return nil, storeError(err)
	}

	year, problems := p.validate(fields, sourcePath, false)
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("please fill in all required fields", problems...)
	}

	relPath := existing.FilePath
	if sourcePath != "" {
		relPath, err = p.placeAndStamp(sourcePath, fields.Course)
		if err != nil {
			return nil, err
		}
	}

	record := p.buildRecord(ctx, fields, year, relPath)
	record.ID = id
	if err := p.store.Update(ctx, record); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("thesis %d not found", id))
		}
		return nil, storeError(err)
	}

	updated, err := p.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	p.logger.Info("Thesis updated", "id", id, "file", updated.FilePath)
	return updated, nil
}

// yearPattern requires exactly four digit characters; a sign prefix would
// parse as an integer but is not a submission year.
var yearPattern = regexp.MustCompile(`^\d{4}$`)

// validate collects every missing or malformed field, not just the first.
func (p *IngestionPipeline) validate(fields domain.ThesisFields, sourcePath string, requireSource bool) (int, []string) {
	var problems []string

	if strings.TrimSpace(fields.Title) == "" {
		problems = append(problems, "title")
	}
	if strings.TrimSpace(fields.Authors) == "" {
		problems = append(problems, "authors")
	}
	course := strings.TrimSpace(fields.Course)
	if course == "" || !p.knownCourse(course) {
		problems = append(problems, "course")
	}

	year := 0
	rawYear := strings.TrimSpace(fields.Year)
	if !yearPattern.MatchString(rawYear) {
		problems = append(problems, "year")
	} else {
		year, _ = strconv.Atoi(rawYear)
	}

	if requireSource && strings.TrimSpace(sourcePath) == "" {
		problems = append(problems, "file")
	}
	return year, problems
}

func (p *IngestionPipeline) knownCourse(course string) bool {
	for _, c := range p.courses {
		if c == course {
			return true
		}
	}
	return false
}

// placeAndStamp copies the source into the vault and applies the watermark
// when enabled. Watermark failure downgrades to a warning; the unwatermarked
// copy remains the committed artifact.
func (p *IngestionPipeline) placeAndStamp(sourcePath, course string) (string, error) {
	relPath, err := p.vault.Place(sourcePath, course, filepath.Base(sourcePath))
	if err != nil {
		return "", apperrors.NewFilePlacementError("failed to copy file into the vault", err)
	}
	p.logger.Debug("Ingestion file placed", "path", relPath)

	if p.watermarker != nil {
		if err := p.watermarker.Apply(p.vault.Resolve(relPath)); err != nil {
			wmErr := apperrors.NewWatermarkError("failed to stamp stored copy", err)
			p.logger.Warn("Watermark failed; keeping unwatermarked copy", "path", relPath, "error", wmErr)
		}
	}
	return relPath, nil
}

func (p *IngestionPipeline) buildRecord(ctx context.Context, fields domain.ThesisFields, year int, relPath string) *domain.ThesisRecord {
	keywords := p.keywords.Extract(ctx, strings.TrimSpace(fields.Title+" "+fields.Abstract), p.keywordTopN)
	return &domain.ThesisRecord{
		Title:    strings.TrimSpace(fields.Title),
		Abstract: strings.TrimSpace(fields.Abstract),
		Authors:  strings.TrimSpace(fields.Authors),
		Course:   strings.TrimSpace(fields.Course),
		Year:     year,
		Keywords: strings.Join(keywords, ", "),
		FilePath: relPath,
	}
}

// storeError maps any store failure, busy or structural, to the
// store-unavailable category the caller may retry.
func storeError(err error) error {
	if errors.Is(err, domain.ErrStoreBusy) {
		return apperrors.NewStoreUnavailableError("store is busy; try again", err)
	}
	return apperrors.NewStoreUnavailableError("store operation failed", err)
}
