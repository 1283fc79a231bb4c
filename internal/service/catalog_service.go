package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"thesis-catalog/internal/domain"
	apperrors "thesis-catalog/pkg/errors"
)

// maxSearchResults caps catalog queries.
const maxSearchResults = 100

// Catalog serves the read and maintenance side of the thesis store.
type Catalog struct {
	store      domain.RecordStore
	vault      domain.FileVault
	pdf        domain.PDFText
	rasterizer domain.PageRasterizer
	logger     domain.Logger
}

// NewCatalog creates a catalog service
func NewCatalog(store domain.RecordStore, vault domain.FileVault, pdf domain.PDFText, rasterizer domain.PageRasterizer, logger domain.Logger) *Catalog {
	return &Catalog{
		store:      store,
		vault:      vault,
		pdf:        pdf,
		rasterizer: rasterizer,
		logger:     logger,
	}
}

// Search returns matching records ordered by upload date descending. An empty
// result is a valid empty slice, not an error.
func (c *Catalog) Search(ctx context.Context, filter domain.SearchFilter) ([]*domain.ThesisRecord, error) {
	if filter.Limit <= 0 || filter.Limit > maxSearchResults {
		filter.Limit = maxSearchResults
	}
	records, err := c.store.Query(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	if records == nil {
		records = []*domain.ThesisRecord{}
	}
	return records, nil
}

// Get returns one record by id.
func (c *Catalog) Get(ctx context.Context, id int64) (*domain.ThesisRecord, error) {
	record, err := c.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("thesis %d not found", id))
		}
		return nil, storeError(err)
	}
	return record, nil
}

// Delete removes the row and, best effort, the backing file. A file that was
// already removed externally is reported, not treated as a failure.
func (c *Catalog) Delete(ctx context.Context, id int64) (*domain.DeleteResult, error) {
	record, err := c.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("thesis %d not found", id))
		}
		return nil, storeError(err)
	}

	if err := c.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("thesis %d not found", id))
		}
		return nil, storeError(err)
	}

	removed, err := c.vault.Remove(record.FilePath)
	if err != nil {
		c.logger.Warn("Failed to remove stored file", "path", record.FilePath, "error", err)
	}
	if !removed {
		c.logger.Warn("Stored file already missing on delete", "path", record.FilePath)
	}
	return &domain.DeleteResult{Deleted: true, FileMissing: !removed}, nil
}

// DeleteAll removes every row and every backing file it can find.
func (c *Catalog) DeleteAll(ctx context.Context) (*domain.BulkDeleteResult, error) {
	records, err := c.store.Query(ctx, domain.SearchFilter{})
	if err != nil {
		return nil, storeError(err)
	}

	var missing []string
	for _, record := range records {
		removed, err := c.vault.Remove(record.FilePath)
		if err != nil || !removed {
			missing = append(missing, record.Title)
		}
	}

	count, err := c.store.DeleteAll(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	c.logger.Info("Deleted all theses", "rows", count, "files_missing", len(missing))
	return &domain.BulkDeleteResult{RowsDeleted: count, FilesMissing: missing}, nil
}

// AbstractImages renders the first page whose text contains "abstract",
// plus the following page when one exists, as PNG images.
func (c *Catalog) AbstractImages(ctx context.Context, id int64) ([][]byte, error) {
	record, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	path := c.vault.Resolve(record.FilePath)

	pageCount, err := c.pdf.PageCount(path)
	if err != nil {
		return nil, apperrors.NewUnreadablePdfError("stored file is not a readable PDF", err)
	}

	for page := 0; page < pageCount; page++ {
		text, err := c.pdf.PageText(path, page)
		if err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(text), "abstract") {
			continue
		}

		pages := []int{page}
		if page+1 < pageCount {
			pages = append(pages, page+1)
		}
		images := make([][]byte, 0, len(pages))
		for _, n := range pages {
			img, err := c.rasterizer.RenderPage(path, n, previewScale)
			if err != nil {
				return nil, apperrors.NewInternalError("failed to render abstract page", err)
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return nil, apperrors.NewInternalError("failed to encode abstract page", err)
			}
			images = append(images, buf.Bytes())
		}
		return images, nil
	}

	return nil, apperrors.NewNotFoundError("no page containing an abstract was found")
}

// Filters enumerates the distinct courses and years present in the catalog.
func (c *Catalog) Filters(ctx context.Context) (*domain.FilterValues, error) {
	courses, err := c.store.DistinctCourses(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	years, err := c.store.DistinctYears(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return &domain.FilterValues{Courses: courses, Years: years}, nil
}

// Stats returns the record count and the most recent entries.
func (c *Catalog) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	total, err := c.store.Count(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	recent, err := c.store.Query(ctx, domain.SearchFilter{Limit: 10})
	if err != nil {
		return nil, storeError(err)
	}
	return &domain.CatalogStats{Total: total, Recent: recent}, nil
}

// Export copies every stored PDF into destRoot, organized by course.
func (c *Catalog) Export(ctx context.Context, destRoot string) (*domain.ExportResult, error) {
	if strings.TrimSpace(destRoot) == "" {
		return nil, apperrors.NewValidationError("destination is required", "destination")
	}
	records, err := c.store.Query(ctx, domain.SearchFilter{})
	if err != nil {
		return nil, storeError(err)
	}
	result, err := c.vault.ExportAll(records, destRoot)
	if err != nil {
		return nil, apperrors.NewFilePlacementError("export failed", err)
	}
	c.logger.Info("Export finished", "exported", result.Exported, "failed", len(result.FailedTitles))
	return result, nil
}
