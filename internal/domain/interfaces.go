package domain

import (
	"context"
	"image"
)

// RecordStore defines persistence operations for thesis records.
// Implementations must keep multi-step writes atomic and bound their wait on
// a locked store instead of blocking indefinitely.
type RecordStore interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, record *ThesisRecord) (*ThesisRecord, error)
	Update(ctx context.Context, record *ThesisRecord) error
	GetByID(ctx context.Context, id int64) (*ThesisRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Query(ctx context.Context, filter SearchFilter) ([]*ThesisRecord, error)
	DistinctCourses(ctx context.Context) ([]string, error)
	DistinctYears(ctx context.Context) ([]int, error)
	Count(ctx context.Context) (int64, error)
}

// FileVault manages the course-organized directory tree of stored PDFs.
type FileVault interface {
	// Place copies sourcePath into the course subdirectory under a sanitized,
	// collision-safe name and returns the vault-relative path of the copy.
	Place(sourcePath, courseCode, preferredName string) (string, error)

	// Remove deletes a stored file. The boolean is false when the file was
	// already missing; that is not an error.
	Remove(relPath string) (bool, error)

	// Resolve maps a vault-relative path to an absolute one.
	Resolve(relPath string) string

	// ExportAll copies every record's file into destRoot/<course>/, skipping
	// and reporting records whose backing file is missing.
	ExportAll(records []*ThesisRecord, destRoot string) (*ExportResult, error)
}

// PDFText exposes plain-text access to a PDF by path.
type PDFText interface {
	PageCount(path string) (int, error)
	PageText(path string, page int) (string, error)

	// PageTextRange returns the text of pages [from, from+count), clamped to
	// the document's page count.
	PageTextRange(path string, from, count int) ([]string, error)
}

// PageRasterizer renders a single PDF page to an in-memory RGB bitmap.
type PageRasterizer interface {
	// RenderPage renders the given zero-based page at the given linear scale
	// relative to the document's natural 72 DPI size.
	RenderPage(path string, page int, scale float64) (image.Image, error)
}

// KeywordExtractor ranks topical keyword phrases for a span of text.
// Extraction is an enhancement: implementations return an empty slice when
// the underlying model is unavailable or fails, never an error.
type KeywordExtractor interface {
	Extract(ctx context.Context, text string, topN int) []string
}

// Watermarker stamps a stored PDF in place.
type Watermarker interface {
	Apply(path string) error
}

// IngestionService is the orchestrator of the upload pipeline.
type IngestionService interface {
	Preview(ctx context.Context, sourcePath string) (*PreviewResult, error)
	Ingest(ctx context.Context, fields ThesisFields, sourcePath string) (*ThesisRecord, error)
	Update(ctx context.Context, id int64, fields ThesisFields, sourcePath string) (*ThesisRecord, error)
}

// CatalogService serves the read/maintenance side of the catalog.
type CatalogService interface {
	Search(ctx context.Context, filter SearchFilter) ([]*ThesisRecord, error)
	Get(ctx context.Context, id int64) (*ThesisRecord, error)
	Delete(ctx context.Context, id int64) (*DeleteResult, error)
	DeleteAll(ctx context.Context) (*BulkDeleteResult, error)
	AbstractImages(ctx context.Context, id int64) ([][]byte, error)
	Filters(ctx context.Context) (*FilterValues, error)
	Stats(ctx context.Context) (*CatalogStats, error)
	Export(ctx context.Context, destRoot string) (*ExportResult, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetStorePath() string
	GetVaultRoot() string
	GetMaxFileSize() int64
	GetCourses() []string
	GetAuthorDenylist() []string
	GetKeywordTopN() int
	GetWatermarkEnabled() bool
	GetWatermarkText() string
	GetWatermarkLogoPath() string
	GetGCPProjectID() string
	GetGCPLocation() string
}
