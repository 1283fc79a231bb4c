package domain

import "time"

// ThesisRecord is the persisted catalog entry for one stored thesis PDF.
type ThesisRecord struct {
	ID int64 `json:"id"`

	Title    string `json:"title"`
	Abstract string `json:"abstract,omitempty"`
	Authors  string `json:"authors"`
	Course   string `json:"course"`
	Year     int    `json:"year"`
	Keywords string `json:"keywords,omitempty"`

	// FilePath is relative to the vault root, never absolute.
	FilePath string `json:"file_path"`

	DateUploaded time.Time `json:"date_uploaded"`
}

// ThesisFields carries the user-editable fields of a record as submitted by
// the upload form. Year stays a raw string until the pipeline validates it.
type ThesisFields struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Authors  string `json:"authors"`
	Course   string `json:"course"`
	Year     string `json:"year"`
}

// SearchFilter holds the optional predicates of a catalog query.
// Zero values mean "no constraint on this column".
type SearchFilter struct {
	TitleSubstring   string
	Course           string
	Year             int
	KeywordSubstring string
	Limit            int
}

// MetadataGuess is the output of the metadata extractor. All fields are
// candidates for form population; empty means "no match", never an error.
type MetadataGuess struct {
	TitleGuess        string
	AuthorsGuess      string
	YearGuess         string
	KeywordSourceText string
}

// PreviewResult is returned by the ingestion pipeline's preview operation.
type PreviewResult struct {
	TitleGuess   string   `json:"title_guess"`
	AuthorsGuess string   `json:"authors_guess"`
	YearGuess    string   `json:"year_guess"`
	Keywords     []string `json:"keywords"`

	// Thumbnail is the first page rendered and downscaled, PNG-encoded.
	Thumbnail []byte `json:"-"`
}

// DeleteResult reports a single-record deletion. FileMissing is set when the
// backing file was already gone; the row is removed regardless.
type DeleteResult struct {
	Deleted     bool `json:"deleted"`
	FileMissing bool `json:"file_missing"`
}

// BulkDeleteResult reports a delete-all operation.
type BulkDeleteResult struct {
	RowsDeleted  int64    `json:"rows_deleted"`
	FilesMissing []string `json:"files_missing,omitempty"`
}

// ExportResult reports a vault export. FailedTitles lists records whose
// backing file could not be located.
type ExportResult struct {
	Exported     int      `json:"exported"`
	FailedTitles []string `json:"failed_titles,omitempty"`
}

// FilterValues enumerates the distinct values available for the filter UI.
type FilterValues struct {
	Courses []string `json:"courses"`
	Years   []int    `json:"years"`
}

// CatalogStats is the landing-page summary.
type CatalogStats struct {
	Total  int64           `json:"total"`
	Recent []*ThesisRecord `json:"recent"`
}
