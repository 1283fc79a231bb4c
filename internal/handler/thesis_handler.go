package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"thesis-catalog/internal/domain"

	"github.com/gorilla/mux"
)

// ThesisHandler handles catalog and ingestion HTTP requests.
type ThesisHandler struct {
	ingestion   domain.IngestionService
	catalog     domain.CatalogService
	maxFileSize int64
	logger      domain.Logger
}

// NewThesisHandler creates a new thesis handler
func NewThesisHandler(ingestion domain.IngestionService, catalog domain.CatalogService, maxFileSize int64, logger domain.Logger) *ThesisHandler {
	return &ThesisHandler{
		ingestion:   ingestion,
		catalog:     catalog,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// searchResultItem is the display form of a record for the web view.
type searchResultItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Course       string `json:"course"`
	Year         string `json:"year"`
	Authors      string `json:"authors"`
	Keywords     string `json:"keywords"`
	DateUploaded string `json:"date_uploaded"`
	FilePath     string `json:"pdf_path"`
}

// Search handles GET /theses with optional query, course, year and keyword
// filters, capped at 100 results, newest uploads first.
func (h *ThesisHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SearchFilter{
		TitleSubstring:   strings.TrimSpace(q.Get("query")),
		Course:           strings.TrimSpace(q.Get("course")),
		KeywordSubstring: strings.TrimSpace(q.Get("keyword")),
	}
	if rawYear := strings.TrimSpace(q.Get("year")); rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			writeBadRequest(w, "year must be a number")
			return
		}
		filter.Year = year
	}

	records, err := h.catalog.Search(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Ensure JSON is [] not null when there are no matches.
	items := make([]searchResultItem, 0, len(records))
	for _, record := range records {
		items = append(items, displayItem(record))
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /theses/{id}.
func (h *ThesisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	record, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Preview handles POST /theses/preview: a multipart PDF in, candidate
// metadata plus a first-page thumbnail out. Nothing is persisted.
func (h *ThesisHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sourcePath, cleanup, ok := h.receiveUpload(w, r, true)
	if !ok {
		return
	}
	defer cleanup()

	preview, err := h.ingestion.Preview(r.Context(), sourcePath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"title_guess":   preview.TitleGuess,
		"authors_guess": preview.AuthorsGuess,
		"year_guess":    preview.YearGuess,
		"keywords":      preview.Keywords,
		"thumbnail":     base64.StdEncoding.EncodeToString(preview.Thumbnail),
	})
}

// Ingest handles POST /theses: multipart PDF plus form fields.
func (h *ThesisHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	sourcePath, cleanup, ok := h.receiveUpload(w, r, false)
	if !ok {
		return
	}
	defer cleanup()

	record, err := h.ingestion.Ingest(r.Context(), formFields(r), sourcePath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Update handles PUT /theses/{id}. The PDF part is optional; when absent the
// record keeps its current stored file.
func (h *ThesisHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sourcePath, cleanup, ok := h.receiveUpload(w, r, false)
	if !ok {
		return
	}
	defer cleanup()

	record, err := h.ingestion.Update(r.Context(), id, formFields(r), sourcePath)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /theses/{id}.
func (h *ThesisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	result, err := h.catalog.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// DeleteAll handles DELETE /theses.
func (h *ThesisHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.DeleteAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AbstractImages handles GET /theses/{id}/abstract: the page containing the
// abstract plus the following page, rendered and base64-encoded.
func (h *ThesisHandler) AbstractImages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	images, err := h.catalog.AbstractImages(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	encoded := make([]string, 0, len(images))
	for _, img := range images {
		encoded = append(encoded, base64.StdEncoding.EncodeToString(img))
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": encoded})
}

// Filters handles GET /filters.
func (h *ThesisHandler) Filters(w http.ResponseWriter, r *http.Request) {
	values, err := h.catalog.Filters(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// Stats handles GET /stats.
func (h *ThesisHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Export handles POST /export with a JSON body naming the destination root.
func (h *ThesisHandler) Export(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Destination string `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	result, err := h.catalog.Export(r.Context(), body.Destination)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// receiveUpload spools the multipart "file" part to a temporary file and
// returns its path with a cleanup func. When required is false a missing part
// yields an empty path, which services treat as "keep the existing file".
func (h *ThesisHandler) receiveUpload(w http.ResponseWriter, r *http.Request, required bool) (string, func(), bool) {
	noop := func() {}
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		writeBadRequest(w, "expected a multipart form upload")
		return "", noop, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if !required {
			return "", noop, true
		}
		writeBadRequest(w, "a PDF file is required")
		return "", noop, false
	}
	defer file.Close()

	// Spool into a per-request directory keeping the original filename; the
	// pipeline derives the title candidate and the stored name from it.
	dir, err := os.MkdirTemp("", "thesis-upload-")
	if err != nil {
		h.logger.Error("Failed to create temp upload dir", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return "", noop, false
	}
	cleanup := func() { os.RemoveAll(dir) }

	spooled := filepath.Join(dir, sanitizedUploadName(header.Filename))
	out, err := os.Create(spooled)
	if err == nil {
		_, err = io.Copy(out, file)
		out.Close()
	}
	if err != nil {
		cleanup()
		h.logger.Error("Failed to spool upload", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		return "", noop, false
	}

	return spooled, cleanup, true
}

func sanitizedUploadName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	return name
}

func formFields(r *http.Request) domain.ThesisFields {
	return domain.ThesisFields{
		Title:    r.FormValue("title"),
		Abstract: r.FormValue("abstract"),
		Authors:  r.FormValue("authors"),
		Course:   r.FormValue("course"),
		Year:     r.FormValue("year"),
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "id must be a positive number")
		return 0, false
	}
	return id, true
}

// displayItem formats a record for the read-only web view: underscores and
// hyphens in titles become spaces, missing optional fields render as a dash.
func displayItem(record *domain.ThesisRecord) searchResultItem {
	title := strings.NewReplacer("_", " ", "-", " ").Replace(record.Title)

	item := searchResultItem{
		ID:       record.ID,
		Title:    strings.TrimSpace(title),
		Course:   record.Course,
		Year:     "-",
		Authors:  "-",
		Keywords: "-",
		FilePath: record.FilePath,
	}
	if record.Year != 0 {
		item.Year = strconv.Itoa(record.Year)
	}
	if record.Authors != "" {
		item.Authors = record.Authors
	}
	if record.Keywords != "" {
		item.Keywords = record.Keywords
	}
	if !record.DateUploaded.IsZero() {
		item.DateUploaded = record.DateUploaded.Format("Jan 02, 2006 - 3:04 PM")
	}
	return item
}
