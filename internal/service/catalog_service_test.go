package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"thesis-catalog/internal/domain"
	apperrors "thesis-catalog/pkg/errors"
)

func seedRecord(t *testing.T, store *mockStore, title, course string, year int) *domain.ThesisRecord {
	t.Helper()
	record, err := store.Insert(context.Background(), &domain.ThesisRecord{
		Title:    title,
		Authors:  "Santos, Juan",
		Course:   course,
		Year:     year,
		FilePath: course + "/" + title + ".pdf",
	})
	if err != nil {
		t.Fatalf("seed insert: %v", err)
	}
	return record
}

func testCatalog(store *mockStore, vault *mockVault, pdf *mockPDFText, rasterizer *mockRasterizer) *Catalog {
	if pdf == nil {
		pdf = &mockPDFText{}
	}
	if rasterizer == nil {
		rasterizer = &mockRasterizer{}
	}
	return NewCatalog(store, vault, pdf, rasterizer, testLogger())
}

func TestSearchCapsLimit(t *testing.T) {
	store := newMockStore()
	catalog := testCatalog(store, &mockVault{}, nil, nil)

	if _, err := catalog.Search(context.Background(), domain.SearchFilter{Limit: 5000}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.lastQuery.Limit != maxSearchResults {
		t.Errorf("expected limit capped at %d, got %d", maxSearchResults, store.lastQuery.Limit)
	}

	if _, err := catalog.Search(context.Background(), domain.SearchFilter{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.lastQuery.Limit != maxSearchResults {
		t.Errorf("expected default limit %d, got %d", maxSearchResults, store.lastQuery.Limit)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	catalog := testCatalog(newMockStore(), &mockVault{}, nil, nil)

	records, err := catalog.Search(context.Background(), domain.SearchFilter{Course: "BSCS"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if records == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestGetNotFound(t *testing.T) {
	catalog := testCatalog(newMockStore(), &mockVault{}, nil, nil)

	_, err := catalog.Get(context.Background(), 99)
	appErr := appError(t, err)
	if appErr.Type != apperrors.ErrorTypeNotFound {
		t.Errorf("expected not_found, got %s", appErr.Type)
	}
}

func TestDeleteRemovesRowAndFile(t *testing.T) {
	store := newMockStore()
	vault := &mockVault{}
	catalog := testCatalog(store, vault, nil, nil)
	record := seedRecord(t, store, "CAMPUS STUDY", "BSCS", 2023)

	result, err := catalog.Delete(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !result.Deleted || result.FileMissing {
		t.Errorf("unexpected result %+v", result)
	}
	if vault.removeCalls != 1 {
		t.Errorf("expected one file removal, got %d", vault.removeCalls)
	}
	if _, err := store.GetByID(context.Background(), record.ID); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Error("row should be gone after delete")
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	store := newMockStore()
	vault := &mockVault{missing: true}
	catalog := testCatalog(store, vault, nil, nil)
	record := seedRecord(t, store, "CAMPUS STUDY", "BSCS", 2023)

	result, err := catalog.Delete(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("a missing file must not fail the delete: %v", err)
	}
	if !result.Deleted {
		t.Error("row deletion should succeed")
	}
	if !result.FileMissing {
		t.Error("missing file should be reported")
	}
}

func TestDeleteNotFound(t *testing.T) {
	catalog := testCatalog(newMockStore(), &mockVault{}, nil, nil)

	_, err := catalog.Delete(context.Background(), 404)
	appErr := appError(t, err)
	if appErr.Type != apperrors.ErrorTypeNotFound {
		t.Errorf("expected not_found, got %s", appErr.Type)
	}
}

func TestDeleteAllReportsCountAndMissingFiles(t *testing.T) {
	store := newMockStore()
	vault := &mockVault{missing: true}
	catalog := testCatalog(store, vault, nil, nil)
	seedRecord(t, store, "FIRST", "BSCS", 2023)
	seedRecord(t, store, "SECOND", "BSOA", 2024)

	result, err := catalog.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if result.RowsDeleted != 2 {
		t.Errorf("expected 2 rows deleted, got %d", result.RowsDeleted)
	}
	if len(result.FilesMissing) != 2 {
		t.Errorf("expected 2 missing files reported, got %v", result.FilesMissing)
	}
}

func TestAbstractImagesRendersPagePair(t *testing.T) {
	store := newMockStore()
	pdf := &mockPDFText{pages: []string{"title page", "ABSTRACT\nThis study...", "continuation", "references"}}
	rasterizer := &mockRasterizer{}
	catalog := testCatalog(store, &mockVault{}, pdf, rasterizer)
	record := seedRecord(t, store, "CAMPUS STUDY", "BSCS", 2023)

	images, err := catalog.AbstractImages(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("AbstractImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected the abstract page and its successor, got %d images", len(images))
	}
	if rasterizer.renderCalls != 2 {
		t.Errorf("expected 2 renders, got %d", rasterizer.renderCalls)
	}
}

func TestAbstractImagesOnLastPage(t *testing.T) {
	store := newMockStore()
	pdf := &mockPDFText{pages: []string{"title page", "Abstract at the end"}}
	catalog := testCatalog(store, &mockVault{}, pdf, nil)
	record := seedRecord(t, store, "CAMPUS STUDY", "BSCS", 2023)

	images, err := catalog.AbstractImages(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("AbstractImages: %v", err)
	}
	if len(images) != 1 {
		t.Errorf("expected a single image when the abstract is on the last page, got %d", len(images))
	}
}

func TestAbstractImagesNotFound(t *testing.T) {
	store := newMockStore()
	pdf := &mockPDFText{pages: []string{"title page", "introduction", "references"}}
	catalog := testCatalog(store, &mockVault{}, pdf, nil)
	record := seedRecord(t, store, "CAMPUS STUDY", "BSCS", 2023)

	_, err := catalog.AbstractImages(context.Background(), record.ID)
	appErr := appError(t, err)
	if appErr.Type != apperrors.ErrorTypeNotFound {
		t.Errorf("expected not_found when no page mentions an abstract, got %s", appErr.Type)
	}
}

func TestFilters(t *testing.T) {
	store := newMockStore()
	catalog := testCatalog(store, &mockVault{}, nil, nil)
	seedRecord(t, store, "FIRST", "BSCS", 2022)
	seedRecord(t, store, "SECOND", "BSOA", 2024)
	seedRecord(t, store, "THIRD", "BSCS", 2024)

	filters, err := catalog.Filters(context.Background())
	if err != nil {
		t.Fatalf("Filters: %v", err)
	}
	if len(filters.Courses) != 2 {
		t.Errorf("expected 2 distinct courses, got %v", filters.Courses)
	}
	if len(filters.Years) != 2 || filters.Years[0] != 2024 {
		t.Errorf("expected years newest first, got %v", filters.Years)
	}
}

func TestStats(t *testing.T) {
	store := newMockStore()
	catalog := testCatalog(store, &mockVault{}, nil, nil)
	seedRecord(t, store, "FIRST", "BSCS", 2022)
	seedRecord(t, store, "SECOND", "BSOA", 2024)

	stats, err := catalog.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("expected total 2, got %d", stats.Total)
	}
	if len(stats.Recent) != 2 {
		t.Errorf("expected 2 recent records, got %d", len(stats.Recent))
	}
	if store.lastQuery.Limit != 10 {
		t.Errorf("recent query should be capped at 10, got %d", store.lastQuery.Limit)
	}
}

func TestExportRequiresDestination(t *testing.T) {
	catalog := testCatalog(newMockStore(), &mockVault{}, nil, nil)

	_, err := catalog.Export(context.Background(), "   ")
	appErr := appError(t, err)
	if appErr.Type != apperrors.ErrorTypeValidation {
		t.Errorf("expected validation error, got %s", appErr.Type)
	}
}

func TestExportReportsFailedTitles(t *testing.T) {
	store := newMockStore()
	vault := &mockVault{exported: &domain.ExportResult{Exported: 1, FailedTitles: []string{"GONE"}}}
	catalog := testCatalog(store, vault, nil, nil)
	seedRecord(t, store, "FIRST", "BSCS", 2022)
	seedRecord(t, store, "GONE", "BSOA", 2024)

	result, err := catalog.Export(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if result.Exported != 1 || len(result.FailedTitles) != 1 {
		t.Errorf("unexpected export result %+v", result)
	}
}

func TestSearchOrdersNewestFirst(t *testing.T) {
	store := newMockStore()
	catalog := testCatalog(store, &mockVault{}, nil, nil)
	first := seedRecord(t, store, "FIRST", "BSCS", 2022)
	time.Sleep(time.Millisecond)
	second := seedRecord(t, store, "SECOND", "BSCS", 2023)

	records, err := catalog.Search(context.Background(), domain.SearchFilter{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != second.ID || records[1].ID != first.ID {
		t.Errorf("expected newest first, got ids %d, %d", records[0].ID, records[1].ID)
	}
}
