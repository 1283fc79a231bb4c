package vault

import (
	"os"
	"path/filepath"
	"testing"

	"thesis-catalog/internal/domain"
	"thesis-catalog/pkg/logger"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(filepath.Join(t.TempDir(), "vault"), logger.NewLogger("error"))
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.pdf")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestPlaceCopiesIntoCourseFolder(t *testing.T) {
	v := newTestVault(t)
	source := writeSource(t, "pdf bytes")

	rel, err := v.Place(source, "BSCS", "thesis.pdf")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if rel != filepath.Join("BSCS", "thesis.pdf") {
		t.Errorf("unexpected relative path %q", rel)
	}

	data, err := os.ReadFile(v.Resolve(rel))
	if err != nil {
		t.Fatalf("read placed copy: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content corrupted: %q", data)
	}
}

func TestPlaceNeverOverwrites(t *testing.T) {
	v := newTestVault(t)
	first := writeSource(t, "first")
	second := writeSource(t, "second")

	relFirst, err := v.Place(first, "BSCS", "thesis.pdf")
	if err != nil {
		t.Fatalf("first place: %v", err)
	}
	relSecond, err := v.Place(second, "BSCS", "thesis.pdf")
	if err != nil {
		t.Fatalf("second place: %v", err)
	}

	if relFirst == relSecond {
		t.Fatalf("second placement reused the same path %q", relFirst)
	}
	if relSecond != filepath.Join("BSCS", "thesis_1.pdf") {
		t.Errorf("unexpected collision suffix: %q", relSecond)
	}

	data, err := os.ReadFile(v.Resolve(relFirst))
	if err != nil {
		t.Fatalf("read first copy: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("first copy was overwritten: %q", data)
	}
}

func TestPlaceSanitizesFilename(t *testing.T) {
	v := newTestVault(t)
	source := writeSource(t, "x")

	rel, err := v.Place(source, "BSCS", `what?is*this".pdf`)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if filepath.Base(rel) != "what_is_this_.pdf" {
		t.Errorf("filename not sanitized: %q", rel)
	}
}

func TestRemoveMissingFileIsNotAnError(t *testing.T) {
	v := newTestVault(t)

	removed, err := v.Remove(filepath.Join("BSCS", "never_existed.pdf"))
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if removed {
		t.Error("expected removed=false for a missing file")
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	v := newTestVault(t)
	source := writeSource(t, "x")

	rel, err := v.Place(source, "BSCS", "thesis.pdf")
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	removed, err := v.Remove(rel)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Error("expected removed=true")
	}
	if _, err := os.Stat(v.Resolve(rel)); !os.IsNotExist(err) {
		t.Error("file still present after remove")
	}
}

func TestExportAllOrganizesByCourse(t *testing.T) {
	v := newTestVault(t)
	source := writeSource(t, "x")

	relCS, err := v.Place(source, "BSCS", "cs.pdf")
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	relOA, err := v.Place(source, "BSOA", "oa.pdf")
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	records := []*domain.ThesisRecord{
		{Title: "CS STUDY", Course: "BSCS", FilePath: relCS},
		{Title: "OA STUDY", Course: "BSOA", FilePath: relOA},
	}
	dest := t.TempDir()

	result, err := v.ExportAll(records, dest)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Exported != 2 || len(result.FailedTitles) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, want := range []string{
		filepath.Join(dest, exportFolderName, "BSCS", "cs.pdf"),
		filepath.Join(dest, exportFolderName, "BSOA", "oa.pdf"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Errorf("expected exported file at %s: %v", want, err)
		}
	}
}

func TestExportAllReportsMissingFiles(t *testing.T) {
	v := newTestVault(t)
	source := writeSource(t, "x")

	rel, err := v.Place(source, "BSCS", "present.pdf")
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	records := []*domain.ThesisRecord{
		{Title: "PRESENT", Course: "BSCS", FilePath: rel},
		{Title: "GONE", Course: "BSCS", FilePath: filepath.Join("BSCS", "gone.pdf")},
	}

	result, err := v.ExportAll(records, t.TempDir())
	if err != nil {
		t.Fatalf("export must continue past missing files: %v", err)
	}
	if result.Exported != 1 {
		t.Errorf("expected 1 exported, got %d", result.Exported)
	}
	if len(result.FailedTitles) != 1 || result.FailedTitles[0] != "GONE" {
		t.Errorf("expected the missing record's title, got %v", result.FailedTitles)
	}
}
