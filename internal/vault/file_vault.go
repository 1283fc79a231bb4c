// Package vault manages the course-organized directory tree of stored PDFs.
package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"thesis-catalog/internal/domain"
)

// exportFolderName is the top-level folder created inside an export
// destination.
const exportFolderName = "Exported_Thesis_PDFs"

// illegalFilenameChars are replaced with underscores in stored filenames.
var illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|\r\n]`)

// Vault implements domain.FileVault rooted at a single directory configured
// once at construction.
type Vault struct {
	root   string
	logger domain.Logger
}

// New creates a vault rooted at root, creating the directory if needed.
func New(root string, logger domain.Logger) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vault root: %w", err)
	}
	return &Vault{root: abs, logger: logger}, nil
}

// Root returns the absolute vault root directory.
func (v *Vault) Root() string {
	return v.root
}

// Resolve maps a vault-relative path to an absolute one.
func (v *Vault) Resolve(relPath string) string {
	return filepath.Join(v.root, relPath)
}

// Place copies sourcePath into the course subdirectory under a sanitized,
// collision-safe name and returns the vault-relative path of the copy. An
// existing file with the same name is never overwritten; a numeric suffix is
// appended before the extension instead.
func (v *Vault) Place(sourcePath, courseCode, preferredName string) (string, error) {
	courseDir := filepath.Join(v.root, courseCode)
	if err := os.MkdirAll(courseDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create course folder: %w", err)
	}

	name := sanitizeFilename(preferredName)
	if name == "" {
		name = sanitizeFilename(filepath.Base(sourcePath))
	}
	target, err := collisionSafePath(courseDir, name)
	if err != nil {
		return "", err
	}

	if err := copyFile(sourcePath, target); err != nil {
		return "", err
	}

	rel := filepath.Join(courseCode, filepath.Base(target))
	v.logger.Debug("Placed file in vault", "path", rel)
	return rel, nil
}

// Remove deletes a stored file. The boolean is false when the file was
// already missing.
func (v *Vault) Remove(relPath string) (bool, error) {
	err := os.Remove(v.Resolve(relPath))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to remove stored file: %w", err)
}

// ExportAll copies every record's file into destRoot under a course-organized
// tree. Records whose backing file is missing are skipped and reported by
// title; the rest of the export proceeds.
func (v *Vault) ExportAll(records []*domain.ThesisRecord, destRoot string) (*domain.ExportResult, error) {
	exportRoot := filepath.Join(destRoot, exportFolderName)
	if err := os.MkdirAll(exportRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export folder: %w", err)
	}

	result := &domain.ExportResult{}
	for _, record := range records {
		source := v.Resolve(record.FilePath)
		if _, err := os.Stat(source); err != nil {
			result.FailedTitles = append(result.FailedTitles, record.Title)
			continue
		}

		courseDir := filepath.Join(exportRoot, record.Course)
		if err := os.MkdirAll(courseDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export course folder: %w", err)
		}

		target, err := collisionSafePath(courseDir, filepath.Base(record.FilePath))
		if err != nil {
			return nil, err
		}
		if err := copyFile(source, target); err != nil {
			v.logger.Warn("Failed to export file", "title", record.Title, "error", err)
			result.FailedTitles = append(result.FailedTitles, record.Title)
			continue
		}
		result.Exported++
	}
	return result, nil
}

// sanitizeFilename replaces characters that are illegal on common filesystems.
func sanitizeFilename(name string) string {
	return strings.TrimSpace(illegalFilenameChars.ReplaceAllString(filepath.Base(name), "_"))
}

// collisionSafePath returns dir/name, appending _1, _2, ... before the
// extension until the name is unused.
func collisionSafePath(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); os.IsNotExist(err) {
		return target, nil
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		if i > 10000 {
			return "", fmt.Errorf("could not find a free filename for %s", name)
		}
	}
}

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(target)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}
