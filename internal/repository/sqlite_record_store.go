package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thesis-catalog/internal/domain"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// busyTimeout is how long a writer waits on a lock held by another process
// before the store surfaces a busy error.
const busyTimeout = 5 * time.Second

// SQLiteRecordStore implements domain.RecordStore on a local SQLite file.
// The store is opened in WAL mode so the desktop uploader and the read-only
// web view can share it across processes, and all goroutines of this process
// serialize through a single connection to avoid intra-process SQLITE_BUSY.
type SQLiteRecordStore struct {
	db     *sql.DB
	logger domain.Logger
}

// NewSQLiteRecordStore opens (and creates if needed) the store at dbPath.
func NewSQLiteRecordStore(dbPath string, logger domain.Logger) (*SQLiteRecordStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure store: %w", err)
		}
	}

	return &SQLiteRecordStore{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteRecordStore) Close() error {
	return s.db.Close()
}

// Init creates the schema if absent. Safe to call repeatedly.
func (s *SQLiteRecordStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS theses (
			thesis_id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			abstract TEXT,
			authors TEXT NOT NULL,
			course TEXT NOT NULL,
			year INTEGER NOT NULL,
			keywords TEXT,
			file_path TEXT NOT NULL,
			date_uploaded DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return classify(fmt.Errorf("failed to create schema: %w", err))
	}
	return nil
}

// Insert commits a new record and returns it with the store-assigned id and
// upload timestamp.
func (s *SQLiteRecordStore) Insert(ctx context.Context, record *domain.ThesisRecord) (*domain.ThesisRecord, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO theses (title, abstract, authors, course, year, keywords, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Title, record.Abstract, record.Authors, record.Course, record.Year, record.Keywords, record.FilePath)
	if err != nil {
		return nil, classify(fmt.Errorf("insert failed: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, classify(fmt.Errorf("insert returned no id: %w", err))
	}
	return s.GetByID(ctx, id)
}

// Update overwrites every field except id and date_uploaded.
func (s *SQLiteRecordStore) Update(ctx context.Context, record *domain.ThesisRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE theses SET title=?, abstract=?, authors=?, course=?, year=?, keywords=?, file_path=?
		WHERE thesis_id=?`,
		record.Title, record.Abstract, record.Authors, record.Course, record.Year, record.Keywords, record.FilePath, record.ID)
	if err != nil {
		return classify(fmt.Errorf("update failed: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// GetByID fetches one record.
func (s *SQLiteRecordStore) GetByID(ctx context.Context, id int64) (*domain.ThesisRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thesis_id, title, abstract, authors, course, year, keywords, file_path, date_uploaded
		FROM theses WHERE thesis_id=?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, classify(err)
	}
	return record, nil
}

// Delete removes one record.
func (s *SQLiteRecordStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM theses WHERE thesis_id=?`, id)
	if err != nil {
		return classify(fmt.Errorf("delete failed: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// DeleteAll removes every record and reports how many were deleted.
func (s *SQLiteRecordStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM theses`)
	if err != nil {
		return 0, classify(fmt.Errorf("delete all failed: %w", err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err)
	}
	return affected, nil
}

// Query returns records matching every set filter predicate, newest uploads
// first. A non-positive limit returns all matches.
func (s *SQLiteRecordStore) Query(ctx context.Context, filter domain.SearchFilter) ([]*domain.ThesisRecord, error) {
	query := `
		SELECT thesis_id, title, abstract, authors, course, year, keywords, file_path, date_uploaded
		FROM theses WHERE 1=1`
	var args []interface{}

	if filter.TitleSubstring != "" {
		query += " AND LOWER(title) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter.TitleSubstring)+"%")
	}
	if filter.Course != "" {
		query += " AND course = ?"
		args = append(args, filter.Course)
	}
	if filter.Year != 0 {
		query += " AND year = ?"
		args = append(args, filter.Year)
	}
	if filter.KeywordSubstring != "" {
		query += " AND LOWER(keywords) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter.KeywordSubstring)+"%")
	}

	query += " ORDER BY date_uploaded DESC, thesis_id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("query failed: %w", err))
	}
	defer rows.Close()

	var records []*domain.ThesisRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, classify(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

// DistinctCourses enumerates courses present in the catalog, ascending.
func (s *SQLiteRecordStore) DistinctCourses(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT course FROM theses ORDER BY course ASC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var courses []string
	for rows.Next() {
		var course string
		if err := rows.Scan(&course); err != nil {
			return nil, classify(err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// DistinctYears enumerates years present in the catalog, newest first.
func (s *SQLiteRecordStore) DistinctYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT year FROM theses ORDER BY year DESC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, classify(err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// Count returns the total number of records.
func (s *SQLiteRecordStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM theses`).Scan(&count); err != nil {
		return 0, classify(err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.ThesisRecord, error) {
	var (
		record   domain.ThesisRecord
		abstract sql.NullString
		keywords sql.NullString
		uploaded string
	)
	err := row.Scan(&record.ID, &record.Title, &abstract, &record.Authors, &record.Course,
		&record.Year, &keywords, &record.FilePath, &uploaded)
	if err != nil {
		return nil, err
	}
	record.Abstract = abstract.String
	record.Keywords = keywords.String
	record.DateUploaded = parseUploadTime(uploaded)
	return &record, nil
}

// parseUploadTime handles SQLite's CURRENT_TIMESTAMP text format.
func parseUploadTime(raw string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// classify maps driver-level lock contention onto the domain busy error so
// callers can distinguish "retry later" from structural failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy") {
		return fmt.Errorf("%w: %v", domain.ErrStoreBusy, err)
	}
	return err
}
