package service

import (
	"context"
	"fmt"
	"image"
	"sort"
	"time"

	"thesis-catalog/internal/domain"
)

// Mock implementations shared by the service package tests.

type mockLogger struct {
	warnFields [][]interface{}
}

func testLogger() domain.Logger { return &mockLogger{} }

func (l *mockLogger) Info(msg string, fields ...interface{})             {}
func (l *mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (l *mockLogger) Debug(msg string, fields ...interface{})            {}

func (l *mockLogger) Warn(msg string, fields ...interface{}) {
	l.warnFields = append(l.warnFields, fields)
}

type mockPDFText struct {
	pages   []string
	openErr error
}

func (m *mockPDFText) PageCount(path string) (int, error) {
	if m.openErr != nil {
		return 0, m.openErr
	}
	return len(m.pages), nil
}

func (m *mockPDFText) PageText(path string, page int) (string, error) {
	if m.openErr != nil {
		return "", m.openErr
	}
	if page < 0 || page >= len(m.pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return m.pages[page], nil
}

func (m *mockPDFText) PageTextRange(path string, from, count int) ([]string, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	to := from + count
	if to > len(m.pages) {
		to = len(m.pages)
	}
	if from >= to {
		return nil, nil
	}
	return m.pages[from:to], nil
}

type mockRasterizer struct {
	renderErr   error
	renderCalls int
}

func (m *mockRasterizer) RenderPage(path string, page int, scale float64) (image.Image, error) {
	m.renderCalls++
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	return image.NewRGBA(image.Rect(0, 0, 40, 60)), nil
}

type stubKeywords struct {
	keywords []string
}

func (s *stubKeywords) Extract(ctx context.Context, text string, topN int) []string {
	if s.keywords == nil {
		return []string{}
	}
	return s.keywords
}

type mockVault struct {
	placeErr    error
	placeCalls  int
	removeCalls int
	missing     bool
	removeErr   error
	exported    *domain.ExportResult
}

func (m *mockVault) Place(sourcePath, courseCode, preferredName string) (string, error) {
	m.placeCalls++
	if m.placeErr != nil {
		return "", m.placeErr
	}
	return courseCode + "/" + preferredName, nil
}

func (m *mockVault) Remove(relPath string) (bool, error) {
	m.removeCalls++
	if m.removeErr != nil {
		return false, m.removeErr
	}
	return !m.missing, nil
}

func (m *mockVault) Resolve(relPath string) string {
	return "/vault/" + relPath
}

func (m *mockVault) ExportAll(records []*domain.ThesisRecord, destRoot string) (*domain.ExportResult, error) {
	if m.exported != nil {
		return m.exported, nil
	}
	return &domain.ExportResult{Exported: len(records)}, nil
}

type mockStore struct {
	records   map[int64]*domain.ThesisRecord
	nextID    int64
	busy      bool
	insertErr error
	inserts   int
	lastQuery domain.SearchFilter
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[int64]*domain.ThesisRecord), nextID: 1}
}

func (m *mockStore) Init(ctx context.Context) error { return nil }

func (m *mockStore) Insert(ctx context.Context, record *domain.ThesisRecord) (*domain.ThesisRecord, error) {
	if m.busy {
		return nil, fmt.Errorf("%w: database is locked", domain.ErrStoreBusy)
	}
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserts++
	stored := *record
	stored.ID = m.nextID
	stored.DateUploaded = time.Now()
	m.records[stored.ID] = &stored
	m.nextID++
	return &stored, nil
}

func (m *mockStore) Update(ctx context.Context, record *domain.ThesisRecord) error {
	if m.busy {
		return fmt.Errorf("%w: database is locked", domain.ErrStoreBusy)
	}
	existing, ok := m.records[record.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	updated := *record
	updated.DateUploaded = existing.DateUploaded
	m.records[record.ID] = &updated
	return nil
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*domain.ThesisRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

func (m *mockStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.records[id]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockStore) DeleteAll(ctx context.Context) (int64, error) {
	count := int64(len(m.records))
	m.records = make(map[int64]*domain.ThesisRecord)
	return count, nil
}

func (m *mockStore) Query(ctx context.Context, filter domain.SearchFilter) ([]*domain.ThesisRecord, error) {
	m.lastQuery = filter
	var out []*domain.ThesisRecord
	for _, record := range m.records {
		if filter.Course != "" && record.Course != filter.Course {
			continue
		}
		if filter.Year != 0 && record.Year != filter.Year {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *mockStore) DistinctCourses(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var courses []string
	for _, record := range m.records {
		if !seen[record.Course] {
			seen[record.Course] = true
			courses = append(courses, record.Course)
		}
	}
	sort.Strings(courses)
	return courses, nil
}

func (m *mockStore) DistinctYears(ctx context.Context) ([]int, error) {
	seen := map[int]bool{}
	var years []int
	for _, record := range m.records {
		if !seen[record.Year] {
			seen[record.Year] = true
			years = append(years, record.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years, nil
}

func (m *mockStore) Count(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

type mockWatermarker struct {
	err   error
	calls int
}

func (m *mockWatermarker) Apply(path string) error {
	m.calls++
	return m.err
}
