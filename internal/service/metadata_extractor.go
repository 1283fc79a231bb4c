package service

import (
	"path/filepath"
	"regexp"
	"strings"

	"thesis-catalog/internal/domain"
)

// authorPattern matches the "Surname, Given Name" convention used on the
// source cover pages. Accented letters and hyphens are allowed on both sides;
// each side may span several capitalized words.
var authorPattern = regexp.MustCompile(`[A-ZÑÁÉÍÓÚÜ][\wñÑáéíóúüÁÉÍÓÚÜ-]*(?: [A-ZÑÁÉÍÓÚÜ][\wñÑáéíóúüÁÉÍÓÚÜ-]*)*, [A-ZÑÁÉÍÓÚÜ][a-zA-ZñÑáéíóúüÁÉÍÓÚÜ-]+(?: [A-ZÑÁÉÍÓÚÜ][a-zA-ZñÑáéíóúüÁÉÍÓÚÜ-]+)*`)

// submissionDatePattern matches a "March 2024" style submission date and
// captures the year group.
var submissionDatePattern = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December) (\d{4})\b`)

// illegalFilenameChars are stripped from filename-derived titles.
var illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|\r\n]`)

var multiSpace = regexp.MustCompile(`\s+`)

// keywordSourcePages is how many leading pages feed keyword extraction. The
// abstract sits within the first two pages of the source documents.
const keywordSourcePages = 2

// MetadataExtractor derives candidate record fields from raw page text.
// It is a pure function over its inputs: a missing match yields an empty
// guess, never an error, and the caller always allows manual override.
type MetadataExtractor struct {
	denylist []string
}

// NewMetadataExtractor creates an extractor with the given institutional
// denylist. Author matches containing a denylisted token are discarded as
// header-block false positives (city, province, college name).
func NewMetadataExtractor(denylist []string) *MetadataExtractor {
	return &MetadataExtractor{denylist: denylist}
}

// Extract derives all candidate metadata from the ordered per-page texts and
// the original filename.
func (e *MetadataExtractor) Extract(pageTexts []string, filenameHint string) domain.MetadataGuess {
	firstPage := ""
	if len(pageTexts) > 0 {
		firstPage = pageTexts[0]
	}

	return domain.MetadataGuess{
		TitleGuess:        e.titleFromFilename(filenameHint),
		AuthorsGuess:      e.authorsFromText(firstPage),
		YearGuess:         yearFromText(firstPage),
		KeywordSourceText: keywordSourceText(pageTexts),
	}
}

// titleFromFilename normalizes the filename into a display title: extension
// and illegal characters removed, underscores and hyphens turned into spaces,
// upper-cased.
func (e *MetadataExtractor) titleFromFilename(hint string) string {
	base := filepath.Base(strings.TrimSpace(hint))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = illegalFilenameChars.ReplaceAllString(base, "")
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = multiSpace.ReplaceAllString(base, " ")
	return strings.ToUpper(strings.TrimSpace(base))
}

// authorsFromText collects name-shaped matches from the first page, in order
// of appearance, dropping denylisted institutional false positives.
func (e *MetadataExtractor) authorsFromText(text string) string {
	matches := authorPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}

	kept := make([]string, 0, len(matches))
	for _, m := range matches {
		if e.denylisted(m) {
			continue
		}
		kept = append(kept, m)
	}
	return strings.Join(kept, ", ")
}

func (e *MetadataExtractor) denylisted(match string) bool {
	for _, token := range e.denylist {
		if token == "" {
			continue
		}
		if strings.Contains(strings.ToLower(match), strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// yearFromText returns the year group of the first "<Month> <year>" match.
func yearFromText(text string) string {
	m := submissionDatePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// keywordSourceText concatenates the first min(2, pageCount) pages.
func keywordSourceText(pageTexts []string) string {
	n := keywordSourcePages
	if len(pageTexts) < n {
		n = len(pageTexts)
	}
	return strings.TrimSpace(strings.Join(pageTexts[:n], "\n"))
}
