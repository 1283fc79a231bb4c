package service

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"thesis-catalog/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Embedder turns a span of text into a dense vector. The production
// implementation calls a hosted embedding model; tests inject fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const (
	// maxCandidatePhrases bounds how many phrases get embedded per call.
	maxCandidatePhrases = 24
	// embedWorkers bounds concurrent embedding calls.
	embedWorkers = 4
)

// EmbeddingKeywordExtractor ranks 1-2 word candidate phrases by cosine
// similarity between their embedding and the embedding of the whole span.
//
// Keyword extraction is an enhancement, never a blocker: when the embedder is
// absent (model failed to initialize) or a call fails, Extract returns an
// empty slice. A nil embedder is the cached "unavailable" state; it is never
// retried for the process lifetime.
type EmbeddingKeywordExtractor struct {
	embedder Embedder
	logger   domain.Logger
}

// NewEmbeddingKeywordExtractor creates a keyword extractor. Pass a nil
// embedder to get a permanently degraded extractor.
func NewEmbeddingKeywordExtractor(embedder Embedder, logger domain.Logger) *EmbeddingKeywordExtractor {
	return &EmbeddingKeywordExtractor{embedder: embedder, logger: logger}
}

// Extract returns up to topN ranked keyword phrases for the text.
func (e *EmbeddingKeywordExtractor) Extract(ctx context.Context, text string, topN int) []string {
	if e.embedder == nil {
		return []string{}
	}
	if strings.TrimSpace(text) == "" || topN <= 0 {
		return []string{}
	}

	candidates := candidatePhrases(text, maxCandidatePhrases)
	if len(candidates) == 0 {
		return []string{}
	}

	docVec, err := e.embedder.Embed(ctx, text)
	if err != nil || len(docVec) == 0 {
		e.logger.Warn("Keyword extraction degraded: document embedding failed", "error", err)
		return []string{}
	}

	type scored struct {
		phrase string
		score  float64
	}
	results := make([]scored, 0, len(candidates))
	var mu sync.Mutex

	sem := make(chan struct{}, embedWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for _, phrase := range candidates {
		phrase := phrase
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}
			vec, err := e.embedder.Embed(gctx, phrase)
			if err != nil || len(vec) == 0 {
				// Skip this phrase; the rest may still score.
				return nil
			}
			mu.Lock()
			results = append(results, scored{phrase: phrase, score: cosineSimilarity(docVec, vec)})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("Keyword extraction degraded: scoring aborted", "error", err)
		return []string{}
	}
	if len(results) == 0 {
		e.logger.Warn("Keyword extraction degraded: no phrase could be scored", "error", nil)
		return []string{}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if topN > len(results) {
		topN = len(results)
	}
	keywords := make([]string, 0, topN)
	for _, r := range results[:topN] {
		keywords = append(keywords, r.phrase)
	}
	return keywords
}

var wordPattern = regexp.MustCompile(`[a-zA-ZñÑáéíóúüÁÉÍÓÚÜ][\wñÑáéíóúüÁÉÍÓÚÜ-]*`)

// candidatePhrases produces de-duplicated 1-2 word phrases, stop words
// removed, ranked by term frequency with first-appearance order as the tie
// breaker, truncated to max.
func candidatePhrases(text string, max int) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	type candidate struct {
		phrase string
		count  int
		first  int
	}
	seen := make(map[string]*candidate)
	order := make([]*candidate, 0, len(words))

	add := func(phrase string, pos int) {
		if c, ok := seen[phrase]; ok {
			c.count++
			return
		}
		c := &candidate{phrase: phrase, count: 1, first: pos}
		seen[phrase] = c
		order = append(order, c)
	}

	for i, w := range words {
		if !stopWords[w] && len(w) > 2 {
			add(w, i)
		}
		if i+1 < len(words) {
			next := words[i+1]
			if !stopWords[w] && !stopWords[next] && len(w) > 2 && len(next) > 2 {
				add(w+" "+next, i)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if max > len(order) {
		max = len(order)
	}
	phrases := make([]string, 0, max)
	for _, c := range order[:max] {
		phrases = append(phrases, c.phrase)
	}
	return phrases
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// stopWords is a compact English stop-word list; filtering mirrors the
// "stop_words='english'" behavior of the keyword model this replaces.
var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "also": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true, "below": true,
	"between": true, "both": true, "but": true, "by": true, "can": true,
	"could": true, "did": true, "do": true, "does": true, "doing": true,
	"down": true, "during": true, "each": true, "few": true, "for": true,
	"from": true, "further": true, "had": true, "has": true, "have": true,
	"having": true, "he": true, "her": true, "here": true, "hers": true,
	"him": true, "his": true, "how": true, "i": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "may": true, "me": true, "more": true, "most": true,
	"my": true, "no": true, "nor": true, "not": true, "now": true,
	"of": true, "off": true, "on": true, "once": true, "only": true,
	"or": true, "other": true, "our": true, "out": true, "over": true,
	"own": true, "same": true, "she": true, "should": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "to": true,
	"too": true, "under": true, "until": true, "up": true, "very": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "who": true, "whom": true,
	"why": true, "will": true, "with": true, "would": true, "you": true,
	"your": true, "yours": true,
}
