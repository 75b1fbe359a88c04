// Package ranking scores stored documents against free-text queries with
// Okapi BM25.
package ranking

import (
	"errors"
	"math"
	"sort"
	"strings"

	"webindexer/internal/document"
)

const (
	K1 = 1.2
	B  = 0.75
	// MinIDF floors the inverse document frequency. Terms present in at
	// least half the corpus have a non-positive raw idf, and a matching
	// document must never score below one that does not match.
	MinIDF = 1e-3
)

var ErrInvalidLimit = errors.New("ranking: limit must be positive")

// Result is one ranked document.
type Result struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// Tokenize splits on whitespace and folds case. Corpus and queries must go
// through the same function or scores are not comparable.
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// Snapshot is an immutable corpus with precomputed term statistics. It is
// safe for concurrent use.
type Snapshot struct {
	urls    []string
	tf      []map[string]int
	lengths []int
	df      map[string]int
	avgdl   float64
}

// NewSnapshot indexes docs in the given order; that order breaks score ties.
func NewSnapshot(docs []document.Document) *Snapshot {
	s := &Snapshot{
		urls:    make([]string, len(docs)),
		tf:      make([]map[string]int, len(docs)),
		lengths: make([]int, len(docs)),
		df:      make(map[string]int),
	}
	total := 0
	for i, d := range docs {
		tokens := Tokenize(d.Text)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for tok := range freq {
			s.df[tok]++
		}
		s.urls[i] = d.URL
		s.tf[i] = freq
		s.lengths[i] = len(tokens)
		total += len(tokens)
	}
	if len(docs) > 0 {
		s.avgdl = float64(total) / float64(len(docs))
	}
	return s
}

// Len is the corpus size N.
func (s *Snapshot) Len() int { return len(s.urls) }

// IDF returns the floored inverse document frequency of an already
// tokenized term.
func (s *Snapshot) IDF(term string) float64 {
	n := float64(len(s.urls))
	df := float64(s.df[term])
	return math.Max(math.Log((n-df+0.5)/(df+0.5)), MinIDF)
}

// Rank scores every document against query and returns at most limit results,
// best first, ties in corpus order. Documents sharing no token with the query
// score 0 and are still returned.
func (s *Snapshot) Rank(query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	terms := Tokenize(query)
	if len(terms) == 0 || len(s.urls) == 0 {
		return []Result{}, nil
	}

	idf := make(map[string]float64, len(terms))
	for _, t := range terms {
		if _, ok := idf[t]; !ok {
			idf[t] = s.IDF(t)
		}
	}

	results := make([]Result, len(s.urls))
	for i, u := range s.urls {
		norm := K1 * (1 - B + B*float64(s.lengths[i])/s.avgdl)
		var score float64
		// repeated query terms count once per occurrence
		for _, t := range terms {
			tf := float64(s.tf[i][t])
			if tf == 0 {
				continue
			}
			score += idf[t] * tf * (K1 + 1) / (tf + norm)
		}
		results[i] = Result{URL: u, Score: score}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Rank builds a one-off snapshot of corpus and ranks it.
func Rank(corpus []document.Document, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	return NewSnapshot(corpus).Rank(query, limit)
}
