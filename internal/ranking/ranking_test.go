package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webindexer/internal/document"
	"webindexer/internal/ranking"
	"webindexer/internal/storage"
)

func corpus(texts ...string) []document.Document {
	docs := make([]document.Document, len(texts))
	for i, text := range texts {
		docs[i] = document.Document{URL: fmt.Sprintf("https://example.com/%d", i), Text: text}
	}
	return docs
}

func urls(results []ranking.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.URL
	}
	return out
}

func TestRank_CatQuery(t *testing.T) {
	t.Parallel()

	docs := corpus("the cat sat", "the dog ran", "cat and dog")
	results, err := ranking.Rank(docs, "cat", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "https://example.com/1", results[2].URL, "non-matching doc must rank last")
	assert.Positive(t, results[0].Score)
	assert.Positive(t, results[1].Score)
	assert.Zero(t, results[2].Score)
	// equal tf and length, so equal score; input order decides
	assert.Equal(t, []string{"https://example.com/0", "https://example.com/2"}, urls(results[:2]))

	again, err := ranking.Rank(docs, "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, results, again)
	for i := range results {
		assert.Equal(t, math.Float64bits(results[i].Score), math.Float64bits(again[i].Score))
	}
}

func TestRank_ScoreFormula(t *testing.T) {
	t.Parallel()

	// N=4, df(rare)=1, so idf is ln(3.5/1.5)
	docs := corpus("rare word here", "common words", "common words", "common words")
	results, err := ranking.Rank(docs, "RARE", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	idf := math.Log(3.5 / 1.5)
	avgdl := 9.0 / 4.0
	want := idf * (1 * (ranking.K1 + 1)) / (1 + ranking.K1*(1-ranking.B+ranking.B*3/avgdl))
	assert.Equal(t, "https://example.com/0", results[0].URL)
	assert.InDelta(t, want, results[0].Score, 1e-12)
}

func TestRank_RepeatedQueryTokensCountTwice(t *testing.T) {
	t.Parallel()

	docs := corpus("alpha beta", "gamma delta", "epsilon zeta")
	once, err := ranking.Rank(docs, "alpha", 1)
	require.NoError(t, err)
	twice, err := ranking.Rank(docs, "alpha alpha", 1)
	require.NoError(t, err)
	assert.InDelta(t, 2*once[0].Score, twice[0].Score, 1e-12)
}

func TestRank_EmptyQuery(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := ranking.Rank(corpus("a b", "c"), q, 5)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestRank_NoOverlapKeepsInputOrder(t *testing.T) {
	t.Parallel()

	docs := corpus("one", "two", "three", "four")
	results, err := ranking.Rank(docs, "missing", 10)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, docs[i].URL, r.URL)
		assert.Zero(t, r.Score)
	}
}

func TestRank_LimitAndErrors(t *testing.T) {
	t.Parallel()

	docs := corpus("a", "a b", "b")
	results, err := ranking.Rank(docs, "a", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = ranking.Rank(docs, "a", 0)
	require.ErrorIs(t, err, ranking.ErrInvalidLimit)
	_, err = ranking.Rank(docs, "a", -3)
	require.ErrorIs(t, err, ranking.ErrInvalidLimit)

	results, err = ranking.Rank(nil, "a", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"hello,", "world", "go"}, ranking.Tokenize("  Hello,\tWORLD\n go "))
	assert.Empty(t, ranking.Tokenize(" "))
}

func TestIDF_Floor(t *testing.T) {
	t.Parallel()

	snap := ranking.NewSnapshot(corpus("x", "x", "x y"))
	assert.InDelta(t, ranking.MinIDF, snap.IDF("x"), 0)
	assert.InDelta(t, math.Log(2.5/1.5), snap.IDF("y"), 1e-12)
	assert.Equal(t, 3, snap.Len())
}

// countingStore counts how often the corpus is scanned.
type countingStore struct {
	*storage.Memory
	scans int
	err   error
}

func (c *countingStore) ScanAll(ctx context.Context) iter.Seq2[document.Document, error] {
	c.scans++
	if c.err != nil {
		return func(yield func(document.Document, error) bool) {
			yield(document.Document{}, c.err)
		}
	}
	return c.Memory.ScanAll(ctx)
}

func TestSearcher_ReusesSnapshotWithinTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &countingStore{Memory: storage.NewMemory()}
	for _, d := range corpus("the cat sat", "the dog ran") {
		require.NoError(t, store.Put(ctx, d))
	}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := ranking.NewSearcher(store, time.Minute, nil, ranking.WithClock(func() time.Time { return now }))

	first, err := s.Search(ctx, "cat", 10)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, document.Document{URL: "https://example.com/new", Text: "cat cat cat"}))

	now = now.Add(30 * time.Second)
	second, err := s.Search(ctx, "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second, "snapshot should be reused inside the session")
	assert.Equal(t, 1, store.scans)

	now = now.Add(time.Minute)
	third, err := s.Search(ctx, "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.scans)
	require.Len(t, third, 3)
	assert.Equal(t, "https://example.com/new", third[0].URL)

	s.Invalidate()
	_, err = s.Search(ctx, "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, store.scans)
}

func TestSearcher_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("connection refused")
	store := &countingStore{Memory: storage.NewMemory(), err: boom}
	s := ranking.NewSearcher(store, 0, nil)

	_, err := s.Search(ctx, "cat", 10)
	require.ErrorIs(t, err, boom)

	_, err = s.Search(ctx, "cat", 0)
	require.ErrorIs(t, err, ranking.ErrInvalidLimit)
	assert.Equal(t, 1, store.scans, "invalid limit must not touch the store")
}
