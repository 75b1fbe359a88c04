package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"webindexer/internal/api"
	"webindexer/internal/document"
	"webindexer/internal/metrics"
	"webindexer/internal/ranking"
	"webindexer/internal/storage"
)

type searchBody struct {
	Query   string           `json:"query"`
	Results []ranking.Result `json:"results"`
}

func newServer(t *testing.T, texts map[string]string, order []string) (*api.Server, *metrics.Metrics) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMemory()
	for _, u := range order {
		require.NoError(t, store.Put(ctx, document.Document{URL: u, Text: texts[u]}))
	}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	searcher := ranking.NewSearcher(store, 0, nil)
	return api.NewServer(api.Options{DefaultLimit: 2, Gatherer: reg}, searcher, m, zap.NewNop()), m
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

var pages = map[string]string{
	"https://example.com/cat": "the cat sat",
	"https://example.com/dog": "the dog ran",
	"https://example.com/mix": "cat and dog",
}

var pageOrder = []string{"https://example.com/cat", "https://example.com/dog", "https://example.com/mix"}

func TestSearch_RanksResults(t *testing.T) {
	t.Parallel()

	s, m := newServer(t, pages, pageOrder)
	rec := get(t, s.Handler(), "/api/search?q=cat&limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body searchBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cat", body.Query)
	require.Len(t, body.Results, 3)
	assert.Equal(t, "https://example.com/cat", body.Results[0].URL)
	assert.Equal(t, "https://example.com/mix", body.Results[1].URL)
	assert.Equal(t, "https://example.com/dog", body.Results[2].URL)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequests.WithLabelValues("ok")), 0)
}

func TestSearch_DefaultLimit(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, pages, pageOrder)
	rec := get(t, s.Handler(), "/api/search?q=dog")
	require.Equal(t, http.StatusOK, rec.Code)

	var body searchBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Results, 2)
}

func TestSearch_EmptyQueryGivesEmptyList(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, pages, pageOrder)
	rec := get(t, s.Handler(), "/api/search?q=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"","results":[]}`, rec.Body.String())
}

func TestSearch_BadLimit(t *testing.T) {
	t.Parallel()

	s, m := newServer(t, pages, pageOrder)
	for _, target := range []string{"/api/search?q=cat&limit=abc", "/api/search?q=cat&limit=0", "/api/search?q=cat&limit=-1"} {
		rec := get(t, s.Handler(), target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "error", target)
	}
	assert.InDelta(t, 3, testutil.ToFloat64(m.SearchRequests.WithLabelValues("bad_request")), 0)
}

type brokenSearcher struct{}

func (brokenSearcher) Search(context.Context, string, int) ([]ranking.Result, error) {
	return nil, errors.New("store unreachable")
}

func TestSearch_StoreErrorIs500(t *testing.T) {
	t.Parallel()

	s := api.NewServer(api.Options{Gatherer: prometheus.NewRegistry()}, brokenSearcher{}, nil, nil)
	rec := get(t, s.Handler(), "/api/search?q=cat")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unreachable")
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	s, _ := newServer(t, pages, pageOrder)

	rec := get(t, s.Handler(), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	_ = get(t, s.Handler(), "/api/search?q=cat")
	rec = get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "search_requests_total"))
}
