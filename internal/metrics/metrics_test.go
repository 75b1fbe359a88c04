package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webindexer/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveFetch(100, 20*time.Millisecond)
	m.ObserveFetch(50, 10*time.Millisecond)
	m.IncFetchError("status")
	m.IncFetchError("status")
	m.IncFetchError("disallowed")
	m.IncStoreError()
	m.SetFrontierSize(7)
	m.IncSearch("ok")

	assert.InDelta(t, 2, testutil.ToFloat64(m.PagesFetched), 0)
	assert.InDelta(t, 150, testutil.ToFloat64(m.BytesFetched), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.FetchErrors.WithLabelValues("status")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchErrors.WithLabelValues("disallowed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreErrors), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.FrontierSize), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SearchRequests.WithLabelValues("ok")), 0)

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch(1, time.Millisecond)
		m.IncFetchError("x")
		m.IncStoreError()
		m.SetFrontierSize(1)
		m.IncSearch("ok")
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
