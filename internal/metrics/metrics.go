// Package metrics holds the Prometheus collectors of the crawler and the
// query API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is injected into the components that report. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	PagesFetched   prometheus.Counter
	BytesFetched   prometheus.Counter
	FetchErrors    *prometheus.CounterVec
	StoreErrors    prometheus.Counter
	FetchDuration  prometheus.Histogram
	FrontierSize   prometheus.Gauge
	SearchRequests *prometheus.CounterVec
}

// New registers every collector with reg. Pass prometheus.NewRegistry() in
// tests to avoid clashing with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PagesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "crawler_pages_fetched_total",
			Help: "Total number of pages successfully fetched",
		}),
		BytesFetched: f.NewCounter(prometheus.CounterOpts{
			Name: "crawler_bytes_fetched_total",
			Help: "Total bytes downloaded",
		}),
		FetchErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "crawler_fetch_errors_total",
			Help: "Fetches that did not produce a document, by reason",
		}, []string{"reason"}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "crawler_store_errors_total",
			Help: "Document store writes that failed",
		}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "crawler_fetch_duration_seconds",
			Help:    "Latency of page fetches",
			Buckets: prometheus.DefBuckets,
		}),
		FrontierSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "crawler_frontier_size",
			Help: "URLs queued and not yet taken",
		}),
		SearchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Search API requests by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) ObserveFetch(bytes int, took time.Duration) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.BytesFetched.Add(float64(bytes))
	m.FetchDuration.Observe(took.Seconds())
}

func (m *Metrics) IncFetchError(reason string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncStoreError() {
	if m == nil {
		return
	}
	m.StoreErrors.Inc()
}

func (m *Metrics) SetFrontierSize(n int) {
	if m == nil {
		return
	}
	m.FrontierSize.Set(float64(n))
}

func (m *Metrics) IncSearch(outcome string) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(outcome).Inc()
}
