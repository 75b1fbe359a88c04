// Package api serves ranked search results over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"webindexer/internal/metrics"
	"webindexer/internal/ranking"
)

// Searcher is what the API needs from the ranking side.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]ranking.Result, error)
}

type Options struct {
	Addr         string
	DefaultLimit int
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	opts       Options
	router     http.Handler
	httpServer *http.Server
	searcher   Searcher
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewServer(opts Options, searcher Searcher, m *metrics.Metrics, logger *zap.Logger) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		opts:     opts,
		searcher: searcher,
		metrics:  m,
		logger:   logger,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	s.logger.Info("search api listening", zap.String("addr", s.opts.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
