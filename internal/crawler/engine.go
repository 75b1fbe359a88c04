// Package crawler runs a bounded pool of workers over a frontier, fetching
// pages politely, extracting them and writing them to a document store.
package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"webindexer/internal/frontier"
	"webindexer/internal/hostman"
	"webindexer/internal/metrics"
	"webindexer/internal/revisit"
	"webindexer/internal/storage"
)

var (
	ErrInvalidDepth       = errors.New("crawler: max depth must not be negative")
	ErrInvalidConcurrency = errors.New("crawler: concurrency must be at least 1")
	ErrNoSeeds            = errors.New("crawler: no crawlable seed urls")
	ErrNoStore            = errors.New("crawler: document store is required")
)

// Politeness gates every fetch. hostman.Manager is the production
// implementation.
type Politeness interface {
	Allowed(ctx context.Context, u *url.URL) bool
	Wait(ctx context.Context, u *url.URL) error
}

// Deps are the collaborators an Engine uses. Only Store is required.
type Deps struct {
	Store   storage.Store
	Hosts   Politeness
	Client  *http.Client
	Guard   revisit.Guard
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Engine struct {
	opts    Options
	store   storage.Store
	hosts   Politeness
	client  *http.Client
	guard   revisit.Guard
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func New(deps Deps, opts Options) (*Engine, error) {
	if deps.Store == nil {
		return nil, ErrNoStore
	}
	opts = opts.withDefaults()
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Client == nil {
		deps.Client = &http.Client{}
	}
	if deps.Hosts == nil {
		deps.Hosts = hostman.New(hostman.Options{
			UserAgent: opts.UserAgent,
			Client:    deps.Client,
			Logger:    deps.Logger,
		})
	}
	return &Engine{
		opts:    opts,
		store:   deps.Store,
		hosts:   deps.Hosts,
		client:  deps.Client,
		guard:   deps.Guard,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}, nil
}

// Run crawls from seeds until the frontier drains or ctx is cancelled. Seeds
// start with maxDepth remaining; pages at depth 0 are fetched and stored but
// their links are not followed.
//
// Per-URL failures never fail the run; they are reported in Stats. After
// cancellation no new fetch starts, in-flight fetches get the shutdown grace
// period, and Run returns the partial Stats with a nil error.
func (e *Engine) Run(ctx context.Context, seeds []string, maxDepth, maxConcurrency int) (Stats, error) {
	if maxDepth < 0 {
		return Stats{}, ErrInvalidDepth
	}
	if maxConcurrency < 1 {
		return Stats{}, ErrInvalidConcurrency
	}

	f := frontier.New(
		frontier.WithStrategy(e.opts.Strategy),
		frontier.WithBlocklist(e.opts.Blocklist),
	)
	for _, s := range seeds {
		if !f.Offer(s, maxDepth, "") {
			e.logger.Warn("seed rejected", zap.String("url", s))
		}
	}
	if f.Size() == 0 {
		return Stats{}, ErrNoSeeds
	}

	start := time.Now()
	rec := newRecorder(uuid.NewString(), start)
	log := e.logger.With(zap.String("run_id", rec.stats.RunID))
	log.Info("crawl started",
		zap.Int("seeds", f.Size()),
		zap.Int("max_depth", maxDepth),
		zap.Int("workers", maxConcurrency),
		zap.String("strategy", e.opts.Strategy.String()),
	)

	// Fetches run under workCtx, which outlives ctx by the grace period.
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	stop := context.AfterFunc(ctx, func() {
		f.Close()
		time.AfterFunc(e.opts.ShutdownGrace, cancelWork)
	})
	defer stop()

	done := make(chan struct{})
	go e.reportProgress(log, f, rec, start, done)

	var wg sync.WaitGroup
	for i := 0; i < maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.runWorker(ctx, workCtx, f, rec, log)
		}()
	}
	wg.Wait()
	close(done)

	stats := rec.snapshot()
	stats.Accepted = f.TotalQueued()
	stats.Duration = time.Since(start)
	stats.Cancelled = ctx.Err() != nil
	e.metrics.SetFrontierSize(f.Size())

	log.Info("crawl finished",
		zap.Int("accepted", stats.Accepted),
		zap.Int("fetched", stats.Fetched),
		zap.Int("stored", stats.Stored),
		zap.Int("failed", stats.Failed),
		zap.Int("disallowed", stats.Disallowed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("store_errors", len(stats.StoreErrors)),
		zap.Bool("cancelled", stats.Cancelled),
		zap.Duration("took", stats.Duration),
	)
	return stats, nil
}

func (e *Engine) reportProgress(log *zap.Logger, f *frontier.Frontier, rec *recorder, start time.Time, done <-chan struct{}) {
	ticker := time.NewTicker(e.opts.ProgressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case t := <-ticker.C:
			fetched, stored, failed := rec.progress()
			log.Info("crawl progress",
				zap.Float64("minutes", t.Sub(start).Minutes()),
				zap.Int("fetched", fetched),
				zap.Int("stored", stored),
				zap.Int("failed", failed),
				zap.Int("queued", f.Size()),
			)
		}
	}
}
