package crawler

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"webindexer/internal/document"
	"webindexer/internal/frontier"
	"webindexer/internal/parser"
)

// runWorker takes entries until the frontier is drained or closed. ctx gates
// starting new work; workCtx bounds work already started.
func (e *Engine) runWorker(ctx, workCtx context.Context, f *frontier.Frontier, rec *recorder, log *zap.Logger) {
	for {
		entry, ok := f.Take(ctx)
		if !ok {
			return
		}
		e.process(ctx, workCtx, f, entry, rec, log)
		f.Done(entry)
		e.metrics.SetFrontierSize(f.Size())
	}
}

// process handles one entry end to end. Links are offered only after the
// page's own fetch and store have finished.
func (e *Engine) process(ctx, workCtx context.Context, f *frontier.Frontier, entry frontier.Entry, rec *recorder, log *zap.Logger) {
	log = log.With(zap.String("url", entry.URL), zap.Int("depth", entry.Depth))

	u, err := url.Parse(entry.URL)
	if err != nil {
		rec.record(entry.URL, OutcomeFetchFailed, err)
		return
	}

	if e.guard != nil {
		recent, err := e.guard.Recent(ctx, entry.URL)
		switch {
		case err != nil:
			log.Warn("revisit check failed, crawling anyway", zap.Error(err))
		case recent:
			log.Debug("crawled recently, skipping")
			rec.record(entry.URL, OutcomeSkipped, nil)
			return
		}
	}

	if !e.hosts.Allowed(ctx, u) {
		log.Debug("disallowed by robots.txt")
		e.metrics.IncFetchError("disallowed")
		rec.record(entry.URL, OutcomeDisallowed, nil)
		return
	}
	if err := e.hosts.Wait(ctx, u); err != nil || ctx.Err() != nil {
		rec.record(entry.URL, OutcomeCancelled, nil)
		return
	}

	started := time.Now()
	pg, err := e.fetch(workCtx, entry.URL)
	if err != nil {
		log.Info("fetch failed", zap.Error(err))
		e.metrics.IncFetchError(failureReason(err))
		rec.record(entry.URL, OutcomeFetchFailed, err)
		return
	}
	e.metrics.ObserveFetch(len(pg.body), time.Since(started))

	res := parser.Extract(pg.body, pg.contentType, pg.finalURL)
	doc := document.Document{
		URL:         entry.URL,
		Title:       res.Title,
		Text:        res.Text,
		Links:       res.Links,
		Kind:        res.Kind,
		ContentType: pg.contentType,
		FetchedAt:   time.Now().UTC(),
	}

	if err := e.store.Put(workCtx, doc); err != nil {
		log.Error("store write failed", zap.Error(err))
		e.metrics.IncStoreError()
		rec.record(entry.URL, OutcomeStoreFailed, err)
	} else {
		stored := rec.record(entry.URL, OutcomeStored, nil)
		log.Debug("stored", zap.String("kind", string(res.Kind)), zap.Int("links", len(res.Links)))
		if e.guard != nil {
			if err := e.guard.Mark(workCtx, entry.URL); err != nil {
				log.Warn("revisit mark failed", zap.Error(err))
			}
		}
		if e.opts.MaxPages > 0 && stored >= e.opts.MaxPages {
			log.Info("page limit reached, stopping", zap.Int("max_pages", e.opts.MaxPages))
			f.Close()
			return
		}
	}

	if entry.Depth == 0 {
		return
	}
	for _, link := range res.Links {
		f.Offer(link, entry.Depth-1, entry.URL)
	}
}
