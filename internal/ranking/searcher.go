package ranking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"webindexer/internal/storage"
)

// Searcher answers queries against a snapshot of a store. The snapshot is
// reused for the session TTL and rebuilt on the first query after it expires;
// a TTL <= 0 rebuilds on every query.
type Searcher struct {
	store  storage.Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	snap    *Snapshot
	builtAt time.Time
}

type SearcherOption func(*Searcher)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SearcherOption {
	return func(s *Searcher) { s.now = now }
}

func NewSearcher(store storage.Store, ttl time.Duration, logger *zap.Logger, opts ...SearcherOption) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Searcher{store: store, ttl: ttl, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search ranks the current snapshot. Store errors from loading it are
// returned to the caller.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Rank(query, limit)
}

// Snapshot returns the live snapshot, loading a fresh one if needed.
func (s *Searcher) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil && s.ttl > 0 && s.now().Sub(s.builtAt) < s.ttl {
		return s.snap, nil
	}

	start := time.Now()
	docs, err := storage.Collect(ctx, s.store)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	s.snap = NewSnapshot(docs)
	s.builtAt = s.now()
	s.logger.Debug("corpus snapshot built",
		zap.Int("documents", s.snap.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return s.snap, nil
}

// Invalidate drops the current snapshot.
func (s *Searcher) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
}
