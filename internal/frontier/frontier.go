// Package frontier is the deduplicated, depth-bounded work queue of a crawl run.
package frontier

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"
)

// Frontier hands out each accepted URL exactly once.
//
// Seen-set insertion and enqueue happen under one lock. Take blocks while the
// queue is empty but some taken entry has not been marked Done, because that
// entry may still produce links; it reports drained once both are zero.
type Frontier struct {
	mu       sync.Mutex
	queue    queue
	visited  *Visited
	blocked  *Blocklist
	strategy Strategy
	rng      *rand.Rand

	inFlight int
	closed   bool
	// wake is closed and replaced whenever waiters should re-check state
	wake chan struct{}
}

// Option configures a Frontier.
type Option func(*Frontier)

func WithBlocklist(b *Blocklist) Option {
	return func(f *Frontier) { f.blocked = b }
}

func WithStrategy(s Strategy) Option {
	return func(f *Frontier) { f.strategy = s }
}

func New(opts ...Option) *Frontier {
	f := &Frontier{
		visited:  NewVisited(),
		strategy: BFS,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		wake:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Offer enqueues rawURL with the given remaining depth. It returns false when
// the URL is not crawlable, already seen, blocked, the depth budget is
// negative, or the frontier is closed.
func (f *Frontier) Offer(rawURL string, depth int, origin string) bool {
	if depth < 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	key, err := NormalizeURL(u)
	if err != nil {
		return false
	}
	if f.blocked.Blocked(u.Hostname()) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	if !f.visited.Add(key) {
		return false
	}
	f.queue.push(Entry{URL: key, Depth: depth, Origin: origin})
	f.broadcastLocked()
	return true
}

// Take returns the next entry. The caller must call Done with it once all of
// its links have been offered. ok is false when the frontier is drained,
// closed, or ctx ends.
func (f *Frontier) Take(ctx context.Context) (Entry, bool) {
	for {
		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return Entry{}, false
		}
		if e, ok := f.strategy.pop(&f.queue, f.rng); ok {
			f.inFlight++
			f.mu.Unlock()
			return e, true
		}
		if f.inFlight == 0 {
			f.mu.Unlock()
			return Entry{}, false
		}
		wake := f.wake
		f.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return Entry{}, false
		}
	}
}

// Done marks a taken entry as finished.
func (f *Frontier) Done(Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
	f.broadcastLocked()
}

// Close makes every pending and future Take return false. Offers after Close
// are rejected.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.broadcastLocked()
}

func (f *Frontier) broadcastLocked() {
	close(f.wake)
	f.wake = make(chan struct{})
}

// Seen reports whether rawURL was ever accepted.
func (f *Frontier) Seen(rawURL string) bool {
	key, err := Normalize(rawURL)
	if err != nil {
		return false
	}
	return f.visited.Has(key)
}

// Size is the number of queued, not yet taken, entries.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.size()
}

// InFlight is the number of taken entries not yet marked Done.
func (f *Frontier) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// TotalQueued counts every accepted entry over the frontier's lifetime, which
// is the size of the seen-set.
func (f *Frontier) TotalQueued() int {
	return f.visited.Size()
}
