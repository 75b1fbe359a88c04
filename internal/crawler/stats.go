package crawler

import (
	"sync"
	"time"
)

// Outcome is what happened to one URL taken from the frontier.
type Outcome string

const (
	OutcomeStored      Outcome = "stored"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeDisallowed  Outcome = "disallowed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeStoreFailed Outcome = "store_failed"
	OutcomeCancelled   Outcome = "cancelled"
)

// Stats summarises a run. Every URL the frontier accepted and a worker took
// has exactly one entry in Outcomes.
type Stats struct {
	RunID    string
	Started  time.Time
	Duration time.Duration

	Accepted   int
	Fetched    int
	Stored     int
	Failed     int
	Disallowed int
	Skipped    int
	// Cancelled is set when the run ended because its context was done
	// rather than because the frontier drained.
	Cancelled bool

	Outcomes    map[string]Outcome
	FetchErrors map[string]error
	StoreErrors map[string]error
}

// recorder collects per-URL results from all workers.
type recorder struct {
	mu    sync.Mutex
	stats Stats
}

func newRecorder(runID string, started time.Time) *recorder {
	return &recorder{stats: Stats{
		RunID:       runID,
		Started:     started,
		Outcomes:    make(map[string]Outcome),
		FetchErrors: make(map[string]error),
		StoreErrors: make(map[string]error),
	}}
}

// record stores the outcome of u and returns the number of documents stored
// so far.
func (r *recorder) record(u string, o Outcome, err error) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Outcomes[u] = o
	switch o {
	case OutcomeStored:
		r.stats.Fetched++
		r.stats.Stored++
	case OutcomeStoreFailed:
		r.stats.Fetched++
		r.stats.StoreErrors[u] = err
	case OutcomeFetchFailed:
		r.stats.Failed++
		r.stats.FetchErrors[u] = err
	case OutcomeDisallowed:
		r.stats.Disallowed++
	case OutcomeSkipped:
		r.stats.Skipped++
	}
	return r.stats.Stored
}

func (r *recorder) progress() (fetched, stored, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Fetched, r.stats.Stored, r.stats.Failed
}

func (r *recorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}
