package crawler

import (
	"time"

	"webindexer/internal/frontier"
)

const (
	DefaultUserAgent        = "webindexer/1.0"
	DefaultRequestTimeout   = 15 * time.Second
	DefaultMaxBodyBytes     = 1 << 20 // 1 MiB safety cap
	DefaultShutdownGrace    = 10 * time.Second
	DefaultProgressInterval = time.Minute
)

// Options tunes one Engine. The zero value of each field falls back to the
// matching default.
type Options struct {
	UserAgent      string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Strategy       frontier.Strategy
	Blocklist      *frontier.Blocklist
	Retry          RetryPolicy
	// ShutdownGrace bounds how long in-flight fetches may run after the run
	// context is cancelled.
	ShutdownGrace time.Duration
	// MaxPages stops the run after this many documents are stored; 0 means
	// no limit.
	MaxPages         int
	ProgressInterval time.Duration
}

// RetryPolicy bounds re-attempts of transient fetch failures within one run.
// MaxAttempts <= 1 means every URL is tried exactly once.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// delay is the wait before attempt n+1, doubling from Backoff.
func (p RetryPolicy) delay(n int) time.Duration {
	d := p.Backoff
	if d <= 0 {
		d = 500 * time.Millisecond
	}
	for i := 1; i < n; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	return d
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.ShutdownGrace <= 0 {
		o.ShutdownGrace = DefaultShutdownGrace
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	return o
}
