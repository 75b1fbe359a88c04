// Package hostman keeps per-origin crawl policy: robots.txt rules and a
// request rate limiter for every host the crawler touches.
package hostman

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	robotsPath           = "/robots.txt"
	maxRobotsBodyBytes   = 512 * 1024
	defaultRobotsTimeout = 5 * time.Second
)

// HostInfo stores crawl policy & limiter for one origin.
type HostInfo struct {
	robots    *robotstxt.RobotsData // nil means no restrictions
	limiter   *rate.Limiter         // nil when rate limiting is off
	fetchedAt time.Time
}

// Options configures a Manager.
type Options struct {
	UserAgent       string
	RequestsPerHost float64 // <= 0 disables rate limiting
	RobotsTimeout   time.Duration
	Client          *http.Client
	Logger          *zap.Logger
}

// Manager holds HostInfo for every origin we touch. Entries live as long as
// the Manager, which is one crawl run.
type Manager struct {
	mu        sync.RWMutex
	hosts     map[string]*HostInfo
	userAgent string
	rps       float64
	timeout   time.Duration
	client    *http.Client
	logger    *zap.Logger
}

// New returns a ready Manager.
func New(opts Options) *Manager {
	if opts.RobotsTimeout <= 0 {
		opts.RobotsTimeout = defaultRobotsTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		hosts:     make(map[string]*HostInfo),
		userAgent: opts.UserAgent,
		rps:       opts.RequestsPerHost,
		timeout:   opts.RobotsTimeout,
		client:    opts.Client,
		logger:    opts.Logger,
	}
}

// Allowed reports whether robots.txt of u's origin lets our user agent fetch
// u's path. Any failure to obtain robots.txt allows everything.
func (m *Manager) Allowed(ctx context.Context, u *url.URL) bool {
	h := m.host(ctx, u)
	if h.robots == nil {
		return true
	}
	return h.robots.TestAgent(pathWithQuery(u), m.userAgent)
}

// Wait blocks on the origin's token bucket. It returns ctx.Err() if ctx ends
// first.
func (m *Manager) Wait(ctx context.Context, u *url.URL) error {
	h := m.host(ctx, u)
	if h.limiter == nil {
		return nil
	}
	return h.limiter.Wait(ctx)
}

// Hosts returns how many origins have a resolved policy.
func (m *Manager) Hosts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hosts)
}

// host returns the cached policy for u's origin, resolving it on first use.
// Two workers may resolve the same origin concurrently; the later write wins,
// which is harmless because both results describe the same robots.txt.
func (m *Manager) host(ctx context.Context, u *url.URL) *HostInfo {
	key := origin(u)

	m.mu.RLock()
	h, ok := m.hosts[key]
	m.mu.RUnlock()
	if ok {
		return h
	}

	h = &HostInfo{
		robots:    m.fetchRobots(ctx, u),
		fetchedAt: time.Now(),
	}
	h.limiter = m.newLimiter(h.robots)

	m.mu.Lock()
	m.hosts[key] = h
	m.mu.Unlock()
	return h
}

func (m *Manager) newLimiter(robots *robotstxt.RobotsData) *rate.Limiter {
	rps := m.rps
	if robots != nil {
		if grp := robots.FindGroup(m.userAgent); grp != nil && grp.CrawlDelay > 0 {
			delayRPS := 1 / grp.CrawlDelay.Seconds()
			if rps <= 0 || delayRPS < rps {
				rps = delayRPS
			}
		}
	}
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// --- helpers -------------------------------------------------------------

func (m *Manager) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := u.Scheme + "://" + u.Host + robotsPath

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if err != nil {
		return nil
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Debug("robots.txt unavailable, allowing all", zap.String("url", robotsURL), zap.Error(err))
		return nil // treat as no robots file
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Debug("robots.txt not found, allowing all",
			zap.String("url", robotsURL), zap.Int("status", resp.StatusCode))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil
	}
	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		m.logger.Debug("robots.txt unparsable, allowing all", zap.String("url", robotsURL), zap.Error(err))
		return nil
	}
	return robots
}

func origin(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

func pathWithQuery(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
