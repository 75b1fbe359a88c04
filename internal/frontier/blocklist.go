package frontier

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultBlockedDomains are social and similar low-value hosts that tend to
// flood the frontier with login walls and share links.
var DefaultBlockedDomains = []string{
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"linkedin.com",
	"tiktok.com",
	"pinterest.com",
	"youtube.com",
	"reddit.com",
}

// Blocklist matches hosts by registered domain (eTLD+1), so blocking
// facebook.com also blocks m.facebook.com.
type Blocklist struct {
	domains map[string]struct{}
}

func NewBlocklist(domains []string) *Blocklist {
	b := &Blocklist{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, ".")
		if d == "" {
			continue
		}
		b.domains[d] = struct{}{}
	}
	return b
}

// Blocked reports whether host (no port) belongs to a blocked domain.
func (b *Blocklist) Blocked(host string) bool {
	if b == nil || len(b.domains) == 0 {
		return false
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if _, ok := b.domains[host]; ok {
		return true
	}
	registered, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// IPs, localhost and bare suffixes have no registered domain
		return false
	}
	_, ok := b.domains[registered]
	return ok
}

func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.domains)
}
