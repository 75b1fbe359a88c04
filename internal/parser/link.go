package parser

import (
	"net/url"
	"strings"

	"webindexer/internal/frontier"
)

// schemes we refuse to crawl
var badScheme = map[string]struct{}{
	"mailto":     {},
	"javascript": {},
	"tel":        {},
	"data":       {},
}

// ResolveLink converts a raw <a href="…"> into a normalized absolute URL.
// It returns "" if the link should be ignored.
func ResolveLink(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if ref.Scheme != "" {
		scheme := strings.ToLower(ref.Scheme)
		if _, bad := badScheme[scheme]; bad {
			return ""
		}
		if scheme != "http" && scheme != "https" {
			return ""
		}
	}

	abs, err := frontier.NormalizeURL(base.ResolveReference(ref))
	if err != nil {
		return ""
	}
	return abs
}
