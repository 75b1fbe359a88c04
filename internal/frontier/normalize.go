package frontier

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"
)

// query parameters that never change page content
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"gclsrc":       {},
	"dclid":        {},
	"msclkid":      {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	ErrEmptyURL       = errors.New("normalize: empty url")
	ErrNotAbsolute    = errors.New("normalize: url must have scheme and host")
	ErrUnsupportedURL = errors.New("normalize: scheme is not http or https")
)

// Normalize turns an absolute http(s) URL into the canonical string used as
// the seen-set key and the document key.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", raw, err)
	}
	return NormalizeURL(u)
}

// NormalizeURL is Normalize for an already parsed URL. u is not modified.
func NormalizeURL(u *url.URL) (string, error) {
	if u.Scheme == "" || u.Host == "" {
		return "", ErrNotAbsolute
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", ErrUnsupportedURL
	}

	n := *u
	n.Scheme = scheme
	n.User = nil
	n.Host = normalizeHost(&n)
	n.Fragment = ""
	n.RawFragment = ""
	n.RawQuery = normalizeQuery(u.RawQuery)
	n.ForceQuery = false

	escaped := normalizePath(u.EscapedPath())
	p, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("normalize path %q: %w", escaped, err)
	}
	n.Path, n.RawPath = p, escaped
	return n.String(), nil
}

func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || defaultPorts[u.Scheme] == port {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, port)
}

// normalizeQuery cleans a parseable query. One that does not parse (";"
// separators, bad escapes) is kept verbatim so distinct URLs stay distinct.
func normalizeQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	return cleanQuery(values)
}

// cleanQuery drops tracking parameters and sorts the rest by key so that
// reordered query strings collapse to one key.
func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, tracking := trackingParams[strings.ToLower(k)]; !tracking {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// normalizePath resolves dot segments in an escaped path, so %2F stays part
// of its segment. An empty path becomes "/" and a trailing slash is kept
// because servers often treat /a and /a/ differently.
func normalizePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}
