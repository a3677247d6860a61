// Package urlutil resolves, canonicalises and compares article URLs so that the
// same page reached through different hubs collapses to one key.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
)

// trackingParams are analytics parameters that never change page content.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
	"dclid":        {},
	"msclkid":      {},
	"mc_cid":       {},
	"mc_eid":       {},
	"ocid":         {},
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("urlutil: empty url")
	// ErrNotHTTP is returned for URLs that are not absolute http(s) URLs.
	ErrNotHTTP = errors.New("urlutil: not an absolute http(s) url")
)

// Resolve resolves href against base and returns its canonical form.
func Resolve(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", ErrEmpty
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", href, err)
	}

	if base != nil {
		ref = base.ResolveReference(ref)
	}

	return canonical(ref)
}

// Canonical lowercases scheme and host, drops default ports and fragments,
// strips tracking parameters and sorts the remaining query.
func Canonical(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmpty
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("canonical %q: %w", raw, err)
	}

	return canonical(u)
}

func canonical(u *url.URL) (string, error) {
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return "", ErrNotHTTP
	}

	out := *u
	out.Scheme = scheme
	out.Host = normalizeHost(u, scheme)
	out.User = nil
	out.Fragment = ""
	out.RawFragment = ""
	out.RawQuery = cleanQuery(u.Query())
	out.Path = normalizePath(u.Path)
	out.RawPath = ""

	return out.String(), nil
}

// Key is the comparison form of a URL: canonical when possible, lowercased,
// without a trailing slash.
func Key(raw string) string {
	if c, err := Canonical(raw); err == nil {
		raw = c
	}
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
}

// Host returns the lowercased hostname of raw, or "" when it cannot be parsed.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsAbsoluteHTTP reports whether raw is an absolute http(s) URL with a host.
func IsAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return (s == "http" || s == "https") && u.Host != ""
}

func normalizeHost(u *url.URL, scheme string) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" || defaultPorts[scheme] == port {
		return host
	}
	return host + ":" + port
}

func cleanQuery(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracked := trackingParams[strings.ToLower(key)]; !tracked {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, val := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(val))
		}
	}
	return b.String()
}

// normalizePath resolves dot-segments and keeps a trailing slash when present.
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
