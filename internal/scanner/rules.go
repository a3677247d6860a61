package scanner

import (
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// verdict is the decision a matching rule makes about a link.
type verdict int

const (
	verdictReject verdict = iota + 1
	verdictPromote
)

func (v verdict) String() string {
	switch v {
	case verdictReject:
		return "reject"
	case verdictPromote:
		return "promote"
	default:
		return "none"
	}
}

// linkRule pairs a predicate with the verdict applied when it matches.
type linkRule struct {
	name    string
	match   func(n *linkNode) bool
	verdict verdict
}

// linkRules are evaluated in order; the first match decides. No match rejects.
type linkRules []linkRule

func (rules linkRules) evaluate(n *linkNode) (verdict, string) {
	for _, r := range rules {
		if r.match(n) {
			return r.verdict, r.name
		}
	}
	return verdictReject, "unmatched"
}

var navigationTags = map[string]struct{}{
	"nav":    {},
	"header": {},
	"footer": {},
	"aside":  {},
	"menu":   {},
}

var navigationTokens = []string{"menu", "nav", "header", "footer", "sidebar", "breadcrumb"}

var headlineContainers = map[string]struct{}{
	"h1":      {},
	"h2":      {},
	"h3":      {},
	"h4":      {},
	"article": {},
}

// nonArticleSegments are path segments that mark listing or utility pages.
var nonArticleSegments = map[string]struct{}{
	"tag":       {},
	"tags":      {},
	"topic":     {},
	"author":    {},
	"authors":   {},
	"category":  {},
	"login":     {},
	"signin":    {},
	"signup":    {},
	"register":  {},
	"subscribe": {},
	"account":   {},
	"search":    {},
	"privacy":   {},
	"terms":     {},
	"contact":   {},
}

var nonArticleExtensions = map[string]struct{}{
	".pdf": {}, ".xml": {}, ".json": {}, ".jpg": {}, ".jpeg": {},
	".png": {}, ".gif": {}, ".svg": {}, ".mp3": {}, ".mp4": {}, ".zip": {},
}

var socialHosts = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
	"youtube.com", "tiktok.com", "pinterest.com", "reddit.com", "t.me",
	"whatsapp.com", "threads.net", "bsky.app",
}

var scriptSchemes = []string{"javascript:", "mailto:", "tel:", "data:"}

func defaultLinkRules(cfg Config) linkRules {
	return linkRules{
		{name: "missing-href", verdict: verdictReject, match: func(n *linkNode) bool {
			return n.href == "" || strings.HasPrefix(n.href, "#")
		}},
		{name: "script-scheme", verdict: verdictReject, match: func(n *linkNode) bool {
			lower := strings.ToLower(n.href)
			for _, scheme := range scriptSchemes {
				if strings.HasPrefix(lower, scheme) {
					return true
				}
			}
			return false
		}},
		{name: "unresolvable", verdict: verdictReject, match: func(n *linkNode) bool {
			return n.url == ""
		}},
		{name: "short-text", verdict: verdictReject, match: func(n *linkNode) bool {
			return len([]rune(n.text)) < cfg.MinLinkText
		}},
		{name: "navigation-ancestor", verdict: verdictReject, match: func(n *linkNode) bool {
			return n.hasAncestor(isNavigation)
		}},
		{name: "non-article-url", verdict: verdictReject, match: func(n *linkNode) bool {
			return isNonArticleURL(n.url)
		}},
		{name: "headline-container", verdict: verdictPromote, match: func(n *linkNode) bool {
			return n.hasAncestor(func(s *goquery.Selection) bool {
				_, ok := headlineContainers[tag(s)]
				return ok
			})
		}},
		{name: "long-text", verdict: verdictPromote, match: func(n *linkNode) bool {
			return len([]rune(n.text)) > cfg.HeadlineText
		}},
	}
}

// isNavigation matches navigation chrome by tag, class or id.
func isNavigation(s *goquery.Selection) bool {
	if _, ok := navigationTags[tag(s)]; ok {
		return true
	}
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	attrs := strings.ToLower(class + " " + id)
	for _, token := range navigationTokens {
		if strings.Contains(attrs, token) {
			return true
		}
	}
	return false
}

// isNonArticleURL matches listing pages, social networks and static assets.
func isNonArticleURL(raw string) bool {
	host := urlutil.Host(raw)
	for _, social := range socialHosts {
		if host == social || strings.HasSuffix(host, "."+social) {
			return true
		}
	}

	lower := strings.ToLower(raw)
	if i := strings.Index(lower, "://"); i >= 0 {
		lower = lower[i+3:]
	}
	if i := strings.IndexByte(lower, '/'); i >= 0 {
		lower = lower[i:]
	} else {
		return true
	}
	if i := strings.IndexAny(lower, "?#"); i >= 0 {
		lower = lower[:i]
	}

	if lower == "/" {
		return true
	}
	if _, ok := nonArticleExtensions[path.Ext(lower)]; ok {
		return true
	}
	for _, segment := range strings.Split(strings.Trim(lower, "/"), "/") {
		if _, ok := nonArticleSegments[segment]; ok {
			return true
		}
	}
	return false
}
