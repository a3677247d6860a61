package scanner

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// linkNode is the normalized view of one anchor that link rules evaluate.
type linkNode struct {
	sel *goquery.Selection
	// href is the raw attribute value, trimmed.
	href string
	// text is the anchor text with whitespace collapsed.
	text string
	// url is the resolved canonical URL, empty when href does not resolve to http(s).
	url string
}

func newLinkNode(sel *goquery.Selection, base *url.URL) *linkNode {
	href, _ := sel.Attr("href")
	href = strings.TrimSpace(href)

	text := collapseSpace(sel.Text())
	if text == "" {
		if title, ok := sel.Attr("title"); ok {
			text = collapseSpace(title)
		}
	}

	n := &linkNode{sel: sel, href: href, text: text}
	if resolved, err := urlutil.Resolve(base, href); err == nil {
		n.url = resolved
	}
	return n
}

// tag returns the lowercased element name of sel.
func tag(sel *goquery.Selection) string {
	return strings.ToLower(goquery.NodeName(sel))
}

// hasAncestor reports whether any ancestor of the anchor satisfies pred.
func (n *linkNode) hasAncestor(pred func(*goquery.Selection) bool) bool {
	found := false
	n.sel.Parents().EachWithBreak(func(_ int, parent *goquery.Selection) bool {
		if pred(parent) {
			found = true
			return false
		}
		return true
	})
	return found
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
