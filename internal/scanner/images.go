package scanner

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// imageRule extracts a raw image reference from within one node, or "".
type imageRule struct {
	name string
	find func(s *goquery.Selection) string
}

var backgroundImagePattern = regexp.MustCompile(`background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// lazyAttributes are checked in order on each <img>.
var lazyAttributes = []string{"data-src", "data-original", "data-lazy-src", "src"}

// imageRules run in priority order against each candidate node.
var imageRules = []imageRule{
	{name: "meta-itemprop", find: findMetaImage},
	{name: "img-attribute", find: findLazyImage},
	{name: "background-image", find: findBackgroundImage},
}

func findMetaImage(s *goquery.Selection) string {
	return firstAttr(selfAndFind(s, `meta[itemprop="image"]`), "content")
}

func findLazyImage(s *goquery.Selection) string {
	var found string
	selfAndFind(s, "img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		for _, attr := range lazyAttributes {
			if v, ok := img.Attr(attr); ok && usableImage(v) {
				found = strings.TrimSpace(v)
				return false
			}
		}
		if srcset, ok := img.Attr("srcset"); ok {
			if first := firstSrcsetCandidate(srcset); usableImage(first) {
				found = first
				return false
			}
		}
		return true
	})
	return found
}

func findBackgroundImage(s *goquery.Selection) string {
	var found string
	selfAndFind(s, "[style]").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		style, _ := el.Attr("style")
		if m := backgroundImagePattern.FindStringSubmatch(style); m != nil && usableImage(m[1]) {
			found = strings.TrimSpace(m[1])
			return false
		}
		return true
	})
	return found
}

// selfAndFind returns s itself (when it matches selector) followed by matching descendants.
func selfAndFind(s *goquery.Selection, selector string) *goquery.Selection {
	return s.Filter(selector).AddSelection(s.Find(selector))
}

func firstAttr(s *goquery.Selection, attr string) string {
	var found string
	s.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if v, ok := el.Attr(attr); ok && usableImage(v) {
			found = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return found
}

func firstSrcsetCandidate(srcset string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(srcset), ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// usableImage rejects inline data and favicon-style placeholders.
func usableImage(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "" || strings.HasPrefix(v, "data:") {
		return false
	}
	for _, placeholder := range []string{"favicon", "placeholder", "blank.gif", "spacer.gif", "pixel.gif"} {
		if strings.Contains(v, placeholder) {
			return false
		}
	}
	return true
}

// findImage checks the anchor and then up to depth ancestors, each together with its
// immediately preceding sibling. The first rule match wins.
func findImage(anchor *goquery.Selection, base *url.URL, depth int) string {
	current := anchor
	for level := 0; level <= depth && current.Length() > 0; level++ {
		for _, candidate := range []*goquery.Selection{current, current.Prev()} {
			if candidate.Length() == 0 {
				continue
			}
			for _, rule := range imageRules {
				raw := rule.find(candidate)
				if raw == "" {
					continue
				}
				if resolved, err := urlutil.Resolve(base, raw); err == nil {
					return resolved
				}
			}
		}
		current = current.Parent()
		if tag(current) == "body" || tag(current) == "html" {
			break
		}
	}
	return ""
}
