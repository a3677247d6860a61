package scanner

import (
	"bytes"
	"strings"

	"github.com/mmcdole/gofeed"
)

// isFeed reports whether body is an RSS, Atom or JSON feed.
func isFeed(body []byte) bool {
	return gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown
}

// feedEntry is a feed item reduced to what headline collection needs.
type feedEntry struct {
	title string
	link  string
	image string
}

func (s *Scanner) parseFeed(body []byte) ([]feedEntry, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	entries := make([]feedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, feedEntry{
			title: collapseSpace(item.Title),
			link:  strings.TrimSpace(item.Link),
			image: feedItemImage(item),
		})
	}
	return entries, nil
}

// feedItemImage prefers the item image, then image enclosures, then media:content / media:thumbnail.
func feedItemImage(item *gofeed.Item) string {
	if item.Image != nil && usableImage(item.Image.URL) {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && usableImage(enc.URL) {
			return enc.URL
		}
	}
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, name := range []string{"content", "thumbnail"} {
		for _, ext := range media[name] {
			if u := ext.Attrs["url"]; usableImage(u) {
				return u
			}
		}
	}
	return ""
}
