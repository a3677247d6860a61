package curation

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// basicTopics turns matching headlines into single-source topics. An empty
// query matches everything. At most FallbackLimit topics are returned.
func (o *Orchestrator) basicTopics(query, category string, headlines []domain.Headline) []domain.Topic {
	matches := basicMatches(query, headlines)
	if len(matches) > o.cfg.FallbackLimit {
		matches = matches[:o.cfg.FallbackLimit]
	}

	topics := make([]domain.Topic, 0, len(matches))
	for _, h := range matches {
		src := o.topicSource(h)
		topics = append(topics, domain.Topic{
			ID:                   uuid.NewString(),
			SyntheticTitle:       h.Title,
			SyntheticDescription: fmt.Sprintf("Reported by %s.", h.Source),
			Topic:                topicLabel(category),
			Image:                src.Image,
			Sources:              []domain.TopicSource{src},
		})
	}
	return topics
}

// basicMatches returns headlines whose title contains query, case-insensitively.
func basicMatches(query string, headlines []domain.Headline) []domain.Headline {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return headlines
	}
	var out []domain.Headline
	for _, h := range headlines {
		if strings.Contains(strings.ToLower(h.Title), q) {
			out = append(out, h)
		}
	}
	return out
}

// firstMatch returns the index of the first headline matching query, or 0.
func firstMatch(query string, headlines []domain.Headline) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	for i, h := range headlines {
		if strings.Contains(strings.ToLower(h.Title), q) {
			return i
		}
	}
	return 0
}

func (o *Orchestrator) topicSource(h domain.Headline) domain.TopicSource {
	source := h.Source
	if source == "" {
		source = urlutil.Host(h.URL)
	}
	image := h.Image
	if image == "" {
		image = o.favicon(h.URL)
	}
	return domain.TopicSource{
		URL:     h.URL,
		Source:  source,
		Title:   h.Title,
		Snippet: h.Title,
		Image:   image,
	}
}

// favicon builds the favicon service URL for the host of pageURL.
func (o *Orchestrator) favicon(pageURL string) string {
	host := urlutil.Host(pageURL)
	if host == "" {
		return ""
	}
	return fmt.Sprintf(o.cfg.FaviconService, url.QueryEscape(host))
}
