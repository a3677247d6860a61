// Package domain holds the data shapes passed between the scanner, extractor,
// analyzer and curation packages.
package domain

// Headline is a candidate article link found on a hub page.
type Headline struct {
	Title string `json:"title"`
	// URL is absolute and canonical.
	URL    string `json:"url"`
	Source string `json:"source"`
	Image  string `json:"image,omitempty"`
}

// ScanResult is the outcome of scanning one hub.
type ScanResult struct {
	Source    string     `json:"source"`
	Headlines []Headline `json:"headlines"`
}

// ScrapedArticle is the cleaned main content of one article page.
type ScrapedArticle struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	TextContent string `json:"text_content"`
	Length      int    `json:"length"`
	Excerpt     string `json:"excerpt,omitempty"`
	Byline      string `json:"byline,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Lang        string `json:"lang,omitempty"`
	Dir         string `json:"dir,omitempty"`
}

// EntityExtraction is the structured analysis of one article.
type EntityExtraction struct {
	People        []string `json:"people"`
	Organizations []string `json:"organizations"`
	Media         []string `json:"media"`
	Summary       string   `json:"summary"`
	Sentiment     string   `json:"sentiment,omitempty"`
	Topics        []string `json:"topics,omitempty"`
}

// TopicSource is one article backing a Topic.
type TopicSource struct {
	URL     string `json:"url"`
	Source  string `json:"source"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Image   string `json:"image,omitempty"`
}

// Topic is a cluster of headlines covering the same story.
type Topic struct {
	ID                   string        `json:"id"`
	SyntheticTitle       string        `json:"synthetic_title"`
	SyntheticDescription string        `json:"synthetic_description"`
	Topic                string        `json:"topic"`
	Image                string        `json:"image"`
	Sources              []TopicSource `json:"sources"`
}

// Journey records how a hunt reached its article.
type Journey struct {
	Hubs          []string `json:"hubs"`
	HeadlineCount int      `json:"headline_count"`
	SelectedURL   string   `json:"selected_url,omitempty"`
	// Fallbacks names the phases that degraded, e.g. "discovery" or "selection".
	Fallbacks []string `json:"fallbacks,omitempty"`
}
