package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jonesrussell/north-cloud/curator/internal/domain"
)

// ErrNoContent is returned when readability finds no main content.
var ErrNoContent = errors.New("extractor: no main content")

// sanitizer is safe for concurrent use once built.
var sanitizer = bluemonday.UGCPolicy()

// extractArticle runs main-content extraction over a full HTML document.
func extractArticle(documentHTML []byte, pageURL *url.URL) (*domain.ScrapedArticle, error) {
	if len(bytes.TrimSpace(documentHTML)) == 0 {
		return nil, ErrNoContent
	}

	parsed, err := readability.FromReader(bytes.NewReader(documentHTML), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	text := strings.TrimSpace(parsed.TextContent)
	if text == "" {
		return nil, ErrNoContent
	}

	article := &domain.ScrapedArticle{
		URL:         pageURL.String(),
		Title:       strings.TrimSpace(parsed.Title),
		Byline:      strings.TrimSpace(parsed.Byline),
		Excerpt:     strings.TrimSpace(parsed.Excerpt),
		SiteName:    strings.TrimSpace(parsed.SiteName),
		Lang:        strings.TrimSpace(parsed.Language),
		Content:     strings.TrimSpace(sanitizer.Sanitize(parsed.Content)),
		TextContent: text,
		Length:      len([]rune(text)),
	}

	if doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(documentHTML)); docErr == nil {
		fillFromMeta(article, doc)
	}

	return article, nil
}

// fillFromMeta fills document-level fields from the <html> element and head metadata.
func fillFromMeta(article *domain.ScrapedArticle, doc *goquery.Document) {
	root := doc.Find("html").First()
	if article.Lang == "" {
		article.Lang = strings.TrimSpace(root.AttrOr("lang", ""))
	}
	article.Dir = strings.TrimSpace(root.AttrOr("dir", ""))

	if article.Title == "" {
		article.Title = firstMeta(doc, "meta[property='og:title']")
		if article.Title == "" {
			article.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}
	if article.SiteName == "" {
		article.SiteName = firstMeta(doc, "meta[property='og:site_name']")
	}
	if article.Byline == "" {
		article.Byline = firstMeta(doc, "meta[name='author']", "meta[property='article:author']")
	}
	if article.Excerpt == "" {
		article.Excerpt = firstMeta(doc, "meta[name='description']", "meta[property='og:description']")
	}
}

func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		if v, ok := doc.Find(selector).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
