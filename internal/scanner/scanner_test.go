package scanner_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/curator/internal/browser"
	"github.com/jonesrussell/north-cloud/curator/internal/fetch"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/scanner"
)

const testHubURL = "https://news.example.com/world/"

var padding = "<p>" + strings.Repeat("Filler paragraph text for the hub page. ", 30) + "</p>"

var hubFixture = `<html><head><title>World News</title></head><body>
<nav><a href="/world/politics-and-government-news-today">Politics and government news today</a></nav>
<div class="site-header"><a href="/2024/05/01/header-story-that-is-ignored">Header story that should be ignored</a></div>
<main>
  <article>
    <meta itemprop="image" content="/img/lead.jpg">
    <h2><a href="/2024/05/01/lead-story">Lead story about the summit</a></h2>
  </article>
  <div class="card">
    <img data-src="https://cdn.example.com/a.jpg" src="data:image/gif;base64,R0lGODlhAQABAAAAACw=">
    <h3><a href="https://news.example.com/2024/05/01/second-story?utm_source=hub">Second story on markets</a></h3>
  </div>
  <div class="card">
    <div class="thumb" style="background-image: url('/img/third.png')"></div>
    <a href="/2024/05/01/third-story">A third story with a sufficiently long title</a>
  </div>
  <h4><a href="/2024/05/01/lead-story#comments">Lead story about the summit</a></h4>
  <a href="/2024/05/01/short">Too short</a>
  <a href="/2024/05/01/medium-length">Medium length link</a>
  <a href="/tag/elections">Everything about the elections here</a>
  <a href="https://twitter.com/examplenews/status/1">Follow our live coverage on Twitter</a>
  <a href="javascript:void(0)">Load more stories from the archive</a>
  ` + padding + `
</main>
<footer><a href="/2024/05/01/footer-link-story">Footer link story with long text</a></footer>
</body></html>`

type stubFetcher struct {
	body  string
	err   error
	calls atomic.Int32
}

func (f *stubFetcher) Fetch(_ context.Context, req fetch.Request) (*fetch.Page, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &fetch.Page{URL: req.URL, StatusCode: 200, Body: []byte(f.body)}, nil
}

type stubEngine struct {
	html  string
	err   error
	calls atomic.Int32
}

func (e *stubEngine) Render(_ context.Context, _ string, _ browser.RenderOptions) (string, error) {
	e.calls.Add(1)
	return e.html, e.err
}

func (e *stubEngine) Close() error { return nil }

func newScanner(f fetch.Fetcher, e browser.Engine) *scanner.Scanner {
	return scanner.New(f, e, scanner.Config{}, logger.NewNop(), nil)
}

func TestScan_HTMLFixture(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{}
	s := newScanner(&stubFetcher{body: hubFixture}, engine)

	result := s.Scan(context.Background(), testHubURL)
	require.NotNil(t, result)
	assert.Equal(t, "news.example.com", result.Source)
	assert.Equal(t, int32(0), engine.calls.Load())

	require.Len(t, result.Headlines, 3)

	lead := result.Headlines[0]
	assert.Equal(t, "Lead story about the summit", lead.Title)
	assert.Equal(t, "https://news.example.com/2024/05/01/lead-story", lead.URL)
	assert.Equal(t, "news.example.com", lead.Source)
	assert.Equal(t, "https://news.example.com/img/lead.jpg", lead.Image)

	second := result.Headlines[1]
	assert.Equal(t, "https://news.example.com/2024/05/01/second-story", second.URL)
	assert.Equal(t, "https://cdn.example.com/a.jpg", second.Image)

	third := result.Headlines[2]
	assert.Equal(t, "A third story with a sufficiently long title", third.Title)
	assert.Equal(t, "https://news.example.com/img/third.png", third.Image)

	for _, h := range result.Headlines {
		u, err := url.Parse(h.URL)
		require.NoError(t, err)
		assert.True(t, u.IsAbs(), h.URL)
	}
}

func TestScan_Idempotent(t *testing.T) {
	t.Parallel()

	s := newScanner(&stubFetcher{body: hubFixture}, nil)
	first := s.Scan(context.Background(), testHubURL)
	second := s.Scan(context.Background(), testHubURL)
	assert.Equal(t, first, second)
}

func TestScan_CapsAndDedups(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := range 50 {
		fmt.Fprintf(&b, `<h2><a href="/2024/story-%d">Story number %d with a long title</a></h2>`, i, i)
		fmt.Fprintf(&b, `<h3><a href="/2024/STORY-%d/">Story number %d repeated in caps</a></h3>`, i, i)
	}
	b.WriteString("</body></html>")

	s := newScanner(&stubFetcher{body: b.String()}, nil)
	result := s.Scan(context.Background(), testHubURL)
	require.NotNil(t, result)
	assert.Len(t, result.Headlines, scanner.DefaultMaxHeadlines)

	seen := make(map[string]bool)
	for _, h := range result.Headlines {
		key := strings.TrimRight(strings.ToLower(h.URL), "/")
		assert.False(t, seen[key], "duplicate %s", h.URL)
		seen[key] = true
	}
}

func TestScan_BrowserFallbackOnThinBody(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{html: hubFixture}
	s := newScanner(&stubFetcher{body: "<html>loading</html>"}, engine)

	result := s.Scan(context.Background(), testHubURL)
	require.NotNil(t, result)
	assert.Equal(t, int32(1), engine.calls.Load())
	assert.Len(t, result.Headlines, 3)
}

func TestScan_BrowserFallbackOnFetchError(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{html: hubFixture}
	s := newScanner(&stubFetcher{err: fetch.ErrNetwork}, engine)

	require.NotNil(t, s.Scan(context.Background(), testHubURL))
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestScan_NothingUsable(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{err: fetch.ErrNetwork}
	engine := &stubEngine{err: errors.New("chrome missing")}

	assert.Nil(t, newScanner(fetcher, engine).Scan(context.Background(), testHubURL))
	assert.Nil(t, newScanner(fetcher, nil).Scan(context.Background(), testHubURL))
}

func TestScan_MalformedHub(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{body: hubFixture}
	s := newScanner(fetcher, nil)

	assert.Nil(t, s.Scan(context.Background(), "not a url"))
	assert.Nil(t, s.Scan(context.Background(), "/relative/path"))
	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestScan_Feed(t *testing.T) {
	t.Parallel()

	desc := strings.Repeat("Long description text for the item. ", 10)
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/"><channel>
<title>Example feed</title><link>https://news.example.com/</link><description>Example</description>
<item><title>Feed story one</title><link>https://news.example.com/2024/feed-one</link>
<description>` + desc + `</description>
<media:content url="https://cdn.example.com/one.jpg" medium="image"/></item>
<item><title>Feed story one again</title><link>https://news.example.com/2024/feed-one?utm_campaign=x</link>
<description>` + desc + `</description></item>
<item><title>Tag page</title><link>https://news.example.com/tag/politics</link>
<description>` + desc + `</description></item>
<item><title>Feed story two</title><link>/2024/feed-two</link>
<enclosure url="https://cdn.example.com/two.png" type="image/png" length="10"/>
<description>` + desc + `</description></item>
</channel></rss>`

	engine := &stubEngine{}
	result := newScanner(&stubFetcher{body: feed}, engine).Scan(context.Background(), testHubURL)
	require.NotNil(t, result)
	require.Len(t, result.Headlines, 2)
	assert.Equal(t, "Feed story one", result.Headlines[0].Title)
	assert.Equal(t, "https://cdn.example.com/one.jpg", result.Headlines[0].Image)
	assert.Equal(t, "https://news.example.com/2024/feed-two", result.Headlines[1].URL)
	assert.Equal(t, "https://cdn.example.com/two.png", result.Headlines[1].Image)
	assert.Equal(t, int32(0), engine.calls.Load())
}
