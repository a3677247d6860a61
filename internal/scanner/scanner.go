// Package scanner turns a news hub page into a short, deduplicated list of
// candidate headlines.
package scanner

import (
	"bytes"
	"context"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/north-cloud/curator/internal/browser"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/fetch"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// Defaults.
const (
	DefaultFetchTimeout = 12 * time.Second
	DefaultMinBodyBytes = 1000
	DefaultMinLinkText  = 15
	DefaultHeadlineText = 25
	DefaultMaxHeadlines = 30
	DefaultImageDepth   = 4
	DefaultSettleDelay  = 2 * time.Second
	defaultReferer      = "https://www.google.com/"
)

// Scan paths recorded in metrics.
const (
	pathFetch   = "fetch"
	pathFeed    = "feed"
	pathBrowser = "browser"
	pathNone    = "none"
)

// Config holds the scan thresholds. The headline heuristics carry no
// confidence signal, so they stay tunable.
type Config struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MinBodyBytes int           `mapstructure:"min_body_bytes"`
	MinLinkText  int           `mapstructure:"min_link_text"`
	HeadlineText int           `mapstructure:"headline_text"`
	MaxHeadlines int           `mapstructure:"max_headlines"`
	ImageDepth   int           `mapstructure:"image_depth"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MinBodyBytes <= 0 {
		c.MinBodyBytes = DefaultMinBodyBytes
	}
	if c.MinLinkText <= 0 {
		c.MinLinkText = DefaultMinLinkText
	}
	if c.HeadlineText <= 0 {
		c.HeadlineText = DefaultHeadlineText
	}
	if c.MaxHeadlines <= 0 {
		c.MaxHeadlines = DefaultMaxHeadlines
	}
	if c.ImageDepth <= 0 {
		c.ImageDepth = DefaultImageDepth
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
}

// Scanner scans hub pages. The browser engine is optional.
type Scanner struct {
	fetcher fetch.Fetcher
	engine  browser.Engine
	cfg     Config
	rules   linkRules
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates a Scanner. engine may be nil to disable the browser fallback.
func New(fetcher fetch.Fetcher, engine browser.Engine, cfg Config, log logger.Logger, m *metrics.Metrics) *Scanner {
	cfg.SetDefaults()
	return &Scanner{
		fetcher: fetcher,
		engine:  engine,
		cfg:     cfg,
		rules:   defaultLinkRules(cfg),
		log:     log.With(logger.Component("scanner")),
		metrics: m,
	}
}

// Scan returns the headlines found on hubURL, or nil when neither a plain fetch
// nor a browser render produced usable HTML, or no headline survived the rules.
func (s *Scanner) Scan(ctx context.Context, hubURL string) *domain.ScanResult {
	base, err := url.Parse(hubURL)
	if err != nil || !urlutil.IsAbsoluteHTTP(hubURL) {
		s.log.Debug("Skipping malformed hub url", logger.String("hub", hubURL))
		return nil
	}

	var headlines []domain.Headline
	scanPath := pathNone

	if body := s.fetchBody(ctx, hubURL); body != nil {
		if isFeed(body) {
			if entries, feedErr := s.parseFeed(body); feedErr == nil {
				headlines, scanPath = s.collectFeed(entries, base), pathFeed
			} else {
				s.log.Debug("Feed parse failed", logger.String("hub", hubURL), logger.Error(feedErr))
			}
		}
		if scanPath == pathNone {
			headlines, scanPath = s.collectHTML(body, base), pathFetch
		}
	} else if html := s.render(ctx, hubURL); html != "" {
		headlines, scanPath = s.collectHTML([]byte(html), base), pathBrowser
	}

	s.metrics.ObserveHubScan(scanPath, len(headlines))

	if len(headlines) == 0 {
		s.log.Info("Hub yielded no headlines",
			logger.String("hub", hubURL),
			logger.String("path", scanPath),
		)
		return nil
	}

	s.log.Info("Hub scanned",
		logger.String("hub", hubURL),
		logger.String("path", scanPath),
		logger.Int("headlines", len(headlines)),
	)

	return &domain.ScanResult{
		Source:    urlutil.Host(hubURL),
		Headlines: headlines,
	}
}

// fetchBody returns the hub body when the plain fetch succeeded with enough bytes.
func (s *Scanner) fetchBody(ctx context.Context, hubURL string) []byte {
	page, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:     hubURL,
		Timeout: s.cfg.FetchTimeout,
		Referer: defaultReferer,
	})
	if err != nil {
		s.log.Debug("Hub fetch failed", logger.String("hub", hubURL), logger.Error(err))
		return nil
	}
	if len(page.Body) < s.cfg.MinBodyBytes {
		s.log.Debug("Hub body too small",
			logger.String("hub", hubURL),
			logger.Int("bytes", len(page.Body)),
		)
		return nil
	}
	return page.Body
}

func (s *Scanner) render(ctx context.Context, hubURL string) string {
	if s.engine == nil {
		return ""
	}
	html, err := s.engine.Render(ctx, hubURL, browser.RenderOptions{SettleDelay: s.cfg.SettleDelay})
	if err != nil {
		s.metrics.ObserveRender(metrics.OutcomeFailure)
		s.log.Warn("Hub render failed", logger.String("hub", hubURL), logger.Error(err))
		return ""
	}
	s.metrics.ObserveRender(metrics.OutcomeSuccess)
	return html
}

// collectHTML runs every anchor through the link rules and attaches images to promoted links.
func (s *Scanner) collectHTML(body []byte, base *url.URL) []domain.Headline {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.log.Debug("Hub HTML parse failed", logger.Error(err))
		return nil
	}

	acc := newAccumulator(s.cfg.MaxHeadlines)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		node := newLinkNode(a, base)
		if v, _ := s.rules.evaluate(node); v != verdictPromote {
			return true
		}
		return acc.add(domain.Headline{
			Title:  node.text,
			URL:    node.url,
			Source: urlutil.Host(node.url),
			Image:  findImage(a, base, s.cfg.ImageDepth),
		})
	})
	return acc.headlines
}

// collectFeed applies the URL rules to feed items; feed titles are trusted as headlines.
func (s *Scanner) collectFeed(entries []feedEntry, base *url.URL) []domain.Headline {
	acc := newAccumulator(s.cfg.MaxHeadlines)
	for _, e := range entries {
		if e.title == "" {
			continue
		}
		link, err := urlutil.Resolve(base, e.link)
		if err != nil || isNonArticleURL(link) {
			continue
		}
		var image string
		if e.image != "" {
			image, _ = urlutil.Resolve(base, e.image)
		}
		if !acc.add(domain.Headline{Title: e.title, URL: link, Source: urlutil.Host(link), Image: image}) {
			break
		}
	}
	return acc.headlines
}

// accumulator dedups by URL key in first-found order up to a cap.
type accumulator struct {
	limit     int
	seen      map[string]struct{}
	headlines []domain.Headline
}

func newAccumulator(limit int) *accumulator {
	return &accumulator{limit: limit, seen: make(map[string]struct{})}
}

// add records h unless its URL was seen. It returns false once the cap is reached.
func (a *accumulator) add(h domain.Headline) bool {
	key := urlutil.Key(h.URL)
	if _, dup := a.seen[key]; !dup {
		a.seen[key] = struct{}{}
		a.headlines = append(a.headlines, h)
	}
	return len(a.headlines) < a.limit
}
