// Package extractor turns an article URL into clean main content, trying a
// plain fetch first and a headless browser render when that is not enough.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/curator/internal/browser"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/fetch"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// Strategy selects which extraction paths run.
type Strategy string

// Strategies.
const (
	StrategySmart       Strategy = "smart"
	StrategyFetchOnly   Strategy = "fetch-only"
	StrategyBrowserOnly Strategy = "browser-only"
)

// ParseStrategy maps user input to a Strategy. Unknown values fall back to smart.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fetch", "fetch-only", "fetch_only":
		return StrategyFetchOnly
	case "browser", "browser-only", "browser_only":
		return StrategyBrowserOnly
	default:
		return StrategySmart
	}
}

// Defaults.
const (
	DefaultFetchTimeout  = 10 * time.Second
	DefaultMinBodyBytes  = 500
	DefaultMinTextLength = 200
	DefaultSettleDelay   = 1500 * time.Millisecond
)

const (
	pathFetch   = "fetch"
	pathBrowser = "browser"
	pathNone    = "none"
)

var (
	// ErrContentTooThin is returned by a path whose page or extracted text is below threshold.
	ErrContentTooThin = errors.New("extractor: content too thin")
	// ErrNoBrowser is returned by the browser path when no engine is configured.
	ErrNoBrowser = errors.New("extractor: browser unavailable")
)

// Config holds extraction thresholds.
type Config struct {
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	MinBodyBytes  int           `mapstructure:"min_body_bytes"`
	MinTextLength int           `mapstructure:"min_text_length"`
	SettleDelay   time.Duration `mapstructure:"settle_delay"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultFetchTimeout
	}
	if c.MinBodyBytes <= 0 {
		c.MinBodyBytes = DefaultMinBodyBytes
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = DefaultMinTextLength
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
}

// Options tune one Scrape call.
type Options struct {
	Strategy Strategy
	// Instruction is logged with the request; extraction does not use it.
	Instruction string
}

// Result wraps a successful extraction.
type Result struct {
	Article domain.ScrapedArticle `json:"article"`
}

// Extractor scrapes article pages.
type Extractor struct {
	fetcher fetch.Fetcher
	engine  browser.Engine
	cfg     Config
	log     logger.Logger
	metrics *metrics.Metrics
}

// New creates an Extractor. engine may be nil, which makes the browser path fail.
func New(fetcher fetch.Fetcher, engine browser.Engine, cfg Config, log logger.Logger, m *metrics.Metrics) *Extractor {
	cfg.SetDefaults()
	return &Extractor{
		fetcher: fetcher,
		engine:  engine,
		cfg:     cfg,
		log:     log.With(logger.Component("extractor")),
		metrics: m,
	}
}

// Scrape extracts rawURL with the requested strategy and returns nil when no path succeeded.
func (e *Extractor) Scrape(ctx context.Context, rawURL string, opts Options) *Result {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategySmart
	}

	pageURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !urlutil.IsAbsoluteHTTP(rawURL) {
		e.log.Debug("Skipping malformed article url", logger.String("url", rawURL))
		e.metrics.ObserveScrape(string(strategy), pathNone, metrics.OutcomeFailure)
		return nil
	}

	log := e.log.With(logger.String("url", rawURL), logger.String("strategy", string(strategy)))
	if opts.Instruction != "" {
		log = log.With(logger.String("instruction", opts.Instruction))
	}

	if strategy != StrategyBrowserOnly {
		article, fetchErr := e.viaFetch(ctx, pageURL)
		if fetchErr == nil {
			e.metrics.ObserveScrape(string(strategy), pathFetch, metrics.OutcomeSuccess)
			log.Debug("Extracted via fetch", logger.Int("length", article.Length))
			return &Result{Article: *article}
		}
		log.Debug("Fetch path failed", logger.Error(fetchErr))
		if strategy == StrategyFetchOnly {
			e.metrics.ObserveScrape(string(strategy), pathFetch, metrics.OutcomeFailure)
			return nil
		}
	}

	article, renderErr := e.viaBrowser(ctx, pageURL)
	if renderErr != nil {
		e.metrics.ObserveScrape(string(strategy), pathBrowser, metrics.OutcomeFailure)
		log.Warn("Extraction failed", logger.Error(renderErr))
		return nil
	}

	e.metrics.ObserveScrape(string(strategy), pathBrowser, metrics.OutcomeSuccess)
	log.Debug("Extracted via browser", logger.Int("length", article.Length))
	return &Result{Article: *article}
}

func (e *Extractor) viaFetch(ctx context.Context, pageURL *url.URL) (*domain.ScrapedArticle, error) {
	page, err := e.fetcher.Fetch(ctx, fetch.Request{URL: pageURL.String(), Timeout: e.cfg.FetchTimeout})
	if err != nil {
		return nil, err
	}
	if len(page.Body) < e.cfg.MinBodyBytes {
		return nil, fmt.Errorf("%w: body %d bytes", ErrContentTooThin, len(page.Body))
	}

	article, err := extractArticle(page.Body, pageURL)
	if err != nil {
		return nil, err
	}
	if article.Length < e.cfg.MinTextLength {
		return nil, fmt.Errorf("%w: text %d chars", ErrContentTooThin, article.Length)
	}
	return article, nil
}

func (e *Extractor) viaBrowser(ctx context.Context, pageURL *url.URL) (*domain.ScrapedArticle, error) {
	if e.engine == nil {
		return nil, ErrNoBrowser
	}

	html, err := e.engine.Render(ctx, pageURL.String(), browser.RenderOptions{
		BlockResources: true,
		SettleDelay:    e.cfg.SettleDelay,
	})
	if err != nil {
		e.metrics.ObserveRender(metrics.OutcomeFailure)
		return nil, err
	}
	e.metrics.ObserveRender(metrics.OutcomeSuccess)

	return extractArticle([]byte(html), pageURL)
}
