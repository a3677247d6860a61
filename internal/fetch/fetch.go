// Package fetch performs single-page HTTP GETs with browser-like headers.
// It is the fast path shared by hub scanning and article extraction.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	defaultAcceptLanguage = "en-US,en;q=0.9"
	defaultMaxBodySize    = 10 * 1024 * 1024
	defaultTimeout        = 10 * time.Second
	acceptHTML            = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
)

var (
	// ErrNetwork wraps transport failures: DNS, TLS, timeouts, resets.
	ErrNetwork = errors.New("fetch: network error")
	// ErrInvalidURL is returned when the request URL is empty.
	ErrInvalidURL = errors.New("fetch: invalid url")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Config controls outgoing request shape.
type Config struct {
	UserAgent      string `mapstructure:"user_agent"`
	AcceptLanguage string `mapstructure:"accept_language"`
	MaxBodySize    int    `mapstructure:"max_body_size"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = defaultAcceptLanguage
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
}

// Request describes one GET.
type Request struct {
	URL     string
	Timeout time.Duration
	Referer string
}

// Page is a successful response.
type Page struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher is implemented by Client and by test doubles.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Page, error)
}

// Client fetches pages with a fresh colly collector per request.
type Client struct {
	cfg       Config
	log       logger.Logger
	transport http.RoundTripper
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, mainly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// New creates a Client.
func New(cfg Config, log logger.Logger, opts ...Option) *Client {
	cfg.SetDefaults()
	c := &Client{cfg: cfg, log: log.With(logger.Component("fetch"))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs a GET and returns the page when the upstream answered 2xx.
// Transport failures wrap ErrNetwork; other statuses return *StatusError.
func (c *Client) Fetch(ctx context.Context, req Request) (*Page, error) {
	if req.URL == "" {
		return nil, ErrInvalidURL
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.MaxBodySize(c.cfg.MaxBodySize),
	)
	collector.SetRequestTimeout(timeout)
	if c.transport != nil {
		collector.WithTransport(c.transport)
	}

	var (
		page     *Page
		fetchErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHTML)
		r.Headers.Set("Accept-Language", c.cfg.AcceptLanguage)
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Cache-Control", "no-cache")
		if req.Referer != "" {
			r.Headers.Set("Referer", req.Referer)
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		page = &Page{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        r.Body,
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := collector.Visit(req.URL); err != nil && fetchErr == nil {
		fetchErr = err
	}

	if page == nil {
		if fetchErr == nil {
			fetchErr = errors.New("no response")
		}
		c.log.Debug("Fetch failed",
			logger.String("url", req.URL),
			logger.Error(fetchErr),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrNetwork, req.URL, fetchErr)
	}

	if page.StatusCode < http.StatusOK || page.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: req.URL, StatusCode: page.StatusCode}
	}

	return page, nil
}
