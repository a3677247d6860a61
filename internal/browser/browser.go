// Package browser owns the headless Chrome process used when a plain fetch
// does not yield usable HTML. One process is launched lazily and shared; every
// render runs in its own isolated browser context.
package browser

import (
	"context"
	"errors"
	"time"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultSettleDelay       = 2 * time.Second
)

// ErrClosed is returned by Render after Close.
var ErrClosed = errors.New("browser: engine closed")

// Config controls the headless browser.
type Config struct {
	// ExecPath overrides the Chrome binary; empty uses chromedp discovery.
	ExecPath          string        `mapstructure:"exec_path"`
	// Headed shows the browser window; the zero value runs headless.
	Headed            bool          `mapstructure:"headed"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	UserAgent         string        `mapstructure:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// SetDefaults fills unset durations.
func (c *Config) SetDefaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = defaultNavigationTimeout
	}
}

// RenderOptions tune one render.
type RenderOptions struct {
	// BlockResources aborts image, font and media requests.
	BlockResources bool
	// SettleDelay is how long to wait after navigation for client-side rendering.
	SettleDelay time.Duration
}

// Engine renders pages to HTML.
type Engine interface {
	// Render navigates to url in a fresh browser context and returns the resulting document HTML.
	Render(ctx context.Context, url string, opts RenderOptions) (string, error)
	// Close shuts the browser process down. It is safe to call more than once.
	Close() error
}

// Run creates an Engine, hands it to fn and closes it when fn returns.
func Run(ctx context.Context, cfg Config, fn func(ctx context.Context, engine Engine) error) error {
	engine := NewChrome(cfg)
	defer func() { _ = engine.Close() }()
	return fn(ctx, engine)
}

func settleDelay(opts RenderOptions) time.Duration {
	if opts.SettleDelay > 0 {
		return opts.SettleDelay
	}
	return defaultSettleDelay
}
