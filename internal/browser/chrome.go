package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// blockedResourceTypes are aborted when RenderOptions.BlockResources is set.
var blockedResourceTypes = map[network.ResourceType]struct{}{
	network.ResourceTypeImage: {},
	network.ResourceTypeFont:  {},
	network.ResourceTypeMedia: {},
}

// Chrome is an Engine backed by chromedp.
type Chrome struct {
	cfg Config

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closed        bool
}

// NewChrome returns an Engine that launches Chrome on first Render.
func NewChrome(cfg Config) *Chrome {
	cfg.SetDefaults()
	return &Chrome{cfg: cfg}
}

func (c *Chrome) headless() bool { return !c.cfg.Headed }

// launch starts the browser process if it is not running. Callers hold mu.
func (c *Chrome) launch() error {
	if c.browserCtx != nil {
		return nil
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", c.headless()))
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}
	if c.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if c.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.cfg.UserAgent))
	}

	// The browser outlives any single request, so it hangs off Background.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("launch browser: %w", err)
	}

	c.allocCancel = allocCancel
	c.browserCtx = browserCtx
	c.browserCancel = browserCancel
	return nil
}

// Render implements Engine.
func (c *Chrome) Render(ctx context.Context, url string, opts RenderOptions) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if err := c.launch(); err != nil {
		c.mu.Unlock()
		return "", err
	}
	parent := c.browserCtx
	c.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(parent, chromedp.WithNewBrowserContext())
	defer tabCancel()

	timeoutCtx, cancel := context.WithTimeout(tabCtx, c.cfg.NavigationTimeout)
	defer cancel()

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	actions := make([]chromedp.Action, 0, 4)
	if opts.BlockResources {
		blockResources(timeoutCtx)
		actions = append(actions, fetch.Enable())
	}

	var html string
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.Sleep(settleDelay(opts)),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	return html, nil
}

// blockResources fails paused requests for blocked resource types and lets the rest continue.
func blockResources(ctx context.Context) {
	chromedp.ListenTarget(ctx, func(ev any) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			execCtx := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target)
			if _, blocked := blockedResourceTypes[paused.ResourceType]; blocked {
				_ = fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
				return
			}
			_ = fetch.ContinueRequest(paused.RequestID).Do(execCtx)
		}()
	})
}

// Close implements Engine.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.browserCancel != nil {
		c.browserCancel()
		c.allocCancel()
		c.browserCtx = nil
		c.browserCancel = nil
		c.allocCancel = nil
	}
	return nil
}
