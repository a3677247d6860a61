package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
)

// Client routes requests to a registered Provider after resolving its API key.
// It never retries.
type Client struct {
	providers       map[string]Provider
	defaultProvider string
	limiter         *rate.Limiter
	lookup          KeyLookup
	log             logger.Logger
	metrics         *metrics.Metrics
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithProvider registers or replaces an adapter.
func WithProvider(p Provider) ClientOption {
	return func(c *Client) { c.providers[p.Name()] = p }
}

// WithKeyLookup replaces environment lookup, mainly for tests.
func WithKeyLookup(lookup KeyLookup) ClientOption {
	return func(c *Client) { c.lookup = lookup }
}

// NewClient creates a Client with the openai, gemini and anthropic adapters registered.
func NewClient(cfg Config, log logger.Logger, m *metrics.Metrics, opts ...ClientOption) *Client {
	cfg.SetDefaults()

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		providers: map[string]Provider{
			ProviderOpenAI:    NewOpenAI(cfg.OpenAI, cfg.Timeout),
			ProviderGemini:    NewGemini(cfg.Gemini, cfg.Timeout),
			ProviderAnthropic: NewAnthropic(cfg.Anthropic, cfg.Timeout),
		},
		defaultProvider: strings.ToLower(cfg.Provider),
		limiter:         rate.NewLimiter(limit, cfg.Burst),
		lookup:          os.LookupEnv,
		log:             log.With(logger.Component("llm")),
		metrics:         m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProviderName returns the provider a request would be routed to.
func (c *Client) ProviderName(requested string) string {
	if p := strings.ToLower(strings.TrimSpace(requested)); p != "" {
		return p
	}
	return c.defaultProvider
}

// HasKey reports whether a key is resolvable for the provider without calling it.
func (c *Client) HasKey(provider, explicit string) bool {
	return ResolveKey(c.ProviderName(provider), explicit, c.lookup) != ""
}

// Complete sends req to its provider.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	name := c.ProviderName(req.Provider)
	provider, ok := c.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	req.Provider = name
	req.APIKey = ResolveKey(name, req.APIKey, c.lookup)
	if req.APIKey == "" {
		return nil, &ProviderAuthError{Provider: name}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := provider.Complete(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.ObserveLLM(name, outcomeFor(err), elapsed)
		c.log.Warn("Completion failed",
			logger.String("provider", name),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return nil, err
	}

	c.metrics.ObserveLLM(name, metrics.OutcomeSuccess, elapsed)
	c.log.Debug("Completion succeeded",
		logger.String("provider", name),
		logger.String("model", resp.Model),
		logger.Int("chars", len(resp.Content)),
		logger.Duration("elapsed", elapsed),
	)
	return resp, nil
}

func outcomeFor(err error) string {
	var empty *ProviderEmptyResponseError
	if errors.As(err, &empty) {
		return metrics.OutcomeEmpty
	}
	return metrics.OutcomeFailure
}
