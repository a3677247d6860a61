// Package llm puts chat-completion providers with incompatible wire formats
// behind one Complete call.
package llm

import (
	"context"
	"time"
)

// Role is the author of a chat message.
type Role string

// Roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Format is the requested response format.
type Format string

// Formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// Request is a provider-neutral completion request.
type Request struct {
	// Provider overrides the client's default provider.
	Provider string
	// APIKey overrides the provider's environment variable.
	APIKey string
	// Model overrides the provider's configured model.
	Model       string
	System      string
	Messages    []Message
	Format      Format
	Temperature *float64
	MaxTokens   int
}

// Response is the text returned by a provider.
type Response struct {
	Provider string
	Model    string
	Content  string
}

// Provider adapts one upstream API. Implementations receive a request whose
// APIKey is already resolved.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float64) *float64 {
	return &t
}

// Config configures the client and every adapter.
type Config struct {
	// Provider is the default provider name.
	Provider          string         `mapstructure:"provider"`
	Timeout           time.Duration  `mapstructure:"timeout"`
	RequestsPerSecond float64        `mapstructure:"requests_per_second"`
	Burst             int            `mapstructure:"burst"`
	OpenAI            ProviderConfig `mapstructure:"openai"`
	Gemini            ProviderConfig `mapstructure:"gemini"`
	Anthropic         ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig holds per-provider endpoints and model defaults.
type ProviderConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

const (
	defaultTimeout   = 60 * time.Second
	defaultBurst     = 1
	defaultMaxTokens = 2048
)

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	c.OpenAI.setDefaults("https://api.openai.com", "gpt-4o-mini")
	c.Gemini.setDefaults("https://generativelanguage.googleapis.com", "gemini-2.0-flash")
	c.Anthropic.setDefaults("https://api.anthropic.com", "claude-3-5-haiku-latest")
}

func (p *ProviderConfig) setDefaults(baseURL, model string) {
	if p.BaseURL == "" {
		p.BaseURL = baseURL
	}
	if p.Model == "" {
		p.Model = model
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = defaultMaxTokens
	}
}

// systemPrompt joins Request.System with any system-role messages.
func systemPrompt(req Request) string {
	prompt := req.System
	for _, m := range req.Messages {
		if m.Role != RoleSystem {
			continue
		}
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += m.Content
	}
	return prompt
}

func modelOrDefault(req Request, cfg ProviderConfig) string {
	if req.Model != "" {
		return req.Model
	}
	return cfg.Model
}

func maxTokensOrDefault(req Request, cfg ProviderConfig) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return cfg.MaxTokens
}
