package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic uses the official SDK. The system prompt is a separate field and
// system-role messages are folded into it.
type Anthropic struct {
	cfg     ProviderConfig
	timeout time.Duration
}

// NewAnthropic creates the adapter.
func NewAnthropic(cfg ProviderConfig, timeout time.Duration) *Anthropic {
	return &Anthropic{cfg: cfg, timeout: timeout}
}

// Name implements Provider.
func (p *Anthropic) Name() string { return ProviderAnthropic }

// Complete implements Provider.
func (p *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(p.cfg.BaseURL),
		option.WithRequestTimeout(p.timeout),
		option.WithMaxRetries(0),
	)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelOrDefault(req, p.cfg)),
		MaxTokens: int64(maxTokensOrDefault(req, p.cfg)),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	if system := systemPrompt(req); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			continue
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, newHTTPError(ProviderAnthropic, apiErr.StatusCode, []byte(apiErr.Error()))
		}
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, &ProviderEmptyResponseError{Provider: ProviderAnthropic}
	}

	return &Response{Provider: ProviderAnthropic, Model: string(msg.Model), Content: text.String()}, nil
}
