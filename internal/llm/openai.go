package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const openAIChatPath = "/v1/chat/completions"

// OpenAI speaks the chat completions API: system prompt as the leading message
// of a flat messages array.
type OpenAI struct {
	cfg    ProviderConfig
	client *resty.Client
}

// NewOpenAI creates the adapter.
func NewOpenAI(cfg ProviderConfig, timeout time.Duration) *OpenAI {
	return &OpenAI{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    *float64              `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Name implements Provider.
func (p *OpenAI) Name() string { return ProviderOpenAI }

// Complete implements Provider.
func (p *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	body := openAIRequest{
		Model:       modelOrDefault(req, p.cfg),
		Messages:    make([]openAIMessage, 0, len(req.Messages)+1),
		Temperature: req.Temperature,
		MaxTokens:   maxTokensOrDefault(req, p.cfg),
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openAIMessage{Role: string(RoleSystem), Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	if req.Format == FormatJSON {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(req.APIKey).
		SetBody(body).
		Post(openAIChatPath)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.IsError() {
		return nil, newHTTPError(ProviderOpenAI, resp.StatusCode(), resp.Body())
	}

	var out openAIResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("openai decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, &ProviderEmptyResponseError{Provider: ProviderOpenAI}
	}

	return &Response{
		Provider: ProviderOpenAI,
		Model:    out.Model,
		Content:  out.Choices[0].Message.Content,
	}, nil
}
