package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const geminiGeneratePath = "/v1beta/models/{model}:generateContent"

// geminiModelRole is Gemini's name for the assistant role.
const geminiModelRole = "model"

// Gemini speaks the generateContent API: the system prompt goes in
// systemInstruction and never appears in contents.
type Gemini struct {
	cfg    ProviderConfig
	client *resty.Client
}

// NewGemini creates the adapter.
func NewGemini(cfg ProviderConfig, timeout time.Duration) *Gemini {
	return &Gemini{
		cfg: cfg,
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// Name implements Provider.
func (p *Gemini) Name() string { return ProviderGemini }

// Complete implements Provider.
func (p *Gemini) Complete(ctx context.Context, req Request) (*Response, error) {
	body := geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Messages)),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: maxTokensOrDefault(req, p.cfg),
		},
	}
	if system := systemPrompt(req); system != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			continue
		case RoleAssistant:
			body.Contents = append(body.Contents, geminiContent{Role: geminiModelRole, Parts: []geminiPart{{Text: m.Content}}})
		default:
			body.Contents = append(body.Contents, geminiContent{Role: string(RoleUser), Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if req.Format == FormatJSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", req.APIKey).
		SetPathParam("model", modelOrDefault(req, p.cfg)).
		SetBody(body).
		Post(geminiGeneratePath)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.IsError() {
		return nil, newHTTPError(ProviderGemini, resp.StatusCode(), resp.Body())
	}

	var out geminiResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("gemini decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return nil, &ProviderEmptyResponseError{Provider: ProviderGemini}
	}

	var text strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, &ProviderEmptyResponseError{Provider: ProviderGemini}
	}

	return &Response{Provider: ProviderGemini, Model: out.ModelVersion, Content: text.String()}, nil
}
