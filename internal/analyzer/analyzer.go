// Package analyzer extracts people, organizations, media outlets and a summary
// from an article using a chat-completion provider.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

// DefaultTextBudget bounds the article text sent to the provider, in characters.
const DefaultTextBudget = 15000

const defaultTemperature = 0.2

const systemPrompt = `You are a news analyst. Respond with a single JSON object and nothing else.
The object must have exactly these keys:
  "people": array of person names mentioned in the article,
  "organizations": array of organization names,
  "media": array of news outlets or media brands referenced,
  "summary": two to three sentence neutral summary,
  "sentiment": one of "positive", "negative", "neutral" or "mixed",
  "topics": array of short topic labels.
Use empty arrays when nothing applies. Do not wrap the JSON in Markdown.`

// Completer is the part of llm.Client the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Credentials select the provider and key for one call. Empty fields use client defaults.
type Credentials struct {
	Provider string
	APIKey   string
	Model    string
}

// Config tunes the analyzer.
type Config struct {
	TextBudget int `mapstructure:"text_budget"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TextBudget <= 0 {
		c.TextBudget = DefaultTextBudget
	}
}

// Analyzer runs entity extraction.
type Analyzer struct {
	llm Completer
	cfg Config
	log logger.Logger
}

// New creates an Analyzer.
func New(completer Completer, cfg Config, log logger.Logger) *Analyzer {
	cfg.SetDefaults()
	return &Analyzer{llm: completer, cfg: cfg, log: log.With(logger.Component("analyzer"))}
}

// Analyze returns the entity extraction for article. A nil article yields (nil, nil).
// Provider errors and *llm.ProviderParseError are returned unchanged; there is no retry.
func (a *Analyzer) Analyze(
	ctx context.Context, article *domain.ScrapedArticle, instruction string, creds Credentials,
) (*domain.EntityExtraction, error) {
	if article == nil {
		return nil, nil
	}

	resp, err := a.llm.Complete(ctx, llm.Request{
		Provider:    creds.Provider,
		APIKey:      creds.APIKey,
		Model:       creds.Model,
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: a.buildPrompt(article, instruction)}},
		Format:      llm.FormatJSON,
		Temperature: llm.Temperature(defaultTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", article.URL, err)
	}

	decoded := llm.DecodeJSON[domain.EntityExtraction](resp.Content)
	if !decoded.Ok() {
		a.log.Warn("Analysis output was not valid JSON",
			logger.String("url", article.URL),
			logger.Error(decoded.Err),
		)
		return nil, fmt.Errorf("analyze %s: %w", article.URL, decoded.Err)
	}

	result := decoded.Value
	normalize(&result)
	return &result, nil
}

func (a *Analyzer) buildPrompt(article *domain.ScrapedArticle, instruction string) string {
	var b strings.Builder
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		b.WriteString("Editor instruction: ")
		b.WriteString(instruction)
		b.WriteString("\n\n")
	}
	b.WriteString("Title: ")
	b.WriteString(article.Title)
	b.WriteString("\nURL: ")
	b.WriteString(article.URL)
	b.WriteString("\n\nArticle text:\n")
	b.WriteString(Truncate(article.TextContent, a.cfg.TextBudget))
	return b.String()
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// normalize replaces nil slices so the JSON output always carries arrays.
func normalize(e *domain.EntityExtraction) {
	if e.People == nil {
		e.People = []string{}
	}
	if e.Organizations == nil {
		e.Organizations = []string{}
	}
	if e.Media == nil {
		e.Media = []string{}
	}
}
