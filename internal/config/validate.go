package config

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the fields defaults cannot repair.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}

	switch strings.ToLower(c.LLM.Provider) {
	case llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderAnthropic:
	default:
		return &ValidationError{Field: "llm.provider", Message: "must be one of: openai, gemini, anthropic"}
	}

	if c.LLM.RequestsPerSecond < 0 {
		return &ValidationError{Field: "llm.requests_per_second", Message: "must not be negative"}
	}

	for i, hub := range c.Curation.DefaultHubs {
		if !urlutil.IsAbsoluteHTTP(hub) {
			return &ValidationError{
				Field:   fmt.Sprintf("curation.default_hubs[%d]", i),
				Message: "must be an absolute http(s) URL",
			}
		}
	}

	if c.Curation.FaviconService != "" && strings.Count(c.Curation.FaviconService, "%s") != 1 {
		return &ValidationError{Field: "curation.favicon_service", Message: "must contain exactly one %s"}
	}

	return nil
}
