package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 512

var (
	// ErrUnknownProvider is returned for provider names with no registered adapter.
	ErrUnknownProvider = errors.New("llm: unknown provider")
	// ErrProviderEmptyResponse matches every *ProviderEmptyResponseError.
	ErrProviderEmptyResponse = errors.New("llm: empty response")
)

// ProviderAuthError means no API key could be resolved or the upstream rejected it.
type ProviderAuthError struct {
	Provider string
	Err      error
}

func (e *ProviderAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s: authentication failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("llm %s: no api key configured", e.Provider)
}

func (e *ProviderAuthError) Unwrap() error { return e.Err }

// ProviderHTTPError is a non-success upstream response.
type ProviderHTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("llm %s: upstream status %d", e.Provider, e.StatusCode)
}

// ProviderEmptyResponseError means the provider answered with no candidates or text.
type ProviderEmptyResponseError struct {
	Provider string
}

func (e *ProviderEmptyResponseError) Error() string {
	return fmt.Sprintf("llm %s: empty response", e.Provider)
}

func (e *ProviderEmptyResponseError) Is(target error) bool { return target == ErrProviderEmptyResponse }

// ProviderParseError means model output was not the JSON the caller required.
type ProviderParseError struct {
	Raw string
	Err error
}

func (e *ProviderParseError) Error() string {
	return fmt.Sprintf("llm: parse model output: %v", e.Err)
}

func (e *ProviderParseError) Unwrap() error { return e.Err }

// newHTTPError builds the error for a failed upstream call; 401 and 403 are auth failures.
func newHTTPError(provider string, status int, body []byte) error {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	httpErr := &ProviderHTTPError{Provider: provider, StatusCode: status, Body: text}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &ProviderAuthError{Provider: provider, Err: httpErr}
	}
	return httpErr
}
