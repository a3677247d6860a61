package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var errEmptyOutput = errors.New("empty model output")

// Decoded is the outcome of decoding model output: a value or a parse error.
type Decoded[T any] struct {
	Value T
	Err   *ProviderParseError
}

// Ok reports whether decoding succeeded.
func (d Decoded[T]) Ok() bool { return d.Err == nil }

// StripFences removes a surrounding Markdown code fence such as ```json ... ```.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimLeft(s, " "), "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// DecodeJSON strictly unmarshals fenced or bare JSON into T.
func DecodeJSON[T any](raw string) Decoded[T] {
	var out Decoded[T]
	body := StripFences(raw)
	if body == "" {
		out.Err = &ProviderParseError{Raw: raw, Err: errEmptyOutput}
		return out
	}
	if err := json.Unmarshal([]byte(body), &out.Value); err != nil {
		out.Err = &ProviderParseError{Raw: raw, Err: err}
	}
	return out
}

// DecodeLoose decodes into T tolerating loose typing: numbers as strings,
// scalars where lists are expected. Field names follow json tags.
func DecodeLoose[T any](raw string) Decoded[T] {
	var out Decoded[T]
	body := StripFences(raw)
	if body == "" {
		out.Err = &ProviderParseError{Raw: raw, Err: errEmptyOutput}
		return out
	}

	var generic any
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		out.Err = &ProviderParseError{Raw: raw, Err: err}
		return out
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out.Value,
	})
	if err != nil {
		out.Err = &ProviderParseError{Raw: raw, Err: fmt.Errorf("build decoder: %w", err)}
		return out
	}
	if err = decoder.Decode(generic); err != nil {
		out.Err = &ProviderParseError{Raw: raw, Err: err}
	}
	return out
}
