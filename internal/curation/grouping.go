package curation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

const selectionTemperature = 0.3

var errNoCompleter = errors.New("no completion provider configured")

const groupingSystemPrompt = `You are a news editor. You receive a numbered list of headlines.
Group headlines that cover the same story into topics and reply with a single JSON object:
{"topics": [{"title": "...", "description": "...", "topic": "...", "sources": [0, 3]}]}
"title" is a neutral synthesized headline, "description" one or two sentences,
"topic" a short label and "sources" the headline numbers backing the topic.
Only use numbers from the list. Omit headlines that do not match the request.`

const selectionSystemPrompt = `You are a news editor. You receive a numbered list of headlines.
Pick the single most relevant headline for the request and reply with a single JSON object:
{"index": 0, "reason": "..."}. Only use numbers from the list.`

type groupEnvelope struct {
	Topics []json.RawMessage `json:"topics"`
}

type groupEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	Sources     []int  `json:"sources"`
}

type selectionReply struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// headlinePrompt renders the numbered list sent to the provider, capped at
// MaxPromptHeadlines entries. It returns the number of entries listed.
func (o *Orchestrator) headlinePrompt(
	request, category string,
	headlines []domain.Headline,
) (string, int) {
	n := min(len(headlines), o.cfg.MaxPromptHeadlines)

	var b strings.Builder
	if request != "" {
		fmt.Fprintf(&b, "Request: %s\n", request)
	}
	if category != "" {
		fmt.Fprintf(&b, "Category: %s\n", category)
	}
	if guideline, ok := o.guidelines.Guideline(category); ok {
		fmt.Fprintf(&b, "\nEditorial guidelines:\n%s\n", guideline)
	}
	b.WriteString("\nHeadlines:\n")
	for i := range n {
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i, headlines[i].Title, headlines[i].Source)
	}
	return b.String(), n
}

// group asks the provider to cluster headlines into topics.
func (o *Orchestrator) group(
	ctx context.Context,
	req SearchRequest,
	headlines []domain.Headline,
) ([]domain.Topic, error) {
	prompt, listed := o.headlinePrompt(joinRequest(req.Query, req.Instruction), req.Category, headlines)

	resp, err := o.complete(ctx, req.Credentials, groupingSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	entries, parseErr := decodeGroupEntries(resp.Content)
	if parseErr != nil {
		return nil, parseErr
	}

	topics := make([]domain.Topic, 0, len(entries))
	for _, raw := range entries {
		entry := llm.DecodeLoose[groupEntry](string(raw))
		if !entry.Ok() {
			o.log.Debug("Skipping unparseable topic", logger.Error(entry.Err))
			continue
		}
		if topic, ok := o.buildTopic(entry.Value, headlines[:listed], req.Category); ok {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

// decodeGroupEntries accepts {"topics": [...]} or a bare array.
func decodeGroupEntries(content string) ([]json.RawMessage, *llm.ProviderParseError) {
	envelope := llm.DecodeJSON[groupEnvelope](content)
	if envelope.Ok() {
		return envelope.Value.Topics, nil
	}
	bare := llm.DecodeJSON[[]json.RawMessage](content)
	if bare.Ok() {
		return bare.Value, nil
	}
	return nil, envelope.Err
}

// buildTopic resolves source indices. Out-of-range and repeated indices are
// dropped; an entry without a title or any valid source is rejected.
func (o *Orchestrator) buildTopic(entry groupEntry, headlines []domain.Headline, category string) (domain.Topic, bool) {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return domain.Topic{}, false
	}

	seen := make(map[int]struct{}, len(entry.Sources))
	sources := make([]domain.TopicSource, 0, len(entry.Sources))
	for _, idx := range entry.Sources {
		if idx < 0 || idx >= len(headlines) {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		sources = append(sources, o.topicSource(headlines[idx]))
	}
	if len(sources) == 0 {
		return domain.Topic{}, false
	}

	label := strings.TrimSpace(entry.Topic)
	if label == "" {
		label = topicLabel(category)
	}

	return domain.Topic{
		ID:                   uuid.NewString(),
		SyntheticTitle:       title,
		SyntheticDescription: strings.TrimSpace(entry.Description),
		Topic:                label,
		Image:                topicImage(sources),
		Sources:              sources,
	}, true
}

// selectIndex asks the provider for the single best headline. It returns
// -1 when the call fails or the index is out of range.
func (o *Orchestrator) selectIndex(
	ctx context.Context,
	category, instruction string,
	creds analyzer.Credentials,
	headlines []domain.Headline,
) (int, error) {
	prompt, listed := o.headlinePrompt(instruction, category, headlines)

	resp, err := o.complete(ctx, creds, selectionSystemPrompt, prompt)
	if err != nil {
		return -1, err
	}

	decoded := llm.DecodeLoose[selectionReply](resp.Content)
	if !decoded.Ok() {
		return -1, decoded.Err
	}
	if idx := decoded.Value.Index; idx >= 0 && idx < listed {
		return idx, nil
	}
	return -1, fmt.Errorf("selected index %d out of range [0,%d)", decoded.Value.Index, listed)
}

func joinRequest(query, instruction string) string {
	switch {
	case query == "":
		return instruction
	case instruction == "":
		return query
	default:
		return query + "; " + instruction
	}
}

func topicLabel(category string) string {
	if category = strings.TrimSpace(category); category != "" {
		return category
	}
	return "general"
}

func topicImage(sources []domain.TopicSource) string {
	for _, s := range sources {
		if s.Image != "" {
			return s.Image
		}
	}
	return ""
}
