package curation

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

const discoverySystemPrompt = `You are a news research assistant. Reply with a single JSON object
of the form {"hubs": ["https://..."]} listing section or front pages of reputable news sites
that list recent headlines. Use absolute https URLs only. No commentary.`

type discoveryReply struct {
	Hubs []string `json:"hubs"`
}

// discover asks the provider for hub pages. It never fails: any provider
// error, parse error or empty answer yields the catalog hubs for category.
func (o *Orchestrator) discover(
	ctx context.Context,
	category, instruction string,
	creds analyzer.Credentials,
	journey *domain.Journey,
) []string {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Suggest %d hub pages for news in the category %q.", o.cfg.DiscoveryHubs, category)
	if instruction != "" {
		fmt.Fprintf(&prompt, "\nEditorial focus: %s", instruction)
	}

	resp, err := o.complete(ctx, creds, discoverySystemPrompt, prompt.String())
	if err != nil {
		o.fallback(flowHunt, phaseDiscovery, journey, err)
		return o.hubs.For(category)
	}

	decoded := llm.DecodeLoose[discoveryReply](resp.Content)
	if !decoded.Ok() {
		o.fallback(flowHunt, phaseDiscovery, journey, decoded.Err)
		return o.hubs.For(category)
	}

	hubs := validHubs(decoded.Value.Hubs)
	if len(hubs) == 0 {
		o.fallback(flowHunt, phaseDiscovery, journey, nil)
		return o.hubs.For(category)
	}
	if len(hubs) > o.cfg.DiscoveryHubs {
		hubs = hubs[:o.cfg.DiscoveryHubs]
	}

	o.log.Debug("Discovered hubs", logger.Strings("hubs", hubs))
	return hubs
}

// complete sends one JSON-mode request. A nil Completer behaves like a missing key.
func (o *Orchestrator) complete(
	ctx context.Context,
	creds analyzer.Credentials,
	system, user string,
) (*llm.Response, error) {
	if o.llm == nil {
		return nil, &llm.ProviderAuthError{Provider: creds.Provider, Err: errNoCompleter}
	}
	return o.llm.Complete(ctx, llm.Request{
		Provider:    creds.Provider,
		APIKey:      creds.APIKey,
		Model:       creds.Model,
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: user}},
		Format:      llm.FormatJSON,
		Temperature: llm.Temperature(selectionTemperature),
	})
}
