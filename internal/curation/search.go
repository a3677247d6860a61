package curation

import (
	"context"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

// SearchRequest describes one multi-topic search.
type SearchRequest struct {
	Query    string
	Category string
	// Hubs overrides the catalog hubs for Category.
	Hubs        []string
	Instruction string
	ExcludeURLs []string
	// Basic skips the provider and uses substring matching.
	Basic       bool
	Credentials analyzer.Credentials
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Results []domain.Topic `json:"results"`
}

// Search scans the hubs, filters headlines and groups them into topics.
// It returns ErrNoResults when no hub yields a headline.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	hubs := validHubs(req.Hubs)
	if len(hubs) == 0 {
		hubs = o.hubs.For(req.Category)
	}

	log := o.log.With(logger.String("flow", flowSearch), logger.String("category", req.Category))

	headlines := o.scanAll(ctx, hubs)
	if len(headlines) == 0 {
		log.Warn("No headlines found", logger.Strings("hubs", hubs))
		return nil, ErrNoResults
	}

	filtered := filterHeadlines(headlines, req.ExcludeURLs)
	if len(filtered) == 0 {
		log.Info("All headlines excluded", logger.Int("headlines", len(headlines)))
		return &SearchResult{Results: []domain.Topic{}}, nil
	}

	var topics []domain.Topic
	if !req.Basic {
		var err error
		topics, err = o.group(ctx, req, filtered)
		if err != nil {
			log.Warn("Grouping failed", logger.Error(err))
		}
	}
	if len(topics) == 0 {
		o.fallback(flowSearch, phaseGrouping, nil, nil)
		topics = o.basicTopics(req.Query, req.Category, filtered)
	}

	log.Info("Search complete",
		logger.Int("hubs", len(hubs)),
		logger.Int("headlines", len(filtered)),
		logger.Int("topics", len(topics)),
	)
	return &SearchResult{Results: topics}, nil
}
