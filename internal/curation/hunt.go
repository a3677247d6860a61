package curation

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

// HuntRequest describes one single-article hunt.
type HuntRequest struct {
	Category    string
	Instruction string
	ExcludeURLs []string
	Strategy    extractor.Strategy
	Credentials analyzer.Credentials
}

// HuntResult is the outcome of Hunt. Article is nil when every headline was
// excluded. Analysis is nil when the analyzer failed.
type HuntResult struct {
	Article  *domain.ScrapedArticle  `json:"article"`
	Analysis *domain.EntityExtraction `json:"analysis"`
	Journey  domain.Journey           `json:"journey"`
}

// Hunt discovers hubs, picks the best headline, extracts and analyzes it.
func (o *Orchestrator) Hunt(ctx context.Context, req HuntRequest) (*HuntResult, error) {
	log := o.log.With(logger.String("flow", flowHunt), logger.String("category", req.Category))
	result := &HuntResult{}
	journey := &result.Journey

	journey.Hubs = o.discover(ctx, req.Category, req.Instruction, req.Credentials, journey)

	headlines := o.scanAll(ctx, journey.Hubs)
	if len(headlines) == 0 {
		log.Warn("No headlines found", logger.Strings("hubs", journey.Hubs))
		return nil, ErrNoResults
	}

	filtered := filterHeadlines(headlines, req.ExcludeURLs)
	journey.HeadlineCount = len(filtered)
	if len(filtered) == 0 {
		log.Info("All headlines excluded", logger.Int("headlines", len(headlines)))
		return result, nil
	}

	idx, err := o.selectIndex(ctx, req.Category, req.Instruction, req.Credentials, filtered)
	if err != nil {
		o.fallback(flowHunt, phaseSelection, journey, err)
		idx = firstMatch(req.Instruction, filtered)
	}

	article, err := o.extractCandidates(ctx, req, candidateOrder(idx, len(filtered)), filtered, journey)
	if err != nil {
		return nil, err
	}
	result.Article = article

	if o.analyzer != nil {
		analysis, aerr := o.analyzer.Analyze(ctx, article, req.Instruction, req.Credentials)
		if aerr != nil {
			o.fallback(flowHunt, phaseAnalysis, journey, aerr)
		}
		result.Analysis = analysis
	}

	log.Info("Hunt complete",
		logger.String("url", journey.SelectedURL),
		logger.Int("headlines", journey.HeadlineCount),
		logger.Strings("fallbacks", journey.Fallbacks),
	)
	return result, nil
}

// extractCandidates scrapes candidates in order until one succeeds or
// MaxExtractionAttempts is reached.
func (o *Orchestrator) extractCandidates(
	ctx context.Context,
	req HuntRequest,
	order []int,
	headlines []domain.Headline,
	journey *domain.Journey,
) (*domain.ScrapedArticle, error) {
	attempts := min(len(order), o.cfg.MaxExtractionAttempts)
	opts := extractor.Options{Strategy: req.Strategy, Instruction: req.Instruction}

	for _, idx := range order[:attempts] {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("hunt: %w", err)
		}
		target := headlines[idx].URL
		res := o.scraper.Scrape(ctx, target, opts)
		if res != nil && res.Article != nil {
			journey.SelectedURL = target
			return res.Article, nil
		}
		o.log.Info("Extraction failed, trying next candidate", logger.String("url", target))
	}
	return nil, ErrExtractionFailed
}

// candidateOrder puts first at the front, followed by the rest in list order.
func candidateOrder(first, n int) []int {
	order := make([]int, 0, n)
	order = append(order, first)
	for i := range n {
		if i != first {
			order = append(order, i)
		}
	}
	return order
}
