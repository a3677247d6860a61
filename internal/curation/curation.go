// Package curation sequences discovery, hub scanning, deduplication and
// AI selection into the hunt and search flows. Every external call has a
// fallback so a flaky provider degrades results instead of failing them.
package curation

import (
	"context"
	"errors"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
)

var (
	// ErrNoResults means no hub produced a single headline.
	ErrNoResults = errors.New("curation: no headlines found")
	// ErrExtractionFailed means every selected candidate failed extraction.
	ErrExtractionFailed = errors.New("curation: article extraction failed")
)

// Flow and phase labels for fallbacks.
const (
	flowHunt   = "hunt"
	flowSearch = "search"

	phaseDiscovery = "discovery"
	phaseSelection = "selection"
	phaseGrouping  = "grouping"
	phaseAnalysis  = "analysis"
)

// HubScanner is satisfied by *scanner.Scanner.
type HubScanner interface {
	Scan(ctx context.Context, hubURL string) *domain.ScanResult
}

// ArticleScraper is satisfied by *extractor.Extractor.
type ArticleScraper interface {
	Scrape(ctx context.Context, rawURL string, opts extractor.Options) *extractor.Result
}

// ArticleAnalyzer is satisfied by *analyzer.Analyzer.
type ArticleAnalyzer interface {
	Analyze(ctx context.Context, article *domain.ScrapedArticle, instruction string,
		creds analyzer.Credentials) (*domain.EntityExtraction, error)
}

// Completer is satisfied by *llm.Client.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Orchestrator runs the curation flows. It holds no per-request state.
type Orchestrator struct {
	scanner    HubScanner
	scraper    ArticleScraper
	analyzer   ArticleAnalyzer
	llm        Completer
	hubs       *HubCatalog
	guidelines GuidelineSource
	cfg        Config
	log        logger.Logger
	metrics    *metrics.Metrics
}

// Deps groups the Orchestrator collaborators.
type Deps struct {
	Scanner    HubScanner
	Scraper    ArticleScraper
	Analyzer   ArticleAnalyzer
	LLM        Completer
	Hubs       *HubCatalog
	Guidelines GuidelineSource
	Logger     logger.Logger
	Metrics    *metrics.Metrics
}

// New creates an Orchestrator. Guidelines may be nil.
func New(deps Deps, cfg Config) *Orchestrator {
	cfg.SetDefaults()

	hubs := deps.Hubs
	if hubs == nil {
		hubs = NewHubCatalog(cfg.Hubs, cfg.DefaultHubs)
	}
	guidelines := deps.Guidelines
	if guidelines == nil {
		guidelines = noGuidelines{}
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Orchestrator{
		scanner:    deps.Scanner,
		scraper:    deps.Scraper,
		analyzer:   deps.Analyzer,
		llm:        deps.LLM,
		hubs:       hubs,
		guidelines: guidelines,
		cfg:        cfg,
		log:        log.With(logger.Component("curation")),
		metrics:    deps.Metrics,
	}
}

// Hubs exposes the hub catalog.
func (o *Orchestrator) Hubs() *HubCatalog {
	return o.hubs
}

func (o *Orchestrator) fallback(flow, phase string, journey *domain.Journey, err error) {
	o.metrics.ObserveFallback(flow, phase)
	if journey != nil {
		journey.Fallbacks = append(journey.Fallbacks, phase)
	}
	fields := []logger.Field{logger.String("flow", flow), logger.String("phase", phase)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	o.log.Info("Falling back", fields...)
}
