package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/session"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// Generic client-facing messages. Root causes are logged, never returned.
const (
	msgBadRequest       = "invalid request"
	msgNoResults        = "no results"
	msgExtractionFailed = "extraction failed"
	msgRequestFailed    = "request failed"
)

var errInvalidURL = errors.New("url must be an absolute http(s) URL")

// Scanner is satisfied by *scanner.Scanner.
type Scanner interface {
	Scan(ctx context.Context, hubURL string) *domain.ScanResult
}

// Scraper is satisfied by *extractor.Extractor.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string, opts extractor.Options) *extractor.Result
}

// Analyzer is satisfied by *analyzer.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, article *domain.ScrapedArticle, instruction string,
		creds analyzer.Credentials) (*domain.EntityExtraction, error)
}

// Curator is satisfied by *curation.Orchestrator.
type Curator interface {
	Search(ctx context.Context, req curation.SearchRequest) (*curation.SearchResult, error)
	Hunt(ctx context.Context, req curation.HuntRequest) (*curation.HuntResult, error)
}

// Deps groups handler collaborators. Sessions and Gatherer may be nil.
type Deps struct {
	Scanner  Scanner
	Scraper  Scraper
	Analyzer Analyzer
	Curator  Curator
	Sessions session.Store
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

// Handler serves the curator HTTP API.
type Handler struct {
	deps   Deps
	health *healthReporter
	log    logger.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, cfg Config) *Handler {
	cfg.SetDefaults()
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		deps:   deps,
		health: newHealthReporter(cfg.ServiceName, cfg.ServiceVersion, deps.Sessions),
		log:    log.With(logger.Component("api")),
	}
}

// Register adds every route to router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/health", h.health.handle)
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	if h.deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	v1.POST("/scan", h.scan)
	v1.POST("/scrape", h.scrape)
	v1.POST("/analyze", h.analyze)
	v1.POST("/search", h.search)
	v1.POST("/hunt", h.hunt)
}

type credentialFields struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

func (f credentialFields) credentials() analyzer.Credentials {
	return analyzer.Credentials{Provider: f.Provider, APIKey: f.APIKey, Model: f.Model}
}

type scanRequest struct {
	URL string `json:"url" binding:"required"`
}

type scrapeRequest struct {
	URL         string `json:"url"         binding:"required"`
	Strategy    string `json:"strategy"`
	Instruction string `json:"instruction"`
}

type analyzeRequest struct {
	credentialFields
	URL         string `json:"url"         binding:"required"`
	Strategy    string `json:"strategy"`
	Instruction string `json:"instruction"`
}

type searchRequest struct {
	credentialFields
	Query       string   `json:"query"`
	Category    string   `json:"category"`
	Hubs        []string `json:"hubs"`
	Instruction string   `json:"instruction"`
	ExcludeURLs []string `json:"exclude_urls"`
	SessionID   string   `json:"session_id"`
	Basic       bool     `json:"basic"`
}

type huntRequest struct {
	credentialFields
	Category    string   `json:"category"`
	Instruction string   `json:"instruction"`
	ExcludeURLs []string `json:"exclude_urls"`
	SessionID   string   `json:"session_id"`
	Strategy    string   `json:"strategy"`
}

type articleResponse struct {
	Article  *domain.ScrapedArticle  `json:"article"`
	Analysis *domain.EntityExtraction `json:"analysis,omitempty"`
}

func (h *Handler) scan(c *gin.Context) {
	var req scanRequest
	if !h.bind(c, &req) || !h.requireURL(c, req.URL) {
		return
	}

	res := h.deps.Scanner.Scan(c.Request.Context(), req.URL)
	if res == nil {
		respondError(c, http.StatusNotFound, msgNoResults, curation.ErrNoResults)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) scrape(c *gin.Context) {
	var req scrapeRequest
	if !h.bind(c, &req) || !h.requireURL(c, req.URL) {
		return
	}
	strategy := extractor.ParseStrategy(req.Strategy)

	res := h.deps.Scraper.Scrape(c.Request.Context(), req.URL,
		extractor.Options{Strategy: strategy, Instruction: req.Instruction})
	if res == nil || res.Article == nil {
		respondError(c, http.StatusUnprocessableEntity, msgExtractionFailed, extractor.ErrContentTooThin)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: res.Article})
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if !h.bind(c, &req) || !h.requireURL(c, req.URL) {
		return
	}
	strategy := extractor.ParseStrategy(req.Strategy)

	ctx := c.Request.Context()
	res := h.deps.Scraper.Scrape(ctx, req.URL, extractor.Options{Strategy: strategy, Instruction: req.Instruction})
	if res == nil || res.Article == nil {
		respondError(c, http.StatusUnprocessableEntity, msgExtractionFailed, extractor.ErrContentTooThin)
		return
	}

	analysis, err := h.deps.Analyzer.Analyze(ctx, res.Article, req.Instruction, req.credentials())
	if err != nil {
		respondError(c, http.StatusInternalServerError, msgRequestFailed, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: res.Article, Analysis: analysis})
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.log)

	res, err := h.deps.Curator.Search(ctx, curation.SearchRequest{
		Query:       req.Query,
		Category:    req.Category,
		Hubs:        req.Hubs,
		Instruction: req.Instruction,
		ExcludeURLs: session.Merge(ctx, h.deps.Sessions, req.SessionID, req.ExcludeURLs, log),
		Basic:       req.Basic,
		Credentials: req.credentials(),
	})
	if err != nil {
		respondCurationError(c, err)
		return
	}

	var surfaced []string
	for _, topic := range res.Results {
		for _, src := range topic.Sources {
			surfaced = append(surfaced, src.URL)
		}
	}
	h.remember(ctx, req.SessionID, surfaced, log)

	c.JSON(http.StatusOK, res)
}

func (h *Handler) hunt(c *gin.Context) {
	var req huntRequest
	if !h.bind(c, &req) {
		return
	}
	strategy := extractor.ParseStrategy(req.Strategy)

	ctx := c.Request.Context()
	log := logger.FromContext(ctx, h.log)

	res, err := h.deps.Curator.Hunt(ctx, curation.HuntRequest{
		Category:    req.Category,
		Instruction: req.Instruction,
		ExcludeURLs: session.Merge(ctx, h.deps.Sessions, req.SessionID, req.ExcludeURLs, log),
		Strategy:    strategy,
		Credentials: req.credentials(),
	})
	if err != nil {
		respondCurationError(c, err)
		return
	}

	if res.Article != nil {
		h.remember(ctx, req.SessionID, []string{res.Journey.SelectedURL}, log)
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, msgBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) requireURL(c *gin.Context, raw string) bool {
	if !urlutil.IsAbsoluteHTTP(strings.TrimSpace(raw)) {
		respondError(c, http.StatusBadRequest, msgBadRequest, errInvalidURL)
		return false
	}
	return true
}

// remember records surfaced URLs. Failures are logged; the response is unaffected.
func (h *Handler) remember(ctx context.Context, id string, urls []string, log logger.Logger) {
	if h.deps.Sessions == nil || id == "" || len(urls) == 0 {
		return
	}
	if err := h.deps.Sessions.Remember(ctx, id, urls...); err != nil {
		log.Warn("Session remember failed", logger.String("session_id", id), logger.Error(err))
	}
}

func respondCurationError(c *gin.Context, err error) {
	if errors.Is(err, curation.ErrNoResults) {
		respondError(c, http.StatusNotFound, msgNoResults, err)
		return
	}
	respondError(c, http.StatusInternalServerError, msgRequestFailed, err)
}

// respondError attaches err for the request log and writes a generic body.
func respondError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, errorBody(msg))
}

func errorBody(msg string) gin.H {
	return gin.H{"error": msg}
}
