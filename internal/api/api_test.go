package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/api"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
	"github.com/jonesrussell/north-cloud/curator/internal/session"
)

const articleURL = "https://news.example.com/2024/harbour"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubScanner struct {
	result *domain.ScanResult
	panics bool
}

func (s stubScanner) Scan(context.Context, string) *domain.ScanResult {
	if s.panics {
		panic("scanner exploded")
	}
	return s.result
}

type stubScraper struct {
	article *domain.ScrapedArticle

	mu   sync.Mutex
	opts []extractor.Options
}

func (s *stubScraper) Scrape(_ context.Context, _ string, opts extractor.Options) *extractor.Result {
	s.mu.Lock()
	s.opts = append(s.opts, opts)
	s.mu.Unlock()
	if s.article == nil {
		return nil
	}
	return &extractor.Result{Article: s.article}
}

type stubAnalyzer struct {
	result *domain.EntityExtraction
	err    error
	creds  analyzer.Credentials
}

func (s *stubAnalyzer) Analyze(
	_ context.Context, _ *domain.ScrapedArticle, _ string, creds analyzer.Credentials,
) (*domain.EntityExtraction, error) {
	s.creds = creds
	return s.result, s.err
}

type stubCurator struct {
	search *curation.SearchResult
	hunt   *curation.HuntResult
	err    error

	searchReq curation.SearchRequest
	huntReq   curation.HuntRequest
}

func (s *stubCurator) Search(_ context.Context, req curation.SearchRequest) (*curation.SearchResult, error) {
	s.searchReq = req
	return s.search, s.err
}

func (s *stubCurator) Hunt(_ context.Context, req curation.HuntRequest) (*curation.HuntResult, error) {
	s.huntReq = req
	return s.hunt, s.err
}

func newRouter(t *testing.T, deps api.Deps) *gin.Engine {
	t.Helper()
	deps.Logger = logger.NewNop()
	h := api.NewHandler(deps, api.Config{ServiceName: "curator-test"})
	return api.NewRouter(api.Config{}, logger.NewNop(), h.Register)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestScan(t *testing.T) {
	t.Parallel()

	found := &domain.ScanResult{
		Source:    "news.example.com",
		Headlines: []domain.Headline{{Title: "Harbour expansion approved", URL: articleURL, Source: "news.example.com"}},
	}

	tests := []struct {
		name    string
		scanner stubScanner
		body    string
		status  int
	}{
		{name: "found", scanner: stubScanner{result: found}, body: `{"url":"https://news.example.com/"}`, status: http.StatusOK},
		{name: "nothing", scanner: stubScanner{}, body: `{"url":"https://news.example.com/"}`, status: http.StatusNotFound},
		{name: "relative url", scanner: stubScanner{result: found}, body: `{"url":"/news"}`, status: http.StatusBadRequest},
		{name: "missing url", scanner: stubScanner{result: found}, body: `{}`, status: http.StatusBadRequest},
		{name: "malformed json", scanner: stubScanner{result: found}, body: `{"url":`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newRouter(t, api.Deps{Scanner: tt.scanner})
			w := do(t, router, http.MethodPost, "/api/v1/scan", tt.body)
			assert.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusOK {
				got := decode[domain.ScanResult](t, w)
				assert.Equal(t, found.Headlines, got.Headlines)
			}
		})
	}
}

func TestScrape(t *testing.T) {
	t.Parallel()

	scraper := &stubScraper{article: &domain.ScrapedArticle{URL: articleURL, Title: "Harbour"}}
	router := newRouter(t, api.Deps{Scraper: scraper})

	w := do(t, router, http.MethodPost, "/api/v1/scrape",
		`{"url":"`+articleURL+`","strategy":"browser-only","instruction":"quotes"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[struct {
		Article domain.ScrapedArticle `json:"article"`
	}](t, w)
	assert.Equal(t, "Harbour", got.Article.Title)
	require.Len(t, scraper.opts, 1)
	assert.Equal(t, extractor.StrategyBrowserOnly, scraper.opts[0].Strategy)
	assert.Equal(t, "quotes", scraper.opts[0].Instruction)
}

func TestScrape_Failure(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{Scraper: &stubScraper{}})
	w := do(t, router, http.MethodPost, "/api/v1/scrape", `{"url":"`+articleURL+`"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"extraction failed"}`, w.Body.String())
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	scraper := &stubScraper{article: &domain.ScrapedArticle{URL: articleURL}}
	an := &stubAnalyzer{result: &domain.EntityExtraction{People: []string{"Ada"}, Summary: "s"}}
	router := newRouter(t, api.Deps{Scraper: scraper, Analyzer: an})

	w := do(t, router, http.MethodPost, "/api/v1/analyze",
		`{"url":"`+articleURL+`","provider":"anthropic","api_key":"k"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[struct {
		Analysis domain.EntityExtraction `json:"analysis"`
	}](t, w)
	assert.Equal(t, []string{"Ada"}, got.Analysis.People)
	assert.Equal(t, analyzer.Credentials{Provider: "anthropic", APIKey: "k"}, an.creds)
}

func TestAnalyze_ErrorIsGeneric(t *testing.T) {
	t.Parallel()

	scraper := &stubScraper{article: &domain.ScrapedArticle{URL: articleURL}}
	an := &stubAnalyzer{err: errors.New("upstream said: invalid key sk-secret")}
	router := newRouter(t, api.Deps{Scraper: scraper, Analyzer: an})

	w := do(t, router, http.MethodPost, "/api/v1/analyze", `{"url":"`+articleURL+`"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"request failed"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "sk-secret")
}

func TestSearch_SessionExclusions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour)
	require.NoError(t, store.Remember(ctx, "reader-1", "https://seen.example.com/old"))

	cur := &stubCurator{search: &curation.SearchResult{Results: []domain.Topic{{
		ID:             "t1",
		SyntheticTitle: "Harbour",
		Sources:        []domain.TopicSource{{URL: articleURL, Source: "news.example.com", Title: "Harbour"}},
	}}}}
	router := newRouter(t, api.Deps{Curator: cur, Sessions: store})

	w := do(t, router, http.MethodPost, "/api/v1/search",
		`{"query":"harbour","category":"local","exclude_urls":["https://x.example.com/a"],"session_id":"reader-1","basic":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "harbour", cur.searchReq.Query)
	assert.True(t, cur.searchReq.Basic)
	assert.Equal(t, []string{"https://x.example.com/a", "https://seen.example.com/old"}, cur.searchReq.ExcludeURLs)

	seen, err := store.Seen(ctx, "reader-1")
	require.NoError(t, err)
	assert.Contains(t, seen, articleURL)

	got := decode[curation.SearchResult](t, w)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Harbour", got.Results[0].SyntheticTitle)
}

func TestSearch_NoResults(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{Curator: &stubCurator{err: curation.ErrNoResults}})
	w := do(t, router, http.MethodPost, "/api/v1/search", `{"query":"harbour"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"no results"}`, w.Body.String())
}

func TestHunt(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	cur := &stubCurator{hunt: &curation.HuntResult{
		Article: &domain.ScrapedArticle{URL: articleURL, Title: "Harbour"},
		Journey: domain.Journey{Hubs: []string{"https://news.example.com/"}, HeadlineCount: 4, SelectedURL: articleURL},
	}}
	router := newRouter(t, api.Deps{Curator: cur, Sessions: store})

	w := do(t, router, http.MethodPost, "/api/v1/hunt",
		`{"category":"local","instruction":"ports","strategy":"fetch-only","session_id":"s1","provider":"gemini"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, extractor.StrategyFetchOnly, cur.huntReq.Strategy)
	assert.Equal(t, "gemini", cur.huntReq.Credentials.Provider)

	seen, err := store.Seen(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{articleURL}, seen)

	got := decode[curation.HuntResult](t, w)
	assert.Equal(t, articleURL, got.Journey.SelectedURL)
	assert.Equal(t, 4, got.Journey.HeadlineCount)
}

func TestHunt_ErrorsAreGeneric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{name: "no results", err: curation.ErrNoResults, status: http.StatusNotFound, body: `{"error":"no results"}`},
		{name: "extraction", err: curation.ErrExtractionFailed, status: http.StatusInternalServerError, body: `{"error":"request failed"}`},
		{name: "other", err: errors.New("db password=hunter2"), status: http.StatusInternalServerError, body: `{"error":"request failed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newRouter(t, api.Deps{Curator: &stubCurator{err: tt.err}})
			w := do(t, router, http.MethodPost, "/api/v1/hunt", `{"category":"world"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{Sessions: session.NewMemoryStore(time.Hour)})
	w := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[api.HealthResponse](t, w)
	assert.Equal(t, api.HealthStatusHealthy, got.Status)
	assert.Equal(t, "curator-test", got.Service)
	assert.Empty(t, got.Checks, "memory store has no remote dependency")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveFallback("search", "grouping")

	router := newRouter(t, api.Deps{Gatherer: reg})
	w := do(t, router, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fallbacks_total")
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{Scanner: stubScanner{panics: true}})
	w := do(t, router, http.MethodPost, "/api/v1/scan", `{"url":"https://news.example.com/"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"request failed"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{})

	w := do(t, router, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", "upstream-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "upstream-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	router := newRouter(t, api.Deps{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", http.NoBody)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
