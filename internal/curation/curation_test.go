package curation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
)

var errProvider = errors.New("provider down")

type stubScanner struct {
	results map[string]*domain.ScanResult

	mu    sync.Mutex
	calls []string
}

func (s *stubScanner) Scan(_ context.Context, hubURL string) *domain.ScanResult {
	s.mu.Lock()
	s.calls = append(s.calls, hubURL)
	s.mu.Unlock()
	return s.results[hubURL]
}

func (s *stubScanner) scanned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type stubScraper struct {
	articles map[string]*domain.ScrapedArticle
	calls    []string
}

func (s *stubScraper) Scrape(_ context.Context, rawURL string, _ extractor.Options) *extractor.Result {
	s.calls = append(s.calls, rawURL)
	if a, ok := s.articles[rawURL]; ok {
		return &extractor.Result{Article: a}
	}
	return nil
}

type stubAnalyzer struct {
	result *domain.EntityExtraction
	err    error
}

func (s stubAnalyzer) Analyze(
	context.Context, *domain.ScrapedArticle, string, analyzer.Credentials,
) (*domain.EntityExtraction, error) {
	return s.result, s.err
}

// scriptedLLM answers by request kind, recognized from the system prompt.
type scriptedLLM struct {
	discovery string
	grouping  string
	selection string
	err       error

	mu      sync.Mutex
	prompts []string
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Messages[0].Content)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	switch {
	case strings.Contains(req.System, `"hubs"`):
		return &llm.Response{Content: s.discovery}, nil
	case strings.Contains(req.System, `"topics"`):
		return &llm.Response{Content: s.grouping}, nil
	default:
		return &llm.Response{Content: s.selection}, nil
	}
}

func headline(n int, host string) domain.Headline {
	return domain.Headline{
		Title:  fmt.Sprintf("Story number %d about the harbour expansion", n),
		URL:    fmt.Sprintf("https://%s/news/story-%d", host, n),
		Source: host,
	}
}

func scanResult(host string, from, to int) *domain.ScanResult {
	res := &domain.ScanResult{Source: host}
	for i := from; i < to; i++ {
		res.Headlines = append(res.Headlines, headline(i, host))
	}
	return res
}

func defaultHubResults() map[string]*domain.ScanResult {
	return map[string]*domain.ScanResult{
		curation.DefaultHubPair[0]: scanResult("apnews.com", 0, 2),
		curation.DefaultHubPair[1]: scanResult("reuters.com", 2, 3),
	}
}

func article(rawURL string) *domain.ScrapedArticle {
	return &domain.ScrapedArticle{URL: rawURL, Title: "Harbour", TextContent: "Body"}
}

func newOrchestrator(
	sc curation.HubScanner,
	scr curation.ArticleScraper,
	an curation.ArticleAnalyzer,
	completer curation.Completer,
	cfg curation.Config,
) *curation.Orchestrator {
	return curation.New(curation.Deps{
		Scanner:  sc,
		Scraper:  scr,
		Analyzer: an,
		LLM:      completer,
		Logger:   logger.NewNop(),
	}, cfg)
}

func TestHunt_DiscoveryParseFailureUsesDefaultHubs(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	want := headline(1, "apnews.com").URL
	scr := &stubScraper{articles: map[string]*domain.ScrapedArticle{want: article(want)}}
	completer := &scriptedLLM{discovery: "here are some hubs!", selection: `{"index": 1}`}
	analysis := &domain.EntityExtraction{Summary: "ok"}

	o := newOrchestrator(sc, scr, stubAnalyzer{result: analysis}, completer, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{Category: "world"})
	require.NoError(t, err)

	assert.Equal(t, curation.DefaultHubPair, res.Journey.Hubs)
	assert.ElementsMatch(t, curation.DefaultHubPair, sc.scanned())
	assert.Contains(t, res.Journey.Fallbacks, "discovery")
	assert.Equal(t, 3, res.Journey.HeadlineCount)
	assert.Equal(t, want, res.Journey.SelectedURL)
	assert.Equal(t, want, res.Article.URL)
	assert.Same(t, analysis, res.Analysis)
}

func TestHunt_UsesDiscoveredHubs(t *testing.T) {
	t.Parallel()

	hub := "https://local.example.com/news"
	sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("local.example.com", 0, 1)}}
	want := headline(0, "local.example.com").URL
	scr := &stubScraper{articles: map[string]*domain.ScrapedArticle{want: article(want)}}
	completer := &scriptedLLM{
		discovery: `{"hubs": ["` + hub + `", "not a url", "/relative"]}`,
		selection: `{"index": "0"}`,
	}

	o := newOrchestrator(sc, scr, stubAnalyzer{}, completer, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{Category: "local"})
	require.NoError(t, err)

	assert.Equal(t, []string{hub}, res.Journey.Hubs)
	assert.Empty(t, res.Journey.Fallbacks)
	assert.Equal(t, want, res.Journey.SelectedURL)
}

func TestHunt_SelectionFailureUsesFirstMatch(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	want := headline(2, "reuters.com").URL
	scr := &stubScraper{articles: map[string]*domain.ScrapedArticle{want: article(want)}}
	completer := &scriptedLLM{discovery: "nope", selection: `{"index": 17}`}

	o := newOrchestrator(sc, scr, stubAnalyzer{}, completer, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{Instruction: "STORY NUMBER 2"})
	require.NoError(t, err)

	assert.Contains(t, res.Journey.Fallbacks, "selection")
	assert.Equal(t, want, res.Journey.SelectedURL)
	assert.Equal(t, []string{want}, scr.calls)
}

func TestHunt_ExtractionTriesNextCandidate(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	second := headline(0, "apnews.com").URL
	scr := &stubScraper{articles: map[string]*domain.ScrapedArticle{second: article(second)}}
	completer := &scriptedLLM{discovery: "nope", selection: `{"index": 2}`}

	o := newOrchestrator(sc, scr, stubAnalyzer{}, completer, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{headline(2, "reuters.com").URL, second}, scr.calls)
	assert.Equal(t, second, res.Journey.SelectedURL)
}

func TestHunt_AllExtractionsFail(t *testing.T) {
	t.Parallel()

	hub := curation.DefaultHubPair[0]
	sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("apnews.com", 0, 5)}}
	scr := &stubScraper{}

	o := newOrchestrator(sc, scr, stubAnalyzer{}, &scriptedLLM{err: errProvider}, curation.Config{})
	_, err := o.Hunt(context.Background(), curation.HuntRequest{})

	require.ErrorIs(t, err, curation.ErrExtractionFailed)
	assert.Len(t, scr.calls, curation.DefaultMaxExtractionAttempts)
}

func TestHunt_AnalyzerFailureDegrades(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	first := headline(0, "apnews.com").URL
	scr := &stubScraper{articles: map[string]*domain.ScrapedArticle{first: article(first)}}

	o := newOrchestrator(sc, scr, stubAnalyzer{err: errProvider}, &scriptedLLM{err: errProvider}, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{})
	require.NoError(t, err)

	assert.NotNil(t, res.Article)
	assert.Nil(t, res.Analysis)
	assert.Equal(t, []string{"discovery", "selection", "analysis"}, res.Journey.Fallbacks)
}

func TestHunt_NoHeadlines(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(&stubScanner{}, &stubScraper{}, stubAnalyzer{}, &scriptedLLM{err: errProvider}, curation.Config{})
	_, err := o.Hunt(context.Background(), curation.HuntRequest{})

	require.ErrorIs(t, err, curation.ErrNoResults)
}

func TestHunt_AllExcluded(t *testing.T) {
	t.Parallel()

	hub := curation.DefaultHubPair[0]
	sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("apnews.com", 0, 1)}}
	scr := &stubScraper{}

	o := newOrchestrator(sc, scr, stubAnalyzer{}, &scriptedLLM{err: errProvider}, curation.Config{})
	res, err := o.Hunt(context.Background(), curation.HuntRequest{
		ExcludeURLs: []string{strings.ToUpper(headline(0, "apnews.com").URL)},
	})
	require.NoError(t, err)

	assert.Nil(t, res.Article)
	assert.Zero(t, res.Journey.HeadlineCount)
	assert.Empty(t, scr.calls)
}

func TestSearch_FallbackTopicCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		headlines int
		want      int
	}{
		{name: "fewer than limit", headlines: 5, want: 5},
		{name: "capped at limit", headlines: 25, want: curation.DefaultFallbackLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hub := curation.DefaultHubPair[0]
			sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("apnews.com", 0, tt.headlines)}}

			o := newOrchestrator(sc, nil, nil, &scriptedLLM{err: errProvider}, curation.Config{})
			res, err := o.Search(context.Background(), curation.SearchRequest{})
			require.NoError(t, err)

			require.Len(t, res.Results, tt.want)
			for _, topic := range res.Results {
				assert.NotEmpty(t, topic.ID)
				assert.NotEmpty(t, topic.SyntheticTitle)
				assert.Equal(t, "general", topic.Topic)
				assert.Equal(t, "https://www.google.com/s2/favicons?domain=apnews.com&sz=128", topic.Image)
				require.Len(t, topic.Sources, 1)
				assert.NotEmpty(t, topic.Sources[0].URL)
				assert.NotEmpty(t, topic.Sources[0].Title)
				assert.NotEmpty(t, topic.Sources[0].Source)
			}
		})
	}
}

func TestSearch_BasicMatchesQuery(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	completer := &scriptedLLM{}

	o := newOrchestrator(sc, nil, nil, completer, curation.Config{})
	res, err := o.Search(context.Background(), curation.SearchRequest{Query: "NUMBER 2", Basic: true})
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, headline(2, "reuters.com").URL, res.Results[0].Sources[0].URL)
	assert.Empty(t, completer.prompts)
}

func TestSearch_ExcludedURLNeverAppears(t *testing.T) {
	t.Parallel()

	excluded := headline(1, "apnews.com").URL
	grouping := `{"topics":[{"title":"Harbour","description":"d","topic":"local","sources":[0,1]}]}`

	for _, basic := range []bool{true, false} {
		t.Run(fmt.Sprintf("basic=%t", basic), func(t *testing.T) {
			t.Parallel()

			sc := &stubScanner{results: defaultHubResults()}
			o := newOrchestrator(sc, nil, nil, &scriptedLLM{grouping: grouping}, curation.Config{})
			res, err := o.Search(context.Background(), curation.SearchRequest{
				Basic:       basic,
				ExcludeURLs: []string{strings.ToUpper(excluded) + "/"},
			})
			require.NoError(t, err)
			require.NotEmpty(t, res.Results)

			for _, topic := range res.Results {
				for _, src := range topic.Sources {
					assert.NotEqual(t, excluded, src.URL)
				}
			}
		})
	}
}

func TestSearch_GroupingSkipsInvalidEntries(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	completer := &scriptedLLM{grouping: "```json\n" + `{"topics": [
		{"title": "Harbour plan", "description": "Expansion approved.", "topic": "local", "sources": [0, 1, 99, 1]},
		{"title": "Ghost", "sources": [42]},
		"garbage",
		{"title": "", "sources": [2]},
		{"title": "Reuters view", "sources": ["2"]}
	]}` + "\n```"}

	o := newOrchestrator(sc, nil, nil, completer, curation.Config{})
	res, err := o.Search(context.Background(), curation.SearchRequest{Query: "harbour", Category: "Local"})
	require.NoError(t, err)

	require.Len(t, res.Results, 2)

	first := res.Results[0]
	assert.Equal(t, "Harbour plan", first.SyntheticTitle)
	assert.Equal(t, "Expansion approved.", first.SyntheticDescription)
	assert.Equal(t, "local", first.Topic)
	require.Len(t, first.Sources, 2)
	assert.Equal(t, headline(0, "apnews.com").URL, first.Sources[0].URL)
	assert.Equal(t, headline(1, "apnews.com").URL, first.Sources[1].URL)

	second := res.Results[1]
	assert.Equal(t, "Reuters view", second.SyntheticTitle)
	assert.Equal(t, "Local", second.Topic)
	require.Len(t, second.Sources, 1)
	assert.Equal(t, headline(2, "reuters.com").URL, second.Sources[0].URL)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSearch_UnparseableGroupingFallsBack(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	o := newOrchestrator(sc, nil, nil, &scriptedLLM{grouping: "I could not decide."}, curation.Config{})

	res, err := o.Search(context.Background(), curation.SearchRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Results, 3)
}

func TestSearch_RequestHubsOverrideCatalog(t *testing.T) {
	t.Parallel()

	hub := "https://custom.example.com/latest"
	sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("custom.example.com", 0, 2)}}
	cfg := curation.Config{Hubs: map[string][]string{"tech": {"https://tech.example.com/"}}}

	o := newOrchestrator(sc, nil, nil, &scriptedLLM{err: errProvider}, cfg)
	res, err := o.Search(context.Background(), curation.SearchRequest{Category: "tech", Hubs: []string{hub, "junk"}})
	require.NoError(t, err)

	assert.Equal(t, []string{hub}, sc.scanned())
	assert.Len(t, res.Results, 2)
}

func TestSearch_UsesCategoryHubs(t *testing.T) {
	t.Parallel()

	hub := "https://tech.example.com/"
	sc := &stubScanner{results: map[string]*domain.ScanResult{hub: scanResult("tech.example.com", 0, 1)}}
	cfg := curation.Config{Hubs: map[string][]string{"tech": {hub}}}

	o := newOrchestrator(sc, nil, nil, &scriptedLLM{err: errProvider}, cfg)
	_, err := o.Search(context.Background(), curation.SearchRequest{Category: "TECH"})
	require.NoError(t, err)

	assert.Equal(t, []string{hub}, sc.scanned())
}

func TestSearch_NoHeadlines(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(&stubScanner{}, nil, nil, &scriptedLLM{}, curation.Config{})
	_, err := o.Search(context.Background(), curation.SearchRequest{Query: "anything"})

	require.ErrorIs(t, err, curation.ErrNoResults)
}

func TestSearch_GuidelineIncludedInPrompt(t *testing.T) {
	t.Parallel()

	sc := &stubScanner{results: defaultHubResults()}
	completer := &scriptedLLM{grouping: `{"topics": []}`}
	guidelines := guidelineMap{"science": "Prefer peer-reviewed findings."}

	o := curation.New(curation.Deps{
		Scanner:    sc,
		LLM:        completer,
		Guidelines: guidelines,
		Logger:     logger.NewNop(),
	}, curation.Config{})

	res, err := o.Search(context.Background(), curation.SearchRequest{Category: "science"})
	require.NoError(t, err)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Prefer peer-reviewed findings.")
	assert.Contains(t, completer.prompts[0], "[0] "+headline(0, "apnews.com").Title)
	assert.Len(t, res.Results, 3, "empty grouping falls back to basic mode")
}

type guidelineMap map[string]string

func (g guidelineMap) Guideline(category string) (string, bool) {
	v, ok := g[category]
	return v, ok
}
