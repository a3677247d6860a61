package curation

import (
	"context"
	"sync"

	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/urlutil"
)

// scanAll scans every hub concurrently and flattens the non-nil results in hub order.
func (o *Orchestrator) scanAll(ctx context.Context, hubs []string) []domain.Headline {
	results := make([]*domain.ScanResult, len(hubs))

	var wg sync.WaitGroup
	for i, hub := range hubs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.scanner.Scan(ctx, hub)
		}()
	}
	wg.Wait()

	var headlines []domain.Headline
	for i, res := range results {
		if res == nil {
			o.log.Debug("Hub produced no headlines", logger.String("hub", hubs[i]))
			continue
		}
		headlines = append(headlines, res.Headlines...)
	}
	return headlines
}

// exclusionSet builds the lookup for caller-supplied URLs.
func exclusionSet(urls []string) map[string]struct{} {
	set := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if key := urlutil.Key(u); key != "" {
			set[key] = struct{}{}
		}
	}
	return set
}

// filterHeadlines drops duplicate and excluded URLs, comparing case-insensitively.
func filterHeadlines(headlines []domain.Headline, exclude []string) []domain.Headline {
	excluded := exclusionSet(exclude)
	seen := make(map[string]struct{}, len(headlines))
	out := make([]domain.Headline, 0, len(headlines))
	for _, h := range headlines {
		key := urlutil.Key(h.URL)
		if key == "" {
			continue
		}
		if _, skip := excluded[key]; skip {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}
