package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.ObserveHubScan("fetch", 12)
	m.ObserveHubScan("fetch", 0)
	m.ObserveScrape("smart", "browser", metrics.OutcomeSuccess)
	m.ObserveLLM("openai", metrics.OutcomeFailure, time.Second)
	m.ObserveFallback("search", "grouping")

	assert.InDelta(t, 2, testutil.ToFloat64(m.HubScansTotal.WithLabelValues("fetch")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ScrapesTotal.WithLabelValues("smart", "browser", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("openai", "failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("search", "grouping")), 0)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	m.ObserveHubScan("none", 0)
	m.ObserveScrape("smart", "fetch", metrics.OutcomeEmpty)
	m.ObserveRender(metrics.OutcomeSuccess)
	m.ObserveLLM("gemini", metrics.OutcomeSuccess, time.Millisecond)
	m.ObserveFallback("hunt", "discovery")
}
