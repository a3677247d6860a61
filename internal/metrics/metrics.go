// Package metrics defines the Prometheus collectors recorded by the pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace prefixes every curator metric.
	Namespace = "curator"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	HubScansTotal      *prometheus.CounterVec
	HeadlinesFound     prometheus.Histogram
	ScrapesTotal       *prometheus.CounterVec
	BrowserRenders     *prometheus.CounterVec
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec
	FallbacksTotal     *prometheus.CounterVec
}

// New creates and registers all collectors on reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		HubScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scanner",
			Name:      "hub_scans_total",
			Help:      "Hub scans by the path that produced HTML (fetch, browser, feed, none)",
		}, []string{"path"}),
		HeadlinesFound: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scanner",
			Name:      "headlines_per_scan",
			Help:      "Headlines returned per successful hub scan",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 25, 30},
		}),
		ScrapesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "extractor",
			Name:      "scrapes_total",
			Help:      "Article extractions by strategy, winning path and outcome",
		}, []string{"strategy", "path", "outcome"}),
		BrowserRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "browser",
			Name:      "renders_total",
			Help:      "Headless browser renders by outcome",
		}, []string{"outcome"}),
		LLMRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Chat completion requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		LLMRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Chat completion latency",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"provider"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "curation",
			Name:      "fallbacks_total",
			Help:      "Curation phases that degraded to their fallback",
		}, []string{"flow", "phase"}),
	}
}

// ObserveHubScan records which path produced a hub's HTML and how many headlines it yielded.
func (m *Metrics) ObserveHubScan(path string, headlines int) {
	if m == nil {
		return
	}
	m.HubScansTotal.WithLabelValues(path).Inc()
	if headlines > 0 {
		m.HeadlinesFound.Observe(float64(headlines))
	}
}

// ObserveScrape records one extraction attempt.
func (m *Metrics) ObserveScrape(strategy, path, outcome string) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(strategy, path, outcome).Inc()
}

// ObserveRender records one browser render.
func (m *Metrics) ObserveRender(outcome string) {
	if m == nil {
		return
	}
	m.BrowserRenders.WithLabelValues(outcome).Inc()
}

// ObserveLLM records one provider call.
func (m *Metrics) ObserveLLM(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveFallback records a degraded curation phase.
func (m *Metrics) ObserveFallback(flow, phase string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(flow, phase).Inc()
}
