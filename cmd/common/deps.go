// Package common provides shared utilities for command implementations.
package common

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/browser"
	"github.com/jonesrussell/north-cloud/curator/internal/config"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/fetch"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/metrics"
	"github.com/jonesrussell/north-cloud/curator/internal/scanner"
)

// Persistent flag names shared by every command.
const (
	FlagConfig = "config"
	FlagDebug  = "debug"
	FlagJSON   = "json"
)

// ErrConfigRequired is returned when a Pipeline is built without config.
var ErrConfigRequired = errors.New("config is required")

// CommandDeps holds the configuration and logger for one command run.
type CommandDeps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewCommandDeps loads configuration using the persistent flags of cmd.
func NewCommandDeps(cmd *cobra.Command) (*CommandDeps, error) {
	file, _ := cmd.Flags().GetString(FlagConfig)
	debug, _ := cmd.Flags().GetBool(FlagDebug)

	cfg, err := config.Load(config.Options{File: file, Debug: debug})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return &CommandDeps{Config: cfg, Logger: log}, nil
}

// Pipeline is the fully wired set of components. Close releases the browser.
type Pipeline struct {
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Browser   browser.Engine
	Scanner   *scanner.Scanner
	Extractor *extractor.Extractor
	LLM       *llm.Client
	Analyzer  *analyzer.Analyzer
	Curator   *curation.Orchestrator
}

// NewPipeline wires every component from deps. The browser is launched
// lazily on first render.
func NewPipeline(deps *CommandDeps) (*Pipeline, error) {
	if deps == nil || deps.Config == nil {
		return nil, ErrConfigRequired
	}
	cfg := deps.Config
	log := deps.Logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	fetcher := fetch.New(cfg.Fetch, log)
	engine := browser.NewChrome(cfg.Browser)
	client := llm.NewClient(cfg.LLM, log, m)

	p := &Pipeline{
		Registry:  reg,
		Metrics:   m,
		Browser:   engine,
		Scanner:   scanner.New(fetcher, engine, cfg.Scanner, log, m),
		Extractor: extractor.New(fetcher, engine, cfg.Extractor, log, m),
		LLM:       client,
		Analyzer:  analyzer.New(client, cfg.Analyzer, log),
	}

	p.Curator = curation.New(curation.Deps{
		Scanner:    p.Scanner,
		Scraper:    p.Extractor,
		Analyzer:   p.Analyzer,
		LLM:        client,
		Guidelines: curation.FileGuidelines{Dir: cfg.Curation.GuidelinesDir},
		Logger:     log,
		Metrics:    m,
	}, cfg.Curation)

	return p, nil
}

// Close shuts down the browser if it was launched.
func (p *Pipeline) Close() error {
	if p == nil || p.Browser == nil {
		return nil
	}
	return p.Browser.Close()
}

// Credentials reads the shared --provider, --api-key and --model flags.
func Credentials(cmd *cobra.Command) analyzer.Credentials {
	provider, _ := cmd.Flags().GetString("provider")
	key, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	return analyzer.Credentials{Provider: provider, APIKey: key, Model: model}
}

// AddCredentialFlags registers --provider, --api-key and --model on cmd.
func AddCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "LLM provider: openai, gemini or anthropic (default from config)")
	cmd.Flags().String("api-key", "", "API key for the provider (default from environment)")
	cmd.Flags().String("model", "", "model override")
}

// RunWithPipeline loads deps, builds the pipeline, runs fn and releases
// everything afterwards.
func RunWithPipeline(cmd *cobra.Command, fn func(deps *CommandDeps, p *Pipeline) error) error {
	deps, err := NewCommandDeps(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = deps.Logger.Sync() }()

	p, err := NewPipeline(deps)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			deps.Logger.Warn("Browser close failed", logger.Error(closeErr))
		}
	}()

	return fn(deps, p)
}
