package config

import (
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/curator/internal/analyzer"
	"github.com/jonesrussell/north-cloud/curator/internal/api"
	"github.com/jonesrussell/north-cloud/curator/internal/browser"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
	"github.com/jonesrussell/north-cloud/curator/internal/fetch"
	"github.com/jonesrussell/north-cloud/curator/internal/llm"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/scanner"
	"github.com/jonesrussell/north-cloud/curator/internal/session"
)

// setDefaults registers every key so AutomaticEnv can override it.
// Values come from each package's own SetDefaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	var lg logger.Config
	lg.SetDefaults()
	v.SetDefault("logging.level", lg.Level)
	v.SetDefault("logging.format", lg.Format)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.output_paths", lg.OutputPaths)

	var srv api.Config
	srv.SetDefaults()
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.idle_timeout", srv.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	v.SetDefault("server.service_name", srv.ServiceName)
	v.SetDefault("server.cors.allowed_origins", srv.CORS.AllowedOrigins)

	var rd session.Config
	rd.SetDefaults()
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", rd.TTL)
	v.SetDefault("redis.key_prefix", rd.KeyPrefix)

	var ft fetch.Config
	ft.SetDefaults()
	v.SetDefault("fetch.user_agent", ft.UserAgent)
	v.SetDefault("fetch.accept_language", ft.AcceptLanguage)
	v.SetDefault("fetch.max_body_size", ft.MaxBodySize)

	var br browser.Config
	br.SetDefaults()
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.headed", false)
	v.SetDefault("browser.no_sandbox", false)
	v.SetDefault("browser.user_agent", ft.UserAgent)
	v.SetDefault("browser.navigation_timeout", br.NavigationTimeout)

	var sc scanner.Config
	sc.SetDefaults()
	v.SetDefault("scanner.fetch_timeout", sc.FetchTimeout)
	v.SetDefault("scanner.min_body_bytes", sc.MinBodyBytes)
	v.SetDefault("scanner.min_link_text", sc.MinLinkText)
	v.SetDefault("scanner.headline_text", sc.HeadlineText)
	v.SetDefault("scanner.max_headlines", sc.MaxHeadlines)
	v.SetDefault("scanner.image_depth", sc.ImageDepth)
	v.SetDefault("scanner.settle_delay", sc.SettleDelay)

	var ex extractor.Config
	ex.SetDefaults()
	v.SetDefault("extractor.fetch_timeout", ex.FetchTimeout)
	v.SetDefault("extractor.min_body_bytes", ex.MinBodyBytes)
	v.SetDefault("extractor.min_text_length", ex.MinTextLength)
	v.SetDefault("extractor.settle_delay", ex.SettleDelay)

	var lm llm.Config
	lm.SetDefaults()
	v.SetDefault("llm.provider", lm.Provider)
	v.SetDefault("llm.timeout", lm.Timeout)
	v.SetDefault("llm.requests_per_second", 0.0)
	v.SetDefault("llm.burst", lm.Burst)
	for name, p := range map[string]llm.ProviderConfig{
		llm.ProviderOpenAI:    lm.OpenAI,
		llm.ProviderGemini:    lm.Gemini,
		llm.ProviderAnthropic: lm.Anthropic,
	} {
		v.SetDefault("llm."+name+".base_url", p.BaseURL)
		v.SetDefault("llm."+name+".model", p.Model)
		v.SetDefault("llm."+name+".max_tokens", p.MaxTokens)
	}

	var an analyzer.Config
	an.SetDefaults()
	v.SetDefault("analyzer.text_budget", an.TextBudget)

	var cu curation.Config
	cu.SetDefaults()
	v.SetDefault("curation.hubs_file", "")
	v.SetDefault("curation.default_hubs", cu.DefaultHubs)
	v.SetDefault("curation.guidelines_dir", "")
	v.SetDefault("curation.fallback_limit", cu.FallbackLimit)
	v.SetDefault("curation.discovery_hubs", cu.DiscoveryHubs)
	v.SetDefault("curation.max_extraction_attempts", cu.MaxExtractionAttempts)
	v.SetDefault("curation.max_prompt_headlines", cu.MaxPromptHeadlines)
	v.SetDefault("curation.favicon_service", cu.FaviconService)
}
