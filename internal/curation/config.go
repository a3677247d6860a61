package curation

// Defaults.
const (
	DefaultFallbackLimit         = 20
	DefaultDiscoveryHubs         = 3
	DefaultMaxExtractionAttempts = 3
	DefaultMaxPromptHeadlines    = 120
	DefaultFaviconService        = "https://www.google.com/s2/favicons?domain=%s&sz=128"
)

// DefaultHubPair is used when discovery fails and no category hubs are configured.
var DefaultHubPair = []string{
	"https://apnews.com/hub/world-news",
	"https://www.reuters.com/world/",
}

// Config holds curation settings.
type Config struct {
	// Hubs maps a category key to its hub URLs.
	Hubs map[string][]string `mapstructure:"hubs"`
	// HubsFile is an optional YAML file merged over Hubs.
	HubsFile    string   `mapstructure:"hubs_file"`
	DefaultHubs []string `mapstructure:"default_hubs"`
	// GuidelinesDir holds <category>.md editorial guideline documents.
	GuidelinesDir         string `mapstructure:"guidelines_dir"`
	FallbackLimit         int    `mapstructure:"fallback_limit"`
	DiscoveryHubs         int    `mapstructure:"discovery_hubs"`
	MaxExtractionAttempts int    `mapstructure:"max_extraction_attempts"`
	MaxPromptHeadlines    int    `mapstructure:"max_prompt_headlines"`
	// FaviconService is a format string taking the escaped hostname.
	FaviconService string `mapstructure:"favicon_service"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if len(c.DefaultHubs) == 0 {
		c.DefaultHubs = append([]string(nil), DefaultHubPair...)
	}
	if c.FallbackLimit <= 0 {
		c.FallbackLimit = DefaultFallbackLimit
	}
	if c.DiscoveryHubs <= 0 {
		c.DiscoveryHubs = DefaultDiscoveryHubs
	}
	if c.MaxExtractionAttempts <= 0 {
		c.MaxExtractionAttempts = DefaultMaxExtractionAttempts
	}
	if c.MaxPromptHeadlines <= 0 {
		c.MaxPromptHeadlines = DefaultMaxPromptHeadlines
	}
	if c.FaviconService == "" {
		c.FaviconService = DefaultFaviconService
	}
}
