// Package config loads curator configuration from defaults, an optional
// YAML file, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
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

// EnvPrefix prefixes automatic environment overrides, e.g. CURATOR_SERVER_PORT.
const EnvPrefix = "CURATOR"

// AppConfig holds process-level settings.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Config is the complete curator configuration.
type Config struct {
	App       AppConfig        `mapstructure:"app"`
	Logging   logger.Config    `mapstructure:"logging"`
	Server    api.Config       `mapstructure:"server"`
	Redis     session.Config   `mapstructure:"redis"`
	Fetch     fetch.Config     `mapstructure:"fetch"`
	Browser   browser.Config   `mapstructure:"browser"`
	Scanner   scanner.Config   `mapstructure:"scanner"`
	Extractor extractor.Config `mapstructure:"extractor"`
	LLM       llm.Config       `mapstructure:"llm"`
	Analyzer  analyzer.Config  `mapstructure:"analyzer"`
	Curation  curation.Config  `mapstructure:"curation"`
}

// Options control Load.
type Options struct {
	// File is an explicit config file. When empty, config.yaml is looked up
	// in the working directory and ./config, and may be absent.
	File string
	// Debug forces debug logging and gin debug mode.
	Debug bool
}

// Load builds the configuration. Precedence, highest first: environment,
// config file, defaults. .env.local and .env populate the environment
// without overriding variables that are already set.
func Load(opts Options) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if opts.Debug || cfg.App.Debug {
		cfg.App.Debug = true
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
	}

	if cfg.Curation.HubsFile != "" {
		hubs, err := curation.LoadHubFile(cfg.Curation.HubsFile)
		if err != nil {
			return nil, err
		}
		cfg.Curation.Hubs = curation.MergeHubs(cfg.Curation.Hubs, hubs)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills every unset field of every section.
func (c *Config) SetDefaults() {
	c.Logging.SetDefaults()
	c.Server.SetDefaults()
	c.Redis.SetDefaults()
	c.Fetch.SetDefaults()
	c.Browser.SetDefaults()
	c.Scanner.SetDefaults()
	c.Extractor.SetDefaults()
	c.LLM.SetDefaults()
	c.Analyzer.SetDefaults()
	c.Curation.SetDefaults()
}

// loadDotEnv reads .env.local then .env. Missing files are fine.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(name)
	}
}

// bindEnvVars maps conventional unprefixed variables onto config keys.
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"app.environment":   {"APP_ENV"},
		"app.debug":         {"APP_DEBUG"},
		"logging.level":     {"LOG_LEVEL"},
		"logging.format":    {"LOG_FORMAT"},
		"server.port":       {"PORT"},
		"redis.address":     {"REDIS_ADDRESS"},
		"redis.password":    {"REDIS_PASSWORD"},
		"llm.provider":      {"LLM_PROVIDER"},
		"browser.exec_path": {"CHROME_PATH"},
	}
	for key, envs := range bindings {
		// The prefixed name keeps priority over the conventional one.
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}
