package config

// Package config handles configuration loading for BrandPulse.
// It supports YAML config files with environment variable overrides.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Brand      BrandConfig      `mapstructure:"brand"      yaml:"brand"`
	Sources    SourcesConfig    `mapstructure:"sources"    yaml:"sources"`
	Classifier ClassifierConfig `mapstructure:"classifier" yaml:"classifier"`
	Cache      CacheConfig      `mapstructure:"cache"      yaml:"cache"`
	Store      StoreConfig      `mapstructure:"store"      yaml:"store"`
	Notify     NotifyConfig     `mapstructure:"notify"     yaml:"notify"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// BrandConfig identifies the brand being monitored.
type BrandConfig struct {
	Name     string   `mapstructure:"name"     yaml:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// SourcesConfig holds mention source settings.
type SourcesConfig struct {
	Twitter TwitterConfig `mapstructure:"twitter" yaml:"twitter"`
	RSS     RSSConfig     `mapstructure:"rss"     yaml:"rss"`
}

// TwitterConfig holds X API credentials and search limits.
type TwitterConfig struct {
	BearerToken string `mapstructure:"bearer_token" yaml:"bearer_token"`
	MaxResults  int    `mapstructure:"max_results"  yaml:"max_results"`
	WindowHours int    `mapstructure:"window_hours" yaml:"window_hours"`
}

// RSSConfig holds supplemental feed sources.
type RSSConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Feeds   []string `mapstructure:"feeds"   yaml:"feeds"`
}

// ClassifierConfig holds LLM classification settings.
type ClassifierConfig struct {
	Provider     string  `mapstructure:"provider"       yaml:"provider"` // "anthropic" or "openai"
	AnthropicKey string  `mapstructure:"anthropic_key"  yaml:"anthropic_key"`
	OpenAIKey    string  `mapstructure:"openai_key"     yaml:"openai_key"`
	Model        string  `mapstructure:"model"          yaml:"model"`
	BatchSize    int     `mapstructure:"batch_size"     yaml:"batch_size"`
	MaxRetries   int     `mapstructure:"max_retries"    yaml:"max_retries"`
	Temperature  float64 `mapstructure:"temperature"    yaml:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"     yaml:"max_tokens"`
	BudgetUSD    float64 `mapstructure:"budget_usd"     yaml:"budget_usd"`
	PriceInPerM  float64 `mapstructure:"price_in_per_m" yaml:"price_in_per_m"`
	PriceOutPerM float64 `mapstructure:"price_out_per_m" yaml:"price_out_per_m"`
}

// CacheConfig holds classification cache settings.
type CacheConfig struct {
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"`
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	TTLHours  int    `mapstructure:"ttl_hours"  yaml:"ttl_hours"`
}

// StoreConfig holds report persistence settings.
type StoreConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"   yaml:"postgres_dsn"`
	ReportDir     string `mapstructure:"report_dir"     yaml:"report_dir"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// NotifyConfig holds chat delivery settings.
type NotifyConfig struct {
	WebhookURL        string `mapstructure:"webhook_url"        yaml:"webhook_url"`
	BotToken          string `mapstructure:"bot_token"          yaml:"bot_token"`
	Channel           string `mapstructure:"channel"            yaml:"channel"`
	EscalationMention string `mapstructure:"escalation_mention" yaml:"escalation_mention"`
	CriticalThreshold int    `mapstructure:"critical_threshold" yaml:"critical_threshold"`
}

// APIConfig holds HTTP server settings for serve mode.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.brandpulse/config.yaml (home directory)
//  3. /etc/brandpulse/config.yaml (system)
//
// Environment variables override config file values.
// Format: BRANDPULSE_<SECTION>_<KEY>, e.g., BRANDPULSE_NOTIFY_WEBHOOK_URL
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".brandpulse"))
	v.AddConfigPath("/etc/brandpulse")

	v.SetEnvPrefix("BRANDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BRANDPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// Validate checks for fatally missing configuration before a run starts.
func (c *Config) Validate() error {
	if c.Brand.Name == "" {
		return fmt.Errorf("brand.name is required")
	}
	if len(c.Brand.Keywords) == 0 {
		return fmt.Errorf("brand.keywords must list at least one keyword")
	}
	switch c.Classifier.Provider {
	case "anthropic":
		if c.Classifier.AnthropicKey == "" {
			return fmt.Errorf("classifier.anthropic_key is required for provider anthropic")
		}
	case "openai":
		if c.Classifier.OpenAIKey == "" {
			return fmt.Errorf("classifier.openai_key is required for provider openai")
		}
	default:
		return fmt.Errorf("unknown classifier provider %q", c.Classifier.Provider)
	}
	if c.Classifier.BatchSize <= 0 {
		return fmt.Errorf("classifier.batch_size must be positive")
	}
	if c.Classifier.BudgetUSD <= 0 {
		return fmt.Errorf("classifier.budget_usd must be positive")
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Brand defaults
	v.SetDefault("brand.name", "Nansen")
	v.SetDefault("brand.keywords", []string{"nansen", "@nansen_ai"})

	// Source defaults
	v.SetDefault("sources.twitter.max_results", 200)
	v.SetDefault("sources.twitter.window_hours", 24)
	v.SetDefault("sources.rss.enabled", false)

	// Classifier defaults
	v.SetDefault("classifier.provider", "anthropic")
	v.SetDefault("classifier.model", "claude-sonnet-4-20250514")
	v.SetDefault("classifier.batch_size", 15)
	v.SetDefault("classifier.max_retries", 3)
	v.SetDefault("classifier.temperature", 0.15)
	v.SetDefault("classifier.max_tokens", 8192)
	v.SetDefault("classifier.budget_usd", 5.0)
	v.SetDefault("classifier.price_in_per_m", 3.0)
	v.SetDefault("classifier.price_out_per_m", 15.0)

	// Cache defaults (7 days)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 168)

	// Store defaults
	v.SetDefault("store.report_dir", "reports")
	v.SetDefault("store.retention_days", 30)

	// Notify defaults
	v.SetDefault("notify.critical_threshold", 5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("BRANDPULSE_CLASSIFIER_ANTHROPIC_KEY"); key != "" {
		cfg.Classifier.AnthropicKey = key
	}
	if key := os.Getenv("BRANDPULSE_CLASSIFIER_OPENAI_KEY"); key != "" {
		cfg.Classifier.OpenAIKey = key
	}
	if key := os.Getenv("BRANDPULSE_SOURCES_TWITTER_BEARER_TOKEN"); key != "" {
		cfg.Sources.Twitter.BearerToken = key
	}
	if key := os.Getenv("BRANDPULSE_NOTIFY_WEBHOOK_URL"); key != "" {
		cfg.Notify.WebhookURL = key
	}
	if key := os.Getenv("BRANDPULSE_NOTIFY_BOT_TOKEN"); key != "" {
		cfg.Notify.BotToken = key
	}
	if dsn := os.Getenv("BRANDPULSE_STORE_POSTGRES_DSN"); dsn != "" {
		cfg.Store.PostgresDSN = dsn
	}
	if addr := os.Getenv("BRANDPULSE_CACHE_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
