package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort    string `mapstructure:"SERVER_PORT"`
	AffiliateTag  string `mapstructure:"AFFILIATE_TAG"`
	RainforestKey string `mapstructure:"RAINFOREST_KEY"`

	MaxResults     int `mapstructure:"MAX_RESULTS"`
	MaxFeedEntries int `mapstructure:"MAX_FEED_ENTRIES"`
	EnrichWorkers  int `mapstructure:"ENRICH_WORKERS"`

	FetchTimeout    int `mapstructure:"FETCH_TIMEOUT"`    // seconds, per page fetch
	RedirectTimeout int `mapstructure:"REDIRECT_TIMEOUT"` // seconds, short-link resolution

	ResultCacheTTL   int `mapstructure:"RESULT_CACHE_TTL"`  // minutes
	AggregateRefresh int `mapstructure:"AGGREGATE_REFRESH"` // minutes

	Categories           string `mapstructure:"AGGREGATE_CATEGORIES"` // comma-separated
	AggregatePerCategory int    `mapstructure:"AGGREGATE_PER_CATEGORY"`
	AggregateTop         int    `mapstructure:"AGGREGATE_TOP"`

	// Empirically chosen scoring constants, kept configurable.
	ScoreThreshold float64 `mapstructure:"SCORE_THRESHOLD"`
	PriceBoost     float64 `mapstructure:"PRICE_BOOST"`
	ImageBoost     float64 `mapstructure:"IMAGE_BOOST"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables in production.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AFFILIATE_TAG", "2025050f-20")
	viper.SetDefault("MAX_RESULTS", 5)
	viper.SetDefault("MAX_FEED_ENTRIES", 10)
	viper.SetDefault("ENRICH_WORKERS", 5)
	viper.SetDefault("FETCH_TIMEOUT", 10)
	viper.SetDefault("REDIRECT_TIMEOUT", 8)
	viper.SetDefault("RESULT_CACHE_TTL", 60)
	viper.SetDefault("AGGREGATE_REFRESH", 30)
	viper.SetDefault("AGGREGATE_CATEGORIES", "electronics,home,toys")
	viper.SetDefault("AGGREGATE_PER_CATEGORY", 3)
	viper.SetDefault("AGGREGATE_TOP", 9)
	viper.SetDefault("SCORE_THRESHOLD", 0.2)
	viper.SetDefault("PRICE_BOOST", 1.2)
	viper.SetDefault("IMAGE_BOOST", 1.1)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CategoryList splits the configured category string.
func (c *Config) CategoryList() []string {
	var out []string
	for _, cat := range strings.Split(c.Categories, ",") {
		if cat = strings.TrimSpace(cat); cat != "" {
			out = append(out, cat)
		}
	}
	return out
}

// FetchTimeoutDuration returns the per-fetch timeout as a duration.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// RedirectTimeoutDuration returns the redirect-resolution timeout as a duration.
func (c *Config) RedirectTimeoutDuration() time.Duration {
	return time.Duration(c.RedirectTimeout) * time.Second
}

// ResultCacheTTLDuration returns the result cache TTL as a duration.
func (c *Config) ResultCacheTTLDuration() time.Duration {
	return time.Duration(c.ResultCacheTTL) * time.Minute
}

// AggregateRefreshDuration returns the top-deals refresh interval as a duration.
func (c *Config) AggregateRefreshDuration() time.Duration {
	return time.Duration(c.AggregateRefresh) * time.Minute
}
