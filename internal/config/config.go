// Package config loads process-level settings for the oasplit command and
// MCP server from an optional config file and OASPLIT_* environment
// variables.
//
// Keys are nested with dots in files and underscores in the environment:
// split.workers is OASPLIT_SPLIT_WORKERS. Environment values override file
// values, which override defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/erraggy/oasplit/internal/options"
	"github.com/erraggy/oasplit/loader"
	"github.com/erraggy/oasplit/oaserrors"
	"github.com/erraggy/oasplit/renderer"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "OASPLIT"

// Config is the full configuration.
type Config struct {
	Split  SplitConfig  `mapstructure:"split"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Search SearchConfig `mapstructure:"search"`
}

// SplitConfig holds pipeline settings.
type SplitConfig struct {
	Workers          int      `mapstructure:"workers"`
	Format           string   `mapstructure:"format"`
	Endpoints        []string `mapstructure:"endpoints"`
	PruneComponents  bool     `mapstructure:"prune_components"`
	MethodsOnly      bool     `mapstructure:"methods_only"`
	SourceMethodKeys bool     `mapstructure:"source_method_keys"`
}

// HTTPConfig holds settings for URL inputs.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	MaxSize   int64         `mapstructure:"max_size"`
	// AllowPrivateIPs lets the MCP server fetch URLs that resolve to
	// loopback, private, or link-local addresses.
	AllowPrivateIPs bool `mapstructure:"allow_private_ips"`
}

// CacheConfig holds MCP server cache settings.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FileTTL       time.Duration `mapstructure:"file_ttl"`
	URLTTL        time.Duration `mapstructure:"url_ttl"`
	ContentTTL    time.Duration `mapstructure:"content_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// SearchConfig holds defaults for paged tool and search output.
type SearchConfig struct {
	Limit int `mapstructure:"limit"`
	// MaxInlineSize is the largest record text returned inline by the MCP
	// split tool.
	MaxInlineSize int `mapstructure:"max_inline_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("split.workers", 0)
	v.SetDefault("split.format", string(renderer.FormatYAML))
	v.SetDefault("split.endpoints", []string{})
	v.SetDefault("split.prune_components", false)
	v.SetDefault("split.methods_only", false)
	v.SetDefault("split.source_method_keys", false)

	v.SetDefault("http.timeout", loader.DefaultTimeout)
	v.SetDefault("http.user_agent", "")
	v.SetDefault("http.max_size", loader.DefaultMaxSize)
	v.SetDefault("http.allow_private_ips", false)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.file_ttl", 15*time.Minute)
	v.SetDefault("cache.url_ttl", 5*time.Minute)
	v.SetDefault("cache.content_ttl", 15*time.Minute)
	v.SetDefault("cache.sweep_interval", time.Minute)

	v.SetDefault("search.limit", 25)
	v.SetDefault("search.max_inline_size", 64<<10)
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always decode.
	_ = v.Unmarshal(&c)
	return &c
}

// Load reads the config file at path, when path is not empty, and applies
// OASPLIT_* environment overrides. The file format follows its extension
// (yaml, json, toml, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &oaserrors.ConfigError{Option: "config", Value: path, Message: "cannot read config file", Cause: err}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, &oaserrors.ConfigError{Option: "config", Value: path, Message: "cannot decode settings", Cause: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, options.ValidateNonNegative("split.workers", c.Split.Workers))
	if _, err := renderer.ParseFormat(c.Split.Format); err != nil {
		errs = append(errs, err)
	}
	if c.HTTP.Timeout < 0 {
		errs = append(errs, &oaserrors.ConfigError{Option: "http.timeout", Value: c.HTTP.Timeout, Message: "must not be negative"})
	}
	if c.HTTP.MaxSize < 0 {
		errs = append(errs, &oaserrors.ConfigError{Option: "http.max_size", Value: c.HTTP.MaxSize, Message: "must not be negative"})
	}
	errs = append(errs, options.ValidateNonNegative("search.limit", c.Search.Limit))
	errs = append(errs, options.ValidateNonNegative("search.max_inline_size", c.Search.MaxInlineSize))
	return multierr.Combine(errs...)
}

// OutputFormat returns the parsed split.format.
func (c *Config) OutputFormat() renderer.Format {
	f, err := renderer.ParseFormat(c.Split.Format)
	if err != nil {
		return renderer.FormatYAML
	}
	return f
}
