// Package config loads program configuration from an optional config file
// and MODBANK_* environment variables, with sane defaults.
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/dshills/modbank/internal/bank"
)

// Config is the decoded program configuration.
type Config struct {
	Plugins PluginsConfig `mapstructure:"plugins"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
}

// PluginsConfig controls plugin discovery.
type PluginsConfig struct {
	// Cache enables the persistent descriptor cache.
	Cache bool `mapstructure:"cache"`
	// ResetCache forces a full reload and rewrites the cache.
	ResetCache bool `mapstructure:"reset_cache"`
	// Dir is the primary plugin directory.
	Dir string `mapstructure:"dir"`
	// Path holds extra plugin directories. The MODBANK_PLUGIN_PATH
	// environment variable supplies them as one list-separated string.
	Path []string `mapstructure:"path"`
	// MaxDepth bounds directory recursion during scans.
	MaxDepth int `mapstructure:"max_depth"`
}

// CacheConfig controls where descriptor cache blobs live.
type CacheConfig struct {
	// Dir overrides the platform cache directory when non-empty.
	Dir string `mapstructure:"dir"`
}

// LogConfig controls logging output and rotation.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File sends logs to a rotated file instead of stderr when non-empty.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SearchPath returns the extra plugin directories joined with the platform
// list separator, the form the bank consumes.
func (c *Config) SearchPath() string {
	return strings.Join(c.Plugins.Path, string(filepath.ListSeparator))
}

// Load reads configuration. An empty path skips the config file and uses
// defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("plugins.cache", true)
	v.SetDefault("plugins.reset_cache", false)
	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.path", []string{})
	v.SetDefault("plugins.max_depth", bank.DefaultMaxDepth)
	v.SetDefault("cache.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 30)

	v.SetEnvPrefix("MODBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional override for the search path.
	if err := v.BindEnv("plugins.path", "MODBANK_PLUGIN_PATH"); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(splitPathListHook())); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// splitPathListHook turns a single string into a string slice by splitting
// on the platform path-list separator, so MODBANK_PLUGIN_PATH behaves like
// PATH does.
func splitPathListHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string(nil)) {
			return data, nil
		}
		s := data.(string)
		if s == "" {
			return []string{}, nil
		}
		return filepath.SplitList(s), nil
	}
}
