// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig describes the news provider the proxy forwards to.
type UpstreamConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Language       string  `mapstructure:"language"`
	SortBy         string  `mapstructure:"sort_by"`
	PageSize       int     `mapstructure:"page_size"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	RPS            float64 `mapstructure:"rps"`
	Burst          int     `mapstructure:"burst"`
}

// CacheConfig controls the proxy response cache.
type CacheConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

// UploadConfig controls the file upload endpoints.
type UploadConfig struct {
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

// NotifyConfig controls the fresh-fetch announcement pipeline.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("upstream.base_url", "https://newsapi.org/v2")
	v.SetDefault("upstream.language", "ru")
	v.SetDefault("upstream.sort_by", "publishedAt")
	v.SetDefault("upstream.page_size", 10)
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("upstream.max_retries", 2)
	v.SetDefault("upstream.rps", 4)
	v.SetDefault("upstream.burst", 2)
	v.SetDefault("cache.ttl_minutes", 5)
	v.SetDefault("upload.provider", "local")
	v.SetDefault("upload.base_dir", "uploads")
	v.SetDefault("upload.max_bytes", 50<<20)
	v.SetDefault("notify.provider", "memory")
	v.SetDefault("notify.topic_name", "news-refresh")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must be set")
	}
	if c.Upstream.PageSize <= 0 || c.Upstream.PageSize > 100 {
		return fmt.Errorf("upstream.page_size must be in (0, 100]")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("upstream.timeout_seconds must be > 0")
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache.ttl_minutes must be > 0")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be > 0")
	}
	switch c.Upload.Provider {
	case "local", "gcs", "memory":
	default:
		return fmt.Errorf("upload.provider must be one of local, gcs, memory")
	}
	if c.Upload.Provider == "gcs" && c.Upload.GCSBucket == "" {
		return fmt.Errorf("upload.gcs_bucket must be set when upload.provider is gcs")
	}
	switch c.Notify.Provider {
	case "memory", "pubsub":
	default:
		return fmt.Errorf("notify.provider must be one of memory, pubsub")
	}
	if c.Notify.Provider == "pubsub" && (c.Notify.ProjectID == "" || c.Notify.TopicName == "") {
		return fmt.Errorf("notify.project_id and notify.topic_name must be set when notify.provider is pubsub")
	}
	return nil
}

// UpstreamTimeout converts the upstream timeout knob into a duration.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// CacheTTL converts the cache TTL knob into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
