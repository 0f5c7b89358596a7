package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 3001 {
		t.Fatalf("expected default port 3001, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://newsapi.org/v2" {
		t.Fatalf("unexpected default base url %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.PageSize != 10 {
		t.Fatalf("expected default page size 10, got %d", cfg.Upstream.PageSize)
	}
	if got := cfg.CacheTTL(); got != 5*time.Minute {
		t.Fatalf("expected cache TTL 5m, got %v", got)
	}
	if got := cfg.UpstreamTimeout(); got != 10*time.Second {
		t.Fatalf("expected upstream timeout 10s, got %v", got)
	}
	if cfg.Upload.MaxBytes != 50<<20 {
		t.Fatalf("expected 50MB upload cap, got %d", cfg.Upload.MaxBytes)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
upstream:
  api_key: secret
  language: en
  page_size: 20
  timeout_seconds: 5
cache:
  ttl_minutes: 2
upload:
  provider: memory
  max_bytes: 1048576
notify:
  provider: memory
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Upstream.APIKey != "secret" || cfg.Upstream.Language != "en" {
		t.Fatalf("expected upstream overrides to apply: %+v", cfg.Upstream)
	}
	if cfg.Upload.Provider != "memory" || cfg.Upload.MaxBytes != 1<<20 {
		t.Fatalf("expected upload overrides to apply: %+v", cfg.Upload)
	}
	if got := cfg.CacheTTL(); got != 2*time.Minute {
		t.Fatalf("expected cache TTL 2m, got %v", got)
	}
	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server: ServerConfig{Port: 3001},
		Upstream: UpstreamConfig{
			BaseURL:        "https://newsapi.org/v2",
			PageSize:       10,
			TimeoutSeconds: 10,
		},
		Cache:  CacheConfig{TTLMinutes: 5},
		Upload: UploadConfig{Provider: "local", MaxBytes: 1 << 20},
		Notify: NotifyConfig{Provider: "memory", TopicName: "news-refresh"},
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid port",
			cfg: func() Config {
				c := base
				c.Server.Port = 0
				return c
			}(),
			want: "server.port",
		},
		{
			name: "missing base url",
			cfg: func() Config {
				c := base
				c.Upstream.BaseURL = ""
				return c
			}(),
			want: "upstream.base_url",
		},
		{
			name: "page size too large",
			cfg: func() Config {
				c := base
				c.Upstream.PageSize = 500
				return c
			}(),
			want: "upstream.page_size",
		},
		{
			name: "invalid cache ttl",
			cfg: func() Config {
				c := base
				c.Cache.TTLMinutes = 0
				return c
			}(),
			want: "cache.ttl_minutes",
		},
		{
			name: "unknown upload provider",
			cfg: func() Config {
				c := base
				c.Upload.Provider = "ftp"
				return c
			}(),
			want: "upload.provider",
		},
		{
			name: "gcs without bucket",
			cfg: func() Config {
				c := base
				c.Upload.Provider = "gcs"
				return c
			}(),
			want: "upload.gcs_bucket",
		},
		{
			name: "pubsub without project",
			cfg: func() Config {
				c := base
				c.Notify.Provider = "pubsub"
				return c
			}(),
			want: "notify.project_id",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
