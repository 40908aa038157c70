// Package appconfig loads comfygit's process-wide settings: registry base
// URLs, HTTP timeouts, cache sizes and rate limits. It mirrors compozy's
// pkg/config stack — a layered koanf loader behind a small Service/Manager
// split — generalized to comfygit's own domain fields. It is distinct from
// the per-workspace workspace.json state owned by internal/workspace.
package appconfig

import (
	"fmt"
	"time"
)

// Config is the fully resolved, validated process configuration.
type Config struct {
	Registry RegistryConfig `koanf:"registry"`
	HTTP     HTTPConfig     `koanf:"http"`
	Cache    CacheConfig    `koanf:"cache"`
	Runtime  RuntimeConfig  `koanf:"runtime"`
}

// RegistryConfig points at the Comfy Registry API and the GitHub API used to
// resolve repository metadata for custom nodes.
type RegistryConfig struct {
	BaseURL       string `koanf:"base_url"        validate:"required,url"`
	GitHubBaseURL string `koanf:"github_base_url" validate:"required,url"`
	// GitHubToken, when set, is sent as a bearer token to lift GitHub's
	// unauthenticated rate limit. Redacted in logs and JSON via SensitiveString.
	GitHubToken SensitiveString `koanf:"github_token"`
}

// HTTPConfig controls the resty clients shared by internal/noderegistry and
// internal/downloader.
type HTTPConfig struct {
	Timeout         time.Duration `koanf:"timeout"          validate:"gt=0"`
	RetryCount      int           `koanf:"retry_count"      validate:"gte=0"`
	RetryWaitMin    time.Duration `koanf:"retry_wait_min"   validate:"gt=0"`
	RetryWaitMax    time.Duration `koanf:"retry_wait_max"   validate:"gt=0"`
	RateLimitPerSec int           `koanf:"rate_limit_per_sec" validate:"gt=0"`
}

// CacheConfig bounds the in-memory registry metadata cache.
type CacheConfig struct {
	NodeMetadataSize int           `koanf:"node_metadata_size" validate:"gt=0"`
	NodeMetadataTTL  time.Duration `koanf:"node_metadata_ttl"  validate:"gt=0"`
}

// RuntimeConfig carries process-level behavior not tied to any one domain
// component.
type RuntimeConfig struct {
	LogLevel      string `koanf:"log_level"      validate:"oneof=debug info warn error disabled"`
	WorkspaceRoot string `koanf:"workspace_root"`
}

// Default returns comfygit's baked-in defaults, the lowest-precedence layer
// every Load call starts from.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			BaseURL:       "https://api.comfy.org",
			GitHubBaseURL: "https://api.github.com",
		},
		HTTP: HTTPConfig{
			Timeout:         30 * time.Second,
			RetryCount:      3,
			RetryWaitMin:    500 * time.Millisecond,
			RetryWaitMax:    5 * time.Second,
			RateLimitPerSec: 10,
		},
		Cache: CacheConfig{
			NodeMetadataSize: 512,
			NodeMetadataTTL:  15 * time.Minute,
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
	}
}

// Validate checks structural constraints (via struct tags) plus the
// cross-field invariants tags can't express.
func (s *Service) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := s.validator.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if cfg.HTTP.RetryWaitMax < cfg.HTTP.RetryWaitMin {
		return fmt.Errorf("validation failed: http retry_wait_max must be >= retry_wait_min")
	}
	return nil
}
