package appconfig

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment variable prefix comfygit reads config
// overrides from, e.g. COMFYGIT_HTTP_TIMEOUT.
const EnvPrefix = "COMFYGIT_"

// Service owns validation and the actual koanf-backed layering of Providers
// into a resolved Config. It holds no mutable state itself — Manager is the
// layer that caches the last-loaded Config and reacts to file changes.
type Service struct {
	validator *validator.Validate
}

func NewService() *Service {
	return &Service{validator: validator.New()}
}

// Load merges every Provider's map in the order given (later providers win),
// then applies COMFYGIT_* environment variables as the final, highest
// precedence layer, and validates the result. nil entries in sources are
// skipped so callers can conditionally build the provider list.
func (s *Service) Load(_ context.Context, sources ...Provider) (*Config, error) {
	k := koanf.New(".")
	for _, src := range sources {
		if src == nil {
			continue
		}
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
		if err := k.Load(confmapProvider(data), nil); err != nil {
			return nil, fmt.Errorf("failed to merge source %s: %w", src.Type(), err)
		}
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyToPath(key), value
		},
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to merge environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyToPath turns COMFYGIT_HTTP_RETRY_COUNT into http.retry_count,
// matching Config's koanf tag nesting. Only the first underscore splits the
// section from the field, since field names themselves contain underscores
// (retry_count, base_url, ...).
func envKeyToPath(key string) string {
	trimmed := toLower(key[len(EnvPrefix):])
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] == '_' {
			return trimmed[:i] + "." + trimmed[i+1:]
		}
	}
	return trimmed
}

func toLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		b[i] = c
	}
	return string(b)
}

// structToMap flattens a Config (or Default()) into the nested map shape
// koanf expects, using the same `koanf` struct tags Config is defined with.
func structToMap(cfg *Config) map[string]any {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(*cfg, "koanf"), nil)
	return k.Raw()
}
