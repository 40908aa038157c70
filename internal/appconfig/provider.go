package appconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
)

// Source identifies where a layer of configuration came from, used only for
// diagnostics — precedence is determined by the order Sources are passed to
// Load, not by Source itself.
type Source string

const (
	SourceDefault Source = "default"
	SourceYAML    Source = "yaml"
	SourceEnv     Source = "env"
	SourceCLI     Source = "cli"
)

// Provider yields one layer of configuration as a nested map keyed the same
// way as Config's koanf tags. Watch lets callers react to the underlying
// source changing (file providers); non-watchable sources return nil.
type Provider interface {
	Load() (map[string]any, error)
	Type() Source
	Watch(ctx context.Context, onChange func()) error
}

// DefaultProvider supplies Default() as the lowest-precedence layer.
type DefaultProvider struct{}

func NewDefaultProvider() *DefaultProvider { return &DefaultProvider{} }

func (p *DefaultProvider) Load() (map[string]any, error) {
	return structToMap(Default()), nil
}

func (p *DefaultProvider) Type() Source { return SourceDefault }

func (p *DefaultProvider) Watch(_ context.Context, _ func()) error { return nil }

// YAMLProvider reads a config file, usually <workspace>/.metadata/config.yaml.
// Watch uses koanf's file provider's own fsnotify-backed Watch.
type YAMLProvider struct {
	path string
	kf   *file.File
}

func NewYAMLProvider(path string) *YAMLProvider {
	return &YAMLProvider{path: path, kf: file.Provider(path)}
}

func (p *YAMLProvider) Load() (map[string]any, error) {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	data, err := p.kf.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("read yaml config %s: %w", p.path, err)
	}
	out, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse yaml config %s: %w", p.path, err)
	}
	return out, nil
}

func (p *YAMLProvider) Type() Source { return SourceYAML }

func (p *YAMLProvider) Watch(_ context.Context, onChange func()) error {
	return p.kf.Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		onChange()
	})
}

// EnvProvider is a placeholder layer: real COMFYGIT_* environment variable
// loading is applied directly by Service.Load via koanf's own env provider,
// since that provider already handles prefix-stripping and nested-key
// splitting better than a hand-rolled map ever would. Load always returns an
// empty map; the type exists so callers can still order an "env" layer
// explicitly among the Providers they pass to Load.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

func (p *EnvProvider) Load() (map[string]any, error) { return map[string]any{}, nil }

func (p *EnvProvider) Type() Source { return SourceEnv }

func (p *EnvProvider) Watch(_ context.Context, _ func()) error { return nil }

// CLIProvider maps parsed cobra/pflag values to Config's nested shape. Flags
// use the same dash-cased names as their pflag definitions.
type CLIProvider struct {
	flags map[string]any
}

func NewCLIProvider(flags map[string]any) *CLIProvider {
	return &CLIProvider{flags: flags}
}

var cliFlagMap = map[string]string{
	"registry-url":        "registry.base_url",
	"github-api-url":      "registry.github_base_url",
	"github-token":        "registry.github_token",
	"http-timeout":        "http.timeout",
	"http-retry-count":    "http.retry_count",
	"log-level":           "runtime.log_level",
	"workspace":           "runtime.workspace_root",
}

func (p *CLIProvider) Load() (map[string]any, error) {
	out := map[string]any{}
	for flag, value := range p.flags {
		path, ok := cliFlagMap[flag]
		if !ok {
			continue
		}
		setPath(out, path, value)
	}
	return out, nil
}

func (p *CLIProvider) Type() Source { return SourceCLI }

func (p *CLIProvider) Watch(_ context.Context, _ func()) error { return nil }

// setPath writes value into the nested map at a dotted path, creating
// intermediate maps as needed.
func setPath(m map[string]any, path string, value any) {
	parts := splitDot(path)
	cur := m
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
}

func splitDot(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// confmapProvider adapts a plain map to koanf's confmap.Provider, used by
// Service.Load to merge each Provider's map into the koanf instance.
func confmapProvider(m map[string]any) *confmap.Confmap {
	return confmap.Provider(m, ".")
}
