package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/comfyhub-org/comfygit/internal/appconfig"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Config is workspace.json: the handful of settings that belong to one
// workspace instance rather than to the comfygit process (those live in
// internal/appconfig's Config instead). Recovered from
// workspace_config_repository.py's WorkspaceConfig.
type Config struct {
	Version                int                       `json:"version"`
	ActiveEnvironment      string                    `json:"active_environment"`
	CreatedAt              string                    `json:"created_at"`
	GlobalModelsDirectory  string                    `json:"global_models_directory,omitempty"`
	ModelsDirectoryAddedAt string                    `json:"models_directory_added_at,omitempty"`
	ModelsLastSyncAt       string                    `json:"models_last_sync_at,omitempty"`
	RegistryToken          appconfig.SensitiveString `json:"registry_token,omitempty"`
	AutoSelectAmbiguous    bool                      `json:"auto_select_ambiguous"`
}

// defaultConfig mirrors WorkspaceConfigRepository.load's fallback: a
// fresh config is never nil, just empty of an active environment.
func defaultConfig() *Config {
	return &Config{Version: 1, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
}

// loadConfig reads workspace.json at path. A missing file is not an
// error — it returns a fresh defaultConfig, matching the Python
// repository's "create on first read" behavior; the caller is
// responsible for persisting it via saveConfig if it wants that default
// to survive.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	return &cfg, nil
}

// saveConfig writes cfg to path atomically (temp file + rename), the
// same crash-safety internal/manifest's Store.Save uses for
// manifest.toml.
func saveConfig(path string, cfg *Config) error {
	// SensitiveString redacts itself in JSON; the file keeps the real token.
	body, err := json.MarshalIndent(struct {
		*Config
		RegistryToken string `json:"registry_token,omitempty"`
	}{cfg, cfg.RegistryToken.Value()}, "", "  ")
	if err != nil {
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	tmp, err := os.CreateTemp(dir, ".workspace-*.tmp")
	if err != nil {
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	if err := tmp.Close(); err != nil {
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	return os.Rename(tmpPath, path)
}
