package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Workspace represents an existing, validated workspace — no nullable
// state, matching workspace.py's own design note: by the time callers
// hold a *Workspace, Open or Init has already confirmed the invariant
// below holds.
type Workspace struct {
	Paths  Paths
	Config *Config
}

// exists reports whether root already looks like a workspace: per
// spec.md, .metadata exists iff the workspace exists, and
// comfydock_cache exists whenever the workspace does.
func exists(paths Paths) bool {
	if _, err := os.Stat(paths.Metadata); err != nil {
		return false
	}
	_, err := os.Stat(paths.Root)
	return err == nil
}

// Open loads an existing workspace at root. It fails if root doesn't yet
// satisfy the exists invariant — callers creating a workspace for the
// first time use Init instead.
func Open(root string) (*Workspace, error) {
	paths := NewPaths(root)
	if !exists(paths) {
		return nil, xerrors.Newf(xerrors.KindWorkspaceInvalid, map[string]any{"root": root},
			"no workspace found at %s", root)
	}
	cfg, err := loadConfig(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	return &Workspace{Paths: paths, Config: cfg}, nil
}

// Init creates a new workspace at root, writing the directory tree and a
// fresh workspace.json. It succeeds idempotently if root is already a
// workspace.
func Init(root string) (*Workspace, error) {
	paths := NewPaths(root)
	for _, dir := range []string{paths.Environments, paths.Metadata, paths.Cache, paths.Logs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": dir})
		}
	}
	cfg, err := loadConfig(paths.ConfigFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(paths.ConfigFile); os.IsNotExist(err) {
		if err := saveConfig(paths.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}
	return &Workspace{Paths: paths, Config: cfg}, nil
}

// saveConfig persists ws.Config back to workspace.json.
func (ws *Workspace) saveConfig() error {
	return saveConfig(ws.Paths.ConfigFile, ws.Config)
}

// EnvironmentDir returns the path an environment named name would live
// at, whether or not it currently exists.
func (ws *Workspace) EnvironmentDir(name string) string {
	return filepath.Join(ws.Paths.Environments, name)
}

// EnvironmentExists implements the spec's exists invariant: the
// environment's manifest directory is present, its manifest parses, and
// its ComfyUI checkout is present.
func (ws *Workspace) EnvironmentExists(name string) bool {
	p := NewEnvironmentPaths(ws.EnvironmentDir(name))
	if _, err := os.Stat(p.CecPath); err != nil {
		return false
	}
	if _, err := manifest.Load(p.ManifestPath); err != nil {
		return false
	}
	_, err := os.Stat(p.ComfyUIPath)
	return err == nil
}

// OpenEnvironment loads the environment named name, failing with
// KindEnvironmentNotFound if EnvironmentExists is false.
func (ws *Workspace) OpenEnvironment(name string) (*Environment, error) {
	if !ws.EnvironmentExists(name) {
		return nil, xerrors.Newf(xerrors.KindEnvironmentNotFound, map[string]any{"name": name},
			"environment %q not found", name)
	}
	return &Environment{Name: name, Paths: NewEnvironmentPaths(ws.EnvironmentDir(name))}, nil
}

// ListEnvironments returns every environment found directly under
// Paths.Environments, sorted by name. Entries that exist as directories
// but fail EnvironmentExists (a partially created or corrupted
// environment) are skipped rather than returned as errors, mirroring
// workspace.py's list_environments catching and logging per-entry
// failures instead of aborting the whole listing.
func (ws *Workspace) ListEnvironments() ([]*Environment, error) {
	entries, err := os.ReadDir(ws.Paths.Environments)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": ws.Paths.Environments})
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var out []*Environment
	for _, name := range names {
		if !ws.EnvironmentExists(name) {
			continue
		}
		out = append(out, &Environment{Name: name, Paths: NewEnvironmentPaths(ws.EnvironmentDir(name))})
	}
	return out, nil
}

// DeleteEnvironment permanently removes an environment's directory tree.
// If it was the active environment, the active pointer is cleared first.
func (ws *Workspace) DeleteEnvironment(name string) error {
	dir := ws.EnvironmentDir(name)
	if _, err := os.Stat(dir); err != nil {
		return xerrors.Newf(xerrors.KindEnvironmentNotFound, map[string]any{"name": name},
			"environment %q not found", name)
	}
	if ws.Config.ActiveEnvironment == name {
		if err := ws.SetActiveEnvironment(""); err != nil {
			return err
		}
	}
	return os.RemoveAll(dir)
}

// ActiveEnvironment returns the currently active environment, or nil (no
// error) if none is set or the recorded one no longer exists — the same
// self-healing behavior as workspace.py's get_active_environment, which
// clears a stale pointer rather than surfacing an error to the caller.
func (ws *Workspace) ActiveEnvironment() (*Environment, error) {
	if ws.Config.ActiveEnvironment == "" {
		return nil, nil
	}
	env, err := ws.OpenEnvironment(ws.Config.ActiveEnvironment)
	if xerrors.Is(err, xerrors.KindEnvironmentNotFound) {
		return nil, nil
	}
	return env, err
}

// SetActiveEnvironment records name as the active environment (empty
// string clears it) and persists workspace.json. name must already
// exist unless it is empty.
func (ws *Workspace) SetActiveEnvironment(name string) error {
	if name != "" && !ws.EnvironmentExists(name) {
		return xerrors.Newf(xerrors.KindEnvironmentNotFound, map[string]any{"name": name},
			"environment %q not found", name)
	}
	ws.Config.ActiveEnvironment = name
	return ws.saveConfig()
}

// SetGlobalModelsDirectory records path as the workspace's shared model
// directory. Callers still need to trigger a model scan and re-symlink
// existing environments themselves (internal/modelindex and
// internal/envstate own those respectively) — this just persists the
// setting, per workspace_config_repository.py's narrow responsibility.
func (ws *Workspace) SetGlobalModelsDirectory(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": path})
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return xerrors.Newf(xerrors.KindWorkspaceInvalid, map[string]any{"path": abs}, "not a directory: %s", abs)
	}
	ws.Config.GlobalModelsDirectory = abs
	return ws.saveConfig()
}
