// Package workspace owns the directories a comfygit workspace and its
// environments live in, and the lifecycle operations (init, create,
// delete, import) that turn a bare directory into — and out of — a
// fully-formed environment. Recovered from original_source's
// core/workspace.py and core/environment.py, dropped from the
// distilled spec but required for the rest of the core to be runnable
// end-to-end: something has to actually create the directory tree,
// clone ComfyUI, and build the venv that internal/envstate and
// internal/envmanager then operate on.
package workspace

import (
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/manifest"
)

// Paths is every directory a workspace root implies. All of it is
// computed, never itself persisted — only workspace.json (Config)
// carries state.
type Paths struct {
	Root         string
	Environments string
	Metadata     string
	ConfigFile   string
	Cache        string
	Logs         string
}

// NewPaths resolves every workspace-level path under root.
func NewPaths(root string) Paths {
	return Paths{
		Root:         root,
		Environments: filepath.Join(root, "environments"),
		Metadata:     filepath.Join(root, ".metadata"),
		ConfigFile:   filepath.Join(root, ".metadata", "workspace.json"),
		Cache:        filepath.Join(root, "comfydock_cache"),
		Logs:         filepath.Join(root, "logs"),
	}
}

// EnvironmentPaths is every directory and file inside one environment.
type EnvironmentPaths struct {
	Root                string
	CecPath             string
	ManifestPath        string
	NodeMappingsPath    string
	PythonVersionPath   string
	ComfyUIPath         string
	CustomNodesPath     string
	VenvPath            string
	ModelsPath          string
	WorkflowsActivePath string
}

// NewEnvironmentPaths resolves every per-environment path under root
// (normally <workspace>/environments/<name>).
func NewEnvironmentPaths(root string) EnvironmentPaths {
	cec := filepath.Join(root, ".cec")
	comfyui := filepath.Join(root, "ComfyUI")
	return EnvironmentPaths{
		Root:                root,
		CecPath:             cec,
		ManifestPath:        filepath.Join(cec, manifest.FileName),
		NodeMappingsPath:    filepath.Join(cec, "node_mappings.json"),
		PythonVersionPath:   filepath.Join(cec, ".python-version"),
		ComfyUIPath:         comfyui,
		CustomNodesPath:     filepath.Join(comfyui, "custom_nodes"),
		VenvPath:            filepath.Join(root, ".venv"),
		ModelsPath:          filepath.Join(comfyui, "models"),
		WorkflowsActivePath: filepath.Join(comfyui, "user", "default", "workflows"),
	}
}
