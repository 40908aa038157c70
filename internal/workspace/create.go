package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	copyfs "github.com/otiai10/copy"

	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/uvrunner"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// defaultComfyUIRepo is cloned when CreateOptions.ComfyUIRepo is unset.
const defaultComfyUIRepo = "https://github.com/comfyanonymous/ComfyUI.git"

// CreateOptions configures environment creation. Every field has a
// usable zero value — CreateEnvironment(ctx, name, CreateOptions{})
// clones upstream ComfyUI's default branch with Python 3.12.
type CreateOptions struct {
	PythonVersion string
	ComfyUIRepo   string
	ComfyUIRef    string
	UV            *uvrunner.Runner
}

func (o CreateOptions) withDefaults() CreateOptions {
	if o.PythonVersion == "" {
		o.PythonVersion = "3.12"
	}
	if o.ComfyUIRepo == "" {
		o.ComfyUIRepo = defaultComfyUIRepo
	}
	if o.UV == nil {
		o.UV = uvrunner.New()
	}
	return o
}

// CreateEnvironment runs the factory sequence recovered from
// factories/environment_factory.py: create .cec/, pin
// .python-version, restore or clone the ComfyUI checkout, write the
// initial manifest, import ComfyUI's own requirements, build the venv,
// and init the environment's git history. Any failure removes the
// partially created directory, matching EnvironmentFactory.create's own
// cleanup-on-exception behavior.
func (ws *Workspace) CreateEnvironment(ctx context.Context, name string, opts CreateOptions) (*Environment, error) {
	opts = opts.withDefaults()
	dir := ws.EnvironmentDir(name)
	if _, err := os.Stat(dir); err == nil {
		return nil, xerrors.Newf(xerrors.KindEnvironmentExists, map[string]any{"name": name},
			"environment %q already exists", name)
	}
	paths := NewEnvironmentPaths(dir)
	cleanup := true
	defer func() {
		if cleanup {
			os.RemoveAll(dir)
		}
	}()

	if err := os.MkdirAll(paths.CecPath, 0o755); err != nil {
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": paths.CecPath})
	}
	if err := os.WriteFile(paths.PythonVersionPath, []byte(opts.PythonVersion+"\n"), 0o644); err != nil {
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": paths.PythonVersionPath})
	}

	if err := ws.materializeComfyUI(ctx, paths, opts); err != nil {
		return nil, err
	}

	if info, err := os.Lstat(paths.ModelsPath); err == nil && info.Mode()&os.ModeSymlink == 0 {
		if err := os.RemoveAll(paths.ModelsPath); err != nil {
			return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": paths.ModelsPath})
		}
	}

	store := manifest.Create(paths.ManifestPath, fmt.Sprintf("comfygit-env-%s", name))
	m := store.Manifest()
	m.Project.ComfyUIVersion = opts.ComfyUIRef
	m.Project.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := store.Save(ctx); err != nil {
		return nil, err
	}

	reqs := filepath.Join(paths.ComfyUIPath, "requirements.txt")
	if _, err := os.Stat(reqs); err == nil {
		if err := opts.UV.AddRequirements(ctx, dir, reqs, true); err != nil {
			return nil, err
		}
	}
	if err := opts.UV.CreateVenv(ctx, dir, opts.PythonVersion); err != nil {
		return nil, err
	}

	git := gitrepo.Open(paths.CecPath)
	if err := git.InitializeEnvironmentRepo(ctx, "Initial environment setup"); err != nil {
		return nil, err
	}

	if ws.Config.GlobalModelsDirectory != "" {
		if err := os.Symlink(ws.Config.GlobalModelsDirectory, paths.ModelsPath); err != nil {
			return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": paths.ModelsPath})
		}
	}

	cleanup = false
	return &Environment{Name: name, Paths: paths}, nil
}

// materializeComfyUI restores a ComfyUI checkout from the workspace-level
// cache when one matching ref already exists there, otherwise clones it
// fresh and best-effort populates the cache for the next environment
// pinned to the same ref. A cache-population failure is not fatal — it
// just means the next CreateEnvironment call reclones instead of
// restoring.
func (ws *Workspace) materializeComfyUI(ctx context.Context, paths EnvironmentPaths, opts CreateOptions) error {
	ref := opts.ComfyUIRef
	if ref == "" {
		ref = "HEAD"
	}
	cached := filepath.Join(ws.Paths.Cache, "comfyui", ref)

	if info, err := os.Stat(cached); err == nil && info.IsDir() {
		if err := copyfs.Copy(cached, paths.ComfyUIPath); err == nil {
			return nil
		}
		// Fall through to a fresh clone if the cache copy failed (e.g. a
		// half-written cache entry from a previous interrupted run).
	}

	if err := gitrepo.ShallowClone(ctx, opts.ComfyUIRepo, paths.ComfyUIPath, opts.ComfyUIRef); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err == nil {
		_ = copyfs.Copy(paths.ComfyUIPath, cached)
	}
	return nil
}
