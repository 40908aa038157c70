package workspace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// ImportCallbacks reports progress through ImportFromGit's phases, the
// same phase-callback shape spec.md describes for the longer import
// pipeline (§6) — a thin reporting surface, not a place to put import
// logic.
type ImportCallbacks interface {
	OnPhase(phase, message string)
	OnError(message string)
}

// noopCallbacks discards every callback; used when ImportFromGit is
// called with callbacks == nil.
type noopCallbacks struct{}

func (noopCallbacks) OnPhase(string, string) {}
func (noopCallbacks) OnError(string)         {}

// ImportFromGit clones a remote environment repository and registers it
// as targetEnvName in ws. Recovered from
// managers/export_import_manager.py's import_bundle, narrowed to a git
// source and kept deliberately thin per spec.md §9's open question on
// import/export scope: it is a collaborator over Workspace/Environment/
// envstate/modelindex, not a new core subsystem. A partial import is not
// resumed: if the target environment directory already exists the call
// fails with KindEnvironmentExists before any phase runs; a failure in
// the clone, validate or init_git phase removes the directory, so a
// re-run starts again from the clone; a failure while registering
// models leaves the directory in place, so a re-run stops with
// KindEnvironmentExists.
//
// Phases: clone the source repository's .cec directory, validate it
// looks like a comfygit environment (a manifest.toml that parses),
// re-init local git identity and history (a cloned environment must not
// share the source's remote or author config), and register any models
// the manifest references so they show up in model listings immediately
// even before the first Sync downloads anything.
func (ws *Workspace) ImportFromGit(ctx context.Context, url, targetEnvName string, models *modelindex.Store, callbacks ImportCallbacks) (*Environment, error) {
	if callbacks == nil {
		callbacks = noopCallbacks{}
	}
	dir := ws.EnvironmentDir(targetEnvName)
	if _, err := os.Stat(dir); err == nil {
		return nil, xerrors.Newf(xerrors.KindEnvironmentExists, map[string]any{"name": targetEnvName},
			"environment %q already exists", targetEnvName)
	}
	paths := NewEnvironmentPaths(dir)

	callbacks.OnPhase("clone", "cloning "+url)
	if err := gitrepo.ShallowClone(ctx, url, paths.CecPath, ""); err != nil {
		callbacks.OnError(err.Error())
		os.RemoveAll(dir)
		return nil, err
	}

	callbacks.OnPhase("validate", "validating environment layout")
	store, err := manifest.Load(paths.ManifestPath)
	if err != nil {
		callbacks.OnError(err.Error())
		os.RemoveAll(dir)
		return nil, xerrors.New(xerrors.KindEnvironmentCorrupt, err, map[string]any{"url": url})
	}

	callbacks.OnPhase("init_git", "re-initializing local git identity")
	if err := os.RemoveAll(filepath.Join(paths.CecPath, ".git")); err != nil {
		callbacks.OnError(err.Error())
		os.RemoveAll(dir)
		return nil, xerrors.New(xerrors.KindWorkspaceInvalid, err, map[string]any{"path": paths.CecPath})
	}
	git := gitrepo.Open(paths.CecPath)
	if err := git.InitializeEnvironmentRepo(ctx, "Imported from "+url); err != nil {
		callbacks.OnError(err.Error())
		os.RemoveAll(dir)
		return nil, err
	}

	if models != nil {
		callbacks.OnPhase("register_models", "registering referenced models")
		if err := registerManifestModels(ctx, store, models); err != nil {
			callbacks.OnError(err.Error())
			return nil, err
		}
	}

	return &Environment{Name: targetEnvName, Paths: paths}, nil
}

// registerManifestModels ensures every model a manifest references by
// hash exists in the shared model index, even though the import pipeline
// hasn't downloaded or located any of their files yet — a later Sync's
// model resolution needs EnsureModel to have been called at least once
// per hash before it can attach a location.
func registerManifestModels(ctx context.Context, store *manifest.Store, models *modelindex.Store) error {
	m := store.Manifest()
	for hash, entry := range m.Models.Required {
		if _, err := models.EnsureModel(ctx, hash, entry.FileSize, nilIfEmpty(entry.Blake3), nilIfEmpty(entry.SHA256)); err != nil {
			return err
		}
	}
	for hash, entry := range m.Models.Optional {
		if _, err := models.EnsureModel(ctx, hash, entry.FileSize, nilIfEmpty(entry.Blake3), nilIfEmpty(entry.SHA256)); err != nil {
			return err
		}
	}
	return nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
