package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// seedEnvironment fabricates a directory satisfying EnvironmentExists's
// invariant without going through the full CreateEnvironment factory
// sequence, so tests of Workspace's bookkeeping don't need git/uv on PATH.
func seedEnvironment(t *testing.T, ws *Workspace, name string) {
	t.Helper()
	dir := ws.EnvironmentDir(name)
	paths := NewEnvironmentPaths(dir)
	require.NoError(t, os.MkdirAll(paths.CecPath, 0o755))
	require.NoError(t, os.MkdirAll(paths.ComfyUIPath, 0o755))
	store := manifest.Create(paths.ManifestPath, name)
	require.NoError(t, store.Save(t.Context()))
}

func TestInitAndOpen(t *testing.T) {
	t.Run("Should create a fresh workspace tree", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		ws, err := Init(root)
		require.NoError(t, err)
		assert.DirExists(t, ws.Paths.Environments)
		assert.DirExists(t, ws.Paths.Metadata)
		assert.DirExists(t, ws.Paths.Cache)
		assert.FileExists(t, ws.Paths.ConfigFile)
	})

	t.Run("Should be idempotent", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		_, err := Init(root)
		require.NoError(t, err)
		ws2, err := Init(root)
		require.NoError(t, err)
		assert.Equal(t, 1, ws2.Config.Version)
	})

	t.Run("Should fail Open on a non-workspace directory", func(t *testing.T) {
		_, err := Open(t.TempDir())
		require.Error(t, err)
		assert.True(t, xerrors.Is(err, xerrors.KindWorkspaceInvalid))
	})

	t.Run("Should Open a previously Init'd workspace", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		_, err := Init(root)
		require.NoError(t, err)
		ws, err := Open(root)
		require.NoError(t, err)
		assert.Equal(t, root, ws.Paths.Root)
	})
}

func TestListEnvironments(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	ws, err := Init(root)
	require.NoError(t, err)

	seedEnvironment(t, ws, "beta")
	seedEnvironment(t, ws, "alpha")
	require.NoError(t, os.MkdirAll(ws.EnvironmentDir("broken"), 0o755))

	envs, err := ws.ListEnvironments()
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "alpha", envs[0].Name)
	assert.Equal(t, "beta", envs[1].Name)
}

func TestOpenEnvironment(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	ws, err := Init(root)
	require.NoError(t, err)
	seedEnvironment(t, ws, "default")

	env, err := ws.OpenEnvironment("default")
	require.NoError(t, err)
	assert.Equal(t, "default", env.Name)

	_, err = ws.OpenEnvironment("missing")
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.KindEnvironmentNotFound))
}

func TestActiveEnvironment(t *testing.T) {
	t.Run("Should return nil with no active environment set", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		ws, err := Init(root)
		require.NoError(t, err)
		env, err := ws.ActiveEnvironment()
		require.NoError(t, err)
		assert.Nil(t, env)
	})

	t.Run("Should set and fetch an active environment", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		ws, err := Init(root)
		require.NoError(t, err)
		seedEnvironment(t, ws, "default")

		require.NoError(t, ws.SetActiveEnvironment("default"))
		env, err := ws.ActiveEnvironment()
		require.NoError(t, err)
		require.NotNil(t, env)
		assert.Equal(t, "default", env.Name)
	})

	t.Run("Should self-heal a stale active pointer", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		ws, err := Init(root)
		require.NoError(t, err)
		seedEnvironment(t, ws, "default")
		require.NoError(t, ws.SetActiveEnvironment("default"))

		require.NoError(t, os.RemoveAll(ws.EnvironmentDir("default")))
		env, err := ws.ActiveEnvironment()
		require.NoError(t, err)
		assert.Nil(t, env)
	})

	t.Run("Should reject activating a nonexistent environment", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "ws")
		ws, err := Init(root)
		require.NoError(t, err)
		err = ws.SetActiveEnvironment("missing")
		require.Error(t, err)
	})
}

func TestDeleteEnvironment(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	ws, err := Init(root)
	require.NoError(t, err)
	seedEnvironment(t, ws, "default")
	require.NoError(t, ws.SetActiveEnvironment("default"))

	require.NoError(t, ws.DeleteEnvironment("default"))
	assert.False(t, ws.EnvironmentExists("default"))
	assert.Empty(t, ws.Config.ActiveEnvironment)

	err = ws.DeleteEnvironment("default")
	require.Error(t, err)
	assert.True(t, xerrors.Is(err, xerrors.KindEnvironmentNotFound))
}

func TestSetGlobalModelsDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	ws, err := Init(root)
	require.NoError(t, err)

	modelsDir := t.TempDir()
	require.NoError(t, ws.SetGlobalModelsDirectory(t.Context(), modelsDir))
	assert.Equal(t, modelsDir, ws.Config.GlobalModelsDirectory)

	reloaded, err := Open(root)
	require.NoError(t, err)
	assert.Equal(t, modelsDir, reloaded.Config.GlobalModelsDirectory)

	err = ws.SetGlobalModelsDirectory(t.Context(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
