package envstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
)

// newGitEngine builds an Engine whose Git repo root holds the manifest
// and a committed "workflows/" directory — the repository layout
// restoreWorkflowFiles and GetWorkflowGitChanges both assume — distinct
// from the Engine's WorkflowsDir, which is the active ComfyUI copy.
func newGitEngine(t *testing.T) (*Engine, *gitrepo.Repo, string) {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	committedWorkflowsDir := filepath.Join(dir, "workflows")
	require.NoError(t, os.MkdirAll(committedWorkflowsDir, 0o755))

	store := manifest.Create(filepath.Join(dir, manifest.FileName), "test")
	require.NoError(t, store.Save(t.Context()))

	repo := gitrepo.Open(dir)
	require.NoError(t, repo.InitializeEnvironmentRepo(t.Context(), "initial commit"))

	activeWorkflowsDir := filepath.Join(dir, "ComfyUI", "user", "default", "workflows")
	require.NoError(t, os.MkdirAll(activeWorkflowsDir, 0o755))

	e := New(store, repo, nil, nil, dir, filepath.Join(dir, "custom_nodes"), activeWorkflowsDir, "", nil)
	return e, repo, dir
}

func TestBuildGitStatus(t *testing.T) {
	t.Run("Should report no changes right after the initial commit", func(t *testing.T) {
		e, _, _ := newGitEngine(t)

		status, err := e.BuildGitStatus(t.Context())
		require.NoError(t, err)
		assert.False(t, status.HasChanges)
		assert.Empty(t, status.ManifestDiff)
		assert.Empty(t, status.WorkflowChanges)
	})

	t.Run("Should detect an uncommitted manifest edit as a change", func(t *testing.T) {
		e, _, dir := newGitEngine(t)

		require.NoError(t, os.WriteFile(filepath.Join(dir, manifest.FileName),
			[]byte("[project]\nname = \"changed\"\n"), 0o644))

		status, err := e.BuildGitStatus(t.Context())
		require.NoError(t, err)
		assert.True(t, status.HasChanges)
		assert.NotEmpty(t, status.ManifestDiff)
	})

	t.Run("Should surface a new untracked committed-workflow file as a workflow change", func(t *testing.T) {
		e, _, dir := newGitEngine(t)

		require.NoError(t, os.WriteFile(
			filepath.Join(dir, "workflows", "new.json"),
			[]byte(`{"nodes":[],"links":[]}`), 0o644))

		status, err := e.BuildGitStatus(t.Context())
		require.NoError(t, err)
		assert.True(t, status.HasChanges)
		assert.Equal(t, "added", status.WorkflowChanges["new"])
	})
}
