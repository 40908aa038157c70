package gitrepo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_AUTHOR_NAME", "")
	t.Setenv("GIT_AUTHOR_EMAIL", "")
	return Open(dir)
}

func TestInitializeEnvironmentRepo(t *testing.T) {
	t.Run("Should init, set identity, write gitignore, and commit non-empty trees", func(t *testing.T) {
		r := newTestRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "manifest.toml"), []byte("[project]\nname=\"x\"\n"), 0o644))

		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "Initial environment setup"))

		assert.True(t, r.Exists(t.Context()))
		_, err := os.Stat(filepath.Join(r.Path(), ".gitignore"))
		require.NoError(t, err)

		dirty, err := r.HasUncommittedChanges(t.Context())
		require.NoError(t, err)
		assert.False(t, dirty)

		state, err := r.State(t.Context())
		require.NoError(t, err)
		assert.Equal(t, StateClean, state)
	})
}

func TestCommitAllAndHistory(t *testing.T) {
	t.Run("Should label commits v1..vN oldest first", func(t *testing.T) {
		r := newTestRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "a.txt"), []byte("1"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "v1 commit"))

		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "a.txt"), []byte("2"), 0o644))
		require.NoError(t, r.CommitAll(t.Context(), "v2 commit"))

		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "a.txt"), []byte("3"), 0o644))
		require.NoError(t, r.CommitAll(t.Context(), "v3 commit"))

		versions, err := r.GetVersionHistory(t.Context(), 10)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, "v1", versions[0].Label)
		assert.Equal(t, "v1 commit", versions[0].Message)
		assert.Equal(t, "v3", versions[2].Label)
		assert.Equal(t, "v3 commit", versions[2].Message)
	})

	t.Run("Should be a no-op when there is nothing new to commit", func(t *testing.T) {
		r := newTestRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "a.txt"), []byte("1"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "init"))

		require.NoError(t, r.CommitAll(t.Context(), "nothing changed"))

		count, err := r.CommitCount(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestResolveAndApplyVersion(t *testing.T) {
	t.Run("Should resolve a version label to its commit hash and restore its content unstaged", func(t *testing.T) {
		r := newTestRepo(t)
		path := filepath.Join(r.Path(), "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "v1"))

		require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
		require.NoError(t, r.CommitAll(t.Context(), "v2"))

		hash, err := r.ResolveVersion(t.Context(), "v1")
		require.NoError(t, err)
		assert.NotEmpty(t, hash)

		require.NoError(t, r.ApplyVersion(t.Context(), "v1"))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "first", string(content))

		dirty, err := r.HasUncommittedChanges(t.Context())
		require.NoError(t, err)
		assert.True(t, dirty, "ApplyVersion should leave the restored content unstaged")
	})

	t.Run("Should return an error for an unknown version label", func(t *testing.T) {
		r := newTestRepo(t)
		require.NoError(t, os.WriteFile(filepath.Join(r.Path(), "a.txt"), []byte("x"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "v1"))

		_, err := r.ResolveVersion(t.Context(), "v99")
		assert.Error(t, err)
	})
}

func TestDiscardUncommitted(t *testing.T) {
	t.Run("Should revert working tree edits back to HEAD", func(t *testing.T) {
		r := newTestRepo(t)
		path := filepath.Join(r.Path(), "a.txt")
		require.NoError(t, os.WriteFile(path, []byte("committed"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "init"))

		require.NoError(t, os.WriteFile(path, []byte("scratch edit"), 0o644))
		require.NoError(t, r.DiscardUncommitted(t.Context()))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "committed", string(content))
	})
}

func TestGetWorkflowGitChanges(t *testing.T) {
	t.Run("Should classify added, modified, and deleted workflow files", func(t *testing.T) {
		r := newTestRepo(t)
		workflowsDir := filepath.Join(r.Path(), "workflows")
		require.NoError(t, os.MkdirAll(workflowsDir, 0o755))
		keep := filepath.Join(workflowsDir, "keep.json")
		remove := filepath.Join(workflowsDir, "remove.json")
		require.NoError(t, os.WriteFile(keep, []byte(`{"a":1}`), 0o644))
		require.NoError(t, os.WriteFile(remove, []byte(`{"a":1}`), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "init"))

		require.NoError(t, os.WriteFile(keep, []byte(`{"a":2}`), 0o644))
		require.NoError(t, os.Remove(remove))
		require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "fresh.json"), []byte(`{}`), 0o644))

		changes, err := r.GetWorkflowGitChanges(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "modified", changes["keep"])
		assert.Equal(t, "deleted", changes["remove"])
		assert.Equal(t, "added", changes["fresh"])
	})
}

func TestShow(t *testing.T) {
	t.Run("Should read committed content without touching the working tree", func(t *testing.T) {
		r := newTestRepo(t)
		path := filepath.Join(r.Path(), "manifest.toml")
		require.NoError(t, os.WriteFile(path, []byte("committed-content"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "init"))

		require.NoError(t, os.WriteFile(path, []byte("working-tree-only"), 0o644))

		content, err := r.Show(t.Context(), "HEAD", "manifest.toml")
		require.NoError(t, err)
		assert.Equal(t, "committed-content", content)
	})
}
