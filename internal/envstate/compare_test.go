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

func newCompareEngine(t *testing.T, nodes map[string]manifest.Node) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	customNodesDir := filepath.Join(dir, "custom_nodes")
	require.NoError(t, os.MkdirAll(customNodesDir, 0o755))

	store := manifest.Create(filepath.Join(dir, "manifest.toml"), "test")
	store.Manifest().Nodes = nodes

	return New(store, gitrepo.Open(dir), nil, nil, dir, customNodesDir, filepath.Join(dir, "workflows"), "", nil), customNodesDir
}

func TestCompare_MissingAndExtraNodes(t *testing.T) {
	t.Run("Should report a declared node absent from disk as missing", func(t *testing.T) {
		e, _ := newCompareEngine(t, map[string]manifest.Node{
			"pkg-a": {Name: "pkg-a", Source: "registry"},
		})

		status, err := e.Compare(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-a"}, status.MissingNodes)
		assert.Empty(t, status.ExtraNodes)
		assert.False(t, status.IsSynced())
	})

	t.Run("Should report an installed directory absent from the manifest as extra", func(t *testing.T) {
		e, customNodesDir := newCompareEngine(t, map[string]manifest.Node{})
		require.NoError(t, os.Mkdir(filepath.Join(customNodesDir, "pkg-b"), 0o755))

		status, err := e.Compare(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []string{"pkg-b"}, status.ExtraNodes)
		assert.Empty(t, status.MissingNodes)
		assert.False(t, status.IsSynced())
	})

	t.Run("Should report synced when every declared node has a matching directory", func(t *testing.T) {
		e, customNodesDir := newCompareEngine(t, map[string]manifest.Node{
			"pkg-a": {Name: "pkg-a", Source: "registry"},
		})
		require.NoError(t, os.Mkdir(filepath.Join(customNodesDir, "pkg-a"), 0o755))

		status, err := e.Compare(t.Context())
		require.NoError(t, err)
		assert.True(t, status.IsSynced())
	})
}

func TestCompare_VersionMismatch(t *testing.T) {
	t.Run("Should flag a registry-sourced node whose installed HEAD differs from the declared commit", func(t *testing.T) {
		e, customNodesDir := newCompareEngine(t, map[string]manifest.Node{
			"pkg-a": {Name: "pkg-a", Source: "registry", CommitHash: "deadbeef"},
		})
		nodeDir := filepath.Join(customNodesDir, "pkg-a")
		require.NoError(t, os.Mkdir(nodeDir, 0o755))
		requireGit(t)
		r := gitrepo.Open(nodeDir)
		require.NoError(t, os.WriteFile(filepath.Join(nodeDir, "a.txt"), []byte("x"), 0o644))
		require.NoError(t, r.InitializeEnvironmentRepo(t.Context(), "init"))

		status, err := e.Compare(t.Context())
		require.NoError(t, err)
		require.Len(t, status.VersionMismatches, 1)
		assert.Equal(t, "pkg-a", status.VersionMismatches[0].PackageID)
		assert.Equal(t, "deadbeef", status.VersionMismatches[0].Expected)
		assert.NotEmpty(t, status.VersionMismatches[0].Actual)
		assert.NotEqual(t, "deadbeef", status.VersionMismatches[0].Actual)
	})

	t.Run("Should skip a local-source node even if its directory is not a git repo", func(t *testing.T) {
		e, customNodesDir := newCompareEngine(t, map[string]manifest.Node{
			"pkg-local": {Name: "pkg-local", Source: "local", CommitHash: "deadbeef"},
		})
		require.NoError(t, os.Mkdir(filepath.Join(customNodesDir, "pkg-local"), 0o755))

		status, err := e.Compare(t.Context())
		require.NoError(t, err)
		assert.Empty(t, status.VersionMismatches)
	})
}
