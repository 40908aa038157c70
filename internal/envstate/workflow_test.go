package envstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyhub-org/comfygit/internal/envmanager"
	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

const workflowStatusSample = `{
  "nodes": [
    {"id": 1, "type": "ImpactSwitch", "widgets_values": [], "properties": {}, "inputs": [], "outputs": []}
  ],
  "links": []
}`

func newWorkflowEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	activeWorkflowsDir := filepath.Join(dir, "active-workflows")
	require.NoError(t, os.MkdirAll(activeWorkflowsDir, 0o755))

	store := manifest.Create(filepath.Join(dir, manifest.FileName), "test")
	require.NoError(t, store.Save(t.Context()))

	repo := gitrepo.Open(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "workflows"), 0o755))
	require.NoError(t, repo.InitializeEnvironmentRepo(t.Context(), "init"))

	e := New(store, repo, nil, nil, dir, filepath.Join(dir, "custom_nodes"), activeWorkflowsDir, "", nil)
	return e, activeWorkflowsDir
}

func TestBuildWorkflowStatus_Classification(t *testing.T) {
	t.Run("Should classify a tracked workflow present on disk as synced", func(t *testing.T) {
		e, workflowsDir := newWorkflowEngine(t)
		require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "wf.json"), []byte(workflowStatusSample), 0o644))
		e.Store.Manifest().Workflows["wf"] = manifest.Workflow{}

		status, err := e.BuildWorkflowStatus(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "synced", status.Status["wf"])
		assert.True(t, status.InSync)
	})

	t.Run("Should classify a workflow on disk but untracked as new", func(t *testing.T) {
		e, workflowsDir := newWorkflowEngine(t)
		require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "wf.json"), []byte(workflowStatusSample), 0o644))

		status, err := e.BuildWorkflowStatus(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "new", status.Status["wf"])
		assert.False(t, status.InSync)
	})

	t.Run("Should classify a tracked workflow missing from disk as deleted", func(t *testing.T) {
		e, _ := newWorkflowEngine(t)
		e.Store.Manifest().Workflows["wf"] = manifest.Workflow{}

		status, err := e.BuildWorkflowStatus(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "deleted", status.Status["wf"])
		assert.False(t, status.InSync)
	})
}

func TestBuildWorkflowStatus_UninstalledPackages(t *testing.T) {
	t.Run("Should count a resolved, not-yet-installed node package as uninstalled", func(t *testing.T) {
		e, workflowsDir := newWorkflowEngine(t)
		require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "wf.json"), []byte(workflowStatusSample), 0o644))
		e.Store.Manifest().Workflows["wf"] = manifest.Workflow{}

		idx, err := modelindex.Open(t.Context(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { idx.Close() })

		table := &nodemap.Table{
			Mappings: map[string][]nodemap.MappingEntry{
				nodemap.CreateNodeKey("ImpactSwitch", "_"): {{PackageID: "pkg-impact", Rank: 1}},
			},
			Packages: map[string]nodemap.Package{},
		}
		e.Manager = envmanager.New(e.Store, idx, table, e.Git, workflowsDir)

		status, err := e.BuildWorkflowStatus(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, status.UninstalledPackages["wf"])
	})

	t.Run("Should count zero once the resolved package is recorded as installed", func(t *testing.T) {
		e, workflowsDir := newWorkflowEngine(t)
		require.NoError(t, os.WriteFile(filepath.Join(workflowsDir, "wf.json"), []byte(workflowStatusSample), 0o644))
		e.Store.Manifest().Workflows["wf"] = manifest.Workflow{}
		e.Store.Manifest().Nodes["pkg-impact"] = manifest.Node{Name: "pkg-impact", Source: "registry"}

		idx, err := modelindex.Open(t.Context(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { idx.Close() })

		table := &nodemap.Table{
			Mappings: map[string][]nodemap.MappingEntry{
				nodemap.CreateNodeKey("ImpactSwitch", "_"): {{PackageID: "pkg-impact", Rank: 1}},
			},
			Packages: map[string]nodemap.Package{},
		}
		e.Manager = envmanager.New(e.Store, idx, table, e.Git, workflowsDir)

		status, err := e.BuildWorkflowStatus(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 0, status.UninstalledPackages["wf"])
	})
}
