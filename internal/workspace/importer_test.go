package workspace

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// newSourceEnvironment builds a standalone .cec directory with a
// manifest and a git history, playing the role of a remote environment
// repository that ImportFromGit clones from.
func newSourceEnvironment(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	store := manifest.Create(filepath.Join(dir, manifest.FileName), "source-env")
	m := store.Manifest()
	m.Models.Required = map[string]manifest.ModelEntry{
		"deadbeef": {FileSize: 1024, SHA256: "deadbeef"},
	}
	require.NoError(t, store.Save(t.Context()))

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")
	run("add", ".")
	run("commit", "-m", "seed")
	return dir
}

type recordingCallbacks struct {
	phases []string
	errors []string
}

func (r *recordingCallbacks) OnPhase(phase, message string) { r.phases = append(r.phases, phase) }
func (r *recordingCallbacks) OnError(message string)        { r.errors = append(r.errors, message) }

func TestImportFromGit(t *testing.T) {
	t.Run("Should clone, validate, and register models for a valid source", func(t *testing.T) {
		requireGit(t)
		source := newSourceEnvironment(t)

		ws, err := Init(t.TempDir())
		require.NoError(t, err)

		models, err := modelindex.Open(t.Context(), filepath.Join(t.TempDir(), "models.db"))
		require.NoError(t, err)

		cb := &recordingCallbacks{}
		env, err := ws.ImportFromGit(t.Context(), source, "imported", models, cb)
		require.NoError(t, err)
		assert.Equal(t, "imported", env.Name)
		assert.Equal(t, []string{"clone", "validate", "init_git", "register_models"}, cb.phases)
		assert.Empty(t, cb.errors)
		assert.True(t, ws.EnvironmentExists("imported"))

		_, err = manifest.Load(env.Paths.ManifestPath)
		require.NoError(t, err)

		model, err := models.EnsureModel(t.Context(), "deadbeef", 1024, nil, stringPtr("deadbeef"))
		require.NoError(t, err)
		assert.Equal(t, "deadbeef", model.Hash)
	})

	t.Run("Should fail without registering models when the target already exists", func(t *testing.T) {
		requireGit(t)
		source := newSourceEnvironment(t)

		ws, err := Init(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(ws.EnvironmentDir("imported"), 0o755))

		_, err = ws.ImportFromGit(t.Context(), source, "imported", nil, nil)
		require.Error(t, err)
	})

	t.Run("Should clean up and report an error for a source missing a manifest", func(t *testing.T) {
		requireGit(t)
		dir := t.TempDir()
		run := func(args ...string) {
			cmd := exec.Command("git", args...)
			cmd.Dir = dir
			require.NoError(t, cmd.Run())
		}
		run("init")
		run("config", "user.email", "test@example.com")
		run("config", "user.name", "Test")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("no manifest here"), 0o644))
		run("add", ".")
		run("commit", "-m", "seed")

		ws, err := Init(t.TempDir())
		require.NoError(t, err)

		cb := &recordingCallbacks{}
		_, err = ws.ImportFromGit(t.Context(), dir, "broken", nil, cb)
		require.Error(t, err)
		assert.False(t, ws.EnvironmentExists("broken"))
		assert.NotEmpty(t, cb.errors)
	})
}

func stringPtr(s string) *string { return &s }
