package modelindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLocation_ReplacesByRelativePath(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnsureModel(t.Context(), "hash-a", 10, nil, nil)
	require.NoError(t, err)
	_, err = s.EnsureModel(t.Context(), "hash-b", 20, nil, nil)
	require.NoError(t, err)

	require.NoError(t, s.AddLocation(t.Context(), "hash-a", "models/checkpoints/x.safetensors", "x.safetensors", time.Now()))
	require.NoError(t, s.AddLocation(t.Context(), "hash-b", "models/checkpoints/x.safetensors", "x.safetensors", time.Now()))

	lm, err := s.FindByExactPath(t.Context(), "models/checkpoints/x.safetensors")
	require.NoError(t, err)
	assert.Equal(t, "hash-b", lm.Model.Hash)
}

func TestFindByFilename_SubstringMatch(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnsureModel(t.Context(), "hash-a", 10, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddLocation(t.Context(), "hash-a", "models/loras/my-cool-lora.safetensors", "my-cool-lora.safetensors", time.Now()))

	found, err := s.FindByFilename(t.Context(), "cool-lora")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "hash-a", found[0].Model.Hash)
}

func TestCleanStaleLocations_RemovesMissingPaths(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnsureModel(t.Context(), "hash-a", 10, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddLocation(t.Context(), "hash-a", "models/checkpoints/keep.safetensors", "keep.safetensors", time.Now()))
	require.NoError(t, s.AddLocation(t.Context(), "hash-a", "models/checkpoints/gone.safetensors", "gone.safetensors", time.Now()))

	removed, err := s.CleanStaleLocations(t.Context(), "models/checkpoints/", map[string]bool{
		"models/checkpoints/keep.safetensors": true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"models/checkpoints/gone.safetensors"}, removed)

	_, err = s.FindByExactPath(t.Context(), "models/checkpoints/gone.safetensors")
	assert.Error(t, err)
	_, err = s.FindByExactPath(t.Context(), "models/checkpoints/keep.safetensors")
	assert.NoError(t, err)
}

func TestRemoveLocation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.EnsureModel(t.Context(), "hash-a", 10, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.AddLocation(t.Context(), "hash-a", "p.safetensors", "p.safetensors", time.Now()))

	require.NoError(t, s.RemoveLocation(t.Context(), "p.safetensors"))
	_, err = s.FindByExactPath(t.Context(), "p.safetensors")
	assert.Error(t, err)
}
