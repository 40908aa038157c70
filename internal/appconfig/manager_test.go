package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Creation(t *testing.T) {
	t.Run("Should create manager with a default service", func(t *testing.T) {
		manager := NewManager(nil)
		require.NotNil(t, manager)
		require.NotNil(t, manager.Service)
		require.NoError(t, manager.Close(t.Context()))
	})

	t.Run("Should accept a custom service", func(t *testing.T) {
		svc := NewService()
		manager := NewManager(svc)
		assert.Same(t, svc, manager.Service)
		require.NoError(t, manager.Close(t.Context()))
	})

	t.Run("Should allow overriding the debounce window", func(t *testing.T) {
		manager := NewManager(nil)
		defer manager.Close(t.Context())
		manager.SetDebounce(10 * time.Millisecond)
		assert.Equal(t, 10*time.Millisecond, manager.debounce)
	})
}

func TestManager_LoadAndGet(t *testing.T) {
	t.Run("Should return nil before the first Load", func(t *testing.T) {
		manager := NewManager(nil)
		defer manager.Close(t.Context())
		assert.Nil(t, manager.Get())
	})

	t.Run("Should cache the loaded configuration for Get", func(t *testing.T) {
		manager := NewManager(nil)
		defer manager.Close(t.Context())

		cfg, err := manager.Load(t.Context(), NewDefaultProvider())
		require.NoError(t, err)

		assert.Equal(t, cfg, manager.Get())
	})

	t.Run("Should reflect yaml overrides layered over defaults", func(t *testing.T) {
		manager := NewManager(nil)
		defer manager.Close(t.Context())

		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("runtime:\n  log_level: debug\n"), 0o644))

		cfg, err := manager.Load(t.Context(), NewDefaultProvider(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Runtime.LogLevel)
	})
}
