package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Type(t *testing.T) {
	t.Run("Should build from cause with kind and details", func(t *testing.T) {
		e := New(KindManifestInvalid, errors.New("boom"), map[string]any{"path": "pyproject.toml"})
		assert.Equal(t, "manifest_invalid: boom", e.Error())
		assert.Equal(t, "boom", errors.Unwrap(e).Error())
	})

	t.Run("Should build from nil cause with fallback message", func(t *testing.T) {
		e := New(KindEnvironmentNotFound, nil, nil)
		assert.Equal(t, "environment_not_found: unknown error", e.Error())
		assert.Nil(t, e.Unwrap())
	})

	t.Run("Should handle nil receiver gracefully", func(t *testing.T) {
		var e *Error
		assert.Equal(t, "", e.Error())
		assert.Nil(t, e.Unwrap())
	})

	t.Run("Should format with Newf", func(t *testing.T) {
		e := Newf(KindNodeConflict, map[string]any{"candidates": []string{"a", "b"}}, "node %q already installed", "NodeX")
		assert.Equal(t, `node_conflict: node "NodeX" already installed`, e.Error())
		assert.Equal(t, []string{"a", "b"}, e.Details["candidates"])
	})
}

func TestError_WithDetail(t *testing.T) {
	t.Run("Should merge a detail without mutating the original", func(t *testing.T) {
		base := New(KindDownloadFailed, errors.New("timeout"), map[string]any{"url": "https://example.com"})
		withStatus := base.WithDetail("status", 504)

		assert.NotContains(t, base.Details, "status")
		assert.Equal(t, 504, withStatus.Details["status"])
		assert.Equal(t, "https://example.com", withStatus.Details["url"])
	})
}

func TestIs(t *testing.T) {
	t.Run("Should match wrapped errors by kind", func(t *testing.T) {
		err := fmtWrap(New(KindRegistryNotFound, errors.New("404"), nil))
		require.True(t, Is(err, KindRegistryNotFound))
		require.False(t, Is(err, KindRegistryUnavailable))
	})

	t.Run("Should return false for plain errors", func(t *testing.T) {
		assert.False(t, Is(errors.New("plain"), KindGitCommandError))
	})
}

func fmtWrap(err error) error {
	return errors.Join(err)
}
