package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestPath(t *testing.T) {
	t.Run("Should use the node type's loader directory when known", func(t *testing.T) {
		got := SuggestPath("https://example.com/files/model.safetensors", "CheckpointLoaderSimple", "")
		assert.Equal(t, "checkpoints/model.safetensors", got)
	})

	t.Run("Should guess a category from the filename hint when the node type is unknown", func(t *testing.T) {
		got := SuggestPath("https://example.com/download?id=1", "", "my_lora_v2.safetensors")
		assert.Equal(t, "loras/my_lora_v2.safetensors", got)
	})

	t.Run("Should fall back to a generic directory when nothing suggests a category", func(t *testing.T) {
		got := SuggestPath("https://example.com/download?id=1", "", "thing.bin")
		assert.Equal(t, "models/thing.bin", got)
	})

	t.Run("Should prefer a URL filename with an extension over the hint", func(t *testing.T) {
		got := SuggestPath("https://example.com/files/real_name.safetensors", "", "hint.bin")
		assert.Equal(t, "models/real_name.safetensors", got)
	})

	t.Run("Should fall back to the hint's filename when the URL path has no extension", func(t *testing.T) {
		got := SuggestPath("https://example.com/download?id=1", "", "hinted_vae.pt")
		assert.Equal(t, "vae/hinted_vae.pt", got)
	})

	t.Run("Should default to a generic filename as a last resort", func(t *testing.T) {
		got := SuggestPath("https://example.com/download?id=1", "", "")
		assert.Equal(t, "models/downloaded_model.safetensors", got)
	})
}
