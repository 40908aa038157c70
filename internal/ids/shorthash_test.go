package ids

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestShortHash_Deterministic(t *testing.T) {
	t.Run("Should produce the same digest for identical content", func(t *testing.T) {
		dir := t.TempDir()
		a := writeFile(t, dir, "a.bin", 1024)
		b := writeFile(t, dir, "b.bin", 1024)

		hashA, err := ShortHash(a)
		require.NoError(t, err)
		hashB, err := ShortHash(b)
		require.NoError(t, err)

		assert.Equal(t, hashA, hashB)
		assert.Len(t, hashA, 64)
	})

	t.Run("Should differ when file size differs even with overlapping content", func(t *testing.T) {
		dir := t.TempDir()
		small := writeFile(t, dir, "small.bin", 1024)
		big := writeFile(t, dir, "big.bin", 2048)

		hashSmall, err := ShortHash(small)
		require.NoError(t, err)
		hashBig, err := ShortHash(big)
		require.NoError(t, err)

		assert.NotEqual(t, hashSmall, hashBig)
	})
}

func TestShortHash_LargeFileSamplesMiddleAndEnd(t *testing.T) {
	t.Run("Should detect a change in the middle of a large file", func(t *testing.T) {
		dir := t.TempDir()
		size := ShortHashLargeFileThreshold + ShortHashChunkSize
		pathA := filepath.Join(dir, "a.bin")
		pathB := filepath.Join(dir, "b.bin")

		dataA := make([]byte, size)
		dataB := make([]byte, size)
		copy(dataB, dataA)
		mid := size / 2
		dataB[mid] ^= 0xFF

		require.NoError(t, os.WriteFile(pathA, dataA, 0o644))
		require.NoError(t, os.WriteFile(pathB, dataB, 0o644))

		hashA, err := ShortHash(pathA)
		require.NoError(t, err)
		hashB, err := ShortHash(pathB)
		require.NoError(t, err)

		assert.NotEqual(t, hashA, hashB, "short hash should sample the middle chunk for files over the large threshold")
	})

	t.Run("Should ignore a change outside the sampled chunks for a large file", func(t *testing.T) {
		dir := t.TempDir()
		size := ShortHashLargeFileThreshold + ShortHashChunkSize*4
		pathA := filepath.Join(dir, "a.bin")
		pathB := filepath.Join(dir, "b.bin")

		dataA := make([]byte, size)
		dataB := make([]byte, size)
		copy(dataB, dataA)
		// Mutate a byte safely inside the unsampled gap between the start
		// chunk and the middle chunk.
		gapOffset := ShortHashChunkSize + 16
		dataB[gapOffset] ^= 0xFF

		require.NoError(t, os.WriteFile(pathA, dataA, 0o644))
		require.NoError(t, os.WriteFile(pathB, dataB, 0o644))

		hashA, err := ShortHash(pathA)
		require.NoError(t, err)
		hashB, err := ShortHash(pathB)
		require.NoError(t, err)

		assert.Equal(t, hashA, hashB)
	})
}

func TestFullBlake3AndSHA256(t *testing.T) {
	t.Run("Should compute stable full digests", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "file.bin", 4096)

		b3, err := FullBlake3(path)
		require.NoError(t, err)
		sha, err := FullSHA256(path)
		require.NoError(t, err)

		assert.Len(t, b3, 64)
		assert.Len(t, sha, 64)
		assert.NotEqual(t, b3, sha)
	})
}
