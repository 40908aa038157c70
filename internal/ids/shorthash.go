package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"lukechampine.com/blake3"
)

// ShortHashChunkSize is the size of each sampled region in ShortHash.
const ShortHashChunkSize = 5 * 1024 * 1024

// ShortHashLargeFileThreshold is the file size above which the middle and
// end chunks are sampled in addition to the start chunk.
const ShortHashLargeFileThreshold = 30 * 1024 * 1024

// ShortHash computes the model fingerprint used as the Model Repository's
// primary key: a blake3 digest of the decimal file size followed by the
// first ShortHashChunkSize bytes, and — for files larger than
// ShortHashLargeFileThreshold — the middle and last chunks of the same
// size. This samples in sub-second time for multi-gigabyte files while
// keeping the false-match probability negligible.
func ShortHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for short hash: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat file for short hash: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("short hash target is a directory: %s", path)
	}
	size := info.Size()

	hasher := blake3.New(32, nil)
	hasher.Write([]byte(strconv.FormatInt(size, 10)))

	start := make([]byte, ShortHashChunkSize)
	n, err := io.ReadFull(f, start)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read start chunk: %w", err)
	}
	hasher.Write(start[:n])

	if size > ShortHashLargeFileThreshold {
		middleOffset := size/2 - ShortHashChunkSize/2
		if err := hashAt(f, hasher, middleOffset); err != nil {
			return "", fmt.Errorf("read middle chunk: %w", err)
		}
		endOffset := size - ShortHashChunkSize
		if err := hashAt(f, hasher, endOffset); err != nil {
			return "", fmt.Errorf("read end chunk: %w", err)
		}
	}

	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum), nil
}

func hashAt(f *os.File, hasher *blake3.Hasher, offset int64) error {
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	buf := make([]byte, ShortHashChunkSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return err
	}
	hasher.Write(buf[:n])
	return nil
}

// FullBlake3 computes the full blake3 digest of the file, used only when a
// short-hash collision is detected or explicit verification is requested.
func FullBlake3(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for blake3: %w", err)
	}
	defer f.Close()

	hasher := blake3.New(32, nil)
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FullSHA256 computes the SHA256 digest of the file for external
// interoperability with ecosystem tooling that expects it.
func FullSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for sha256: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
