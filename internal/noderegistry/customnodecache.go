package noderegistry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/logging"
)

// CustomNodeCacheManager stores extracted custom-node trees under
// <cacheDir>/custom_nodes/<source>/<identifier>/<version>, keyed by the
// same (source, identifier, version) tuple the registry and GitHub
// clients resolve a node to. The cache is write-once per key: once a
// version has been extracted, it is never mutated, only copied from.
type CustomNodeCacheManager struct {
	baseDir string
}

// NewCustomNodeCacheManager roots the cache at baseDir (normally
// "<workspace>/comfydock_cache/custom_nodes").
func NewCustomNodeCacheManager(baseDir string) *CustomNodeCacheManager {
	return &CustomNodeCacheManager{baseDir: baseDir}
}

func (c *CustomNodeCacheManager) pathFor(key cacheKey) string {
	identifier := sanitizeSegment(key.Identifier)
	version := sanitizeSegment(key.Version)
	if version == "" {
		version = "unversioned"
	}
	return filepath.Join(c.baseDir, string(key.Source), identifier, version)
}

// sanitizeSegment keeps a cache-key component safe to use as a single
// path segment: identifiers and GitHub URLs contain slashes, which would
// otherwise introduce unintended subdirectories.
func sanitizeSegment(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '/', '\\', ':':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// CachedPath returns the directory a node is cached at, if present.
func (c *CustomNodeCacheManager) CachedPath(info NodeInfo) (string, bool) {
	path := c.pathFor(cacheKey{Source: info.Source, Identifier: cacheIdentifier(info), Version: info.Version})
	if st, err := os.Stat(path); err == nil && st.IsDir() {
		return path, true
	}
	return "", false
}

// cacheIdentifier picks the stable identifier a node is cached under:
// the registry package ID when known, otherwise its repository URL.
func cacheIdentifier(info NodeInfo) string {
	if info.PackageID != "" {
		return info.PackageID
	}
	return info.Repository
}

// CacheNode copies sourcePath (a just-downloaded or cloned node tree)
// into the cache for future reuse.
func (c *CustomNodeCacheManager) CacheNode(ctx context.Context, info NodeInfo, sourcePath string) error {
	log := logging.FromContext(ctx)
	dest := c.pathFor(cacheKey{Source: info.Source, Identifier: cacheIdentifier(info), Version: info.Version})
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create cache parent for %s: %w", info.Name, err)
	}
	if _, err := os.Stat(dest); err == nil {
		log.Debug("node already cached", "node", info.Name, "path", dest)
		return nil
	}
	if err := copyTree(sourcePath, dest); err != nil {
		return fmt.Errorf("cache node %s: %w", info.Name, err)
	}
	log.Info("cached node tree", "node", info.Name, "path", dest)
	return nil
}

// copyTree recursively copies src to dst, creating dst's parent
// directories as needed. It does not follow symlinks.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
