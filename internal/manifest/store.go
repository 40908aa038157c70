package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"

	"github.com/comfyhub-org/comfygit/internal/logging"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// FileName is the manifest's on-disk name inside an environment's metadata
// directory.
const FileName = "manifest.toml"

// Store owns reading and atomically rewriting one manifest file.
type Store struct {
	path string
	m    *Manifest
}

// Load reads and parses the manifest at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xerrors.New(xerrors.KindManifestNotFound, err, map[string]any{"path": path})
		}
		return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"path": path})
	}
	if len(data) == 0 {
		return nil, xerrors.Newf(xerrors.KindManifestInvalid, map[string]any{"path": path}, "manifest file is empty")
	}
	m := New("")
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, xerrors.New(xerrors.KindManifestInvalid, err, map[string]any{"path": path})
	}
	normalize(m)
	return &Store{path: path, m: m}, nil
}

// New builds an empty Manifest ready to be populated and saved for the
// first time.
func New(projectName string) *Manifest {
	m := &Manifest{Project: Project{Name: projectName}}
	normalize(m)
	return m
}

// normalize ensures every map field is non-nil so handler methods never
// have to special-case a fresh manifest.
func normalize(m *Manifest) {
	if m.Dependencies == nil {
		m.Dependencies = map[string][]string{}
	}
	if m.UV.Sources == nil {
		m.UV.Sources = map[string][]Source{}
	}
	if m.Nodes == nil {
		m.Nodes = map[string]Node{}
	}
	if m.Workflows == nil {
		m.Workflows = map[string]Workflow{}
	}
	if m.Models.Required == nil {
		m.Models.Required = map[string]ModelEntry{}
	}
	if m.Models.Optional == nil {
		m.Models.Optional = map[string]ModelEntry{}
	}
	if m.NodeMappings == nil {
		m.NodeMappings = map[string]NodeMapping{}
	}
}

// Create builds a Store backed by path with a freshly initialized manifest,
// without writing it yet.
func Create(path, projectName string) *Store {
	return &Store{path: path, m: New(projectName)}
}

// Manifest returns the mutable in-memory document. Handler methods operate
// on the Store directly; callers needing read access to e.g. Project use
// this.
func (s *Store) Manifest() *Manifest { return s.m }

// Path returns the file path this Store reads and writes.
func (s *Store) Path() string { return s.path }

// Save elides empty sub-tables bottom-up, renders the manifest with stable
// TOML formatting, and writes it atomically (write to a sibling temp file,
// then rename over the destination) so a crash mid-write never leaves a
// truncated manifest behind.
func (s *Store) Save(ctx context.Context) error {
	log := logging.FromContext(ctx)
	elideEmpty(s.m)

	body, err := render(s.m)
	if err != nil {
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}
	if err := tmp.Close(); err != nil {
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return xerrors.New(xerrors.KindManifestWriteFailed, err, map[string]any{"path": s.path})
	}
	log.Debug("manifest saved", "path", s.path)
	return nil
}

// elideEmpty drops sub-tables that have become empty through removal, from
// the leaves up, so Save never writes a dangling `[nodes]` with nothing
// under it.
func elideEmpty(m *Manifest) {
	for k, v := range m.Dependencies {
		if len(v) == 0 {
			delete(m.Dependencies, k)
		}
	}
	for name, srcs := range m.UV.Sources {
		kept := srcs[:0]
		for _, src := range srcs {
			if !isZeroSource(src) {
				kept = append(kept, src)
			}
		}
		if len(kept) == 0 {
			delete(m.UV.Sources, name)
		} else {
			m.UV.Sources[name] = kept
		}
	}
}

func isZeroSource(s Source) bool {
	return s.Index == "" && s.Git == "" && s.Path == "" && s.URL == "" && len(s.Markers) == 0
}

// groupSlug derives the manifest's dependency-group name for a custom node:
// a URL/identifier-safe slug of its display name, suffixed with the first
// 8 hex characters of the sha256 of its repository URL (or, for nodes with
// no repository, its identifier), so two nodes with the same display name
// but different repositories get different groups. The name is part of
// the slug, so renaming a node changes its group.
func groupSlug(name, repositoryOrIdentifier string) string {
	sum := sha256.Sum256([]byte(repositoryOrIdentifier))
	return fmt.Sprintf("%s-%s", slug.Make(name), hex.EncodeToString(sum[:])[:8])
}
