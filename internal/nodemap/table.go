package nodemap

import (
	"encoding/json"
	"os"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Table is the loaded global node-mapping file: compound keys
// ("NodeType::<signature>" or "NodeType::_") to ordered candidate
// lists, plus package metadata and a reverse GitHub-URL index built at
// load time.
type Table struct {
	Version  string
	Stats    Stats
	Mappings map[string][]MappingEntry
	Packages map[string]Package

	githubToPackage map[string]*Package
}

// Load reads and indexes node_mappings.json at path.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.New(xerrors.KindRegistryNotFound, err, map[string]any{"path": path})
	}
	var f tableFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, xerrors.New(xerrors.KindRegistryUnavailable, err, map[string]any{"path": path})
	}

	packages := make(map[string]Package, len(f.Packages))
	for id, pkg := range f.Packages {
		pkg.ID = id
		packages[id] = pkg
	}

	t := &Table{
		Version:  f.Version,
		Stats:    f.Stats,
		Mappings: f.Mappings,
		Packages: packages,
	}
	t.buildGithubIndex()
	return t, nil
}

func (t *Table) buildGithubIndex() {
	t.githubToPackage = make(map[string]*Package, len(t.Packages))
	for id := range t.Packages {
		pkg := t.Packages[id]
		if pkg.Repository == "" {
			continue
		}
		normalized := NormalizeGitHubURL(pkg.Repository)
		if normalized == "" {
			continue
		}
		p := pkg
		t.githubToPackage[normalized] = &p
	}
}

// ResolveGitHubURL looks a package up by its repository URL, normalizing
// both sides of the comparison first.
func (t *Table) ResolveGitHubURL(url string) (*Package, bool) {
	normalized := NormalizeGitHubURL(url)
	if normalized == "" {
		return nil, false
	}
	pkg, ok := t.githubToPackage[normalized]
	return pkg, ok
}
