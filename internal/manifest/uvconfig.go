package manifest

// protectedSourceNames are uv source names comfygit itself manages for
// every environment (the PyTorch CPU/CUDA wheel indexes) and therefore
// never removes as "orphaned", even when no node currently references them.
var protectedSourceNames = map[string]bool{
	"torch":       true,
	"torchvision": true,
	"torchaudio":  true,
	"pytorch-cpu": true,
	"pytorch-cu118": true,
	"pytorch-cu121": true,
	"pytorch-cu124": true,
	"pytorch-cu128": true,
}

// AddConstraint appends a version constraint line (e.g. "numpy<2") if not
// already present.
func (m *Manifest) AddConstraint(constraint string) {
	for _, c := range m.UV.Constraints {
		if c == constraint {
			return
		}
	}
	m.UV.Constraints = append(m.UV.Constraints, constraint)
}

// RemoveConstraint drops constraint if present.
func (m *Manifest) RemoveConstraint(constraint string) {
	out := m.UV.Constraints[:0]
	for _, c := range m.UV.Constraints {
		if c != constraint {
			out = append(out, c)
		}
	}
	m.UV.Constraints = out
}

// AddIndex registers an extra package index, replacing any existing index
// of the same name.
func (m *Manifest) AddIndex(idx Index) {
	for i, existing := range m.UV.Indexes {
		if existing.Name == idx.Name {
			m.UV.Indexes[i] = idx
			return
		}
	}
	m.UV.Indexes = append(m.UV.Indexes, idx)
}

// AddSource registers src as the (sole) source for name, replacing any
// existing single-source entry.
func (m *Manifest) AddSource(name string, src Source) {
	m.UV.Sources[name] = []Source{src}
}

// AddURLSources registers a multi-source entry: one alternative URL source
// per entry in urlsWithMarkers, used when a dependency needs a different
// wheel URL depending on platform/accelerator markers (CPU vs CUDA builds).
// If group is non-empty, the dependency name is also added to that
// dependency group so it is actually installed.
func (m *Manifest) AddURLSources(name string, urlsWithMarkers map[string][]string, group string) {
	srcs := make([]Source, 0, len(urlsWithMarkers))
	for url, markers := range urlsWithMarkers {
		srcs = append(srcs, Source{URL: url, Markers: markers})
	}
	m.UV.Sources[name] = srcs
	if group != "" {
		m.AddToGroup(group, name)
	}
}

// CleanupOrphanedSources removes every source in removedSources whose
// package name no dependency group mentions, except the protected system
// source names. Node entries are not consulted: a source is kept only
// when some dependency group names its package.
func (m *Manifest) CleanupOrphanedSources(removedSources []string) {
	referenced := m.referencedSourceNames()
	for _, name := range removedSources {
		if protectedSourceNames[name] {
			continue
		}
		if referenced[name] {
			continue
		}
		delete(m.UV.Sources, name)
	}
}

// referencedSourceNames collects every package name mentioned by a
// dependency group, since a uv source is only meaningful while something
// actually depends on that package name.
func (m *Manifest) referencedSourceNames() map[string]bool {
	refs := make(map[string]bool)
	for _, specs := range m.Dependencies {
		for _, spec := range specs {
			refs[packageNameFromSpec(spec)] = true
		}
	}
	return refs
}

// packageNameFromSpec extracts the bare package name from a pip-style
// specifier like "numpy>=1.24,<2".
func packageNameFromSpec(spec string) string {
	for i, r := range spec {
		switch {
		case r == '=' || r == '<' || r == '>' || r == '!' || r == '~' || r == '[' || r == ' ':
			return spec[:i]
		}
	}
	return spec
}
