// Package manifest owns the single TOML file that defines a comfygit
// environment: its ComfyUI project metadata, uv dependency configuration,
// custom node set, tracked workflows and their resolved models, and the
// workspace's node-type-to-registry-package mapping overrides.
package manifest

// Manifest is the root document persisted as manifest.toml inside an
// environment's .cec/ metadata directory.
type Manifest struct {
	Project      Project                `toml:"project"`
	Dependencies map[string][]string    `toml:"dependencies,omitempty"`
	UV           UVConfig               `toml:"uv"`
	Nodes        map[string]Node        `toml:"nodes,omitempty"`
	Workflows    map[string]Workflow    `toml:"workflows,omitempty"`
	Models       ModelTable             `toml:"models"`
	NodeMappings map[string]NodeMapping `toml:"node_mappings,omitempty"`
}

// Project carries the environment's identity and the ComfyUI version it was
// created against.
type Project struct {
	Name           string `toml:"name"`
	ComfyUIVersion string `toml:"comfyui_version,omitempty"`
	CreatedAt      string `toml:"created_at,omitempty"`
}

// UVConfig mirrors the [tool.uv] configuration uv itself understands:
// version constraints, extra package indexes, and named sources used to
// pin a dependency to a git ref, local path, or specific index.
type UVConfig struct {
	Constraints []string            `toml:"constraints,omitempty"`
	Indexes     []Index             `toml:"index,omitempty"`
	Sources     map[string][]Source `toml:"sources,omitempty"`
}

// Index is an extra package index uv should consult, e.g. a PyTorch wheel
// index for a specific CUDA version.
type Index struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Source pins a single dependency to something other than PyPI: a git
// ref, a local path, or an explicit index, optionally restricted by one or
// more environment markers (e.g. a CUDA vs CPU torch build).
type Source struct {
	Index   string   `toml:"index,omitempty"`
	Git     string   `toml:"git,omitempty"`
	Rev     string   `toml:"rev,omitempty"`
	Path    string   `toml:"path,omitempty"`
	URL     string   `toml:"url,omitempty"`
	Markers []string `toml:"marker,omitempty"`
}

// Node records one installed custom node: where it came from and at what
// version, so the environment can be reconstructed on another machine.
type Node struct {
	Name       string `toml:"name"`
	Repository string `toml:"repository,omitempty"`
	Version    string `toml:"version,omitempty"`
	CommitHash string `toml:"commit_hash,omitempty"`
	Source     string `toml:"source,omitempty"` // "registry" | "git" | "local" | "development"
	PackageID  string `toml:"package_id,omitempty"`
}

// Workflow tracks a single workflow file's dependency resolution state.
type Workflow struct {
	Requires WorkflowRequires `toml:"requires"`
}

// WorkflowRequires is the resolved set of models, node packages, and node
// locations a workflow needs to run, keyed the way the resolver and UI
// need to look them up.
type WorkflowRequires struct {
	Nodes         []string                `toml:"nodes,omitempty"`
	CustomNodeMap map[string]any          `toml:"custom_node_map,omitempty"`
	Models        []ModelRef              `toml:"models,omitempty"`
	NodeLocations map[string]NodeLocation `toml:"node_locations,omitempty"`
}

// ModelRef is one model reference inside a workflow's requires.models list.
// Resolved refs are keyed by Hash; unresolved ones by the (NodeID,
// WidgetIndex) pair, so a later resolution for the same slot replaces
// rather than duplicates the entry.
//
// A download intent (the model resolution strategy chose "fetch this URL"
// rather than picking an indexed model) is recorded with Status
// "unresolved", Sources holding the URL, RelativePath holding the target
// path, and Hash empty; a later sync pass resolves it and flips Status to
// "resolved" once the Model Downloader has hashed and indexed the file.
type ModelRef struct {
	NodeID       string   `toml:"node_id"`
	WidgetIndex  int      `toml:"widget_index"`
	Filename     string   `toml:"filename"`
	Hash         string   `toml:"hash,omitempty"`
	Resolved     bool     `toml:"resolved"`
	Status       string   `toml:"status,omitempty"` // "resolved" | "unresolved"; empty means resolved for pre-existing manifests
	Sources      []string `toml:"sources,omitempty"`
	RelativePath string   `toml:"relative_path,omitempty"`
}

// NodeLocation records which node type occupies a given workflow node id,
// and (if known) the commit the workflow was last classified against — the
// basis for distinguishing built-in nodes from custom ones shipped only in
// a development checkout.
type NodeLocation struct {
	ClassType string `toml:"class_type"`
	GitHash    string `toml:"git_hash,omitempty"`
}

// ModelTable splits tracked models into required (needed to run any tracked
// workflow) and optional (user-managed). Neither category is pruned
// automatically; entries leave only through RemoveModel.
type ModelTable struct {
	Required map[string]ModelEntry `toml:"required,omitempty"`
	Optional map[string]ModelEntry `toml:"optional,omitempty"`
}

// ModelEntry is one row of the model manifest, serialized as an inline
// table. Hash is the map key (the model's short hash) and is not repeated
// in the struct.
type ModelEntry struct {
	Filename string            `toml:"filename"`
	FileSize int64             `toml:"file_size"`
	Blake3   string            `toml:"blake3_hash,omitempty"`
	SHA256   string            `toml:"sha256_hash,omitempty"`
	Metadata map[string]string `toml:"metadata,omitempty"`
}

// NodeMapping resolves a node type (or a compound "node-type::signature"
// key, used when a type name alone is ambiguous) to the registry package
// that owns it. It is workspace-local: priority 3 in the node resolution
// chain, consulted after an exact registry match and before the fuzzy
// fallback search.
type NodeMapping struct {
	PackageID string `toml:"package_id"`
	Source    string `toml:"source,omitempty"`
}
