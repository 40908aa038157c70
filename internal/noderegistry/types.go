// Package noderegistry fetches custom-node metadata from the external node
// registry and from GitHub, caches both API responses and extracted node
// trees on disk, and reconciles a ComfyUI checkout's custom_nodes
// directory against an environment's declared node set.
package noderegistry

// SourceKind records where a node package came from.
type SourceKind string

const (
	SourceRegistry    SourceKind = "registry"
	SourceGit         SourceKind = "git"
	SourceDevelopment SourceKind = "development"
)

// NodeInfo describes one custom node as resolved from the registry or
// GitHub, independent of whether it is yet installed anywhere.
type NodeInfo struct {
	Name        string
	Repository  string
	Version     string
	CommitHash  string
	Source      SourceKind
	PackageID   string
	DownloadURL string
}

// NodePackage pairs a resolved NodeInfo with the Python requirement
// specifiers found in its source tree.
type NodePackage struct {
	Info         NodeInfo
	Requirements []string
}

// cacheKey identifies one extracted node tree in the on-disk custom-node
// cache: the same (source, identifier, version) tuple always maps to the
// same directory, so reinstalling an already-cached version is a local
// copy instead of a network round trip.
type cacheKey struct {
	Source     SourceKind
	Identifier string
	Version    string
}
