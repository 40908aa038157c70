// Package nodemap resolves a workflow's custom node types to registry
// package IDs using a prebuilt global mapping table, following the
// five-priority chain: per-workflow override, declared package id,
// exact input-signature match, type-only match, fuzzy substring match.
package nodemap

// PackageVersion is one installable version of a node package.
type PackageVersion struct {
	Version      string   `json:"version"`
	DownloadURL  string   `json:"download_url"`
	Dependencies []string `json:"dependencies"`
}

// Package is the display and distribution metadata for a node package,
// keyed by package id in Table.Packages.
type Package struct {
	ID          string                    `json:"-"`
	DisplayName string                    `json:"display_name"`
	Repository  string                    `json:"repository"`
	Versions    map[string]PackageVersion `json:"versions"`
}

// MappingEntry is one candidate in a compound key's ordered candidate
// list: a package id plus the compatible versions and the rank it was
// assigned when the table was generated.
type MappingEntry struct {
	PackageID string   `json:"package_id"`
	Versions  []string `json:"versions"`
	Rank      int      `json:"rank"`
	Source    string   `json:"source,omitempty"`
}

// Stats mirrors the table's generation metadata; carried through for
// diagnostics only.
type Stats struct {
	Packages   int    `json:"packages"`
	Signatures int    `json:"signatures"`
	TotalNodes int    `json:"total_nodes"`
	Augmented  bool   `json:"augmented"`
	Generated  string `json:"augmentation_date"`
}

// tableFile is the on-disk JSON shape of node_mappings.json.
type tableFile struct {
	Version     string                    `json:"version"`
	GeneratedAt string                    `json:"generated_at"`
	Stats       Stats                     `json:"stats"`
	Mappings    map[string][]MappingEntry `json:"mappings"`
	Packages    map[string]Package        `json:"packages"`
}

// Candidate is one package a node type could resolve to, tagged with how
// the match was made so callers (and the manifest, once a user
// confirms) can tell a cheap automatic hit from a fuzzy guess.
type Candidate struct {
	PackageID string
	MatchType MatchType
	Rank      int
	Package   *Package
}

// MatchType records which of the five resolution priorities produced a
// candidate.
type MatchType string

const (
	MatchCustomMapping MatchType = "custom_mapping"
	MatchProperties    MatchType = "properties"
	MatchExact         MatchType = "exact"
	MatchTypeOnly      MatchType = "type_only"
	MatchFuzzy         MatchType = "fuzzy"
	MatchUserConfirmed MatchType = "user_confirmed"
)

// NodeInput describes one input slot of a workflow node, in the order it
// appears on the node, for input-signature hashing.
type NodeInput struct {
	Name     string
	Type     string
	IsLinked bool
}

// CustomNodeChoice is a per-workflow override for a single node type,
// sourced from the workflow's custom_node_map. PackageID is honoured
// when Optional is false; Optional true means "confirmed not required",
// which still counts as a resolution (an empty candidate list that
// should not be reported as unresolved).
type CustomNodeChoice struct {
	PackageID string
	Optional  bool
}
