// Package envstate computes an environment's status against its
// manifest — what's installed versus declared, what's changed since the
// last commit, which workflows are synced — and drives the two
// operations that reconcile drift: Sync and Rollback.
package envstate

import (
	"context"

	"github.com/comfyhub-org/comfygit/internal/envmanager"
	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/noderegistry"
)

// ComparisonStatus is the manifest-vs-filesystem comparison: what the
// manifest declares against what's actually installed under the
// custom-nodes directory, plus whether the package manager reports the
// virtual environment in sync with the lock file.
type ComparisonStatus struct {
	MissingNodes      []string // declared in the manifest, not found on disk
	ExtraNodes        []string // found on disk, not declared in the manifest
	VersionMismatches []VersionMismatch
	PackagesInSync    bool
	PackageSyncNote   string
}

// IsSynced reports whether the comparison found no drift at all.
func (c ComparisonStatus) IsSynced() bool {
	return len(c.MissingNodes) == 0 && len(c.ExtraNodes) == 0 && len(c.VersionMismatches) == 0 && c.PackagesInSync
}

// VersionMismatch is one node package whose installed commit differs
// from the manifest's declared one.
type VersionMismatch struct {
	PackageID string
	Expected  string
	Actual    string
}

// GitStatus is the environment repository's change status: whether
// anything is uncommitted, the raw manifest diff, and a per-workflow
// change classification from git's own working-tree status.
type GitStatus struct {
	HasChanges      bool
	ManifestDiff    string
	WorkflowChanges map[string]string // workflow name -> "modified" | "added" | "deleted"
}

// WorkflowStatus classifies every workflow found on disk or tracked in
// the manifest, and carries each one's pending resolution work.
type WorkflowStatus struct {
	InSync bool
	Status map[string]string // workflow name -> "synced" | "new" | "modified" | "deleted"
	// UninstalledPackages counts, per workflow, entries present in the
	// workflow's resolved node set but absent from the manifest's
	// installed node set — the real on-disk gap, not the resolver's
	// intermediate candidate state.
	UninstalledPackages map[string]int
}

// EnvironmentStatus is the full three-part status spec.md's state
// engine computes for one environment.
type EnvironmentStatus struct {
	Comparison ComparisonStatus
	Git        GitStatus
	Workflows  WorkflowStatus
}

// SyncResult accumulates what Sync did.
type SyncResult struct {
	PackagesSynced bool
	NodesInstalled []string
	NodesRemoved   []string
	NodesDisabled  []string
	Errors         []error
	Success        bool
}

// PackageSyncer is the narrow interface Sync and Compare need from the
// package-manager subprocess driver — kept here rather than importing
// internal/uvrunner directly so envstate has no dependency on a
// concrete process-execution strategy.
type PackageSyncer interface {
	// DryRunSync reports whether the virtual environment already
	// matches the lock file, without changing anything.
	DryRunSync(ctx context.Context, envDir string) (inSync bool, note string, err error)
	// Sync brings the virtual environment in line with the lock file
	// for every dependency group.
	Sync(ctx context.Context, envDir string) error
}

// RollbackStrategy is consulted when Rollback finds uncommitted changes
// and force was not requested — the interactive confirmation point of
// the checkpoint-rollback contract.
type RollbackStrategy interface {
	ConfirmDiscard(ctx context.Context, status GitStatus) (bool, error)
}

// Engine wires together everything status computation and
// reconciliation need for one environment.
type Engine struct {
	Store          *manifest.Store
	Git            *gitrepo.Repo
	Nodes          *noderegistry.Service
	Packages       PackageSyncer
	EnvDir         string // environment root, e.g. "<workspace>/environments/<name>"
	CustomNodesDir string // "<EnvDir>/ComfyUI/custom_nodes"
	WorkflowsDir   string // "<EnvDir>/ComfyUI/user/default/workflows"
	GlobalModelsDir string
	Manager        *envmanager.Manager
	Metrics        *Metrics
}

// New builds an Engine. Packages may be nil if the caller never
// intends to call Sync/Compare's package-manager check (e.g. a
// read-only status view), in which case PackagesInSync is reported true
// with no note.
func New(
	store *manifest.Store,
	git *gitrepo.Repo,
	nodes *noderegistry.Service,
	packages PackageSyncer,
	envDir, customNodesDir, workflowsDir, globalModelsDir string,
	manager *envmanager.Manager,
) *Engine {
	return &Engine{
		Store: store, Git: git, Nodes: nodes, Packages: packages,
		EnvDir: envDir, CustomNodesDir: customNodesDir, WorkflowsDir: workflowsDir,
		GlobalModelsDir: globalModelsDir, Manager: manager,
	}
}
