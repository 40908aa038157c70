package envmanager

import (
	"context"

	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
)

// Manager wires the manifest store, model index, node-mapping table, and
// the environment's git history together into the four-step resolution
// pipeline. It holds no resolution state of its own — every call takes or
// returns a plain data value, so a driver can hold onto a WorkflowAnalysis
// or ResolutionResult across any number of turns of an interactive prompt.
type Manager struct {
	Store        *manifest.Store
	Models       *modelindex.Store
	Nodes        *nodemap.Table
	Git          *gitrepo.Repo
	WorkflowsDir string
}

// New builds a Manager. workflowsDir is the environment's active workflow
// directory (e.g. "<env>/user/default/workflows"), matched against the
// environment's git history at HEAD to compute sync state.
func New(store *manifest.Store, models *modelindex.Store, nodes *nodemap.Table, git *gitrepo.Repo, workflowsDir string) *Manager {
	return &Manager{Store: store, Models: models, Nodes: nodes, Git: git, WorkflowsDir: workflowsDir}
}

// modelIndex narrows Models to the interface modelresolve.Resolve needs.
func (m *Manager) modelIndex() modelIndexAdapter {
	return modelIndexAdapter{m.Models}
}

type modelIndexAdapter struct {
	store *modelindex.Store
}

func (a modelIndexAdapter) GetModel(ctx context.Context, hash string) (*modelindex.Model, error) {
	return a.store.GetModel(ctx, hash)
}

func (a modelIndexAdapter) FindByExactPath(ctx context.Context, relativePath string) (*modelindex.LocationWithModel, error) {
	return a.store.FindByExactPath(ctx, relativePath)
}

func (a modelIndexAdapter) FindByExactPathCaseInsensitive(ctx context.Context, relativePath string) ([]modelindex.LocationWithModel, error) {
	return a.store.FindByExactPathCaseInsensitive(ctx, relativePath)
}

func (a modelIndexAdapter) FindByFilename(ctx context.Context, substring string) ([]modelindex.LocationWithModel, error) {
	return a.store.FindByFilename(ctx, substring)
}
