package workspace

import (
	"context"

	"github.com/comfyhub-org/comfygit/internal/envmanager"
	"github.com/comfyhub-org/comfygit/internal/envstate"
	"github.com/comfyhub-org/comfygit/internal/gitrepo"
	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/modelindex"
	"github.com/comfyhub-org/comfygit/internal/nodemap"
	"github.com/comfyhub-org/comfygit/internal/noderegistry"
	"github.com/comfyhub-org/comfygit/internal/uvrunner"
)

// Environment locates one environment's files; it owns no open
// resources itself. Building the subsystems that actually operate on it
// (git history, node resolution, status/sync/rollback) is Engine's job —
// keeping Environment a plain value lets ListEnvironments construct
// dozens of them without opening a database or a git process for each.
type Environment struct {
	Name  string
	Paths EnvironmentPaths
}

// EngineDeps are the process-wide, already-open resources an Engine
// needs beyond what Environment itself can resolve from its own paths:
// the model index (one database shared by the whole workspace) and the
// node-mapping table (one file shared by the whole workspace).
type EngineDeps struct {
	Models       *modelindex.Store
	NodeMappings *nodemap.Table
	Nodes        *noderegistry.Service
	Packages     envstate.PackageSyncer
}

// Engine opens this environment's manifest and git repository and wires
// them, together with deps, into an *envstate.Engine ready for
// Compare/Status/Sync/Rollback. Packages defaults to a plain
// *uvrunner.Runner when deps.Packages is nil.
func (e *Environment) Engine(ctx context.Context, globalModelsDir string, deps EngineDeps) (*envstate.Engine, error) {
	store, err := manifest.Load(e.Paths.ManifestPath)
	if err != nil {
		return nil, err
	}
	git := gitrepo.Open(e.Paths.CecPath)

	packages := deps.Packages
	if packages == nil {
		packages = uvrunner.New()
	}

	var manager *envmanager.Manager
	if deps.Models != nil && deps.NodeMappings != nil {
		manager = envmanager.New(store, deps.Models, deps.NodeMappings, git, e.Paths.WorkflowsActivePath)
	}

	return envstate.New(
		store, git, deps.Nodes, packages,
		e.Paths.Root, e.Paths.CustomNodesPath, e.Paths.WorkflowsActivePath, globalModelsDir,
		manager,
	), nil
}
