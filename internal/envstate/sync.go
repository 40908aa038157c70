package envstate

import (
	"context"
	"os"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/noderegistry"
)

// Sync reconciles the environment's filesystem to match its manifest:
// drives the package manager's dependency sync, materializes or prunes
// custom node directories, and ensures ComfyUI's models/ path is a
// symlink into the shared global model directory. When dryRun is true,
// only the package manager's dry run is performed — custom node
// directories and the models symlink are neither compared nor touched,
// and nothing is written.
func (e *Engine) Sync(ctx context.Context, dryRun bool) (*SyncResult, error) {
	result := &SyncResult{Success: true}

	if e.Packages != nil {
		if dryRun {
			inSync, _, err := e.Packages.DryRunSync(ctx, e.EnvDir)
			if err != nil {
				result.Errors = append(result.Errors, err)
				result.Success = false
			} else {
				result.PackagesSynced = inSync
			}
		} else if err := e.Packages.Sync(ctx, e.EnvDir); err != nil {
			result.Errors = append(result.Errors, err)
			result.Success = false
		} else {
			result.PackagesSynced = true
		}
	}

	if dryRun {
		return result, nil
	}

	if e.Nodes != nil {
		expected := expectedNodeInfo(e.Store.Manifest().Nodes)
		report, err := e.Nodes.SyncNodesToFilesystem(ctx, expected, e.CustomNodesDir, e.Store.Manifest())
		if err != nil {
			result.Errors = append(result.Errors, err)
			result.Success = false
		} else {
			result.NodesInstalled = report.Installed
			result.NodesRemoved = report.Removed
			result.NodesDisabled = report.Disabled
			result.Errors = append(result.Errors, report.Errors...)
			if len(report.Errors) > 0 {
				result.Success = false
			}
		}
	}

	if err := e.ensureModelsSymlink(); err != nil {
		result.Errors = append(result.Errors, err)
		result.Success = false
	}

	e.Metrics.recordSync(len(result.Errors) > 0)

	return result, nil
}

// expectedNodeInfo maps the manifest's declared nodes into the shape
// SyncNodesToFilesystem needs. A "local" source has no registry/git
// location to (re)download from, so it's treated like a development
// checkout: present-and-missing is a warning, never an auto-install.
func expectedNodeInfo(nodes map[string]manifest.Node) map[string]noderegistry.NodeInfo {
	out := make(map[string]noderegistry.NodeInfo, len(nodes))
	for id, n := range nodes {
		source := noderegistry.SourceKind(n.Source)
		if n.Source == "" || n.Source == "local" {
			source = noderegistry.SourceDevelopment
		}
		out[id] = noderegistry.NodeInfo{
			Name: n.Name, Repository: n.Repository, Version: n.Version,
			CommitHash: n.CommitHash, Source: source, PackageID: n.PackageID,
		}
	}
	return out
}

func (e *Engine) ensureModelsSymlink() error {
	if e.GlobalModelsDir == "" {
		return nil
	}
	linkPath := e.EnvDir + "/ComfyUI/models"
	info, err := os.Lstat(linkPath)
	if err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		return nil // a real directory already there: leave user data alone
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(e.GlobalModelsDir, linkPath)
}
