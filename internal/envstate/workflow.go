package envstate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// BuildWorkflowStatus classifies every workflow file on disk and every
// workflow tracked in the manifest as synced, new, modified, or
// deleted, and — for each one still on disk — counts packages its
// current resolution calls for that aren't yet installed (the real
// on-disk gap: workflow.nodes minus the manifest's installed node set,
// not the resolver's in-flight candidate list).
func (e *Engine) BuildWorkflowStatus(ctx context.Context) (WorkflowStatus, error) {
	onDisk, err := workflowNamesOnDisk(e.WorkflowsDir)
	if err != nil {
		return WorkflowStatus{}, err
	}
	tracked := e.Store.Manifest().Workflows

	gitChanges, err := e.Git.GetWorkflowGitChanges(ctx)
	if err != nil {
		return WorkflowStatus{}, err
	}

	names := map[string]struct{}{}
	for name := range onDisk {
		names[name] = struct{}{}
	}
	for name := range tracked {
		names[name] = struct{}{}
	}

	status := WorkflowStatus{Status: map[string]string{}, UninstalledPackages: map[string]int{}, InSync: true}

	installedPackages := map[string]bool{}
	for id := range e.Store.Manifest().Nodes {
		installedPackages[id] = true
	}

	for name := range names {
		_, isOnDisk := onDisk[name]
		_, isTracked := tracked[name]

		var state string
		switch {
		case !isOnDisk && isTracked:
			state = "deleted"
		case isOnDisk && !isTracked:
			state = "new"
		case gitChanges[name] != "":
			state = gitChanges[name]
		default:
			state = "synced"
		}
		status.Status[name] = state
		if state != "synced" {
			status.InSync = false
		}

		if isOnDisk && e.Manager != nil {
			count, err := e.uninstalledPackageCount(ctx, name, installedPackages)
			if err == nil {
				status.UninstalledPackages[name] = count
			}
		}
	}

	return status, nil
}

func (e *Engine) uninstalledPackageCount(ctx context.Context, name string, installed map[string]bool) (int, error) {
	analysis, err := e.Manager.AnalyzeWorkflow(ctx, name, true)
	if err != nil {
		return 0, err
	}
	result := e.Manager.ResolveWorkflow(analysis)

	count := 0
	for _, nr := range result.ResolvedNodes {
		if nr.Optional {
			continue
		}
		if !installed[nr.PackageID] {
			count++
		}
	}
	return count, nil
}

func workflowNamesOnDisk(workflowsDir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(workflowsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, err
	}
	names := map[string]struct{}{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names[strings.TrimSuffix(filepath.Base(entry.Name()), ".json")] = struct{}{}
	}
	return names, nil
}
