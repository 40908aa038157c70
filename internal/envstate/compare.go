package envstate

import (
	"context"
	"os"
	"path/filepath"

	"github.com/comfyhub-org/comfygit/internal/gitrepo"
)

// Compare builds the manifest-vs-filesystem ComparisonStatus: every
// package id the manifest declares that has no corresponding directory
// under CustomNodesDir is missing; every directory with no declaring
// entry is extra; for nodes installed from a git-based source, a
// checked-out commit differing from the declared one is a version
// mismatch. The package-manager sync check is a separate, optional
// concern delegated to Packages.
func (e *Engine) Compare(ctx context.Context) (ComparisonStatus, error) {
	installed, err := installedNodeDirs(e.CustomNodesDir)
	if err != nil {
		return ComparisonStatus{}, err
	}

	declared := e.Store.Manifest().Nodes

	status := ComparisonStatus{PackagesInSync: true}

	for id := range declared {
		if _, ok := installed[id]; !ok {
			status.MissingNodes = append(status.MissingNodes, id)
		}
	}
	for id := range installed {
		if _, ok := declared[id]; !ok {
			status.ExtraNodes = append(status.ExtraNodes, id)
		}
	}

	for id, node := range declared {
		dir, ok := installed[id]
		if !ok || node.CommitHash == "" {
			continue
		}
		if node.Source != "registry" && node.Source != "git" {
			continue
		}
		actual, err := headCommit(ctx, dir)
		if err != nil || actual == "" {
			continue
		}
		if actual != node.CommitHash {
			status.VersionMismatches = append(status.VersionMismatches, VersionMismatch{
				PackageID: id, Expected: node.CommitHash, Actual: actual,
			})
		}
	}

	if e.Packages != nil {
		inSync, note, err := e.Packages.DryRunSync(ctx, e.EnvDir)
		if err != nil {
			return ComparisonStatus{}, err
		}
		status.PackagesInSync = inSync
		status.PackageSyncNote = note
	}

	return status, nil
}

func headCommit(ctx context.Context, nodeDir string) (string, error) {
	repo := gitrepo.Open(nodeDir)
	if !repo.Exists(ctx) {
		return "", nil
	}
	return repo.HeadCommit(ctx)
}

func installedNodeDirs(customNodesDir string) (map[string]string, error) {
	entries, err := os.ReadDir(customNodesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	dirs := make(map[string]string, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirs[entry.Name()] = filepath.Join(customNodesDir, entry.Name())
	}
	return dirs, nil
}
