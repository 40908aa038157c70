package envstate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/manifest"
	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// Rollback implements the checkpoint-style restore: guard against
// discarding unreviewed work, snapshot the installed node set, apply
// the target version (or just discard uncommitted changes when target
// is empty), reconcile nodes and the virtual environment against the
// restored manifest, copy the committed workflow files back to the
// active ComfyUI directory, and — if anything actually changed — commit
// the result as a new version so rollback itself becomes history
// rather than rewriting it.
func (e *Engine) Rollback(ctx context.Context, target string, force bool, strategy RollbackStrategy) error {
	gitStatus, err := e.BuildGitStatus(ctx)
	if err != nil {
		return err
	}
	if gitStatus.HasChanges && !force {
		if strategy == nil {
			return xerrors.Newf(xerrors.KindEnvironmentCorrupt, map[string]any{"reason": "uncommitted changes"},
				"refusing rollback: uncommitted changes present and no confirmation strategy supplied")
		}
		ok, err := strategy.ConfirmDiscard(ctx, gitStatus)
		if err != nil {
			return err
		}
		if !ok {
			return xerrors.Newf(xerrors.KindEnvironmentCorrupt, nil, "rollback cancelled: uncommitted changes not discarded")
		}
	}

	before := snapshotNodeIDs(e.Store.Manifest().Nodes)

	if target != "" {
		if err := e.Git.ApplyVersion(ctx, target); err != nil {
			return err
		}
	} else {
		if err := e.Git.DiscardUncommitted(ctx); err != nil {
			return err
		}
	}

	restored, err := manifest.Load(e.Store.Path())
	if err != nil {
		return err
	}
	*e.Store = *restored

	after := snapshotNodeIDs(e.Store.Manifest().Nodes)
	anyNodeChange := !sameSet(before, after)

	if e.Nodes != nil {
		expected := expectedNodeInfo(e.Store.Manifest().Nodes)
		if _, err := e.Nodes.SyncNodesToFilesystem(ctx, expected, e.CustomNodesDir, e.Store.Manifest()); err != nil {
			return fmt.Errorf("reconcile nodes after rollback: %w", err)
		}
	}

	if e.Packages != nil {
		if err := e.Packages.Sync(ctx, e.EnvDir); err != nil {
			return fmt.Errorf("sync virtual environment after rollback: %w", err)
		}
	}

	if err := e.restoreWorkflowFiles(); err != nil {
		return fmt.Errorf("restore workflow files after rollback: %w", err)
	}

	if gitStatus.HasChanges || anyNodeChange || target != "" {
		label := target
		if label == "" {
			label = "working copy"
		}
		if err := e.Git.CommitAll(ctx, fmt.Sprintf("Rollback to %s", label)); err != nil {
			return err
		}
	}

	e.Metrics.recordRollback()

	return nil
}

// restoreWorkflowFiles copies every committed workflow JSON file (now
// restored into the git repository's working tree by ApplyVersion or
// DiscardUncommitted) over the active ComfyUI workflow copies, since
// those live in a separate directory outside the environment's git
// history.
func (e *Engine) restoreWorkflowFiles() error {
	committedDir := filepath.Join(e.Git.Path(), "workflows")
	entries, err := os.ReadDir(committedDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(e.WorkflowsDir, 0o755); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := copyFile(filepath.Join(committedDir, entry.Name()), filepath.Join(e.WorkflowsDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func snapshotNodeIDs(nodes map[string]manifest.Node) map[string]bool {
	set := make(map[string]bool, len(nodes))
	for id := range nodes {
		set[id] = true
	}
	return set
}

func sameSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
