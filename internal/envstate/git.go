package envstate

import (
	"context"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/manifest"
)

// BuildGitStatus diffs the committed manifest against the working-tree
// copy and classifies every workflow file's change, mirroring the
// source's GitManager.get_status: has_changes is true if either the
// manifest or any workflow differs from HEAD.
func (e *Engine) BuildGitStatus(ctx context.Context) (GitStatus, error) {
	diff, err := e.Git.Diff(ctx, manifest.FileName)
	if err != nil {
		return GitStatus{}, err
	}
	workflowChanges, err := e.Git.GetWorkflowGitChanges(ctx)
	if err != nil {
		return GitStatus{}, err
	}

	return GitStatus{
		HasChanges:      strings.TrimSpace(diff) != "" || len(workflowChanges) > 0,
		ManifestDiff:    diff,
		WorkflowChanges: workflowChanges,
	}, nil
}
