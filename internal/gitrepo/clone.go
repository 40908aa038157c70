package gitrepo

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/comfyhub-org/comfygit/internal/xerrors"
)

// ShallowClone clones url into dest at depth 1, optionally checking out
// ref (a branch, tag, or commit uv/git can resolve directly). It is a
// package-level function rather than a Repo method because the clone
// target is not yet a Repo's working tree — it becomes one (a ComfyUI
// checkout nested inside an environment) only after this call succeeds.
func ShallowClone(ctx context.Context, url, dest, ref string) error {
	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return xerrors.New(xerrors.KindGitCommandError, err, map[string]any{
			"url": url, "ref": ref, "stderr": strings.TrimSpace(stderr.String()),
		})
	}
	return nil
}

// RevParse resolves ref (typically "HEAD") to a full commit hash inside
// the repository rooted at dir, without requiring a Repo to already be
// open there — used right after ShallowClone to record the exact commit
// a ComfyUI checkout pinned to a branch actually landed on.
func RevParse(ctx context.Context, dir, ref string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", ref)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", xerrors.New(xerrors.KindGitCommandError, err, map[string]any{
			"dir": dir, "ref": ref, "stderr": strings.TrimSpace(stderr.String()),
		})
	}
	return strings.TrimSpace(stdout.String()), nil
}
